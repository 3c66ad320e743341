// staff manages the roster of executives and admins who can sign in.
//
// Usage:
//
//	staff add --username thabo --name "Thabo M" --role EXEC --password ...
//	staff import roster.yaml
//	staff list
//
// Storage is selected with the same DATABASE_TYPE, DATABASE_URL and
// SQLITE_PATH variables the API uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/JayMiller08/sci-sa-gala/internal/app"
	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/config"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
	"github.com/JayMiller08/sci-sa-gala/internal/roster"
	"github.com/JayMiller08/sci-sa-gala/internal/storage"
)

const usage = `usage: staff <command> [flags]

commands:
  add      create or update one staff member
  import   upsert every staff member in a YAML roster file
  list     print the current roster
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "add":
		return runAdd(ctx, logger, rest, out)
	case "import":
		return runImport(ctx, logger, rest, out)
	case "list":
		return runList(ctx, logger, rest, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func openStaffService(ctx context.Context, logger *slog.Logger) (*app.StaffService, func(), error) {
	cfg, err := config.LoadStorage(logger)
	if err != nil {
		return nil, nil, err
	}
	repos, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return app.NewStaffService(repos.Staff, clock.NewSystem()), repos.Close, nil
}

func runAdd(ctx context.Context, logger *slog.Logger, args []string, out io.Writer) error {
	var in app.AddStaffInput
	flags := pflag.NewFlagSet("staff add", pflag.ContinueOnError)
	flags.StringVarP(&in.Username, "username", "u", "", "sign-in name (case-insensitive)")
	flags.StringVarP(&in.DisplayName, "name", "n", "", "name shown on sales records")
	flags.StringVarP(&in.Role, "role", "r", string(domain.RoleExec), "EXEC or ADMIN")
	flags.StringVarP(&in.Password, "password", "p", "", "plaintext password, hashed before it is stored")
	flags.StringVar(&in.PasswordHash, "password-hash", "", "existing bcrypt hash")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	svc, closeStore, err := openStaffService(ctx, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	staff, err := svc.AddStaff(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %s (%s, %s)\n", staff.Username, staff.DisplayName, staff.Role)
	return nil
}

func runImport(ctx context.Context, logger *slog.Logger, args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("staff import", pflag.ContinueOnError)
	dryRun := flags.Bool("dry-run", false, "validate the roster without writing it")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("import takes exactly one roster file")
	}

	entries, err := roster.LoadFile(flags.Arg(0))
	if err != nil {
		return err
	}
	if *dryRun {
		fmt.Fprintf(out, "%d staff entries are valid\n", len(entries))
		return nil
	}

	svc, closeStore, err := openStaffService(ctx, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	saved, err := svc.ImportRoster(ctx, entries)
	if err != nil {
		return err
	}
	return printStaff(out, saved)
}

func runList(ctx context.Context, logger *slog.Logger, args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("staff list", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}

	svc, closeStore, err := openStaffService(ctx, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	staff, err := svc.ListStaff(ctx)
	if err != nil {
		return err
	}
	return printStaff(out, staff)
}

func printStaff(out io.Writer, staff []domain.Staff) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tNAME\tROLE")
	for _, s := range staff {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Username, s.DisplayName, s.Role)
	}
	return w.Flush()
}

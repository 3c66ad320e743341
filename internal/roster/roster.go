// Package roster reads the YAML staff roster used to provision accounts.
//
//	staff:
//	  - username: thabo
//	    name: Thabo Mokoena
//	    role: EXEC
//	    password: change-me
//	  - username: naledi
//	    name: Naledi Dlamini
//	    role: ADMIN
//	    password_hash: $2a$10$...
package roster

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JayMiller08/sci-sa-gala/internal/app"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

type Entry struct {
	Username     string `yaml:"username"`
	Name         string `yaml:"name"`
	Role         string `yaml:"role"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
}

type File struct {
	Staff []Entry `yaml:"staff"`
}

// Load parses and checks a roster. Unknown keys are rejected.
func Load(r io.Reader) ([]app.AddStaffInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("roster is empty")
		}
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(f.Staff) == 0 {
		return nil, errors.New("roster has no staff entries")
	}

	seen := make(map[string]int, len(f.Staff))
	out := make([]app.AddStaffInput, 0, len(f.Staff))
	var errs []error
	for i, e := range f.Staff {
		pos := i + 1
		username := strings.ToLower(strings.TrimSpace(e.Username))
		if username == "" {
			errs = append(errs, fmt.Errorf("entry %d: username is required", pos))
			continue
		}
		if prev, dup := seen[username]; dup {
			errs = append(errs, fmt.Errorf("entry %d: username %q already used by entry %d", pos, username, prev))
			continue
		}
		seen[username] = pos

		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("entry %d (%s): name is required", pos, username))
		}
		if _, err := domain.ParseRole(e.Role); err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", pos, username, err))
		}
		switch {
		case e.Password == "" && e.PasswordHash == "":
			errs = append(errs, fmt.Errorf("entry %d (%s): password or password_hash is required", pos, username))
		case e.Password != "" && e.PasswordHash != "":
			errs = append(errs, fmt.Errorf("entry %d (%s): set only one of password and password_hash", pos, username))
		}

		out = append(out, app.AddStaffInput{
			Username:     username,
			DisplayName:  strings.TrimSpace(e.Name),
			Role:         e.Role,
			Password:     e.Password,
			PasswordHash: e.PasswordHash,
		})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFile reads a roster from disk.
func LoadFile(path string) ([]app.AddStaffInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return Load(f)
}

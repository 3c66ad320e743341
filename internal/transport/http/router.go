package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

// AuthService covers session lookup plus login and logout.
type AuthService interface {
	SessionAuthenticator
	LoginService
}

// AdminService covers the privileged event and fault operations.
type AdminService interface {
	EventAdmin
	FaultService
}

// Services are the application services behind the routes.
type Services struct {
	Auth     AuthService
	Sales    SaleService
	EventDay EventDayService
	Admin    AdminService
	Health   Pinger
}

type RouterConfig struct {
	CORSOrigins []string
	Cookie      CookieConfig
	Logger      *slog.Logger
}

// NewRouter builds the HTTP surface: routing, session guards, CORS and
// request logging.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HandleHealth(svc.Health))

	r.Group(func(r chi.Router) {
		r.Use(LoadSession(svc.Auth, logger))

		r.With(Guard(false, domain.RoleNone)).Post("/api/login", HandleLogin(svc.Auth, cfg.Cookie, logger))
		r.Post("/api/logout", HandleLogout(svc.Auth, cfg.Cookie, logger))

		r.Group(func(r chi.Router) {
			r.Use(Guard(true, domain.RoleNone))

			r.Get("/api/session-info", HandleSessionInfo())
			r.Post("/sell-ticket", HandleSellTicket(svc.Sales, logger))
			r.Post("/sell-ticket/resolve", HandleResolveDuplicate(svc.Sales, logger))
			r.Get("/my-sales", HandleMySales(svc.Sales, logger))
			r.Get("/admin/eventday-status", HandleEventDayStatus(svc.EventDay, logger))
			r.Get("/admin/eventday-used", HandleEventDayUsed(svc.EventDay, logger))
			r.Post("/eventday/grant-access", HandleGrantAccess(svc.EventDay, logger))
		})

		r.Group(func(r chi.Router) {
			r.Use(Guard(true, domain.RoleAdmin))

			r.Get("/admin/all-sales", HandleAllSales(svc.Sales, logger))
			r.Post("/admin/eventday-enable", HandleEventDayEnable(svc.Admin, logger))
			r.Post("/admin/eventday-schedule", HandleEventDaySchedule(svc.Admin, logger))
			r.Post("/admin/log-fault", HandleLogFault(svc.Admin, logger))
			r.Get("/admin/faults", HandleListFaults(svc.Admin, logger))
		})
	})

	return RequestLogger(CORS(cfg.CORSOrigins, r), logger)
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JayMiller08/sci-sa-gala/internal/app"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
	"github.com/JayMiller08/sci-sa-gala/internal/session"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "gala_session"

// SessionAuthenticator resolves a token to a live session.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Session, error)
}

// LoginService opens and closes sessions.
type LoginService interface {
	Login(ctx context.Context, username, password string) (app.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// CookieConfig controls how the session cookie is written.
type CookieConfig struct {
	Secure bool
}

type sessionKey struct{}

// SessionFromContext returns the session attached by LoadSession, or nil.
func SessionFromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return sess
}

func withSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// LoadSession attaches the caller's session to the request context. Missing,
// invalid and expired tokens leave the request anonymous.
func LoadSession(auth SessionAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if domain.KindOf(err) == domain.KindUnauthorized {
					next.ServeHTTP(w, r)
					return
				}
				writeDomainError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), &sess)))
		})
	}
}

// Guard enforces a route's access rule. requireAuth=false marks an
// anonymous-only route.
func Guard(requireAuth bool, requireRole domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			decision := session.Authorize(sess, requireAuth, requireRole)
			switch decision {
			case session.Allow:
				next.ServeHTTP(w, r)
			case session.RedirectToLogin:
				writeErrorResponse(w, http.StatusUnauthorized, errorResponse{
					Error:    domain.ErrUnauthorized.Message,
					Code:     domain.ErrUnauthorized.Code,
					Redirect: session.RedirectTarget(decision, sess),
				})
			case session.RedirectToHome:
				writeErrorResponse(w, http.StatusForbidden, errorResponse{
					Error:    domain.ErrForbidden.Message,
					Code:     domain.ErrForbidden.Code,
					Redirect: session.RedirectTarget(decision, sess),
				})
			}
		})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type loginResponse struct {
	sessionResponse
	Token string `json:"token"`
}

func toSessionResponse(sess domain.Session) sessionResponse {
	return sessionResponse{
		Role:      string(sess.Role),
		Name:      sess.DisplayName,
		UserID:    sess.UserID,
		ExpiresAt: sess.ExpiresAt,
	}
}

// HandleLogin checks credentials and sets the session cookie.
func HandleLogin(svc LoginService, cookie CookieConfig, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeJSON(w, r, &req) {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		res, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeDomainError(w, r, logger, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    res.Token,
			Path:     "/",
			Expires:  res.Session.ExpiresAt,
			HttpOnly: true,
			Secure:   cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, loginResponse{
			sessionResponse: toSessionResponse(res.Session),
			Token:           res.Token,
		})
	}
}

// HandleLogout ends the caller's session, if any, and clears the cookie.
func HandleLogout(svc LoginService, cookie CookieConfig, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := tokenFromRequest(r); token != "" {
			if err := svc.Logout(r.Context(), token); err != nil {
				writeDomainError(w, r, logger, err)
				return
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSessionInfo returns the caller's session.
func HandleSessionInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Code, domain.ErrUnauthorized.Message)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(*sess))
	}
}

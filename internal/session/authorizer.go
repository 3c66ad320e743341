package session

import (
	"context"
	"errors"
	"sync"

	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

// Source fetches the caller's current session from the server.
type Source interface {
	FetchSession(ctx context.Context) (domain.Session, error)
}

// Authorizer holds the client-side session state: the session (or none),
// whether a fetch is in flight, and the last fetch error.
type Authorizer struct {
	source Source
	clock  clock.Clock

	mu      sync.RWMutex
	session *domain.Session
	loading bool
	err     string
}

func NewAuthorizer(source Source, clk clock.Clock) *Authorizer {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Authorizer{source: source, clock: clk}
}

// Resolve fetches the session from the source. An unauthorized answer clears
// the session without recording an error; any other failure clears it and
// records the message. The loading flag is reset on every exit path, and a
// panicking source leaves no session behind.
func (a *Authorizer) Resolve(ctx context.Context) error {
	a.mu.Lock()
	a.loading = true
	a.err = ""
	a.mu.Unlock()

	completed := false
	defer func() {
		a.mu.Lock()
		a.loading = false
		if !completed {
			a.session = nil
		}
		a.mu.Unlock()
	}()

	sess, err := a.source.FetchSession(ctx)
	completed = true

	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case err == nil:
		if sess.Expired(a.clock.Now()) {
			a.session = nil
			return nil
		}
		a.session = &sess
		return nil
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrSessionExpired):
		a.session = nil
		return nil
	default:
		a.session = nil
		a.err = err.Error()
		return err
	}
}

// Current returns a copy of the session, or nil when signed out or expired.
func (a *Authorizer) Current() *domain.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil || a.session.Expired(a.clock.Now()) {
		return nil
	}
	s := *a.session
	return &s
}

func (a *Authorizer) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

// Err returns the last non-fatal fetch error, or "".
func (a *Authorizer) Err() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Clear drops the session. Calling it while signed out is a no-op.
func (a *Authorizer) Clear() {
	a.mu.Lock()
	a.session = nil
	a.err = ""
	a.mu.Unlock()
}

// Authorize evaluates a route guard against the held session.
func (a *Authorizer) Authorize(requireAuth bool, requireRole domain.Role) Decision {
	return Authorize(a.Current(), requireAuth, requireRole)
}

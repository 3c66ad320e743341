package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JayMiller08/sci-sa-gala/internal/clock"
	"github.com/JayMiller08/sci-sa-gala/internal/domain"
)

const tokenIssuer = "sci-sa-gala"

// MinSecretLength is the shortest accepted HMAC signing secret.
const MinSecretLength = 32

type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name"`
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	clock  clock.Clock
}

func NewIssuer(secret []byte, clk clock.Clock) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Issuer{secret: secret, clock: clk}, nil
}

// Issue signs a token for sess.
func (i *Issuer) Issue(sess domain.Session) (string, error) {
	now := i.clock.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   sess.UserID,
			ID:        sess.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Role: string(sess.Role),
		Name: sess.DisplayName,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the session it carries. Expiry is
// checked against the issuer's clock.
func (i *Issuer) Parse(token string) (domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return domain.Session{}, mapJWTError(err)
	}
	if parsed.Issuer != tokenIssuer || parsed.ID == "" || parsed.Subject == "" || parsed.ExpiresAt == nil {
		return domain.Session{}, domain.ErrUnauthorized
	}
	role, err := domain.ParseRole(parsed.Role)
	if err != nil {
		return domain.Session{}, domain.ErrUnauthorized
	}

	sess := domain.Session{
		ID:          parsed.ID,
		Role:        role,
		DisplayName: parsed.Name,
		UserID:      parsed.Subject,
		ExpiresAt:   parsed.ExpiresAt.Time.UTC(),
	}
	if sess.Expired(i.clock.Now()) {
		return domain.Session{}, domain.ErrSessionExpired
	}
	return sess, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenUnverifiable) {
		return domain.ErrUnauthorized
	}
	return fmt.Errorf("parse session token: %w", domain.ErrUnauthorized)
}

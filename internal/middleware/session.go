package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/repository"
)

// SessionCookieName is the cookie carrying the portal session token.
const SessionCookieName = "portal_session"

const sessionIssuer = "attendance-portal"

// Request locals populated by the session and guard middlewares.
const (
	LocalSessionID     = "session_id"
	LocalSessionSecret = "session_secret"
	LocalUserID        = "user_id"
	LocalUserRole      = "user_role"
	LocalIdentity      = "identity"
)

// SessionClaims binds an opaque portal session id to its user. The backend secret stays in the store.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SessionTokens issues and verifies HS256 portal session tokens.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	store  repository.SessionStore
	now    func() time.Time
}

// NewSessionTokens creates a token issuer. The signing secret and the session store are required.
func NewSessionTokens(secret string, ttl time.Duration, store repository.SessionStore) (*SessionTokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionTokens{secret: []byte(secret), ttl: ttl, store: store, now: time.Now}, nil
}

// Issue stores the backend secret under a fresh id and signs a token carrying only that id. It never
// outlives the backend session.
func (t *SessionTokens) Issue(ctx context.Context, session models.Session, role string) (string, time.Time, error) {
	if session.Secret == "" || session.UserID == "" {
		return "", time.Time{}, errors.New("session is incomplete")
	}

	now := t.now()
	expires := now.Add(t.ttl)
	if !session.Expire.IsZero() && session.Expire.Before(expires) {
		expires = session.Expire
	}

	sessionID := uuid.NewString()
	if err := t.store.Save(ctx, sessionID, session.Secret, expires); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store session: %w", err)
	}

	claims := SessionClaims{
		SessionID: sessionID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		_ = t.store.Delete(ctx, sessionID)
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Resolve verifies a token and loads the backend secret it refers to.
func (t *SessionTokens) Resolve(ctx context.Context, tokenString string) (*SessionClaims, string, error) {
	claims, err := t.Parse(tokenString)
	if err != nil {
		return nil, "", err
	}
	secret, err := t.store.Secret(ctx, claims.SessionID)
	if err != nil {
		return nil, "", err
	}
	return claims, secret, nil
}

// Revoke forgets a portal session id.
func (t *SessionTokens) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return t.store.Delete(ctx, sessionID)
}

// Parse verifies a token and returns its claims.
func (t *SessionTokens) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.SessionID == "" || claims.Subject == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// Session loads the portal session token from the cookie or a bearer header. Invalid, revoked or
// expired tokens leave the request anonymous.
func Session(tokens *SessionTokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := sessionTokenFromRequest(c)
		if raw == "" {
			return c.Next()
		}

		claims, secret, err := tokens.Resolve(c.UserContext(), raw)
		if err != nil {
			return c.Next()
		}

		c.Locals(LocalSessionID, claims.SessionID)
		c.Locals(LocalSessionSecret, secret)
		c.Locals(LocalUserID, claims.Subject)
		return c.Next()
	}
}

// SessionID returns the portal session id bound to the request.
func SessionID(c *fiber.Ctx) string {
	if value, ok := c.Locals(LocalSessionID).(string); ok {
		return value
	}
	return ""
}

// SessionSecret returns the backend session secret bound to the request.
func SessionSecret(c *fiber.Ctx) string {
	if value, ok := c.Locals(LocalSessionSecret).(string); ok {
		return value
	}
	return ""
}

// SetSessionCookie stores the portal token in an HttpOnly cookie.
func SetSessionCookie(c *fiber.Ctx, token string, expires time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the portal cookie.
func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func sessionTokenFromRequest(c *fiber.Ctx) string {
	if cookie := strings.TrimSpace(c.Cookies(SessionCookieName)); cookie != "" {
		return cookie
	}

	authorization := c.Get(fiber.HeaderAuthorization)
	const bearer = "bearer "
	if len(authorization) > len(bearer) && strings.EqualFold(authorization[:len(bearer)], bearer) {
		return strings.TrimSpace(authorization[len(bearer):])
	}
	return ""
}

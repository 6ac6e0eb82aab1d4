package appwrite

import (
	"context"
	"fmt"
	"strings"
)

// CurrentSession addresses the session bound to the supplied secret.
const CurrentSession = "current"

// Session is an authenticated session issued by the backend.
type Session struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
	Expire string `json:"expire"`
}

// User is the identity attached to a session.
type User struct {
	ID     string                 `json:"$id"`
	Name   string                 `json:"name"`
	Email  string                 `json:"email"`
	Labels []string               `json:"labels"`
	Prefs  map[string]interface{} `json:"prefs"`
}

// Account exposes the session primitives of the backend.
type Account struct {
	client *Client
}

// NewAccount wraps the client with account operations.
func NewAccount(client *Client) *Account {
	return &Account{client: client}
}

// CreateEmailPasswordSession opens a session by credential. The server key must be configured for the
// secret to be returned.
func (a *Account) CreateEmailPasswordSession(ctx context.Context, email, password string) (Session, error) {
	session, err := call(ctx, a.client.timeout, func() (Session, error) {
		created, err := a.client.account.CreateEmailPasswordSession(email, password)
		if err != nil {
			return Session{}, err
		}
		var out Session
		if err := created.Decode(&out); err != nil {
			return Session{}, fmt.Errorf("failed to decode session: %w", err)
		}
		return out, nil
	})
	if err != nil {
		return Session{}, err
	}

	if session.Secret == "" {
		return Session{}, fmt.Errorf("backend did not return a session secret")
	}

	return session, nil
}

// Get returns the identity bound to the session secret.
func (a *Account) Get(ctx context.Context, secret string) (User, error) {
	if strings.TrimSpace(secret) == "" {
		return User{}, unauthorized("no session")
	}

	return call(ctx, a.client.timeout, func() (User, error) {
		user, err := a.client.sessionAccount(secret).Get()
		if err != nil {
			return User{}, err
		}
		var out User
		if err := user.Decode(&out); err != nil {
			return User{}, fmt.Errorf("failed to decode account: %w", err)
		}
		return out, nil
	})
}

// DeleteSession terminates a session of the user bound to secret.
func (a *Account) DeleteSession(ctx context.Context, secret, sessionID string) error {
	if strings.TrimSpace(secret) == "" {
		return unauthorized("no session")
	}
	if sessionID == "" {
		sessionID = CurrentSession
	}

	_, err := call(ctx, a.client.timeout, func() (struct{}, error) {
		_, err := a.client.sessionAccount(secret).DeleteSession(sessionID)
		return struct{}{}, err
	})
	return err
}

package appwrite

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/appwrite/sdk-for-go/account"
	sdk "github.com/appwrite/sdk-for-go/appwrite"
	"github.com/appwrite/sdk-for-go/databases"
)

// Config contains the connection settings for the hosted backend.
type Config struct {
	Endpoint   string
	ProjectID  string
	APIKey     string
	Timeout    time.Duration
	SelfSigned bool
}

// Client holds the server-keyed SDK services plus what is needed to open session-scoped ones.
type Client struct {
	endpoint   string
	project    string
	apiKey     string
	timeout    time.Duration
	selfSigned bool

	account   *account.Account
	databases *databases.Databases
}

// NewClient validates the configuration and builds a client. It is meant to be created once per process.
func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("appwrite endpoint must not be empty")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid appwrite endpoint %q: %w", cfg.Endpoint, err)
	}

	project := strings.TrimSpace(cfg.ProjectID)
	if project == "" {
		return nil, fmt.Errorf("appwrite project id must not be empty")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		endpoint:   endpoint,
		project:    project,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		timeout:    timeout,
		selfSigned: cfg.SelfSigned,
	}

	server := sdk.NewClient(
		sdk.WithEndpoint(c.endpoint),
		sdk.WithProject(c.project),
		sdk.WithKey(c.apiKey),
		sdk.WithSelfSigned(c.selfSigned),
	)
	c.account = sdk.NewAccount(server)
	c.databases = sdk.NewDatabases(server)

	return c, nil
}

// Endpoint returns the normalized API endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// sessionAccount returns account operations acting as the user bound to secret.
func (c *Client) sessionAccount(secret string) *account.Account {
	return sdk.NewAccount(sdk.NewClient(
		sdk.WithEndpoint(c.endpoint),
		sdk.WithProject(c.project),
		sdk.WithSession(secret),
		sdk.WithSelfSigned(c.selfSigned),
	))
}

type outcome[T any] struct {
	value T
	err   error
}

// call runs a blocking SDK request under ctx and the client timeout. The SDK has no context support,
// so a cancelled caller returns immediately while the request finishes in the background.
func call[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		value, err := fn()
		done <- outcome[T]{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("appwrite request aborted: %w", ctx.Err())
	case result := <-done:
		if result.err != nil {
			return zero, translateError(result.err)
		}
		return result.value, nil
	}
}

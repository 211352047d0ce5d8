package api

import (
	"context"
	"fmt"
	"os"

	"github.com/mcncl/gridcall/internal/errors"
)

// TokenSource supplies the credential attached to authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed credential.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.ErrNoToken
	}
	return string(t), nil
}

// EnvToken reads the credential from the named environment variable on
// every call.
type EnvToken string

// Token implements TokenSource.
func (e EnvToken) Token(context.Context) (string, error) {
	v := os.Getenv(string(e))
	if v == "" {
		return "", fmt.Errorf("environment variable %s is empty: %w", string(e), errors.ErrNoToken)
	}
	return v, nil
}

// TokenFunc adapts a function to a TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

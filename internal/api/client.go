// Package api performs typed calls against the grid WebUI service: it
// attaches credentials, sends the call through a Transport and validates the
// response against the schema declared by the caller.
package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/logger"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/schema"
	"github.com/mcncl/gridcall/internal/transport"
	"github.com/mcncl/gridcall/internal/validator"
)

// DefaultAuthField is the argument name the service reads the credential from.
const DefaultAuthField = "WebPassword"

// Client performs calls. It holds no per-call state and is safe for concurrent
// use when its Transport and TokenSource are.
type Client struct {
	transport transport.Transport
	tokens    TokenSource
	authField string
	log       *slog.Logger

	validate func(models.Value, schema.Schema, string) (models.Value, error)
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets where credentials for authenticated calls come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithAuthField overrides the argument name carrying the credential.
func WithAuthField(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.authField = name
		}
	}
}

// WithLogger sets the logger calls are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client sending calls through t.
func New(t transport.Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		authField: DefaultAuthField,
		log:       logger.Discard(),
		validate:  validator.Validate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends method with args and checks the answer against response.
//
// args is copied before the credential is added; the caller's map is never
// modified. Failures to obtain a credential or to complete the exchange are
// reported as transport errors and the response is not validated. A response
// that does not match is reported as *errors.ValidationError. On success the
// decoded response is returned as-is.
func (c *Client) Call(ctx context.Context, method string, requiresAuth bool, args models.Object, response schema.Schema) (models.Value, error) {
	start := time.Now()

	payload := make(models.Object, len(args)+1)
	for k, v := range args {
		payload[k] = v
	}

	if requiresAuth {
		token, err := c.token(ctx, method)
		if err != nil {
			c.report(ctx, method, start, "auth_error", err)
			return nil, err
		}
		payload[c.authField] = token
	}

	c.log.Log(ctx, logger.LevelTrace, "sending call", "method", method, "auth", requiresAuth, "args", len(args))

	raw, err := c.transport.Send(ctx, method, payload)
	if err != nil {
		err = asTransportError(method, err)
		c.report(ctx, method, start, "transport_error", err)
		return nil, err
	}

	value, err := c.validate(raw, response, "")
	if err != nil {
		c.report(ctx, method, start, "invalid_response", err)
		return nil, err
	}

	c.report(ctx, method, start, "ok", nil)
	return value, nil
}

// CallObject is Call for responses whose root is an object.
func (c *Client) CallObject(ctx context.Context, method string, requiresAuth bool, args models.Object, response schema.Schema) (models.Object, error) {
	v, err := c.Call(ctx, method, requiresAuth, args, response)
	if err != nil {
		return nil, err
	}
	obj, ok := models.AsObject(v)
	if !ok {
		tag, _ := models.TagOf(v)
		return nil, &errors.ValidationError{Expected: []models.Tag{models.ObjectT}, Actual: tag, Value: v}
	}
	return obj, nil
}

func (c *Client) token(ctx context.Context, method string) (string, error) {
	if c.tokens == nil {
		return "", errors.NewTransportError(fmt.Sprintf("%s requires authentication", method), errors.ErrNoToken)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", errors.NewTransportError(fmt.Sprintf("no credential for %s", method), err)
	}
	if token == "" {
		return "", errors.NewTransportError(fmt.Sprintf("no credential for %s", method), errors.ErrNoToken)
	}
	return token, nil
}

// asTransportError keeps transport and argument errors raised by the
// transport and wraps anything else.
func asTransportError(method string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && (appErr.Type == errors.ErrorTypeTransport || appErr.Type == errors.ErrorTypeArgument) {
		return err
	}
	return errors.NewTransportError(fmt.Sprintf("call %s failed", method), err)
}

func (c *Client) report(ctx context.Context, method string, start time.Time, outcome string, err error) {
	attrs := []any{
		"method", method,
		"duration", time.Since(start),
		"outcome", outcome,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	c.log.DebugContext(ctx, "call finished", attrs...)
}

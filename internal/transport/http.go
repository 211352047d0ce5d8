package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/parser"
)

// MethodField is the request property naming the remote method.
const MethodField = "Method"

// DefaultTimeout bounds a single HTTP call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// StatusError records a non-success HTTP answer.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %s", e.Status)
}

// HTTP posts each call as a JSON object to a single endpoint.
type HTTP struct {
	endpoint string
	client   *resty.Client
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*HTTP)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.client.SetTimeout(d)
	}
}

// WithRoundTripper replaces the underlying HTTP transport.
func WithRoundTripper(rt http.RoundTripper) HTTPOption {
	return func(h *HTTP) {
		h.client.SetTransport(rt)
	}
}

// WithHeader adds a header to every request.
func WithHeader(name, value string) HTTPOption {
	return func(h *HTTP) {
		h.client.SetHeader(name, value)
	}
}

// NewHTTP creates an HTTP transport for endpoint.
func NewHTTP(endpoint string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		endpoint: endpoint,
		client: resty.New().
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Endpoint returns the URL calls are posted to.
func (h *HTTP) Endpoint() string {
	return h.endpoint
}

// Send implements Transport. The request body is args with the method name
// added under MethodField.
func (h *HTTP) Send(ctx context.Context, method string, args models.Object) (models.Value, error) {
	if _, clash := args[MethodField]; clash {
		return nil, errors.NewArgumentError(fmt.Sprintf("argument %q is reserved for the method name", MethodField), nil)
	}

	payload := make(models.Object, len(args)+1)
	for k, v := range args {
		payload[k] = v
	}
	payload[MethodField] = method

	body, err := parser.Encode(payload)
	if err != nil {
		return nil, errors.NewArgumentError(fmt.Sprintf("arguments for %s cannot be encoded", method), err)
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(h.endpoint)
	if err != nil {
		return nil, errors.NewTransportError(fmt.Sprintf("request %s to %s failed", method, h.endpoint), err)
	}
	if !resp.IsSuccess() {
		return nil, errors.NewTransportError(
			fmt.Sprintf("request %s to %s failed", method, h.endpoint),
			&StatusError{StatusCode: resp.StatusCode(), Status: resp.Status()},
		)
	}

	value, err := parser.Decode(resp.Body())
	if err != nil {
		return nil, errors.NewTransportError(fmt.Sprintf("malformed response to %s", method), err)
	}
	return value, nil
}

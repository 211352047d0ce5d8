package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.lsp.dev/jsonrpc2"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/parser"
)

// RPC sends calls as JSON-RPC 2.0 requests over a single stream. Concurrent
// calls are multiplexed on the connection.
type RPC struct {
	conn    jsonrpc2.Conn
	timeout time.Duration
}

// RPCOption configures an RPC transport.
type RPCOption func(*RPC)

// WithCallTimeout bounds each Send. Zero means no bound beyond the caller's
// context.
func WithCallTimeout(d time.Duration) RPCOption {
	return func(r *RPC) {
		r.timeout = d
	}
}

// NewRPC starts a JSON-RPC client on rwc. Incoming requests from the peer are
// answered with "method not found". The connection lives until Close is
// called or ctx is cancelled.
func NewRPC(ctx context.Context, rwc io.ReadWriteCloser, opts ...RPCOption) *RPC {
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	conn.Go(ctx, jsonrpc2.MethodNotFoundHandler)
	r := &RPC{conn: conn}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DialRPC connects to a JSON-RPC endpoint over TCP. timeout bounds the dial
// and every call made on the connection.
func DialRPC(ctx context.Context, address string, timeout time.Duration) (*RPC, error) {
	dialer := net.Dialer{Timeout: timeout}
	c, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.NewTransportError(fmt.Sprintf("failed to connect to %s", address), err)
	}
	return NewRPC(ctx, c, WithCallTimeout(timeout)), nil
}

// Send implements Transport.
func (r *RPC) Send(ctx context.Context, method string, args models.Object) (models.Value, error) {
	params := args
	if params == nil {
		params = models.Object{}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var result rawResult
	if _, err := r.conn.Call(ctx, method, params, &result); err != nil {
		var remote *jsonrpc2.Error
		if stderrors.As(err, &remote) {
			return nil, errors.NewTransportError(fmt.Sprintf("%s failed with remote error %d", method, remote.Code), remote)
		}
		if stderrors.Is(err, context.DeadlineExceeded) && r.timeout > 0 {
			return nil, errors.NewTransportError(fmt.Sprintf("call %s timed out after %s", method, r.timeout), err)
		}
		return nil, errors.NewTransportError(fmt.Sprintf("call %s failed", method), err)
	}

	if len(result.data) == 0 {
		return nil, nil
	}
	value, err := parser.Decode(result.data)
	if err != nil {
		return nil, errors.NewTransportError(fmt.Sprintf("malformed response to %s", method), err)
	}
	return value, nil
}

// Close shuts the connection down.
func (r *RPC) Close() error {
	return r.conn.Close()
}

// Done is closed once the connection has stopped reading.
func (r *RPC) Done() <-chan struct{} {
	return r.conn.Done()
}

// rawResult keeps the result bytes so they can be decoded by parser, which
// preserves the integer/float distinction.
type rawResult struct {
	data []byte
}

func (r *rawResult) UnmarshalJSON(data []byte) error {
	r.data = append(r.data[:0], data...)
	return nil
}

package transport

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/parser"
)

func gridHandler(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	case "OnlineStatus":
		return reply(ctx, map[string]interface{}{"Online": true, "LoginEnabled": true, "Uptime": 42, "Load": 0.5}, nil)
	case "Echo":
		params, err := parser.Decode(req.Params())
		if err != nil {
			return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.ParseError, err.Error()))
		}
		return reply(ctx, params, nil)
	case "GetGridUserInfo":
		return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, "UUID is not valid"))
	}
	return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
}

func newRPCPair(t *testing.T) *RPC {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	clientSide, serverSide := net.Pipe()
	server := jsonrpc2.NewConn(jsonrpc2.NewStream(serverSide))
	server.Go(ctx, gridHandler)

	client := NewRPC(ctx, clientSide)
	t.Cleanup(func() {
		cancel()
		_ = client.Close()
		_ = server.Close()
	})
	return client
}

func TestRPC_Send(t *testing.T) {
	client := newRPCPair(t)

	got, err := client.Send(context.Background(), "OnlineStatus", nil)
	require.NoError(t, err)
	assert.Equal(t, models.Object{
		"Online":       true,
		"LoginEnabled": true,
		"Uptime":       int64(42),
		"Load":         0.5,
	}, got)
}

func TestRPC_ParamsReachServer(t *testing.T) {
	client := newRPCPair(t)

	args := models.Object{"UUID": "abc", "Limit": int64(10)}
	got, err := client.Send(context.Background(), "Echo", args)
	require.NoError(t, err)
	assert.Equal(t, args, got)
}

func TestRPC_RemoteError(t *testing.T) {
	client := newRPCPair(t)

	_, err := client.Send(context.Background(), "GetGridUserInfo", models.Object{"UUID": "nope"})
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))

	var remote *jsonrpc2.Error
	require.True(t, stderrors.As(err, &remote))
	assert.Equal(t, jsonrpc2.InvalidParams, remote.Code)

	_, err = client.Send(context.Background(), "Unknown", nil)
	require.Error(t, err)
	require.True(t, stderrors.As(err, &remote))
	assert.Equal(t, jsonrpc2.MethodNotFound, remote.Code)
}

func TestRPC_ConcurrentCalls(t *testing.T) {
	client := newRPCPair(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := client.Send(context.Background(), "Echo", models.Object{"n": int64(i)})
			assert.NoError(t, err)
			assert.Equal(t, models.Object{"n": int64(i)}, got)
		}(i)
	}
	wg.Wait()
}

func TestRPC_ClosedConnection(t *testing.T) {
	client := newRPCPair(t)
	require.NoError(t, client.Close())

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatal("connection did not stop after Close")
	}

	_, err := client.Send(context.Background(), "OnlineStatus", nil)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestDialRPC(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		conn := jsonrpc2.NewConn(jsonrpc2.NewStream(c))
		conn.Go(ctx, gridHandler)
		<-ctx.Done()
		_ = conn.Close()
	}()

	client, err := DialRPC(ctx, ln.Addr().String(), time.Second)
	require.NoError(t, err)
	defer client.Close()

	got, err := client.Send(context.Background(), "OnlineStatus", models.Object{})
	require.NoError(t, err)
	obj, ok := models.AsObject(got)
	require.True(t, ok)
	assert.Equal(t, true, obj["Online"])

	_, err = DialRPC(context.Background(), "127.0.0.1:1", 100*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

// silentListener accepts connections and reads requests without ever replying.
func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				_, _ = io.Copy(io.Discard, c)
			}()
		}
	}()
	return ln.Addr().String()
}

func TestRPC_CallTimeout(t *testing.T) {
	addr := silentListener(t)

	client, err := DialRPC(context.Background(), addr, 100*time.Millisecond)
	require.NoError(t, err)
	defer client.Close()

	start := time.Now()
	_, err = client.Send(context.Background(), "OnlineStatus", nil)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out after 100ms")
	assert.Less(t, time.Since(start), 2*time.Second)
}

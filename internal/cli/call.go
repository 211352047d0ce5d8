package cli

import (
	"fmt"
	"os"

	"github.com/mcncl/gridcall/internal/api"
	"github.com/mcncl/gridcall/internal/config"
	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/parser"
	"github.com/mcncl/gridcall/internal/schema"
	"github.com/mcncl/gridcall/internal/transport"
	"github.com/mcncl/gridcall/internal/webui"
)

// Authentication modes for the call command
const (
	AuthAuto   = "auto"
	AuthAlways = "always"
	AuthNever  = "never"
)

// CallCmd performs one remote call
type CallCmd struct {
	Method string            `arg:"" help:"Remote method, e.g. online-status or GetRegions."`
	Args   map[string]string `help:"Call argument as key=value. Values that parse as JSON are sent as such, anything else as a string." short:"a" name:"arg" mapsep:"none"`
	Schema string            `help:"Response schema document. Defaults to the configured or built-in schema of the method." short:"s" type:"path"`
	Auth   string            `help:"Send the credential: auto (per config), always or never." enum:"auto,always,never" default:"auto"`
}

// Run implements the call command
func (c *CallCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	method := cfg.MethodName(c.Method)

	response, err := responseSchema(cfg, method, c.Schema)
	if err != nil {
		return err
	}

	args := make(models.Object, len(c.Args))
	for k, v := range c.Args {
		args[k] = argValue(v)
	}

	t, closeTransport, err := newTransport(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeTransport()

	opts := []api.Option{
		api.WithAuthField(cfg.Auth.Field),
		api.WithLogger(ctx.Logger),
	}
	if ts := cfg.TokenSource(); ts != nil {
		opts = append(opts, api.WithTokenSource(ts))
	}
	client := api.New(t, opts...)

	result, err := client.Call(ctx, method, c.requiresAuth(cfg, method), args, response)
	if err != nil {
		return err
	}
	return ctx.Print(result)
}

func (c *CallCmd) requiresAuth(cfg *config.Config, method string) bool {
	switch c.Auth {
	case AuthAlways:
		return true
	case AuthNever:
		return false
	}
	return cfg.RequiresAuth(method)
}

// responseSchema picks the schema for method: an explicit file first, then
// the config file, then the built-in WebUI schema, then any object.
func responseSchema(cfg *config.Config, method, path string) (schema.Schema, error) {
	if path != "" {
		return loadSchemaFile(path)
	}
	if p, ok := cfg.SchemaPath(method); ok {
		return loadSchemaFile(p)
	}
	if s, ok := webui.ResponseSchema(method); ok {
		return s, nil
	}
	return schema.AnyObject(), nil
}

// loadSchemaFile reads a schema document. Property mappings are tried first,
// as response schemas are written that way; a single schema node is accepted
// otherwise.
func loadSchemaFile(path string) (schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Schema{}, errors.NewInputError(fmt.Sprintf("failed to read schema file '%s'", path), err)
	}
	s, err := schema.ParseShape(data)
	if err == nil {
		return s, nil
	}
	if node, nodeErr := schema.Parse(data); nodeErr == nil {
		return node, nil
	}
	return schema.Schema{}, err
}

// argValue decodes a command line argument value. Anything that is not a
// single JSON value is kept as a plain string.
func argValue(raw string) models.Value {
	v, err := parser.Decode([]byte(raw))
	if err != nil {
		return raw
	}
	return v
}

// newTransport builds the configured transport. The returned func releases it.
func newTransport(ctx *Context, cfg *config.Config) (transport.Transport, func(), error) {
	switch cfg.Transport {
	case config.TransportRPC:
		rpc, err := transport.DialRPC(ctx, cfg.RPCAddress, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return rpc, func() { _ = rpc.Close() }, nil
	default:
		return transport.NewHTTP(cfg.Endpoint, transport.WithTimeout(cfg.Timeout)), func() {}, nil
	}
}

// Package cli implements the gridcall command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/mcncl/gridcall/internal/config"
	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/formatter"
	"github.com/mcncl/gridcall/internal/logger"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/parser"
)

// Version information
const (
	Version = "0.1.0"
)

// Globals are the flags shared by every command
type Globals struct {
	Config     string           `help:"Path to config file. Searched for upward from the working directory when not set." short:"c" type:"path"`
	Endpoint   string           `help:"WebUI endpoint URL." short:"e"`
	Transport  string           `help:"Transport to use (http or rpc)." short:"t"`
	RPCAddress string           `help:"JSON-RPC address as host:port." name:"rpc-address"`
	Timeout    time.Duration    `help:"Timeout for a single call."`
	Debug      bool             `help:"Enable debug logging." short:"d"`
	Color      string           `help:"Color output (auto, always or never)."`
	Version    kong.VersionFlag `help:"Show version information." short:"v"`
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Call  CallCmd  `cmd:"" help:"Call a remote method and validate its response."`
	Check CheckCmd `cmd:"" help:"Validate a captured JSON response against a schema."`
	Infer InferCmd `cmd:"" help:"Print a schema document inferred from a captured JSON response."`
	Types TypesCmd `cmd:"" help:"Generate Go record types for a response schema."`
}

// Context holds the runtime context passed to every command
type Context struct {
	context.Context

	Config *config.Config
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewContext loads the configuration selected by g and builds the logger.
func NewContext(ctx context.Context, g Globals, stdin io.Reader, stdout, stderr io.Writer) (*Context, error) {
	path := g.Config
	if path == "" {
		path = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(path, config.Overrides{
		Endpoint:   g.Endpoint,
		Transport:  g.Transport,
		RPCAddress: g.RPCAddress,
		Timeout:    g.Timeout,
		Debug:      g.Debug,
		Color:      g.Color,
	})
	if err != nil {
		return nil, err
	}

	// Both were checked by cfg.Validate
	level, _ := logger.ParseLevel(cfg.Log.Level)
	format, _ := logger.ParseFormat(cfg.Log.Format)

	return &Context{
		Context: ctx,
		Config:  cfg,
		Logger:  logger.New(stderr, level, format),
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
	}, nil
}

// Formatter returns a value formatter for w honoring the color setting.
func (c *Context) Formatter(w io.Writer) *formatter.Formatter {
	if formatter.ColorEnabled(c.Config.Output.Color, w) {
		return formatter.NewFormatter(formatter.WithColors(formatter.NewColors()))
	}
	return formatter.NewFormatter()
}

// Print renders v to Stdout.
func (c *Context) Print(v models.Value) error {
	out, err := c.Formatter(c.Stdout).Format(v)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(c.Stdout, out); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// Report writes err to Stderr. Validation failures get the detailed report,
// everything else the user-friendly message.
func (c *Context) Report(err error) {
	if ve, ok := errors.AsValidation(err); ok {
		_, _ = io.WriteString(c.Stderr, c.Formatter(c.Stderr).FormatValidationError(ve))
		return
	}
	_, _ = fmt.Fprintln(c.Stderr, errors.UserFriendlyError(err))
}

// readInput reads a JSON document from path, or from stdin when path is
// empty. An interactive terminal on stdin counts as no input.
func readInput(path string, stdin io.Reader) (models.IntermediateRepresentation, error) {
	if path != "" {
		return parser.ParseFile(path)
	}

	if f, ok := stdin.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return models.IntermediateRepresentation{}, errors.NewInputError("failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			return models.IntermediateRepresentation{}, errors.NewInputError("no input provided", errors.ErrNoInput)
		}
	}

	return parser.Parse(stdin)
}

type exitCode int

// Run parses args and runs the selected command. It returns the process exit
// status.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	// kong exits after --help and --version
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	var cli CLI
	k, err := kong.New(&cli,
		kong.Name("gridcall"),
		kong.Description("A client for the grid WebUI API that validates every response"),
		kong.UsageOnError(),
		kong.Vars{"version": "gridcall version " + Version},
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "gridcall: %v\n", err)
		return 1
	}

	kctx, err := k.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "gridcall: %v\n", err)
		_, _ = fmt.Fprintf(stderr, "\nFor help, run: gridcall --help\n")
		return 1
	}

	rc, err := NewContext(ctx, cli.Globals, stdin, stdout, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, errors.UserFriendlyError(err))
		return 1
	}

	if err := kctx.Run(rc); err != nil {
		rc.Report(err)
		return 1
	}
	return 0
}

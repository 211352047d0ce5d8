package cli

import (
	"fmt"
	"os"

	"github.com/mcncl/gridcall/internal/analyzer"
	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/generator"
	"github.com/mcncl/gridcall/internal/schema"
	"github.com/mcncl/gridcall/internal/webui"
)

// TypesCmd generates Go record types for a response schema
type TypesCmd struct {
	Method  string `arg:"" optional:"" help:"Method whose built-in or configured response schema is used."`
	Schema  string `help:"Response schema document. Takes precedence over the method's schema." short:"s" type:"path"`
	Package string `help:"Package name for generated code." short:"p" default:"records"`
	Name    string `help:"Name for the root type. Defaults to <Method>Response." short:"n"`
	Output  string `help:"Path to output Go file. If not specified, writes to stdout." short:"o" type:"path"`
}

// Run implements the types command
func (c *TypesCmd) Run(ctx *Context) error {
	s, rootName, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	result, err := analyzer.NewAnalyzer().Analyze(s, rootName)
	if err != nil {
		return errors.NewSchemaError("failed to analyze schema", err)
	}

	code, err := generator.NewGenerator().GenerateStructs(result, c.Package)
	if err != nil {
		return err
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, []byte(code), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", c.Output), err)
		}
		ctx.Logger.Info("types written", "path", c.Output, "structs", len(result.Structs))
		return nil
	}

	if _, err := fmt.Fprint(ctx.Stdout, code); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

func (c *TypesCmd) resolve(ctx *Context) (schema.Schema, string, error) {
	rootName := c.Name

	if c.Schema != "" {
		s, err := loadSchemaFile(c.Schema)
		if err != nil {
			return schema.Schema{}, "", err
		}
		if rootName == "" && c.Method != "" {
			rootName = ctx.Config.MethodName(c.Method) + "Response"
		}
		return s, rootName, nil
	}

	if c.Method == "" {
		return schema.Schema{}, "", errors.NewArgumentError("either a method or --schema is required", nil)
	}

	method := ctx.Config.MethodName(c.Method)
	if rootName == "" {
		rootName = method + "Response"
	}
	if p, ok := ctx.Config.SchemaPath(method); ok {
		s, err := loadSchemaFile(p)
		return s, rootName, err
	}
	s, ok := webui.ResponseSchema(method)
	if !ok {
		return schema.Schema{}, "", errors.NewArgumentError(fmt.Sprintf("no response schema known for %s; pass --schema", method), nil)
	}
	return s, rootName, nil
}

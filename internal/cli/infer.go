package cli

import (
	"fmt"
	"os"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/schema"
)

// InferCmd prints a schema document derived from a captured response
type InferCmd struct {
	Input  string `help:"Captured JSON response. Reads from stdin when not set." short:"i" type:"path"`
	Output string `help:"Write the schema document to a file instead of stdout." short:"o" type:"path"`
}

// Run implements the infer command
func (c *InferCmd) Run(ctx *Context) error {
	ir, err := readInput(c.Input, ctx.Stdin)
	if err != nil {
		return err
	}

	s, err := schema.Infer(ir.Root)
	if err != nil {
		return errors.NewSchemaError("failed to infer schema", err)
	}

	doc, err := schema.Marshal(s)
	if err != nil {
		return err
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, doc, 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", c.Output), err)
		}
		ctx.Logger.Info("schema written", "path", c.Output)
		return nil
	}

	if _, err := ctx.Stdout.Write(doc); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

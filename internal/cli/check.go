package cli

import (
	"fmt"

	"github.com/mcncl/gridcall/internal/api"
	"github.com/mcncl/gridcall/internal/models"
	"github.com/mcncl/gridcall/internal/transport"
)

// offlineMethod is the method name the captured response is replayed under.
const offlineMethod = "check"

// CheckCmd validates a captured response offline
type CheckCmd struct {
	Schema string `help:"Response schema document." short:"s" type:"path" required:""`
	Input  string `help:"Captured JSON response. Reads from stdin when not set." short:"i" type:"path"`
	Quiet  bool   `help:"Print nothing on success." short:"q"`
}

// Run implements the check command. The response is replayed through the
// same client pipeline a live call uses.
func (c *CheckCmd) Run(ctx *Context) error {
	response, err := loadSchemaFile(c.Schema)
	if err != nil {
		return err
	}

	ir, err := readInput(c.Input, ctx.Stdin)
	if err != nil {
		return err
	}

	client := api.New(transport.Static{offlineMethod: ir.Root}, api.WithLogger(ctx.Logger))
	result, err := client.Call(ctx, offlineMethod, false, nil, response)
	if err != nil {
		return err
	}

	if c.Quiet {
		return nil
	}
	_, err = fmt.Fprintf(ctx.Stdout, "ok: %s matches %s\n", describe(ir), c.Schema)
	if err != nil {
		return err
	}
	return ctx.Print(result)
}

func describe(ir models.IntermediateRepresentation) string {
	tag, _ := models.TagOf(ir.Root)
	return fmt.Sprintf("%s (%d bytes)", tag, ir.Size)
}

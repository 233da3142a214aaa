package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/config"
)

// FieldsCommand lists the fields of a page.
type FieldsCommand struct {
	URL string `short:"u" long:"url" description:"the page to read" value-name:"<url>" required:"true"`

	out io.Writer
}

// Execute executes the fields command.
func (command *FieldsCommand) Execute(args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	return command.run(context.Background(), cfg, logger)
}

func (command *FieldsCommand) run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	s, err := openSession(ctx, cfg, command.URL, logger)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	tw := tabwriter.NewWriter(output(command.out), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tATTRIBUTE\tDISPLAY")
	for _, id := range s.engine.Fields() {
		c, _ := s.engine.Controller(id)
		d := c.Descriptor()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, d.Type, d.Attribute, d.Display)
	}
	return tw.Flush()
}

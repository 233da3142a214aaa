package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/config"
	"github.com/matthewbaird/inplace/internal/editor"
)

// PickCommand chooses a day in the picker of a date field.
type PickCommand struct {
	URL    string `short:"u" long:"url" description:"the page holding the field" value-name:"<url>" required:"true"`
	Field  string `short:"f" long:"field" description:"the id of the date field" value-name:"<id>" required:"true"`
	Day    int    `short:"d" long:"day" description:"the day of the month to pick" default:"1" value-name:"<day>"`
	Months int    `short:"m" long:"months" description:"months to page forward (negative pages back) before picking" value-name:"<n>"`

	out io.Writer
}

// Execute executes the pick command.
func (command *PickCommand) Execute(args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	return command.run(context.Background(), cfg, logger)
}

func (command *PickCommand) run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	s, err := openSession(ctx, cfg, command.URL, logger)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	el, err := s.element(command.Field)
	if err != nil {
		return err
	}
	c, _ := s.engine.Controller(command.Field)
	if err := c.Activate(ctx); err != nil {
		return err
	}
	date, ok := c.Editor().(*editor.Date)
	if !ok || date.Picker() == nil {
		return fmt.Errorf("field %s has no date picker", command.Field)
	}
	picker := date.Picker()
	for i := 0; i < command.Months; i++ {
		picker.Next()
	}
	for i := 0; i > command.Months; i-- {
		picker.Prev()
	}
	if err := picker.Select(ctx, command.Day); err != nil {
		return err
	}

	out := output(command.out)
	fmt.Fprintf(out, "state: %s\n", c.State())
	for _, msg := range c.Errors() {
		fmt.Fprintf(out, "error: %s\n", msg)
	}
	markup, err := el.OuterHTML()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, markup)
	return nil
}

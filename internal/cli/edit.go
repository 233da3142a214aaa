package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/config"
	"github.com/matthewbaird/inplace/internal/event"
	"github.com/matthewbaird/inplace/internal/types"
)

// ErrRejected is returned when the server refused a change.
var ErrRejected = errors.New("change rejected")

// EditCommand contains flags for the `edit` command line command, for
// `go-flags` to parse command line args into.
type EditCommand struct {
	URL     string `short:"u" long:"url" description:"the page holding the field" value-name:"<url>" required:"true"`
	Field   string `short:"f" long:"field" description:"the id of the field" value-name:"<id>" required:"true"`
	Value   string `short:"s" long:"value" description:"the new value, as typed or chosen" value-name:"<value>" required:"true"`
	History int    `long:"history" description:"how many recent events to print" default:"5" value-name:"<n>"`

	out io.Writer
}

// Execute executes the edit command.
func (command *EditCommand) Execute(args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	return command.run(context.Background(), cfg, logger)
}

func (command *EditCommand) run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	s, err := openSession(ctx, cfg, command.URL, logger)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	el, err := s.element(command.Field)
	if err != nil {
		return err
	}
	if err := s.engine.Update(ctx, command.Field, command.Value); err != nil {
		return err
	}
	c, _ := s.engine.Controller(command.Field)
	state := c.State()

	out := output(command.out)
	fmt.Fprintf(out, "state: %s\n", state)
	for _, msg := range c.Errors() {
		fmt.Fprintf(out, "error: %s\n", msg)
	}
	markup, err := el.OuterHTML()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, markup)
	if err := printHistory(ctx, out, s, command.Field, command.History); err != nil {
		return err
	}

	if sum, err := s.engine.Summary(ctx, command.Field); err == nil && sum.Struggling {
		fmt.Fprintf(out, "warning: %d rejected changes in a row\n", sum.ErrorStreak)
	}

	if state == types.StateErrorDisplay {
		return fmt.Errorf("%w: %s", ErrRejected, strings.Join(c.Errors(), "; "))
	}
	return nil
}

func printHistory(ctx context.Context, out io.Writer, s *session, id string, limit int) error {
	if limit <= 0 {
		return nil
	}
	history, err := s.engine.History(ctx, id, limit)
	if err != nil {
		return err
	}
	printEvents(out, history)
	return nil
}

func printEvents(out io.Writer, events []event.Event) {
	for _, e := range events {
		fmt.Fprintf(out, "  %-12s %s\n", humanize.Time(e.OccurredAt), e)
	}
}

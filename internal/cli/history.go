package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/config"
)

// HistoryCommand reads the recorded event history of earlier commands.
type HistoryCommand struct {
	Field string `short:"f" long:"field" description:"the field id; with --grep, an id prefix" value-name:"<id>"`
	Grep  string `short:"g" long:"grep" description:"search event summaries for this text" value-name:"<text>"`
	Limit int    `short:"n" long:"limit" description:"how many events to print" default:"20" value-name:"<n>"`

	out io.Writer
}

// Execute executes the history command.
func (command *HistoryCommand) Execute(args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	return command.run(context.Background(), cfg, logger)
}

func (command *HistoryCommand) run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	if cfg.Client.History == "" {
		return ErrNoHistory
	}
	if command.Field == "" && command.Grep == "" {
		return fmt.Errorf("history needs --field or --grep")
	}
	e, db, err := newEngine(ctx, cfg, "", logger)
	if err != nil {
		return err
	}
	defer db.Close()

	out := output(command.out)
	if command.Grep != "" {
		events, total, err := e.Search(ctx, command.Grep, command.Field, command.Limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d matching events\n", total)
		printEvents(out, events)
		return nil
	}
	events, err := e.History(ctx, command.Field, command.Limit)
	if err != nil {
		return err
	}
	printEvents(out, events)
	return nil
}

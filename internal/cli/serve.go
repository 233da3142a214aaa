package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/matthewbaird/inplace/internal/server"
)

// ServeCommand runs the demo backend.
type ServeCommand struct {
	Port     int    `short:"p" long:"port" description:"port to listen on; overrides the config" value-name:"<port>"`
	Database string `short:"d" long:"database" description:"sqlite DSN; overrides the config" value-name:"<dsn>"`
}

// Execute executes the serve command.
// (This gets called by `go-flags` when `serve` is provided on the command line)
func (command *ServeCommand) Execute(args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if command.Port != 0 {
		cfg.Server.Port = command.Port
	}
	if command.Database != "" {
		cfg.Server.Database = command.Database
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("sqlite", cfg.Server.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	return server.Run(ctx, server.Config{Port: cfg.Server.Port, DB: db, Log: logger})
}

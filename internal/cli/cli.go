// Package cli provides the command-line interface for inplace.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/matthewbaird/inplace/internal/activity"
	"github.com/matthewbaird/inplace/internal/config"
	"github.com/matthewbaird/inplace/internal/engine"
	"github.com/matthewbaird/inplace/internal/page"
	"github.com/matthewbaird/inplace/internal/syncclient"
)

type CommandLineOpts struct {
	Verbose bool `short:"v" long:"verbose" description:"Log at debug level"`

	ServeCommand   ServeCommand   `command:"serve" description:"Run the demo backend"`
	FieldsCommand  FieldsCommand  `command:"fields" description:"List the editable fields of a page"`
	EditCommand    EditCommand    `command:"edit" description:"Edit one field of a page"`
	PickCommand    PickCommand    `command:"pick" description:"Pick a day for a date field"`
	WatchCommand   WatchCommand   `command:"watch" description:"Follow changes confirmed by other clients"`
	HistoryCommand HistoryCommand `command:"history" description:"Show or search recorded field events"`
}

var Opts CommandLineOpts

// setup loads the configuration and points the global logger at stderr.
func setup() (config.Config, zerolog.Logger, error) {
	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	lvl, _ := cfg.Level()
	if Opts.Verbose {
		lvl = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
	return cfg, log.Logger, nil
}

// session is a page fetched from a server with every field activated.
type session struct {
	doc    *page.Document
	engine *engine.Engine
	db     *sql.DB
}

// close destroys every field, recording the destroy events, then releases
// the history database.
func (s *session) close(ctx context.Context) {
	s.engine.Close(ctx)
	if s.db != nil {
		s.db.Close()
	}
}

// ErrNoHistory is returned when a command needs a history database and
// none is configured.
var ErrNoHistory = errors.New("no history database configured (client.history or INPLACE_HISTORY)")

// openHistory opens the configured sqlite event history. With no DSN the
// engine keeps events in memory and db is nil.
func openHistory(ctx context.Context, cfg config.Config) (activity.Store, *sql.DB, error) {
	if cfg.Client.History == "" {
		return activity.NewMemoryStore(), nil, nil
	}
	db, err := sql.Open("sqlite", cfg.Client.History)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := activity.NewSQLStore(db)
	if err := store.CreateTable(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("creating history table: %w", err)
	}
	return store, db, nil
}

// newEngine builds an engine whose updates go to base and whose events are
// recorded to the configured history.
func newEngine(ctx context.Context, cfg config.Config, base string, logger zerolog.Logger) (*engine.Engine, *sql.DB, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Client.BaseURL != "" {
		base = cfg.Client.BaseURL
	}
	client, err := syncclient.New(nil, syncclient.Config{
		Method:  cfg.Client.Method,
		Timeout: timeout,
		BaseURL: base,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	store, db, err := openHistory(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	e, err := engine.New(engine.Options{Client: client, Store: store, Log: logger})
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, err
	}
	return e, db, nil
}

func openSession(ctx context.Context, cfg config.Config, pageURL string, logger zerolog.Logger) (*session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching page: %s", resp.Status)
	}
	doc, err := page.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	e, db, err := newEngine(ctx, cfg, pageURL, logger)
	if err != nil {
		return nil, err
	}
	if _, err := e.Activate(ctx, doc.Root()); err != nil {
		// Misconfigured fields are skipped; the rest stay usable.
		logger.Warn().Err(err).Msg("some fields could not be activated")
	}
	return &session{doc: doc, engine: e, db: db}, nil
}

func (s *session) element(id string) (*page.Element, error) {
	el, ok := s.doc.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownField, id)
	}
	return el, nil
}

func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

package cli

import (
	"bytes"
	"context"
	"database/sql"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/inplace/internal/config"
	"github.com/matthewbaird/inplace/internal/server"
)

func demoServer(t *testing.T) string {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	srv, err := server.New(context.Background(), db, zerolog.Nop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestParseCommandLine(t *testing.T) {
	var opts CommandLineOpts
	parser := flags.NewParser(&opts, flags.None)
	var ran flags.Commander
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		ran = cmd
		return nil
	}
	_, err := parser.ParseArgs([]string{"edit", "--url", "http://x/users/1", "--field", "f", "--value", "v"})
	require.NoError(t, err)
	assert.Same(t, &opts.EditCommand, ran)
	assert.Equal(t, "http://x/users/1", opts.EditCommand.URL)
	assert.Equal(t, "f", opts.EditCommand.Field)
	assert.Equal(t, 5, opts.EditCommand.History)

	parser = flags.NewParser(&CommandLineOpts{}, flags.None)
	parser.CommandHandler = func(flags.Commander, []string) error { return nil }
	_, err = parser.ParseArgs([]string{"edit", "--url", "http://x"})
	assert.ErrorContains(t, err, "required")
}

func TestFields(t *testing.T) {
	base := demoServer(t)
	var out bytes.Buffer
	cmd := FieldsCommand{URL: base + "/users/1", out: &out}
	require.NoError(t, cmd.run(context.Background(), config.Default(), zerolog.Nop()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 12)
	assert.Contains(t, out.String(), "Italy")
	assert.Contains(t, out.String(), "$100.00")
}

func TestEdit(t *testing.T) {
	base := demoServer(t)
	var out bytes.Buffer
	cmd := EditCommand{URL: base + "/users/1", Field: "inplace_user_1_zip", Value: "20100", History: 5, out: &out}
	require.NoError(t, cmd.run(context.Background(), config.Default(), zerolog.Nop()))
	assert.Contains(t, out.String(), "state: display")
	assert.Contains(t, out.String(), ">20100</")

	out.Reset()
	cmd.Value = "abc"
	err := cmd.run(context.Background(), config.Default(), zerolog.Nop())
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, out.String(), "state: error_display")
	assert.Contains(t, out.String(), "error: ")
}

func TestEdit_UnknownField(t *testing.T) {
	base := demoServer(t)
	cmd := EditCommand{URL: base + "/users/1", Field: "nope", Value: "x", out: &bytes.Buffer{}}
	assert.ErrorContains(t, cmd.run(context.Background(), config.Default(), zerolog.Nop()), "unknown field")
}

func TestPick(t *testing.T) {
	base := demoServer(t)
	var out bytes.Buffer
	cmd := PickCommand{URL: base + "/users/1", Field: "inplace_user_1_birth_date", Day: 1, Months: -1, out: &out}
	require.NoError(t, cmd.run(context.Background(), config.Default(), zerolog.Nop()))
	assert.Contains(t, out.String(), "state: display")

	cmd.Field = "inplace_user_1_zip"
	assert.ErrorContains(t, cmd.run(context.Background(), config.Default(), zerolog.Nop()), "no date picker")
}

func TestFeedURL(t *testing.T) {
	got, err := feedURL("https://example.test/users/1?x=1")
	require.NoError(t, err)
	assert.Equal(t, "wss://example.test/ws", got)

	got, err = feedURL("http://127.0.0.1:8080/users/1")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:8080/ws", got)
}

func TestHistory_RecordedAcrossCommands(t *testing.T) {
	ctx := context.Background()
	base := demoServer(t)
	cfg := config.Default()
	cfg.Client.History = "file:" + filepath.Join(t.TempDir(), "history.db")

	edit := EditCommand{URL: base + "/users/1", Field: "inplace_user_1_zip", Value: "20100", out: &bytes.Buffer{}}
	require.NoError(t, edit.run(ctx, cfg, zerolog.Nop()))
	edit.Value = "abc"
	assert.ErrorIs(t, edit.run(ctx, cfg, zerolog.Nop()), ErrRejected)

	var out bytes.Buffer
	history := HistoryCommand{Field: "inplace_user_1_zip", Limit: 20, out: &out}
	require.NoError(t, history.run(ctx, cfg, zerolog.Nop()))
	assert.Contains(t, out.String(), "update inplace_user_1_zip: 25123 -> 20100")
	assert.Contains(t, out.String(), "error inplace_user_1_zip: [Zip must be 5 digits]")

	out.Reset()
	history = HistoryCommand{Grep: "must be 5 digits", Field: "inplace_user_1_", Limit: 20, out: &out}
	require.NoError(t, history.run(ctx, cfg, zerolog.Nop()))
	assert.True(t, strings.HasPrefix(out.String(), "1 matching events\n"), out.String())
}

func TestHistory_NeedsDatabase(t *testing.T) {
	cmd := HistoryCommand{Field: "f", out: &bytes.Buffer{}}
	assert.ErrorIs(t, cmd.run(context.Background(), config.Default(), zerolog.Nop()), ErrNoHistory)
}

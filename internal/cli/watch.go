package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/config"
	"github.com/matthewbaird/inplace/internal/livesync"
)

// WatchCommand keeps a page current with changes made elsewhere and prints
// every field it refreshes.
type WatchCommand struct {
	URL  string `short:"u" long:"url" description:"the page to follow" value-name:"<url>" required:"true"`
	Feed string `long:"feed" description:"the change feed; defaults to /ws on the page's host" value-name:"<url>"`

	out io.Writer
}

// Execute executes the watch command.
func (command *WatchCommand) Execute(args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return command.run(ctx, cfg, logger)
}

func (command *WatchCommand) run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	feed := command.Feed
	if feed == "" {
		var err error
		if feed, err = feedURL(command.URL); err != nil {
			return err
		}
	}
	s, err := openSession(ctx, cfg, command.URL, logger)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	out := output(command.out)
	client := livesync.New(feed, s.engine, logger)
	client.OnApplied(func(msg livesync.Message, refreshed int) {
		for _, c := range s.engine.Fields() {
			ctrl, _ := s.engine.Controller(c)
			d := ctrl.Descriptor()
			if d.Object == msg.Object && d.ObjectID == msg.ObjectID && d.Attribute == msg.Attribute {
				fmt.Fprintf(out, "%s: %s\n", c, d.Display)
			}
		}
	})
	return client.Run(ctx)
}

// feedURL derives the websocket feed of the server that serves pageURL.
func feedURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("page url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path, u.RawQuery, u.Fragment = "/ws", "", ""
	return u.String(), nil
}

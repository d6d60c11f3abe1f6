package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mcdev12/scrumpoker/go/internal/client/identity"
	"github.com/mcdev12/scrumpoker/go/internal/client/landing"
	"github.com/mcdev12/scrumpoker/go/internal/client/sessionview"
	"github.com/mcdev12/scrumpoker/go/internal/client/storeclient"
	"github.com/mcdev12/scrumpoker/go/internal/deck"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errQuit = errors.New("quit")

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Logs go to stderr so they do not interleave with the session view
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := identity.OpenSQLiteStore(ctx, cfg.StateFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StateFile).Msg("failed to open state file")
	}
	defer state.Close()

	d := deck.Default()
	if cfg.DeckFile != "" {
		if d, err = deck.Load(cfg.DeckFile); err != nil {
			log.Fatal().Err(err).Msg("failed to load deck")
		}
	}

	term := newTerminal(os.Stdin, os.Stdout)
	store := storeclient.New(http.DefaultClient, cfg.APIURL)
	keeper := identity.NewKeeper(state)

	drv := &driver{
		cfg:    cfg,
		deck:   d,
		term:   term,
		store:  store,
		keeper: keeper,
		flow:   landing.NewFlow(store, keeper, term, term, term),
	}

	start := route{landing: true}
	if len(os.Args) > 1 {
		id, err := uuid.Parse(os.Args[1])
		if err != nil {
			log.Fatal().Err(err).Str("arg", os.Args[1]).Msg("invalid session id")
		}
		start = route{sessionID: id}
	}

	if err := drv.run(ctx, start); err != nil && !errors.Is(err, errQuit) && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("client stopped")
	}
}

type driver struct {
	cfg    Config
	deck   *deck.Deck
	term   *terminal
	store  *storeclient.Client
	keeper *identity.Keeper
	flow   *landing.Flow
}

func (d *driver) run(ctx context.Context, r route) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		if r.landing {
			r, err = d.landing(ctx)
		} else {
			r, err = d.session(ctx, r.sessionID)
		}
		if err != nil {
			return err
		}
	}
}

func (d *driver) landing(ctx context.Context) (route, error) {
	for {
		d.term.printf("\nScrum Poker\n  start          start a new session\n")
		if id, ok := d.flow.SavedSession(ctx); ok {
			d.term.printf("  rejoin         rejoin session %s\n", id)
		}
		d.term.printf("  open <id>      open a session\n  quit\n> ")

		line, err := d.term.readLine(ctx)
		if err != nil {
			return route{}, errQuit
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "start":
			_, err = d.flow.Start(ctx)
		case "rejoin":
			_, err = d.flow.Rejoin(ctx)
		case "open":
			id, parseErr := uuid.Parse(strings.TrimSpace(arg))
			if parseErr != nil {
				d.term.Error("Invalid session id.")
				continue
			}
			return route{sessionID: id}, nil
		case "quit", "exit":
			return route{}, errQuit
		case "":
			continue
		default:
			d.term.Error(fmt.Sprintf("Unknown command %q.", cmd))
			continue
		}

		if err != nil {
			log.Debug().Err(err).Msg("landing action failed")
		}
		if next, ok := d.term.next(); ok {
			return next, nil
		}
	}
}

func (d *driver) session(ctx context.Context, sessionID uuid.UUID) (route, error) {
	view := sessionview.New(sessionview.Deps{
		Store:       d.store,
		Keeper:      d.keeper,
		Prompter:    d.term,
		Notifier:    d.term,
		Navigator:   d.term,
		Clipboard:   d.term,
		OpenChannel: sessionview.RealtimeOpener(d.cfg.GatewayURL),
		BaseURL:     d.cfg.ShareURL,
	})
	defer view.Close()

	if err := view.Open(ctx, sessionID); err != nil {
		log.Debug().Err(err).Msg("session view did not open")
		if next, ok := d.term.next(); ok {
			return next, nil
		}
		if errors.Is(err, context.Canceled) {
			return route{}, err
		}
		d.term.Error(fmt.Sprintf("Could not open session: %v", err))
		return route{landing: true}, nil
	}

	d.show(view)
	for {
		d.term.printf("vote <card> | reveal | reset | share | show | leave | back | quit\n> ")
		line, err := d.term.readLine(ctx)
		if err != nil {
			return route{}, errQuit
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "vote":
			card := strings.TrimSpace(arg)
			if !d.deck.Contains(card) {
				d.term.Error(fmt.Sprintf("Pick one of: %s", strings.Join(d.deck.Cards(), " ")))
				continue
			}
			view.Vote(card)
		case "reveal":
			view.ToggleReveal()
		case "reset":
			view.Reset()
		case "share":
			view.ShareURL()
		case "show", "":
			d.show(view)
		case "leave":
			view.Leave()
		case "back":
			return route{landing: true}, nil
		case "quit", "exit":
			return route{}, errQuit
		default:
			d.term.Error(fmt.Sprintf("Unknown command %q.", cmd))
		}

		if next, ok := d.term.next(); ok {
			return next, nil
		}

		select {
		case <-view.Done():
			d.term.Error("Realtime connection closed.")
			return route{landing: true}, nil
		default:
		}
	}
}

func (d *driver) show(view *sessionview.View) {
	snap, err := view.Snapshot()
	if err != nil {
		return
	}
	d.term.render(snap, d.deck.Cards())
}

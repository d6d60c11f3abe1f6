package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/scrumpoker/go/internal/dbconfig"
	"github.com/mcdev12/scrumpoker/go/internal/deck"
	"github.com/mcdev12/scrumpoker/go/internal/participants"
	"github.com/mcdev12/scrumpoker/go/internal/sessions"
)

// Seat mirrors one entry of the participants snapshot
type Seat struct {
	Name string `json:"name"`
	Vote string `json:"vote"`
}

func main() {
	path := "go/internal/assets/demo_participants.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var seats []Seat
	if err := json.Unmarshal(data, &seats); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	sessionsApp := sessions.NewApp(sessions.NewRepository(pool))
	participantsApp := participants.NewApp(participants.NewRepository(pool), sessionsApp, deck.Default())

	// 3) Create the session and seat everyone through the same validation as the API
	session, err := sessionsApp.CreateSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create session: %v\n", err)
		os.Exit(1)
	}

	var (
		total  = len(seats)
		joined int
		voted  int
		errs   int
	)

	for _, s := range seats {
		p, err := participantsApp.CreateParticipant(ctx, session.ID, s.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error adding %q: %v\n", s.Name, err)
			errs++
			continue
		}
		joined++

		if s.Vote == "" {
			continue
		}
		if _, err := participantsApp.CastVote(ctx, p.ID, s.Vote); err != nil {
			fmt.Fprintf(os.Stderr, "error casting vote for %q: %v\n", s.Name, err)
			errs++
			continue
		}
		voted++
	}

	// 4) Print summary
	fmt.Printf(
		"Session %s seeded: %d total, %d joined, %d voted, %d errors\n",
		session.ID, total, joined, voted, errs,
	)
}

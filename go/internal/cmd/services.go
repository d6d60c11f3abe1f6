package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/scrumpoker/go/internal/deck"
	"github.com/mcdev12/scrumpoker/go/internal/participants"
	"github.com/mcdev12/scrumpoker/go/internal/sessions"
)

type Services struct {
	Sessions     *sessions.Service
	Participants *participants.Service
}

func setupServices(pool *pgxpool.Pool, d *deck.Deck) *Services {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer

	// Sessions
	sessionsRepo := sessions.NewRepository(pool)
	sessionsApp := sessions.NewApp(sessionsRepo)
	sessionsService := sessions.NewService(sessionsApp)

	// Participants
	participantsRepo := participants.NewRepository(pool)
	participantsApp := participants.NewApp(participantsRepo, sessionsApp, d)
	participantsService := participants.NewService(participantsApp)

	return &Services{
		Sessions:     sessionsService,
		Participants: participantsService,
	}
}

package main

import (
	"os"
	"strconv"

	"github.com/mcdev12/scrumpoker/go/internal/deck"
	"github.com/rs/zerolog/log"
)

// Config holds the Store API settings read from the environment
type Config struct {
	Port           string
	DeckFile       string
	MigrateOnStart bool
}

func loadConfig() Config {
	return Config{
		Port:           getEnv("PORT", "8080"),
		DeckFile:       getEnv("DECK_FILE", ""),
		MigrateOnStart: getEnvAsBool("MIGRATE_ON_START", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadDeck reads the deck file when one is configured, otherwise the default deck is used
func loadDeck(path string) (*deck.Deck, error) {
	if path == "" {
		return deck.Default(), nil
	}

	d, err := deck.Load(path)
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", path).Strs("cards", d.Cards()).Msg("loaded deck")
	return d, nil
}

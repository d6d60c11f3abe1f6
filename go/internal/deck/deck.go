package deck

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCards is the standard estimation deck. Faces are opaque strings; "?" means unsure.
var DefaultCards = []string{"0.5", "1", "2", "3", "5", "8", "13", "21", "34", "?"}

// Deck is an ordered set of card faces.
type Deck struct {
	cards []string
}

type fileConfig struct {
	Cards []string `yaml:"cards"`
}

// Default returns the standard deck.
func Default() *Deck {
	d, _ := New(DefaultCards)
	return d
}

// New builds a deck, rejecting empty or duplicate faces.
func New(cards []string) (*Deck, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("deck must contain at least one card")
	}

	seen := make(map[string]bool, len(cards))
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("deck contains an empty card")
		}
		if seen[c] {
			return nil, fmt.Errorf("deck contains duplicate card %q", c)
		}
		seen[c] = true
		out = append(out, c)
	}
	return &Deck{cards: out}, nil
}

// Load reads a deck from a YAML file of the form `cards: ["1", "2", ...]`.
func Load(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse deck file: %w", err)
	}

	return New(cfg.Cards)
}

// Cards returns a copy of the faces in display order.
func (d *Deck) Cards() []string {
	return slices.Clone(d.cards)
}

// Contains reports whether value is a face of this deck.
func (d *Deck) Contains(value string) bool {
	return slices.Contains(d.cards, value)
}

// Package uitest provides recording implementations of the ui interfaces for tests.
package uitest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/client/ui"
)

// Kind of a recorded notification
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Note is one recorded notification
type Note struct {
	Kind Kind
	Text string
}

// Recorder records everything the client shows the user
type Recorder struct {
	mu           sync.Mutex
	notes        []Note
	celebrations int
	paths        []string
	copied       []string
}

var (
	_ ui.Notifier  = (*Recorder)(nil)
	_ ui.Navigator = (*Recorder)(nil)
	_ ui.Clipboard = (*Recorder)(nil)
)

func (r *Recorder) Info(msg string)    { r.add(KindInfo, msg) }
func (r *Recorder) Success(msg string) { r.add(KindSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(KindError, msg) }

func (r *Recorder) Celebrate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.celebrations++
}

func (r *Recorder) ToLanding() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, ui.LandingPath)
}

func (r *Recorder) ToSession(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, ui.SessionPath(sessionID))
}

func (r *Recorder) Copy(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.copied = append(r.copied, text)
	return nil
}

func (r *Recorder) add(kind Kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, Note{Kind: kind, Text: msg})
}

// Notes returns every notification so far
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// Texts returns the text of every notification of kind
func (r *Recorder) Texts(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, n := range r.notes {
		if n.Kind == kind {
			out = append(out, n.Text)
		}
	}
	return out
}

// Celebrations returns how often the reveal effect played
func (r *Recorder) Celebrations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.celebrations
}

// Paths returns every navigation target so far
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// Copied returns everything put on the clipboard
func (r *Recorder) Copied() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.copied...)
}

// Prompter answers name prompts from a script. An exhausted script cancels.
type Prompter struct {
	mu      sync.Mutex
	answers []string
	calls   int
}

var _ ui.NamePrompter = (*Prompter)(nil)

// NewPrompter returns a prompter that answers with names in order
func NewPrompter(names ...string) *Prompter {
	return &Prompter{answers: names}
}

func (p *Prompter) PromptName(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(p.answers) == 0 {
		return "", ui.ErrPromptCancelled
	}

	name := p.answers[0]
	p.answers = p.answers[1:]
	return name, nil
}

// Calls returns how often the prompt was shown
func (p *Prompter) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

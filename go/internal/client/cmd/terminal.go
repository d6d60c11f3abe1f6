package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/client/sessionview"
	"github.com/mcdev12/scrumpoker/go/internal/client/ui"
)

// route is where the driver goes next
type route struct {
	landing   bool
	sessionID uuid.UUID
}

// terminal renders notifications as lines and reads names and commands
// from one line reader. It is the ui for every view of the process.
type terminal struct {
	in  *bufio.Scanner
	out io.Writer

	mu     sync.Mutex
	routes chan route
}

var (
	_ ui.Notifier     = (*terminal)(nil)
	_ ui.Navigator    = (*terminal)(nil)
	_ ui.NamePrompter = (*terminal)(nil)
	_ ui.Clipboard    = (*terminal)(nil)
)

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{
		in:     bufio.NewScanner(in),
		out:    out,
		routes: make(chan route, 1),
	}
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *terminal) Info(msg string)    { t.printf("[info] %s\n", msg) }
func (t *terminal) Success(msg string) { t.printf("[ok] %s\n", msg) }
func (t *terminal) Error(msg string)   { t.printf("[error] %s\n", msg) }
func (t *terminal) Celebrate()         { t.printf("*** votes revealed ***\n") }

func (t *terminal) ToLanding() {
	t.navigate(route{landing: true})
}

func (t *terminal) ToSession(sessionID uuid.UUID) {
	t.navigate(route{sessionID: sessionID})
}

// navigate keeps only the latest target
func (t *terminal) navigate(r route) {
	for {
		select {
		case t.routes <- r:
			return
		default:
			select {
			case <-t.routes:
			default:
			}
		}
	}
}

// next returns the pending navigation, if any
func (t *terminal) next() (route, bool) {
	select {
	case r := <-t.routes:
		return r, true
	default:
		return route{}, false
	}
}

func (t *terminal) Copy(text string) error {
	t.printf("%s\n", text)
	return nil
}

// PromptName reads one line. An empty line is returned as is; end of input cancels.
func (t *terminal) PromptName(ctx context.Context) (string, error) {
	t.printf("Name (empty line to retry, EOF to cancel): ")
	line, err := t.readLine(ctx)
	if err != nil {
		return "", ui.ErrPromptCancelled
	}
	return line, nil
}

func (t *terminal) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(t.in.Text()), nil
}

func (t *terminal) render(snap sessionview.Snapshot, cards []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := "hidden"
	if snap.Session.VotesRevealed {
		state = "revealed"
	}
	fmt.Fprintf(t.out, "\nSession %s (votes %s)\n", snap.Session.ID, state)

	for _, e := range snap.Roster {
		vote := "-"
		if e.Participant.HasVoted() {
			vote = "voted"
			if snap.Session.VotesRevealed {
				vote = *e.Participant.Vote
			}
		}

		marker := " "
		if e.IsViewer {
			marker = "*"
		}
		status := "online"
		if !e.Online {
			status = "connecting"
		}
		fmt.Fprintf(t.out, " %s %-20s %-10s %s\n", marker, e.Participant.Name, status, vote)
	}

	mine := "none"
	if snap.ViewerVote != nil {
		mine = *snap.ViewerVote
	}
	fmt.Fprintf(t.out, "Your vote: %s\nCards: %s\n", mine, strings.Join(cards, " "))
}

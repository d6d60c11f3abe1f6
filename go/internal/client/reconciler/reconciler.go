// Package reconciler keeps a local copy of one session and its participants
// consistent with the change events delivered for it.
package reconciler

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/client/ui"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Source is the read side of the store used for full loads
type Source interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error)
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithLogger replaces the global logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// Reconciler holds the session state of one view. It is not safe for
// concurrent use; the owner serialises Load, Apply and reads.
type Reconciler struct {
	sessionID    uuid.UUID
	notifier     ui.Notifier
	logger       zerolog.Logger
	session      *models.Session
	participants []models.Participant
}

// New creates a reconciler for sessionID
func New(sessionID uuid.UUID, notifier ui.Notifier, opts ...Option) *Reconciler {
	r := &Reconciler{
		sessionID: sessionID,
		notifier:  notifier,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("session_id", sessionID.String()).Logger()
	return r
}

// State is a full read of a session and its participants
type State struct {
	Session      *models.Session
	Participants []models.Participant
}

// Load fetches the session and its participants. A missing session is
// returned as the source's not-found error and leaves the state empty.
func (r *Reconciler) Load(ctx context.Context, src Source) error {
	return r.reload(ctx, src, "session loaded")
}

// Resync reloads the full state without notifications, used after the
// channel was (re-)established and events may have been missed.
// On failure the previous state is kept.
func (r *Reconciler) Resync(ctx context.Context, src Source) error {
	return r.reload(ctx, src, "session resynced")
}

func (r *Reconciler) reload(ctx context.Context, src Source, msg string) error {
	st, err := r.Fetch(ctx, src)
	if err != nil {
		return err
	}
	r.Replace(st)
	r.logger.Debug().Int("participants", len(st.Participants)).Msg(msg)
	return nil
}

// Fetch reads the full state from src without touching the held one, so an
// owner can run it without holding its own lock.
func (r *Reconciler) Fetch(ctx context.Context, src Source) (State, error) {
	session, err := src.GetSession(ctx, r.sessionID)
	if err != nil {
		return State{}, fmt.Errorf("failed to fetch session: %w", err)
	}

	participants, err := src.ListParticipants(ctx, r.sessionID)
	if err != nil {
		return State{}, fmt.Errorf("failed to fetch participants: %w", err)
	}

	// Results arriving after the view went away are discarded.
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	participants = slices.Clone(participants)
	sortParticipants(participants)
	return State{Session: session, Participants: participants}, nil
}

// Replace installs a fetched state without notifications
func (r *Reconciler) Replace(st State) {
	r.session = st.Session
	r.participants = st.Participants
}

// Loaded reports whether a session is held
func (r *Reconciler) Loaded() bool {
	return r.session != nil
}

// Session returns a copy of the local session state
func (r *Reconciler) Session() (models.Session, bool) {
	if r.session == nil {
		return models.Session{}, false
	}
	return *r.session, true
}

// Participants returns a copy of the participants, oldest joined first
func (r *Reconciler) Participants() []models.Participant {
	return slices.Clone(r.participants)
}

// Participant returns the participant with id
func (r *Reconciler) Participant(id uuid.UUID) (models.Participant, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.participants[i], true
	}
	return models.Participant{}, false
}

// Apply folds one change event into the local state. Events that cannot be
// applied are logged and dropped.
func (r *Reconciler) Apply(ev events.ChangeEvent) {
	if r.session == nil {
		r.logger.Debug().Str("event_id", ev.ID.String()).Msg("dropping event before initial load")
		return
	}
	if ev.SessionID != r.sessionID {
		r.logger.Debug().
			Str("event_id", ev.ID.String()).
			Str("event_session_id", ev.SessionID.String()).
			Msg("dropping event of another session")
		return
	}

	var err error
	switch {
	case ev.Table == events.TableSessions && ev.EventType == events.EventUpdate:
		err = r.applySessionUpdate(ev)
	case ev.Table == events.TableUsers && ev.EventType == events.EventInsert:
		err = r.applyInsert(ev)
	case ev.Table == events.TableUsers && ev.EventType == events.EventUpdate:
		err = r.applyUpdate(ev)
	case ev.Table == events.TableUsers && ev.EventType == events.EventDelete:
		err = r.applyDelete(ev)
	default:
		err = fmt.Errorf("unexpected %s event on %q", ev.EventType, ev.Table)
	}

	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("event_id", ev.ID.String()).
			Str("table", ev.Table).
			Str("event_type", string(ev.EventType)).
			Msg("dropping change event")
	}
}

func (r *Reconciler) applySessionUpdate(ev events.ChangeEvent) error {
	next, err := ev.DecodeSession()
	if err != nil {
		return err
	}
	if next.ID != r.sessionID {
		return fmt.Errorf("session row %s does not match", next.ID)
	}

	wasRevealed := r.session.VotesRevealed
	r.session = next

	if next.VotesRevealed && !wasRevealed {
		r.notifier.Info("Votes have been revealed!")
		r.notifier.Celebrate()
	}
	return nil
}

func (r *Reconciler) applyInsert(ev events.ChangeEvent) error {
	p, err := ev.DecodeParticipant()
	if err != nil {
		return err
	}
	if p.SessionID != r.sessionID {
		return fmt.Errorf("participant %s belongs to session %s", p.ID, p.SessionID)
	}

	// Redelivered insert: keep one entry and stay quiet
	if i := r.indexOf(p.ID); i >= 0 {
		r.participants[i] = *p
		sortParticipants(r.participants)
		return nil
	}

	r.participants = append(r.participants, *p)
	sortParticipants(r.participants)
	r.notifier.Info(fmt.Sprintf("%s has joined the session.", p.Name))
	return nil
}

func (r *Reconciler) applyUpdate(ev events.ChangeEvent) error {
	p, err := ev.DecodeParticipant()
	if err != nil {
		return err
	}

	i := r.indexOf(p.ID)
	if i < 0 {
		r.logger.Debug().Str("participant_id", p.ID.String()).Msg("ignoring update of unknown participant")
		return nil
	}

	r.participants[i] = *p
	sortParticipants(r.participants)
	return nil
}

func (r *Reconciler) applyDelete(ev events.ChangeEvent) error {
	old, err := ev.DecodeOldParticipant()
	if err != nil {
		return err
	}

	i := r.indexOf(old.ID)
	if i < 0 {
		return nil
	}

	r.participants = slices.Delete(r.participants, i, i+1)
	if old.Name != "" {
		r.notifier.Info(fmt.Sprintf("%s has left the session.", old.Name))
	}
	return nil
}

func (r *Reconciler) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(r.participants, func(p models.Participant) bool {
		return p.ID == id
	})
}

// sortParticipants orders by join time, then id
func sortParticipants(ps []models.Participant) {
	slices.SortFunc(ps, func(a, b models.Participant) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), bytes.Compare(a.ID[:], b.ID[:]))
	})
}

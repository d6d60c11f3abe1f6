// Package sessionview runs one open session: it resolves the viewer, loads
// the session, follows the realtime channel and performs the viewer's actions.
package sessionview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/client/identity"
	"github.com/mcdev12/scrumpoker/go/internal/client/presence"
	"github.com/mcdev12/scrumpoker/go/internal/client/reconciler"
	"github.com/mcdev12/scrumpoker/go/internal/client/rtclient"
	"github.com/mcdev12/scrumpoker/go/internal/client/ui"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Notification texts
const (
	MsgLoadFailed   = "Failed to load session. It might not exist."
	MsgVoteFailed   = "Failed to cast vote."
	MsgRevealFailed = "Failed to update reveal state."
	MsgReset        = "Votes have been reset."
	MsgResetFailed  = "Failed to reset votes."
	MsgLeft         = "You have left the session."
	MsgLeaveFailed  = "Failed to leave session."
	MsgLinkCopied   = "Session link copied to clipboard!"
)

var (
	// ErrLoadFailed is returned by Open when the session could not be loaded
	ErrLoadFailed = errors.New("session load failed")

	// ErrNotOpen is returned by actions before Open succeeded or after Close
	ErrNotOpen = errors.New("session view not open")

	// ErrAlreadyOpened is returned when Open is called twice
	ErrAlreadyOpened = errors.New("session view already opened")
)

// Store is the part of the store client a session view uses
type Store interface {
	reconciler.Source
	identity.ParticipantCreator
	SetVotesRevealed(ctx context.Context, id uuid.UUID, revealed bool) (*models.Session, error)
	ResetVotes(ctx context.Context, id uuid.UUID) (*models.Session, error)
	CastVote(ctx context.Context, participantID uuid.UUID, vote string) (*models.Participant, error)
	DeleteParticipant(ctx context.Context, participantID uuid.UUID) (*models.Participant, error)
}

// Channel is an open realtime subscription to one session
type Channel interface {
	Messages() <-chan events.Message
	Track(meta events.PresenceMeta) error
	Close() error
}

// ChannelOpener opens the realtime channel of a session
type ChannelOpener func(ctx context.Context, sessionID uuid.UUID, presenceKey string) (Channel, error)

// RealtimeOpener opens gateway channels at gatewayURL
func RealtimeOpener(gatewayURL string, opts ...rtclient.Option) ChannelOpener {
	return func(ctx context.Context, sessionID uuid.UUID, presenceKey string) (Channel, error) {
		return rtclient.Dial(ctx, rtclient.DefaultConfig(gatewayURL, sessionID, presenceKey), opts...)
	}
}

// Deps are the collaborators of a view
type Deps struct {
	Store       Store
	Keeper      *identity.Keeper
	Prompter    ui.NamePrompter
	Notifier    ui.Notifier
	Navigator   ui.Navigator
	Clipboard   ui.Clipboard
	OpenChannel ChannelOpener
	// BaseURL prefixes share links, e.g. https://poker.example.com
	BaseURL string
	Logger  *zerolog.Logger
}

// Snapshot is the read model rendered by the session page
type Snapshot struct {
	Session    models.Session
	Viewer     identity.Identity
	ViewerVote *string
	// Roster lists the visible participants, oldest joined first
	Roster []presence.Entry
	Online []string
}

// View is one open session. A View is opened once; navigate to another
// session with a new View.
type View struct {
	deps   Deps
	logger zerolog.Logger

	// mu guards everything below
	mu            sync.Mutex
	opened        bool
	open          bool
	sessionID     uuid.UUID
	viewer        identity.Identity
	rec           *reconciler.Reconciler
	tracker       *presence.Tracker
	channel       Channel
	subscriptions int

	// ctx is cancelled by Close or by the context passed to Open
	ctx        context.Context
	cancel     context.CancelFunc
	stopParent func() bool
	done       chan struct{}
}

func New(deps Deps) *View {
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &View{
		deps:    deps,
		logger:  logger,
		tracker: presence.NewTracker(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Open resolves the viewer, loads the session and subscribes to its channel.
// The view lives until Close or until ctx is cancelled. On failure the user
// has been notified and, where the session cannot be shown, sent to landing.
func (v *View) Open(ctx context.Context, sessionID uuid.UUID) error {
	v.mu.Lock()
	if v.opened {
		v.mu.Unlock()
		return ErrAlreadyOpened
	}
	if v.ctx.Err() != nil {
		v.mu.Unlock()
		return ErrNotOpen
	}
	v.opened = true
	v.sessionID = sessionID
	v.stopParent = context.AfterFunc(ctx, v.cancel)
	v.logger = v.logger.With().Str("session_id", sessionID.String()).Logger()
	v.mu.Unlock()

	if err := v.start(sessionID); err != nil {
		v.stopParent()
		v.cancel()
		close(v.done)
		return err
	}
	return nil
}

func (v *View) start(sessionID uuid.UUID) error {
	boot := identity.NewBootstrap(v.deps.Keeper, v.deps.Store, v.deps.Prompter, v.deps.Notifier, v.deps.Navigator)
	viewer, err := boot.Resolve(v.ctx, sessionID)
	if err != nil {
		return fmt.Errorf("resolve viewer: %w", err)
	}

	rec := reconciler.New(sessionID, v.deps.Notifier, reconciler.WithLogger(v.logger))
	if err := rec.Load(v.ctx, v.deps.Store); err != nil {
		if ctxErr := v.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		v.logger.Error().Err(err).Msg("Error fetching session data")
		v.deps.Notifier.Error(MsgLoadFailed)
		if clearErr := v.deps.Keeper.Clear(v.ctx); clearErr != nil {
			v.logger.Warn().Err(clearErr).Msg("Failed to clear identity")
		}
		v.deps.Navigator.ToLanding()
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	channel, err := v.deps.OpenChannel(v.ctx, sessionID, viewer.ParticipantID.String())
	if err != nil {
		return fmt.Errorf("open realtime channel: %w", err)
	}

	v.mu.Lock()
	if err := v.ctx.Err(); err != nil {
		v.mu.Unlock()
		channel.Close()
		return err
	}
	v.viewer = viewer
	v.rec = rec
	v.channel = channel
	v.open = true
	v.mu.Unlock()

	go v.loop(channel)

	v.logger.Info().Str("participant_id", viewer.ParticipantID.String()).Msg("Session view opened")
	return nil
}

// loop is the only goroutine that changes session state
func (v *View) loop(channel Channel) {
	defer close(v.done)
	defer v.stopParent()

	for {
		select {
		case <-v.ctx.Done():
			return
		case msg, ok := <-channel.Messages():
			if !ok {
				return
			}
			v.handle(channel, msg)
		}
	}
}

func (v *View) handle(channel Channel, msg events.Message) {
	if msg.Type == events.TypeSubscribed {
		v.subscribed(channel)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ctx.Err() != nil {
		return
	}

	switch msg.Type {
	case events.TypePresenceSync:
		v.tracker.Sync(msg.Presence)

	case events.TypePostgresChanges:
		if msg.Change == nil {
			v.logger.Warn().Msg("Change frame without payload")
			return
		}
		v.rec.Apply(*msg.Change)

	case events.TypeError:
		v.logger.Warn().Str("error", msg.Error).Msg("Gateway reported an error")

	default:
		v.logger.Debug().Str("type", string(msg.Type)).Msg("Ignoring realtime frame")
	}
}

// subscribed announces the viewer and reloads the session. Changes committed
// before the gateway registered this connection, or while it was down, only
// show up through the reload. The store is read without holding v.mu.
func (v *View) subscribed(channel Channel) {
	v.mu.Lock()
	v.subscriptions++
	n, viewer := v.subscriptions, v.viewer
	v.mu.Unlock()
	v.logger.Debug().Int("subscriptions", n).Msg("Channel subscribed")

	meta := events.PresenceMeta{UserID: viewer.ParticipantID.String(), Name: viewer.Name}
	if err := channel.Track(meta); err != nil {
		v.logger.Warn().Err(err).Msg("Failed to track presence")
	}

	st, err := v.rec.Fetch(v.ctx, v.deps.Store)
	if err != nil {
		if v.ctx.Err() == nil {
			v.logger.Warn().Err(err).Msg("Failed to resync session")
		}
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx.Err() != nil {
		return
	}
	v.rec.Replace(st)
}

// state returns what actions need, or ErrNotOpen
func (v *View) state() (context.Context, identity.Identity, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.open {
		return nil, identity.Identity{}, ErrNotOpen
	}
	return v.ctx, v.viewer, nil
}

// Vote casts the viewer's card. The local state changes when the update is
// echoed back on the channel.
func (v *View) Vote(value string) error {
	ctx, viewer, err := v.state()
	if err != nil {
		return err
	}

	if _, err := v.deps.Store.CastVote(ctx, viewer.ParticipantID, value); err != nil {
		v.logger.Error().Err(err).Str("vote", value).Msg("Failed to cast vote")
		v.deps.Notifier.Error(MsgVoteFailed)
		return err
	}
	return nil
}

// ToggleReveal flips the reveal flag of the session
func (v *View) ToggleReveal() error {
	ctx, _, err := v.state()
	if err != nil {
		return err
	}

	v.mu.Lock()
	session, _ := v.rec.Session()
	v.mu.Unlock()

	if _, err := v.deps.Store.SetVotesRevealed(ctx, v.sessionID, !session.VotesRevealed); err != nil {
		v.logger.Error().Err(err).Msg("Failed to update reveal state")
		v.deps.Notifier.Error(MsgRevealFailed)
		return err
	}
	return nil
}

// Reset hides the cards and clears every vote
func (v *View) Reset() error {
	ctx, _, err := v.state()
	if err != nil {
		return err
	}

	if _, err := v.deps.Store.ResetVotes(ctx, v.sessionID); err != nil {
		v.logger.Error().Err(err).Msg("Failed to reset votes")
		v.deps.Notifier.Error(MsgResetFailed)
		return err
	}
	v.deps.Notifier.Success(MsgReset)
	return nil
}

// Leave removes the viewer from the session, forgets the identity and
// closes the view
func (v *View) Leave() error {
	ctx, viewer, err := v.state()
	if err != nil {
		return err
	}

	if _, err := v.deps.Store.DeleteParticipant(ctx, viewer.ParticipantID); err != nil {
		v.logger.Error().Err(err).Msg("Failed to leave session")
		v.deps.Notifier.Error(MsgLeaveFailed)
		return err
	}

	v.deps.Notifier.Success(MsgLeft)
	if err := v.deps.Keeper.Clear(ctx); err != nil {
		v.logger.Warn().Err(err).Msg("Failed to clear identity")
	}
	v.Close()
	v.deps.Navigator.ToLanding()
	return nil
}

// ShareURL copies the link of the session to the clipboard
func (v *View) ShareURL() (string, error) {
	if _, _, err := v.state(); err != nil {
		return "", err
	}

	link := strings.TrimSuffix(v.deps.BaseURL, "/") + ui.SessionPath(v.sessionID)

	if v.deps.Clipboard != nil {
		if err := v.deps.Clipboard.Copy(link); err != nil {
			return link, fmt.Errorf("copy share link: %w", err)
		}
	}
	v.deps.Notifier.Success(MsgLinkCopied)
	return link, nil
}

// Snapshot returns the current read model
func (v *View) Snapshot() (Snapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.open {
		return Snapshot{}, ErrNotOpen
	}

	session, _ := v.rec.Session()
	snap := Snapshot{
		Session: session,
		Viewer:  v.viewer,
		Roster:  presence.Roster(v.rec.Participants(), v.tracker, v.viewer.ParticipantID),
		Online:  v.tracker.Online(),
	}
	if p, ok := v.rec.Participant(v.viewer.ParticipantID); ok {
		snap.ViewerVote = p.Vote
	}
	return snap, nil
}

// Done is closed once the view stopped following its channel
func (v *View) Done() <-chan struct{} {
	return v.done
}

// Close releases the channel and waits for in-flight work. Nothing is
// applied after Close returns.
func (v *View) Close() error {
	v.cancel()

	v.mu.Lock()
	if !v.opened {
		v.mu.Unlock()
		return nil
	}
	v.open = false
	channel := v.channel
	v.channel = nil
	v.mu.Unlock()

	var err error
	if channel != nil {
		err = channel.Close()
	}
	<-v.done
	return err
}

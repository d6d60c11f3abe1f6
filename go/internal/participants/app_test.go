package participants

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/deck"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/mcdev12/scrumpoker/go/internal/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockParticipantsRepository struct{ mock.Mock }

func (m *MockParticipantsRepository) CreateParticipant(ctx context.Context, sessionID uuid.UUID, name string) (*models.Participant, error) {
	args := m.Called(ctx, sessionID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockParticipantsRepository) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*models.Participant, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Participant), args.Error(1)
}

func (m *MockParticipantsRepository) CastVote(ctx context.Context, id uuid.UUID, vote string) (*models.Participant, error) {
	args := m.Called(ctx, id, vote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockParticipantsRepository) DeleteParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

type MockSessionLookup struct{ mock.Mock }

func (m *MockSessionLookup) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func newTestApp() (*App, *MockParticipantsRepository, *MockSessionLookup) {
	repo := new(MockParticipantsRepository)
	lookup := new(MockSessionLookup)
	return NewApp(repo, lookup, deck.Default()), repo, lookup
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "trims whitespace", input: "  Alice  ", want: "Alice"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: " \t\n ", wantErr: true},
		{name: "max length", input: strings.Repeat("é", MaxNameLength), want: strings.Repeat("é", MaxNameLength)},
		{name: "too long", input: strings.Repeat("a", MaxNameLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeName(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppCreateParticipantTrimsName(t *testing.T) {
	app, repo, _ := newTestApp()
	ctx := context.Background()
	sessionID := uuid.New()

	want := &models.Participant{ID: uuid.New(), SessionID: sessionID, Name: "Alice", CreatedAt: time.Now()}
	repo.On("CreateParticipant", ctx, sessionID, "Alice").Return(want, nil)

	got, err := app.CreateParticipant(ctx, sessionID, "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, got.HasVoted())
}

func TestAppCreateParticipantRejectsBlankName(t *testing.T) {
	app, repo, _ := newTestApp()

	_, err := app.CreateParticipant(context.Background(), uuid.New(), "   ")
	assert.ErrorIs(t, err, ErrValidation)
	repo.AssertNotCalled(t, "CreateParticipant", mock.Anything, mock.Anything, mock.Anything)
}

func TestAppCreateParticipantUnknownSession(t *testing.T) {
	app, repo, _ := newTestApp()
	ctx := context.Background()
	sessionID := uuid.New()

	repo.On("CreateParticipant", ctx, sessionID, "Bob").Return(nil, sessions.ErrSessionNotFound)

	_, err := app.CreateParticipant(ctx, sessionID, "Bob")
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestAppListParticipantsChecksSession(t *testing.T) {
	app, repo, lookup := newTestApp()
	ctx := context.Background()
	sessionID := uuid.New()

	lookup.On("GetSession", ctx, sessionID).Return(nil, sessions.ErrSessionNotFound)

	_, err := app.ListParticipants(ctx, sessionID)
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
	repo.AssertNotCalled(t, "ListParticipants", mock.Anything, mock.Anything)
}

func TestAppListParticipants(t *testing.T) {
	app, repo, lookup := newTestApp()
	ctx := context.Background()
	sessionID := uuid.New()

	list := []*models.Participant{
		{ID: uuid.New(), SessionID: sessionID, Name: "Alice"},
		{ID: uuid.New(), SessionID: sessionID, Name: "Bob"},
	}
	lookup.On("GetSession", ctx, sessionID).Return(&models.Session{ID: sessionID}, nil)
	repo.On("ListParticipants", ctx, sessionID).Return(list, nil)

	got, err := app.ListParticipants(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAppCastVote(t *testing.T) {
	app, repo, _ := newTestApp()
	ctx := context.Background()
	id := uuid.New()
	vote := "8"

	repo.On("CastVote", ctx, id, "8").Return(&models.Participant{ID: id, SessionID: uuid.New(), Name: "Alice", Vote: &vote}, nil)

	got, err := app.CastVote(ctx, id, "8")
	require.NoError(t, err)
	require.NotNil(t, got.Vote)
	assert.Equal(t, "8", *got.Vote)
	assert.True(t, got.HasVoted())
}

func TestAppCastVoteRejectsUnknownCard(t *testing.T) {
	app, repo, _ := newTestApp()

	for _, v := range []string{"", "4", "100", "coffee"} {
		_, err := app.CastVote(context.Background(), uuid.New(), v)
		assert.ErrorIs(t, err, ErrValidation, "vote %q", v)
	}
	repo.AssertNotCalled(t, "CastVote", mock.Anything, mock.Anything, mock.Anything)
}

func TestAppCastVoteUsesConfiguredDeck(t *testing.T) {
	repo := new(MockParticipantsRepository)
	d, err := deck.New([]string{"S", "M", "L"})
	require.NoError(t, err)
	app := NewApp(repo, new(MockSessionLookup), d)

	_, err = app.CastVote(context.Background(), uuid.New(), "8")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAppDeleteParticipant(t *testing.T) {
	app, repo, _ := newTestApp()
	ctx := context.Background()
	id := uuid.New()

	repo.On("DeleteParticipant", ctx, id).Return(&models.Participant{ID: id, SessionID: uuid.New(), Name: "Bob"}, nil).Once()
	got, err := app.DeleteParticipant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)

	repo.On("DeleteParticipant", ctx, id).Return(nil, ErrParticipantNotFound).Once()
	_, err = app.DeleteParticipant(ctx, id)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

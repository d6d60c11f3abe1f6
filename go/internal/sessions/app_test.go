package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSessionsRepository struct{ mock.Mock }

func (m *MockSessionsRepository) CreateSession(ctx context.Context) (*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionsRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionsRepository) SetVotesRevealed(ctx context.Context, id uuid.UUID, revealed bool) (*models.Session, error) {
	args := m.Called(ctx, id, revealed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionsRepository) ResetVotes(ctx context.Context, id uuid.UUID) (*models.Session, int64, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.Session), args.Get(1).(int64), args.Error(2)
}

func (m *MockSessionsRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestAppCreateSession(t *testing.T) {
	repo := new(MockSessionsRepository)
	app := NewApp(repo)
	ctx := context.Background()

	want := &models.Session{ID: uuid.New(), CreatedAt: time.Now()}
	repo.On("CreateSession", ctx).Return(want, nil)

	got, err := app.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, got.VotesRevealed)
	repo.AssertExpectations(t)
}

func TestAppGetSessionNotFound(t *testing.T) {
	repo := new(MockSessionsRepository)
	app := NewApp(repo)
	ctx := context.Background()
	id := uuid.New()

	repo.On("GetSession", ctx, id).Return(nil, ErrSessionNotFound)

	_, err := app.GetSession(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAppSetVotesRevealed(t *testing.T) {
	repo := new(MockSessionsRepository)
	app := NewApp(repo)
	ctx := context.Background()
	id := uuid.New()

	repo.On("SetVotesRevealed", ctx, id, true).Return(&models.Session{ID: id, VotesRevealed: true}, nil)

	got, err := app.SetVotesRevealed(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, got.VotesRevealed)
	repo.AssertExpectations(t)
}

func TestAppResetVotes(t *testing.T) {
	repo := new(MockSessionsRepository)
	app := NewApp(repo)
	ctx := context.Background()
	id := uuid.New()

	repo.On("ResetVotes", ctx, id).Return(&models.Session{ID: id}, int64(3), nil)

	got, cleared, err := app.ResetVotes(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.VotesRevealed)
	assert.Equal(t, int64(3), cleared)
}

func TestAppResetVotesFailure(t *testing.T) {
	repo := new(MockSessionsRepository)
	app := NewApp(repo)
	ctx := context.Background()
	id := uuid.New()

	repo.On("ResetVotes", ctx, id).Return(nil, int64(0), errors.New("tx aborted"))

	_, _, err := app.ResetVotes(ctx, id)
	assert.ErrorContains(t, err, "tx aborted")
}

func TestAppDeleteSession(t *testing.T) {
	repo := new(MockSessionsRepository)
	app := NewApp(repo)
	ctx := context.Background()
	id := uuid.New()

	repo.On("DeleteSession", ctx, id).Return(ErrSessionNotFound).Once()
	assert.ErrorIs(t, app.DeleteSession(ctx, id), ErrSessionNotFound)

	repo.On("DeleteSession", ctx, id).Return(nil).Once()
	assert.NoError(t, app.DeleteSession(ctx, id))
}

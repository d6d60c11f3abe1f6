package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/api/pokerv1"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, repo *MockSessionsRepository) pokerv1.SessionServiceClient {
	t.Helper()

	mux := http.NewServeMux()
	path, handler := pokerv1.NewSessionServiceHandler(NewService(NewApp(repo)))
	mux.Handle(path, handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return pokerv1.NewSessionServiceClient(srv.Client(), srv.URL)
}

func TestServiceCreateAndGetSession(t *testing.T) {
	repo := new(MockSessionsRepository)
	client := newTestClient(t, repo)
	ctx := context.Background()

	id := uuid.New()
	created := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	session := &models.Session{ID: id, CreatedAt: created}
	repo.On("CreateSession", mock.Anything).Return(session, nil)
	repo.On("GetSession", mock.Anything, id).Return(session, nil)

	createResp, err := client.CreateSession(ctx, connect.NewRequest(&pokerv1.CreateSessionRequest{}))
	require.NoError(t, err)
	assert.Equal(t, id.String(), createResp.Msg.Session.Id)
	assert.False(t, createResp.Msg.Session.VotesRevealed)

	getResp, err := client.GetSession(ctx, connect.NewRequest(&pokerv1.GetSessionRequest{SessionId: id.String()}))
	require.NoError(t, err)
	assert.True(t, created.Equal(getResp.Msg.Session.CreatedAt))
}

func TestServiceGetSessionNotFound(t *testing.T) {
	repo := new(MockSessionsRepository)
	client := newTestClient(t, repo)

	id := uuid.New()
	repo.On("GetSession", mock.Anything, id).Return(nil, ErrSessionNotFound)

	_, err := client.GetSession(context.Background(), connect.NewRequest(&pokerv1.GetSessionRequest{SessionId: id.String()}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestServiceRejectsMalformedID(t *testing.T) {
	repo := new(MockSessionsRepository)
	client := newTestClient(t, repo)

	_, err := client.SetVotesRevealed(context.Background(), connect.NewRequest(&pokerv1.SetVotesRevealedRequest{SessionId: "not-a-uuid", VotesRevealed: true}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	repo.AssertNotCalled(t, "SetVotesRevealed", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceResetVotes(t *testing.T) {
	repo := new(MockSessionsRepository)
	client := newTestClient(t, repo)

	id := uuid.New()
	repo.On("ResetVotes", mock.Anything, id).Return(&models.Session{ID: id}, int64(4), nil)

	resp, err := client.ResetVotes(context.Background(), connect.NewRequest(&pokerv1.ResetVotesRequest{SessionId: id.String()}))
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Msg.ClearedVotes)
	assert.False(t, resp.Msg.Session.VotesRevealed)
}

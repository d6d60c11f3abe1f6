package sessions

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/api/pokerv1"
	"github.com/mcdev12/scrumpoker/go/internal/models"
)

// SessionsApp defines what the service layer needs from the sessions application
type SessionsApp interface {
	CreateSession(ctx context.Context) (*models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	SetVotesRevealed(ctx context.Context, id uuid.UUID, revealed bool) (*models.Session, error)
	ResetVotes(ctx context.Context, id uuid.UUID) (*models.Session, int64, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// Service implements the SessionService Connect interface
type Service struct {
	app SessionsApp
}

// NewService creates a new sessions Connect service
func NewService(app SessionsApp) *Service {
	return &Service{
		app: app,
	}
}

// Verify that Service implements the SessionServiceHandler interface
var _ pokerv1.SessionServiceHandler = (*Service)(nil)

// CreateSession creates a new session
func (s *Service) CreateSession(ctx context.Context, req *connect.Request[pokerv1.CreateSessionRequest]) (*connect.Response[pokerv1.CreateSessionResponse], error) {
	session, err := s.app.CreateSession(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pokerv1.CreateSessionResponse{
		Session: SessionToProto(session),
	}), nil
}

// GetSession retrieves a session by ID
func (s *Service) GetSession(ctx context.Context, req *connect.Request[pokerv1.GetSessionRequest]) (*connect.Response[pokerv1.GetSessionResponse], error) {
	id, err := uuid.Parse(req.Msg.SessionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	session, err := s.app.GetSession(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pokerv1.GetSessionResponse{
		Session: SessionToProto(session),
	}), nil
}

// SetVotesRevealed updates the reveal flag
func (s *Service) SetVotesRevealed(ctx context.Context, req *connect.Request[pokerv1.SetVotesRevealedRequest]) (*connect.Response[pokerv1.SetVotesRevealedResponse], error) {
	id, err := uuid.Parse(req.Msg.SessionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	session, err := s.app.SetVotesRevealed(ctx, id, req.Msg.VotesRevealed)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pokerv1.SetVotesRevealedResponse{
		Session: SessionToProto(session),
	}), nil
}

// ResetVotes hides the cards and clears every vote
func (s *Service) ResetVotes(ctx context.Context, req *connect.Request[pokerv1.ResetVotesRequest]) (*connect.Response[pokerv1.ResetVotesResponse], error) {
	id, err := uuid.Parse(req.Msg.SessionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	session, cleared, err := s.app.ResetVotes(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pokerv1.ResetVotesResponse{
		Session:      SessionToProto(session),
		ClearedVotes: cleared,
	}), nil
}

// DeleteSession deletes a session by ID
func (s *Service) DeleteSession(ctx context.Context, req *connect.Request[pokerv1.DeleteSessionRequest]) (*connect.Response[pokerv1.DeleteSessionResponse], error) {
	id, err := uuid.Parse(req.Msg.SessionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.app.DeleteSession(ctx, id); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pokerv1.DeleteSessionResponse{
		Success: true,
	}), nil
}

// SessionToProto converts a domain session to its wire form
func SessionToProto(session *models.Session) *pokerv1.Session {
	return &pokerv1.Session{
		Id:            session.ID.String(),
		VotesRevealed: session.VotesRevealed,
		CreatedAt:     session.CreatedAt,
	}
}

func toConnectError(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

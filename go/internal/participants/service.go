package participants

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/api/pokerv1"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/mcdev12/scrumpoker/go/internal/sessions"
)

// ParticipantsApp defines what the service layer needs from the participants application
type ParticipantsApp interface {
	CreateParticipant(ctx context.Context, sessionID uuid.UUID, name string) (*models.Participant, error)
	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*models.Participant, error)
	CastVote(ctx context.Context, id uuid.UUID, vote string) (*models.Participant, error)
	DeleteParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error)
}

// Service implements the ParticipantService Connect interface
type Service struct {
	app ParticipantsApp
}

// NewService creates a new participants Connect service
func NewService(app ParticipantsApp) *Service {
	return &Service{
		app: app,
	}
}

// Verify that Service implements the ParticipantServiceHandler interface
var _ pokerv1.ParticipantServiceHandler = (*Service)(nil)

// CreateParticipant joins a participant to a session
func (s *Service) CreateParticipant(ctx context.Context, req *connect.Request[pokerv1.CreateParticipantRequest]) (*connect.Response[pokerv1.CreateParticipantResponse], error) {
	sessionID, err := uuid.Parse(req.Msg.SessionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	p, err := s.app.CreateParticipant(ctx, sessionID, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pokerv1.CreateParticipantResponse{
		Participant: ParticipantToProto(p),
	}), nil
}

// ListParticipants lists the participants of a session
func (s *Service) ListParticipants(ctx context.Context, req *connect.Request[pokerv1.ListParticipantsRequest]) (*connect.Response[pokerv1.ListParticipantsResponse], error) {
	sessionID, err := uuid.Parse(req.Msg.SessionId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	list, err := s.app.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*pokerv1.Participant, 0, len(list))
	for _, p := range list {
		out = append(out, ParticipantToProto(p))
	}

	return connect.NewResponse(&pokerv1.ListParticipantsResponse{
		Participants: out,
	}), nil
}

// CastVote records a participant's vote
func (s *Service) CastVote(ctx context.Context, req *connect.Request[pokerv1.CastVoteRequest]) (*connect.Response[pokerv1.CastVoteResponse], error) {
	id, err := uuid.Parse(req.Msg.ParticipantId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	p, err := s.app.CastVote(ctx, id, req.Msg.Vote)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pokerv1.CastVoteResponse{
		Participant: ParticipantToProto(p),
	}), nil
}

// DeleteParticipant removes a participant
func (s *Service) DeleteParticipant(ctx context.Context, req *connect.Request[pokerv1.DeleteParticipantRequest]) (*connect.Response[pokerv1.DeleteParticipantResponse], error) {
	id, err := uuid.Parse(req.Msg.ParticipantId)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	p, err := s.app.DeleteParticipant(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&pokerv1.DeleteParticipantResponse{
		Participant: ParticipantToProto(p),
	}), nil
}

// ParticipantToProto converts a domain participant to its wire form
func ParticipantToProto(p *models.Participant) *pokerv1.Participant {
	return &pokerv1.Participant{
		Id:        p.ID.String(),
		SessionId: p.SessionID.String(),
		Name:      p.Name,
		Vote:      p.Vote,
		CreatedAt: p.CreatedAt,
	}
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ErrParticipantNotFound), errors.Is(err, sessions.ErrSessionNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

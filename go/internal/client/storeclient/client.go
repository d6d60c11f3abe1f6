package storeclient

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/api/pokerv1"
	"github.com/mcdev12/scrumpoker/go/internal/models"
)

// Client is a typed client for the session and participant stores
type Client struct {
	sessions     pokerv1.SessionServiceClient
	participants pokerv1.ParticipantServiceClient
}

// New creates a store client for the API at baseURL
func New(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		sessions:     pokerv1.NewSessionServiceClient(httpClient, baseURL, opts...),
		participants: pokerv1.NewParticipantServiceClient(httpClient, baseURL, opts...),
	}
}

// CreateSession creates a session with server defaults
func (c *Client) CreateSession(ctx context.Context) (*models.Session, error) {
	resp, err := c.sessions.CreateSession(ctx, connect.NewRequest(&pokerv1.CreateSessionRequest{}))
	if err != nil {
		return nil, mapError("create session", err, true)
	}
	return sessionFromProto(resp.Msg.Session)
}

// GetSession fetches a session by id
func (c *Client) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	resp, err := c.sessions.GetSession(ctx, connect.NewRequest(&pokerv1.GetSessionRequest{
		SessionId: id.String(),
	}))
	if err != nil {
		return nil, mapError("get session", err, false)
	}
	return sessionFromProto(resp.Msg.Session)
}

// SetVotesRevealed overwrites the reveal flag of a session
func (c *Client) SetVotesRevealed(ctx context.Context, id uuid.UUID, revealed bool) (*models.Session, error) {
	resp, err := c.sessions.SetVotesRevealed(ctx, connect.NewRequest(&pokerv1.SetVotesRevealedRequest{
		SessionId:     id.String(),
		VotesRevealed: revealed,
	}))
	if err != nil {
		return nil, mapError("set votes revealed", err, true)
	}
	return sessionFromProto(resp.Msg.Session)
}

// ResetVotes hides the cards and clears every vote of a session
func (c *Client) ResetVotes(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	resp, err := c.sessions.ResetVotes(ctx, connect.NewRequest(&pokerv1.ResetVotesRequest{
		SessionId: id.String(),
	}))
	if err != nil {
		return nil, mapError("reset votes", err, true)
	}
	return sessionFromProto(resp.Msg.Session)
}

// DeleteSession deletes a session and its participants
func (c *Client) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := c.sessions.DeleteSession(ctx, connect.NewRequest(&pokerv1.DeleteSessionRequest{
		SessionId: id.String(),
	}))
	return mapError("delete session", err, true)
}

// CreateParticipant joins name to a session
func (c *Client) CreateParticipant(ctx context.Context, sessionID uuid.UUID, name string) (*models.Participant, error) {
	resp, err := c.participants.CreateParticipant(ctx, connect.NewRequest(&pokerv1.CreateParticipantRequest{
		SessionId: sessionID.String(),
		Name:      name,
	}))
	if err != nil {
		return nil, mapError("create participant", err, true)
	}
	return participantFromProto(resp.Msg.Participant)
}

// ListParticipants fetches every participant of a session
func (c *Client) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error) {
	resp, err := c.participants.ListParticipants(ctx, connect.NewRequest(&pokerv1.ListParticipantsRequest{
		SessionId: sessionID.String(),
	}))
	if err != nil {
		return nil, mapError("list participants", err, false)
	}

	out := make([]models.Participant, 0, len(resp.Msg.Participants))
	for _, p := range resp.Msg.Participants {
		participant, err := participantFromProto(p)
		if err != nil {
			return nil, err
		}
		out = append(out, *participant)
	}
	return out, nil
}

// CastVote sets the participant's vote
func (c *Client) CastVote(ctx context.Context, participantID uuid.UUID, vote string) (*models.Participant, error) {
	resp, err := c.participants.CastVote(ctx, connect.NewRequest(&pokerv1.CastVoteRequest{
		ParticipantId: participantID.String(),
		Vote:          vote,
	}))
	if err != nil {
		return nil, mapError("cast vote", err, true)
	}
	return participantFromProto(resp.Msg.Participant)
}

// DeleteParticipant removes a participant from its session
func (c *Client) DeleteParticipant(ctx context.Context, participantID uuid.UUID) (*models.Participant, error) {
	resp, err := c.participants.DeleteParticipant(ctx, connect.NewRequest(&pokerv1.DeleteParticipantRequest{
		ParticipantId: participantID.String(),
	}))
	if err != nil {
		return nil, mapError("delete participant", err, true)
	}
	return participantFromProto(resp.Msg.Participant)
}

func sessionFromProto(s *pokerv1.Session) (*models.Session, error) {
	if s == nil {
		return nil, fmt.Errorf("empty session in response")
	}

	id, err := uuid.Parse(s.Id)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", s.Id, err)
	}

	return &models.Session{
		ID:            id,
		VotesRevealed: s.VotesRevealed,
		CreatedAt:     s.CreatedAt,
	}, nil
}

func participantFromProto(p *pokerv1.Participant) (*models.Participant, error) {
	if p == nil {
		return nil, fmt.Errorf("empty participant in response")
	}

	id, err := uuid.Parse(p.Id)
	if err != nil {
		return nil, fmt.Errorf("invalid participant id %q: %w", p.Id, err)
	}
	sessionID, err := uuid.Parse(p.SessionId)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", p.SessionId, err)
	}

	return &models.Participant{
		ID:        id,
		SessionID: sessionID,
		Name:      p.Name,
		Vote:      p.Vote,
		CreatedAt: p.CreatedAt,
	}, nil
}

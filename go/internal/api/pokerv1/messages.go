package pokerv1

import "time"

// Session is the wire form of a sessions row.
type Session struct {
	Id            string    `json:"id"`
	VotesRevealed bool      `json:"votes_revealed"`
	CreatedAt     time.Time `json:"created_at"`
}

// Participant is the wire form of a users row.
type Participant struct {
	Id        string    `json:"id"`
	SessionId string    `json:"session_id"`
	Name      string    `json:"name"`
	Vote      *string   `json:"vote"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateSessionRequest struct{}

type CreateSessionResponse struct {
	Session *Session `json:"session"`
}

type GetSessionRequest struct {
	SessionId string `json:"session_id"`
}

type GetSessionResponse struct {
	Session *Session `json:"session"`
}

type SetVotesRevealedRequest struct {
	SessionId     string `json:"session_id"`
	VotesRevealed bool   `json:"votes_revealed"`
}

type SetVotesRevealedResponse struct {
	Session *Session `json:"session"`
}

type ResetVotesRequest struct {
	SessionId string `json:"session_id"`
}

type ResetVotesResponse struct {
	Session      *Session `json:"session"`
	ClearedVotes int64    `json:"cleared_votes"`
}

type DeleteSessionRequest struct {
	SessionId string `json:"session_id"`
}

type DeleteSessionResponse struct {
	Success bool `json:"success"`
}

type CreateParticipantRequest struct {
	SessionId string `json:"session_id"`
	Name      string `json:"name"`
}

type CreateParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

type ListParticipantsRequest struct {
	SessionId string `json:"session_id"`
}

type ListParticipantsResponse struct {
	Participants []*Participant `json:"participants"`
}

type CastVoteRequest struct {
	ParticipantId string `json:"participant_id"`
	Vote          string `json:"vote"`
}

type CastVoteResponse struct {
	Participant *Participant `json:"participant"`
}

type DeleteParticipantRequest struct {
	ParticipantId string `json:"participant_id"`
}

type DeleteParticipantResponse struct {
	Participant *Participant `json:"participant"`
}

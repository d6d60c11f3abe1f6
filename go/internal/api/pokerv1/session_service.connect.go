package pokerv1

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// SessionServiceName is the fully-qualified name of the SessionService.
const SessionServiceName = "poker.v1.SessionService"

// Procedure paths of the SessionService.
const (
	SessionServiceCreateSessionProcedure    = "/poker.v1.SessionService/CreateSession"
	SessionServiceGetSessionProcedure       = "/poker.v1.SessionService/GetSession"
	SessionServiceSetVotesRevealedProcedure = "/poker.v1.SessionService/SetVotesRevealed"
	SessionServiceResetVotesProcedure       = "/poker.v1.SessionService/ResetVotes"
	SessionServiceDeleteSessionProcedure    = "/poker.v1.SessionService/DeleteSession"
)

// SessionServiceHandler is implemented by the server side of the SessionService.
type SessionServiceHandler interface {
	CreateSession(context.Context, *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error)
	GetSession(context.Context, *connect.Request[GetSessionRequest]) (*connect.Response[GetSessionResponse], error)
	SetVotesRevealed(context.Context, *connect.Request[SetVotesRevealedRequest]) (*connect.Response[SetVotesRevealedResponse], error)
	ResetVotes(context.Context, *connect.Request[ResetVotesRequest]) (*connect.Response[ResetVotesResponse], error)
	DeleteSession(context.Context, *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error)
}

// NewSessionServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewSessionServiceHandler(svc SessionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSONCodec()}, opts...)

	createSession := connect.NewUnaryHandler(SessionServiceCreateSessionProcedure, svc.CreateSession, opts...)
	getSession := connect.NewUnaryHandler(SessionServiceGetSessionProcedure, svc.GetSession, opts...)
	setVotesRevealed := connect.NewUnaryHandler(SessionServiceSetVotesRevealedProcedure, svc.SetVotesRevealed, opts...)
	resetVotes := connect.NewUnaryHandler(SessionServiceResetVotesProcedure, svc.ResetVotes, opts...)
	deleteSession := connect.NewUnaryHandler(SessionServiceDeleteSessionProcedure, svc.DeleteSession, opts...)

	return "/" + SessionServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SessionServiceCreateSessionProcedure:
			createSession.ServeHTTP(w, r)
		case SessionServiceGetSessionProcedure:
			getSession.ServeHTTP(w, r)
		case SessionServiceSetVotesRevealedProcedure:
			setVotesRevealed.ServeHTTP(w, r)
		case SessionServiceResetVotesProcedure:
			resetVotes.ServeHTTP(w, r)
		case SessionServiceDeleteSessionProcedure:
			deleteSession.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// SessionServiceClient is a client for the SessionService.
type SessionServiceClient interface {
	CreateSession(context.Context, *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error)
	GetSession(context.Context, *connect.Request[GetSessionRequest]) (*connect.Response[GetSessionResponse], error)
	SetVotesRevealed(context.Context, *connect.Request[SetVotesRevealedRequest]) (*connect.Response[SetVotesRevealedResponse], error)
	ResetVotes(context.Context, *connect.Request[ResetVotesRequest]) (*connect.Response[ResetVotesResponse], error)
	DeleteSession(context.Context, *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error)
}

type sessionServiceClient struct {
	createSession    *connect.Client[CreateSessionRequest, CreateSessionResponse]
	getSession       *connect.Client[GetSessionRequest, GetSessionResponse]
	setVotesRevealed *connect.Client[SetVotesRevealedRequest, SetVotesRevealedResponse]
	resetVotes       *connect.Client[ResetVotesRequest, ResetVotesResponse]
	deleteSession    *connect.Client[DeleteSessionRequest, DeleteSessionResponse]
}

// NewSessionServiceClient constructs a client for the SessionService at baseURL.
func NewSessionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SessionServiceClient {
	opts = append([]connect.ClientOption{WithJSONCodec()}, opts...)
	return &sessionServiceClient{
		createSession:    connect.NewClient[CreateSessionRequest, CreateSessionResponse](httpClient, baseURL+SessionServiceCreateSessionProcedure, opts...),
		getSession:       connect.NewClient[GetSessionRequest, GetSessionResponse](httpClient, baseURL+SessionServiceGetSessionProcedure, opts...),
		setVotesRevealed: connect.NewClient[SetVotesRevealedRequest, SetVotesRevealedResponse](httpClient, baseURL+SessionServiceSetVotesRevealedProcedure, opts...),
		resetVotes:       connect.NewClient[ResetVotesRequest, ResetVotesResponse](httpClient, baseURL+SessionServiceResetVotesProcedure, opts...),
		deleteSession:    connect.NewClient[DeleteSessionRequest, DeleteSessionResponse](httpClient, baseURL+SessionServiceDeleteSessionProcedure, opts...),
	}
}

func (c *sessionServiceClient) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *sessionServiceClient) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[GetSessionResponse], error) {
	return c.getSession.CallUnary(ctx, req)
}

func (c *sessionServiceClient) SetVotesRevealed(ctx context.Context, req *connect.Request[SetVotesRevealedRequest]) (*connect.Response[SetVotesRevealedResponse], error) {
	return c.setVotesRevealed.CallUnary(ctx, req)
}

func (c *sessionServiceClient) ResetVotes(ctx context.Context, req *connect.Request[ResetVotesRequest]) (*connect.Response[ResetVotesResponse], error) {
	return c.resetVotes.CallUnary(ctx, req)
}

func (c *sessionServiceClient) DeleteSession(ctx context.Context, req *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	return c.deleteSession.CallUnary(ctx, req)
}

package pokerv1

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// ParticipantServiceName is the fully-qualified name of the ParticipantService.
const ParticipantServiceName = "poker.v1.ParticipantService"

// Procedure paths of the ParticipantService.
const (
	ParticipantServiceCreateParticipantProcedure = "/poker.v1.ParticipantService/CreateParticipant"
	ParticipantServiceListParticipantsProcedure  = "/poker.v1.ParticipantService/ListParticipants"
	ParticipantServiceCastVoteProcedure          = "/poker.v1.ParticipantService/CastVote"
	ParticipantServiceDeleteParticipantProcedure = "/poker.v1.ParticipantService/DeleteParticipant"
)

// ParticipantServiceHandler is implemented by the server side of the ParticipantService.
type ParticipantServiceHandler interface {
	CreateParticipant(context.Context, *connect.Request[CreateParticipantRequest]) (*connect.Response[CreateParticipantResponse], error)
	ListParticipants(context.Context, *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error)
	CastVote(context.Context, *connect.Request[CastVoteRequest]) (*connect.Response[CastVoteResponse], error)
	DeleteParticipant(context.Context, *connect.Request[DeleteParticipantRequest]) (*connect.Response[DeleteParticipantResponse], error)
}

// NewParticipantServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewParticipantServiceHandler(svc ParticipantServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSONCodec()}, opts...)

	createParticipant := connect.NewUnaryHandler(ParticipantServiceCreateParticipantProcedure, svc.CreateParticipant, opts...)
	listParticipants := connect.NewUnaryHandler(ParticipantServiceListParticipantsProcedure, svc.ListParticipants, opts...)
	castVote := connect.NewUnaryHandler(ParticipantServiceCastVoteProcedure, svc.CastVote, opts...)
	deleteParticipant := connect.NewUnaryHandler(ParticipantServiceDeleteParticipantProcedure, svc.DeleteParticipant, opts...)

	return "/" + ParticipantServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ParticipantServiceCreateParticipantProcedure:
			createParticipant.ServeHTTP(w, r)
		case ParticipantServiceListParticipantsProcedure:
			listParticipants.ServeHTTP(w, r)
		case ParticipantServiceCastVoteProcedure:
			castVote.ServeHTTP(w, r)
		case ParticipantServiceDeleteParticipantProcedure:
			deleteParticipant.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ParticipantServiceClient is a client for the ParticipantService.
type ParticipantServiceClient interface {
	CreateParticipant(context.Context, *connect.Request[CreateParticipantRequest]) (*connect.Response[CreateParticipantResponse], error)
	ListParticipants(context.Context, *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error)
	CastVote(context.Context, *connect.Request[CastVoteRequest]) (*connect.Response[CastVoteResponse], error)
	DeleteParticipant(context.Context, *connect.Request[DeleteParticipantRequest]) (*connect.Response[DeleteParticipantResponse], error)
}

type participantServiceClient struct {
	createParticipant *connect.Client[CreateParticipantRequest, CreateParticipantResponse]
	listParticipants  *connect.Client[ListParticipantsRequest, ListParticipantsResponse]
	castVote          *connect.Client[CastVoteRequest, CastVoteResponse]
	deleteParticipant *connect.Client[DeleteParticipantRequest, DeleteParticipantResponse]
}

// NewParticipantServiceClient constructs a client for the ParticipantService at baseURL.
func NewParticipantServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ParticipantServiceClient {
	opts = append([]connect.ClientOption{WithJSONCodec()}, opts...)
	return &participantServiceClient{
		createParticipant: connect.NewClient[CreateParticipantRequest, CreateParticipantResponse](httpClient, baseURL+ParticipantServiceCreateParticipantProcedure, opts...),
		listParticipants:  connect.NewClient[ListParticipantsRequest, ListParticipantsResponse](httpClient, baseURL+ParticipantServiceListParticipantsProcedure, opts...),
		castVote:          connect.NewClient[CastVoteRequest, CastVoteResponse](httpClient, baseURL+ParticipantServiceCastVoteProcedure, opts...),
		deleteParticipant: connect.NewClient[DeleteParticipantRequest, DeleteParticipantResponse](httpClient, baseURL+ParticipantServiceDeleteParticipantProcedure, opts...),
	}
}

func (c *participantServiceClient) CreateParticipant(ctx context.Context, req *connect.Request[CreateParticipantRequest]) (*connect.Response[CreateParticipantResponse], error) {
	return c.createParticipant.CallUnary(ctx, req)
}

func (c *participantServiceClient) ListParticipants(ctx context.Context, req *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error) {
	return c.listParticipants.CallUnary(ctx, req)
}

func (c *participantServiceClient) CastVote(ctx context.Context, req *connect.Request[CastVoteRequest]) (*connect.Response[CastVoteResponse], error) {
	return c.castVote.CallUnary(ctx, req)
}

func (c *participantServiceClient) DeleteParticipant(ctx context.Context, req *connect.Request[DeleteParticipantRequest]) (*connect.Response[DeleteParticipantResponse], error) {
	return c.deleteParticipant.CallUnary(ctx, req)
}

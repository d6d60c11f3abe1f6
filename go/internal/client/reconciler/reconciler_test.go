package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/client/storeclient"
	"github.com/mcdev12/scrumpoker/go/internal/client/ui/uitest"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSource struct{ mock.Mock }

func (m *MockSource) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSource) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Participant), args.Error(1)
}

var t0 = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func participant(sessionID uuid.UUID, name string, joined time.Duration) models.Participant {
	return models.Participant{ID: uuid.New(), SessionID: sessionID, Name: name, CreatedAt: t0.Add(joined)}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func userEvent(t *testing.T, typ events.EventType, p models.Participant) events.ChangeEvent {
	ev := events.ChangeEvent{ID: uuid.New(), Table: events.TableUsers, EventType: typ, SessionID: p.SessionID}
	if typ == events.EventDelete {
		ev.Old = mustJSON(t, p)
	} else {
		ev.New = mustJSON(t, p)
	}
	return ev
}

func sessionEvent(t *testing.T, s models.Session) events.ChangeEvent {
	return events.ChangeEvent{
		ID:        uuid.New(),
		Table:     events.TableSessions,
		EventType: events.EventUpdate,
		SessionID: s.ID,
		New:       mustJSON(t, s),
	}
}

func loaded(t *testing.T, session models.Session, ps ...models.Participant) (*Reconciler, *uitest.Recorder) {
	t.Helper()

	src := new(MockSource)
	src.On("GetSession", mock.Anything, session.ID).Return(&session, nil)
	src.On("ListParticipants", mock.Anything, session.ID).Return(ps, nil)

	rec := &uitest.Recorder{}
	r := New(session.ID, rec)
	require.NoError(t, r.Load(context.Background(), src))
	return r, rec
}

func names(ps []models.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestLoadSortsByCreatedAt(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	carol := participant(session.ID, "Carol", 3*time.Minute)
	alice := participant(session.ID, "Alice", time.Minute)
	bob := participant(session.ID, "Bob", 2*time.Minute)

	r, rec := loaded(t, session, carol, alice, bob)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names(r.Participants()))
	assert.Empty(t, rec.Notes())
}

func TestSameJoinTimeOrdersByID(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	low := models.Participant{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), SessionID: session.ID, Name: "Low", CreatedAt: t0}
	high := models.Participant{ID: uuid.MustParse("ffffffff-0000-0000-0000-000000000000"), SessionID: session.ID, Name: "High", CreatedAt: t0}

	r, _ := loaded(t, session, high, low)
	assert.Equal(t, []string{"Low", "High"}, names(r.Participants()))

	r, _ = loaded(t, session)
	r.Apply(userEvent(t, events.EventInsert, high))
	r.Apply(userEvent(t, events.EventInsert, low))
	assert.Equal(t, []string{"Low", "High"}, names(r.Participants()))
}

func TestLoadNotFound(t *testing.T) {
	id := uuid.New()
	src := new(MockSource)
	src.On("GetSession", mock.Anything, id).Return(nil, storeclient.ErrNotFound)

	r := New(id, &uitest.Recorder{})
	err := r.Load(context.Background(), src)
	assert.ErrorIs(t, err, storeclient.ErrNotFound)
	assert.False(t, r.Loaded())
	src.AssertNotCalled(t, "ListParticipants", mock.Anything, mock.Anything)
}

func TestLoadDiscardsLateResult(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	ctx, cancel := context.WithCancel(context.Background())

	src := new(MockSource)
	src.On("GetSession", mock.Anything, session.ID).Return(&session, nil)
	src.On("ListParticipants", mock.Anything, session.ID).
		Run(func(mock.Arguments) { cancel() }).
		Return([]models.Participant{}, nil)

	r := New(session.ID, &uitest.Recorder{})
	assert.ErrorIs(t, r.Load(ctx, src), context.Canceled)
	assert.False(t, r.Loaded())
}

// Scenario A
func TestInsertAppendsAndNotifiesOnce(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	alice := participant(session.ID, "Alice", time.Minute)
	r, rec := loaded(t, session, alice)

	bob := participant(session.ID, "Bob", 2*time.Minute)
	r.Apply(userEvent(t, events.EventInsert, bob))

	assert.Equal(t, []string{"Alice", "Bob"}, names(r.Participants()))
	assert.Equal(t, []string{"Bob has joined the session."}, rec.Texts(uitest.KindInfo))
}

func TestDuplicateInsertKeepsOneEntry(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	r, rec := loaded(t, session)

	bob := participant(session.ID, "Bob", time.Minute)
	r.Apply(userEvent(t, events.EventInsert, bob))
	r.Apply(userEvent(t, events.EventInsert, bob))

	assert.Len(t, r.Participants(), 1)
	assert.Len(t, rec.Texts(uitest.KindInfo), 1)
}

func TestInsertOutOfOrderIsSorted(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	bob := participant(session.ID, "Bob", 2*time.Minute)
	r, _ := loaded(t, session, bob)

	alice := participant(session.ID, "Alice", time.Minute)
	r.Apply(userEvent(t, events.EventInsert, alice))

	assert.Equal(t, []string{"Alice", "Bob"}, names(r.Participants()))
}

// Scenario B
func TestRevealCelebratesOncePerTransition(t *testing.T) {
	session := models.Session{ID: uuid.New(), CreatedAt: t0}
	r, rec := loaded(t, session)

	revealed := session
	revealed.VotesRevealed = true

	r.Apply(sessionEvent(t, revealed))
	r.Apply(sessionEvent(t, revealed))
	assert.Equal(t, 1, rec.Celebrations())
	assert.Equal(t, []string{"Votes have been revealed!"}, rec.Texts(uitest.KindInfo))

	// true -> false is silent, the next false -> true celebrates again
	r.Apply(sessionEvent(t, session))
	assert.Equal(t, 1, rec.Celebrations())
	r.Apply(sessionEvent(t, revealed))
	assert.Equal(t, 2, rec.Celebrations())

	s, ok := r.Session()
	require.True(t, ok)
	assert.True(t, s.VotesRevealed)
}

func TestUpdateReplacesInPlace(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	alice := participant(session.ID, "Alice", time.Minute)
	bob := participant(session.ID, "Bob", 2*time.Minute)
	r, rec := loaded(t, session, alice, bob)

	vote := "8"
	alice.Vote = &vote
	r.Apply(userEvent(t, events.EventUpdate, alice))

	got, ok := r.Participant(alice.ID)
	require.True(t, ok)
	require.NotNil(t, got.Vote)
	assert.Equal(t, "8", *got.Vote)
	assert.Equal(t, []string{"Alice", "Bob"}, names(r.Participants()))
	assert.Empty(t, rec.Notes())
}

func TestUpdateUnknownIsIgnored(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	r, _ := loaded(t, session)

	r.Apply(userEvent(t, events.EventUpdate, participant(session.ID, "Ghost", time.Minute)))
	assert.Empty(t, r.Participants())
}

func TestDeleteRemovesAndNotifies(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	alice := participant(session.ID, "Alice", time.Minute)
	bob := participant(session.ID, "Bob", 2*time.Minute)
	r, rec := loaded(t, session, alice, bob)

	r.Apply(userEvent(t, events.EventDelete, alice))
	assert.Equal(t, []string{"Bob"}, names(r.Participants()))
	assert.Equal(t, []string{"Alice has left the session."}, rec.Texts(uitest.KindInfo))

	// Second delivery is a no-op
	r.Apply(userEvent(t, events.EventDelete, alice))
	assert.Equal(t, []string{"Bob"}, names(r.Participants()))
	assert.Len(t, rec.Texts(uitest.KindInfo), 1)
}

func TestDeleteWithoutNameIsSilent(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	alice := participant(session.ID, "Alice", time.Minute)
	r, rec := loaded(t, session, alice)

	r.Apply(events.ChangeEvent{
		Table:     events.TableUsers,
		EventType: events.EventDelete,
		SessionID: session.ID,
		Old:       json.RawMessage(`{"id":"` + alice.ID.String() + `"}`),
	})

	assert.Empty(t, r.Participants())
	assert.Empty(t, rec.Notes())
}

func TestMalformedAndForeignEventsAreDropped(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	alice := participant(session.ID, "Alice", time.Minute)
	r, rec := loaded(t, session, alice)

	other := participant(uuid.New(), "Mallory", time.Second)
	bad := []events.ChangeEvent{
		{Table: events.TableUsers, EventType: events.EventInsert, SessionID: session.ID, New: json.RawMessage(`{"id":`)},
		{Table: events.TableUsers, EventType: events.EventInsert, SessionID: session.ID},
		{Table: events.TableUsers, EventType: events.EventDelete, SessionID: session.ID, Old: json.RawMessage(`[]`)},
		{Table: events.TableSessions, EventType: events.EventInsert, SessionID: session.ID},
		{Table: "votes", EventType: events.EventUpdate, SessionID: session.ID},
		userEvent(t, events.EventInsert, other),
		{Table: events.TableUsers, EventType: events.EventInsert, SessionID: session.ID, New: mustJSON(t, other)},
	}

	for _, ev := range bad {
		assert.NotPanics(t, func() { r.Apply(ev) })
	}
	assert.Equal(t, []string{"Alice"}, names(r.Participants()))
	assert.Empty(t, rec.Notes())
}

func TestResyncIsSilent(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	alice := participant(session.ID, "Alice", time.Minute)
	r, rec := loaded(t, session, alice)

	bob := participant(session.ID, "Bob", 2*time.Minute)
	revealed := session
	revealed.VotesRevealed = true

	src := new(MockSource)
	src.On("GetSession", mock.Anything, session.ID).Return(&revealed, nil)
	src.On("ListParticipants", mock.Anything, session.ID).Return([]models.Participant{bob, alice}, nil)

	require.NoError(t, r.Resync(context.Background(), src))
	assert.Equal(t, []string{"Alice", "Bob"}, names(r.Participants()))
	assert.Empty(t, rec.Notes())
	assert.Zero(t, rec.Celebrations())
}

func TestFetchLeavesStateUntilReplace(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	alice := participant(session.ID, "Alice", time.Minute)
	r, rec := loaded(t, session, alice)

	bob := participant(session.ID, "Bob", 2*time.Minute)
	src := new(MockSource)
	src.On("GetSession", mock.Anything, session.ID).Return(&session, nil)
	src.On("ListParticipants", mock.Anything, session.ID).Return([]models.Participant{bob, alice}, nil)

	st, err := r.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, names(st.Participants))
	assert.Equal(t, []string{"Alice"}, names(r.Participants()))

	r.Replace(st)
	assert.Equal(t, []string{"Alice", "Bob"}, names(r.Participants()))
	assert.Empty(t, rec.Notes())
}

func TestResyncFailureKeepsState(t *testing.T) {
	session := models.Session{ID: uuid.New()}
	alice := participant(session.ID, "Alice", time.Minute)
	r, _ := loaded(t, session, alice)

	src := new(MockSource)
	src.On("GetSession", mock.Anything, session.ID).Return(nil, errors.New("unavailable"))

	assert.Error(t, r.Resync(context.Background(), src))
	assert.Equal(t, []string{"Alice"}, names(r.Participants()))
}

func TestApplyKeepsListSortedForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		session := models.Session{ID: uuid.New()}
		r, _ := loaded(t, session)
		known := map[uuid.UUID]models.Participant{}

		for step := 0; step < 40; step++ {
			switch op := rng.Intn(3); {
			case op == 0 || len(known) == 0:
				p := participant(session.ID, fmt.Sprintf("p%d", step), time.Duration(rng.Intn(1000))*time.Second)
				known[p.ID] = p
				r.Apply(userEvent(t, events.EventInsert, p))
			case op == 1:
				p := pick(rng, known)
				vote := fmt.Sprint(rng.Intn(13))
				p.Vote = &vote
				known[p.ID] = p
				r.Apply(userEvent(t, events.EventUpdate, p))
			default:
				p := pick(rng, known)
				delete(known, p.ID)
				r.Apply(userEvent(t, events.EventDelete, p))
			}

			ps := r.Participants()
			require.Len(t, ps, len(known))
			require.True(t, sort.SliceIsSorted(ps, func(i, j int) bool {
				return ps[i].CreatedAt.Before(ps[j].CreatedAt)
			}), "round %d step %d", round, step)
		}
	}
}

func pick(rng *rand.Rand, m map[uuid.UUID]models.Participant) models.Participant {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return m[ids[rng.Intn(len(ids))]]
}

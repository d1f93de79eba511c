package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mathduel/internal/cache"
	"mathduel/internal/engine"
	"mathduel/internal/model"
)

type stubSource struct{}

func (stubSource) Next() (string, int) { return "6 * 7", 42 }

type recordedEvent struct {
	Room   string
	Player string // empty for room broadcasts
	Type   string
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Room: roomID, Type: msgType})
}

func (b *fakeBroadcaster) BroadcastToPlayer(roomID, playerID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Room: roomID, Player: playerID, Type: msgType})
}

// roomEvents returns the types broadcast to the whole room, in order.
func (b *fakeBroadcaster) roomEvents() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var types []string
	for _, e := range b.events {
		if e.Player == "" {
			types = append(types, e.Type)
		}
	}
	return types
}

func (b *fakeBroadcaster) countFor(player, msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Player == player && e.Type == msgType {
			n++
		}
	}
	return n
}

type fakeResultRepo struct {
	mu         sync.Mutex
	results    []*model.DuelResult
	failCreate bool
}

func (r *fakeResultRepo) Create(ctx context.Context, result *model.DuelResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("store unavailable")
	}
	r.results = append(r.results, result)
	return nil
}

func (r *fakeResultRepo) GetByRoomID(ctx context.Context, roomID string) (*model.DuelResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.RoomID == roomID {
			return res, nil
		}
	}
	return nil, nil
}

func (r *fakeResultRepo) GetByPlayerID(ctx context.Context, playerID string, limit int) ([]*model.DuelResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.DuelResult
	for _, res := range r.results {
		for _, p := range res.Players {
			if p.PlayerID == playerID {
				out = append(out, res)
				break
			}
		}
	}
	return out, nil
}

type fakeLeaderboard struct {
	mu     sync.Mutex
	points map[string]int
	wins   map[string]int
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{points: make(map[string]int), wins: make(map[string]int)}
}

func (l *fakeLeaderboard) AddPoints(ctx context.Context, playerID string, points int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points[playerID] += points
	return nil
}

func (l *fakeLeaderboard) AddWin(ctx context.Context, playerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.wins[playerID]++
	return nil
}

func (l *fakeLeaderboard) GetTop(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	return nil, nil
}

func (l *fakeLeaderboard) GetRank(ctx context.Context, playerID string) (int64, error) {
	return -1, nil
}

// newTestService wires a duel service over in-memory fakes.
func newTestService(t *testing.T) (*DuelService, *fakeBroadcaster, *fakeResultRepo, *fakeLeaderboard) {
	t.Helper()

	registry := engine.NewRegistry()
	coordinator := engine.NewCoordinator(registry, stubSource{})
	repo := &fakeResultRepo{}
	lb := newFakeLeaderboard()

	svc := NewDuelService(registry, coordinator, repo, lb)
	bc := &fakeBroadcaster{}
	svc.SetBroadcaster(bc)
	return svc, bc, repo, lb
}

// newJoinedDuel creates a two-player room through the service.
func newJoinedDuel(t *testing.T, svc *DuelService, timeLimit, roundLimit int) string {
	t.Helper()

	roomID, err := svc.CreateDuel("alice", timeLimit, roundLimit)
	if err != nil {
		t.Fatalf("CreateDuel returned error: %v", err)
	}
	if err := svc.JoinDuel(roomID, "bob"); err != nil {
		t.Fatalf("JoinDuel returned error: %v", err)
	}
	return roomID
}

// TestDuelServiceFullFlow drives a two-round duel end to end and checks
// the broadcast sequence, persisted record and leaderboard updates.
func TestDuelServiceFullFlow(t *testing.T) {
	svc, bc, repo, lb := newTestService(t)
	roomID := newJoinedDuel(t, svc, 300, 2)

	if err := svc.StartRound(roomID); err != nil {
		t.Fatalf("StartRound returned error: %v", err)
	}

	// Round 1: alice fast and right, bob wrong.
	if res, err := svc.SubmitAnswer(roomID, "alice", 42, 4); err != nil || res.Points != 100 {
		t.Fatalf("alice round 1: res %+v, err %v", res, err)
	}
	if res, err := svc.SubmitAnswer(roomID, "bob", 41, 6); err != nil || res.Points != 0 {
		t.Fatalf("bob round 1: res %+v, err %v", res, err)
	}

	// Round 2 starts automatically; both slow and right.
	if _, err := svc.SubmitAnswer(roomID, "alice", 42, 20); err != nil {
		t.Fatalf("alice round 2 returned error: %v", err)
	}
	if _, err := svc.SubmitAnswer(roomID, "bob", 42, 20); err != nil {
		t.Fatalf("bob round 2 returned error: %v", err)
	}

	want := []string{
		EventPlayerJoined,
		EventRoundStarted,
		EventRoundAdvanced,
		EventRoundStarted,
		EventDuelCompleted,
	}
	got := bc.roomEvents()
	if len(got) != len(want) {
		t.Fatalf("room events %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("room event %d = %s, want %s (full: %v)", i, got[i], want[i], got)
		}
	}

	if n := bc.countFor("alice", EventAnswerResult); n != 2 {
		t.Fatalf("alice got %d answer results, want 2", n)
	}
	if n := bc.countFor("bob", EventOpponentAnswered); n != 2 {
		t.Fatalf("bob got %d opponent notifications, want 2", n)
	}

	// Room is gone after completion.
	if _, err := svc.Lookup(roomID); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected room removed, got %v", err)
	}

	// Durable record and leaderboard reflect the outcome.
	record, _ := repo.GetByRoomID(context.Background(), roomID)
	if record == nil {
		t.Fatal("expected a persisted duel result")
	}
	if record.Winner != "alice" || record.Draw {
		t.Fatalf("record winner %q draw %v, want alice", record.Winner, record.Draw)
	}
	if record.TotalRounds != 2 {
		t.Fatalf("record rounds %d, want 2", record.TotalRounds)
	}
	for _, p := range record.Players {
		won := p.PlayerID == "alice"
		if p.Won != won {
			t.Fatalf("player %s won=%v, want %v", p.PlayerID, p.Won, won)
		}
	}

	if lb.points["alice"] != 125 || lb.points["bob"] != 25 {
		t.Fatalf("leaderboard points %v, want alice 125 bob 25", lb.points)
	}
	if lb.wins["alice"] != 1 || lb.wins["bob"] != 0 {
		t.Fatalf("leaderboard wins %v, want alice 1", lb.wins)
	}
}

// TestDuelServicePersistenceFailureIsSwallowed ensures a failing store
// never blocks the completion broadcast or errors the gameplay path.
func TestDuelServicePersistenceFailureIsSwallowed(t *testing.T) {
	svc, bc, repo, _ := newTestService(t)
	repo.failCreate = true

	roomID := newJoinedDuel(t, svc, 300, 1)
	if err := svc.StartRound(roomID); err != nil {
		t.Fatalf("StartRound returned error: %v", err)
	}

	if _, err := svc.SubmitAnswer(roomID, "alice", 42, 2); err != nil {
		t.Fatalf("alice submission returned error: %v", err)
	}
	if _, err := svc.SubmitAnswer(roomID, "bob", 42, 3); err != nil {
		t.Fatalf("bob submission returned error: %v", err)
	}

	got := bc.roomEvents()
	if len(got) == 0 || got[len(got)-1] != EventDuelCompleted {
		t.Fatalf("expected duel_completed despite store failure, got %v", got)
	}
}

// TestDuelServiceExpiry ensures the timer callback zero-fills the
// missing answer and advances exactly once.
func TestDuelServiceExpiry(t *testing.T) {
	svc, bc, _, _ := newTestService(t)
	roomID := newJoinedDuel(t, svc, 300, 3)

	if err := svc.StartRound(roomID); err != nil {
		t.Fatalf("StartRound returned error: %v", err)
	}
	if _, err := svc.SubmitAnswer(roomID, "alice", 42, 3); err != nil {
		t.Fatalf("alice submission returned error: %v", err)
	}

	svc.expireRound(roomID, 1)

	snap, err := svc.Lookup(roomID)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if snap.Round != 2 {
		t.Fatalf("expected round 2 after expiry, got %d", snap.Round)
	}
	if snap.Scores["bob"] != 0 {
		t.Fatalf("expected bob at 0 after expiry, got %d", snap.Scores["bob"])
	}

	// Stale duplicate fire changes nothing.
	svc.expireRound(roomID, 1)
	snap, _ = svc.Lookup(roomID)
	if snap.Round != 2 {
		t.Fatalf("stale expiry advanced the round to %d", snap.Round)
	}

	got := bc.roomEvents()
	advances := 0
	for _, e := range got {
		if e == EventRoundAdvanced {
			advances++
		}
	}
	if advances != 1 {
		t.Fatalf("expected exactly 1 round_advanced, got %d (%v)", advances, got)
	}
}

// TestDuelServiceForfeit ensures a leaving player hands the win to the
// opponent and the result is still recorded.
func TestDuelServiceForfeit(t *testing.T) {
	svc, bc, repo, lb := newTestService(t)
	roomID := newJoinedDuel(t, svc, 300, 5)

	if err := svc.StartRound(roomID); err != nil {
		t.Fatalf("StartRound returned error: %v", err)
	}
	if _, err := svc.SubmitAnswer(roomID, "alice", 42, 2); err != nil {
		t.Fatalf("alice submission returned error: %v", err)
	}

	if err := svc.LeaveDuel(roomID, "bob"); err != nil {
		t.Fatalf("LeaveDuel returned error: %v", err)
	}

	got := bc.roomEvents()
	if len(got) < 2 || got[len(got)-2] != EventPlayerLeft || got[len(got)-1] != EventDuelCompleted {
		t.Fatalf("expected player_left then duel_completed, got %v", got)
	}

	record, _ := repo.GetByRoomID(context.Background(), roomID)
	if record == nil || record.Winner != "alice" {
		t.Fatalf("expected alice recorded as winner, got %+v", record)
	}
	if lb.wins["alice"] != 1 {
		t.Fatalf("expected a win for alice, got %v", lb.wins)
	}

	if _, err := svc.Lookup(roomID); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected room removed after forfeit, got %v", err)
	}
}

// TestDuelServiceLeaveWaitingRoom ensures abandoning a lobby tears it
// down without recording a duel.
func TestDuelServiceLeaveWaitingRoom(t *testing.T) {
	svc, _, repo, _ := newTestService(t)

	roomID, err := svc.CreateDuel("alice", 30, 5)
	if err != nil {
		t.Fatalf("CreateDuel returned error: %v", err)
	}
	if err := svc.LeaveDuel(roomID, "alice"); err != nil {
		t.Fatalf("LeaveDuel returned error: %v", err)
	}

	if _, err := svc.Lookup(roomID); !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected lobby removed, got %v", err)
	}
	if record, _ := repo.GetByRoomID(context.Background(), roomID); record != nil {
		t.Fatalf("expected no record for abandoned lobby, got %+v", record)
	}
}

package service

import (
	"context"
	"log"
	"time"

	"mathduel/internal/cache"
	"mathduel/internal/engine"
	"mathduel/internal/model"
	"mathduel/internal/repository"
)

// persistTimeout bounds the best-effort result write after completion
const persistTimeout = 5 * time.Second

// DuelService glues the duel engine to the transport, persistence and
// leaderboard collaborators. The engine stays transport-agnostic: all
// pushes go through the Broadcaster interface, and the durable result
// write is best-effort — it runs after the completion broadcast and its
// failure is logged, never surfaced to players.
type DuelService struct {
	registry    *engine.Registry
	coordinator *engine.Coordinator
	resultRepo  repository.ResultRepo
	leaderboard cache.LeaderboardCache
	broadcaster Broadcaster
}

// NewDuelService creates a new duel service
func NewDuelService(
	registry *engine.Registry,
	coordinator *engine.Coordinator,
	resultRepo repository.ResultRepo,
	leaderboard cache.LeaderboardCache,
) *DuelService {
	return &DuelService{
		registry:    registry,
		coordinator: coordinator,
		resultRepo:  resultRepo,
		leaderboard: leaderboard,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *DuelService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateDuel allocates a new waiting room for the initiator
func (s *DuelService) CreateDuel(initiatorID string, timeLimit, roundLimit int) (string, error) {
	return s.registry.CreateDuel(initiatorID, timeLimit, roundLimit)
}

// JoinDuel adds the second player and announces them to the room
func (s *DuelService) JoinDuel(roomID, playerID string) error {
	if err := s.registry.JoinDuel(roomID, playerID); err != nil {
		return err
	}

	s.broadcast(roomID, EventPlayerJoined, model.PlayerJoinedEvent{PlayerID: playerID})
	return nil
}

// Lookup returns a snapshot of a session's state
func (s *DuelService) Lookup(roomID string) (*model.DuelSnapshot, error) {
	return s.registry.Lookup(roomID)
}

// StartRound issues the current round's challenge, broadcasts it and
// arms the round timer. Round 1 starts on an explicit client request;
// later rounds start automatically when the previous one advances.
func (s *DuelService) StartRound(roomID string) error {
	start, err := s.coordinator.StartRound(roomID)
	if err != nil {
		return err
	}

	s.broadcast(roomID, EventRoundStarted, model.RoundStartedEvent{
		Question:  start.Expression,
		Round:     start.Round,
		TimeLimit: start.TimeLimitSeconds,
	})

	round := start.Round
	time.AfterFunc(time.Duration(start.TimeLimitSeconds)*time.Second, func() {
		s.expireRound(roomID, round)
	})

	return nil
}

// SubmitAnswer scores one submission, notifies both players and runs
// the advance check
func (s *DuelService) SubmitAnswer(roomID, playerID string, answer int, elapsedSeconds float64) (*engine.SubmitResult, error) {
	// Snapshot before the advance check: a completing advance removes
	// the session, and we still need the opponent list for broadcasts.
	snap, err := s.registry.Lookup(roomID)
	if err != nil {
		return nil, err
	}

	result, err := s.coordinator.SubmitAnswer(roomID, playerID, answer, elapsedSeconds)
	if err != nil {
		return nil, err
	}

	s.broadcastTo(roomID, playerID, EventAnswerResult, model.AnswerResultEvent{
		Correct:      result.Correct,
		Points:       result.Points,
		RunningScore: result.RunningScore,
	})
	for _, p := range snap.Players {
		if p != playerID {
			s.broadcastTo(roomID, p, EventOpponentAnswered, model.OpponentAnsweredEvent{
				PlayerID: playerID,
				Correct:  result.Correct,
				Points:   result.Points,
			})
		}
	}

	adv, err := s.coordinator.MaybeAdvanceRound(roomID)
	if err != nil {
		log.Printf("advance check failed for room %s: %v", roomID, err)
		return result, nil
	}
	s.handleAdvance(roomID, adv)

	return result, nil
}

// LeaveDuel forfeits on behalf of a departing player. For an active
// duel the remaining player wins; a waiting room is torn down.
func (s *DuelService) LeaveDuel(roomID, playerID string) error {
	adv, err := s.coordinator.Forfeit(roomID, playerID)
	if err != nil {
		return err
	}

	s.broadcast(roomID, EventPlayerLeft, model.PlayerLeftEvent{PlayerID: playerID})
	if adv != nil {
		s.finish(roomID, adv)
	}
	return nil
}

// Leaderboard returns the global top list
func (s *DuelService) Leaderboard(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	return s.leaderboard.GetTop(ctx, limit)
}

// History returns a player's most recent duel records
func (s *DuelService) History(ctx context.Context, playerID string, limit int) ([]*model.DuelResult, error) {
	return s.resultRepo.GetByPlayerID(ctx, playerID, limit)
}

// expireRound is the round timer's callback. The coordinator treats the
// round number as a fencing token, so a timer that outlived its round
// comes back with a nil advance and nothing happens.
func (s *DuelService) expireRound(roomID string, round int) {
	adv, err := s.coordinator.ForceExpire(roomID, round)
	if err != nil {
		log.Printf("force expire failed for room %s round %d: %v", roomID, round, err)
		return
	}
	if adv == nil {
		return
	}
	s.handleAdvance(roomID, adv)
}

func (s *DuelService) handleAdvance(roomID string, adv *engine.Advance) {
	switch adv.State {
	case engine.RoundAdvanced:
		s.broadcast(roomID, EventRoundAdvanced, model.RoundAdvancedEvent{
			Round:  adv.Round,
			Scores: adv.Scores,
		})
		if err := s.StartRound(roomID); err != nil {
			log.Printf("failed to start round %d for room %s: %v", adv.Round, roomID, err)
		}
	case engine.DuelCompleted:
		s.finish(roomID, adv)
	}
}

// finish broadcasts the terminal result, then records it. The broadcast
// always goes out first so a slow or failing store can never stall the
// game-facing completion.
func (s *DuelService) finish(roomID string, adv *engine.Advance) {
	s.broadcast(roomID, EventDuelCompleted, model.DuelCompletedEvent{
		Winner:      adv.Winner,
		Draw:        adv.Draw,
		FinalScores: adv.Scores,
		TotalRounds: adv.TotalRounds,
	})

	s.recordResult(roomID, adv)
}

// recordResult persists the duel record and updates the leaderboard,
// best-effort: failures are logged and swallowed
func (s *DuelService) recordResult(roomID string, adv *engine.Advance) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	result := &model.DuelResult{
		RoomID:      roomID,
		Winner:      adv.Winner,
		Draw:        adv.Draw,
		TotalRounds: adv.TotalRounds,
		EndedAt:     time.Now(),
	}
	for _, p := range adv.Players {
		result.Players = append(result.Players, model.PlayerStats{
			PlayerID: p,
			Score:    adv.Scores[p],
			Won:      p == adv.Winner,
		})
	}

	if err := s.resultRepo.Create(ctx, result); err != nil {
		log.Printf("failed to record duel result for room %s: %v", roomID, err)
	}

	for _, p := range adv.Players {
		if err := s.leaderboard.AddPoints(ctx, p, adv.Scores[p]); err != nil {
			log.Printf("failed to update leaderboard for %s: %v", p, err)
		}
	}
	if adv.Winner != "" {
		if err := s.leaderboard.AddWin(ctx, adv.Winner); err != nil {
			log.Printf("failed to record win for %s: %v", adv.Winner, err)
		}
	}
}

func (s *DuelService) broadcast(roomID, event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRoom(roomID, event, payload)
	}
}

func (s *DuelService) broadcastTo(roomID, playerID, event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToPlayer(roomID, playerID, event, payload)
	}
}

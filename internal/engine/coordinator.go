package engine

import (
	"time"

	"mathduel/internal/model"
)

// QuestionSource produces a fresh arithmetic challenge on demand
type QuestionSource interface {
	Next() (expression string, answer int)
}

// Speed tiers for a correct answer, in elapsed seconds
const (
	fastThreshold   = 5
	mediumThreshold = 10
	slowThreshold   = 15
)

// AdvanceState classifies the outcome of an advance check
type AdvanceState int

const (
	RoundPending AdvanceState = iota
	RoundAdvanced
	DuelCompleted
)

// RoundStart describes a freshly issued round for broadcast
type RoundStart struct {
	Expression       string
	Round            int
	TimeLimitSeconds int
}

// SubmitResult is returned to the submitting player
type SubmitResult struct {
	Correct      bool
	Points       int
	RunningScore int
}

// Advance is the outcome of MaybeAdvanceRound, ForceExpire or Forfeit.
// Players and Scores are copies taken before the session is removed, so
// completion handlers can still see who played and how it ended.
type Advance struct {
	State       AdvanceState
	Round       int // next round number when State is RoundAdvanced
	Players     []string
	Scores      map[string]int
	Winner      string // empty on draw
	Draw        bool
	TotalRounds int
}

// Coordinator drives round transitions and scoring for sessions held in
// the registry. Every operation serializes on the session's own lock,
// which closes the race where two near-simultaneous submissions both
// read an empty answered set and double-advance the round.
type Coordinator struct {
	registry *Registry
	source   QuestionSource
	now      func() time.Time
}

// NewCoordinator creates a coordinator over the given registry
func NewCoordinator(registry *Registry, source QuestionSource) *Coordinator {
	return &Coordinator{
		registry: registry,
		source:   source,
		now:      time.Now,
	}
}

// StartRound issues a new challenge for the current round and clears the
// answered set. Calling it twice for one round overwrites the challenge;
// callers must not invoke it concurrently for the same room.
func (c *Coordinator) StartRound(roomID string) (*RoundStart, error) {
	s := c.registry.get(roomID)
	if s == nil {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.DuelActive {
		return nil, ErrNotActive
	}

	expr, answer := c.source.Next()
	s.challenge = &model.Challenge{
		Expression: expr,
		Answer:     answer,
		IssuedAt:   c.now(),
	}
	s.answered = make(map[string]bool)

	return &RoundStart{
		Expression:       expr,
		Round:            s.round,
		TimeLimitSeconds: s.timeLimitSeconds,
	}, nil
}

// SubmitAnswer scores one player's answer for the current round. The
// first submission per player per round wins; later ones are rejected.
//
// The client-reported elapsed time sets the speed tier, clamped to the
// server-observed time since the challenge was issued — whichever is
// larger, so a skewed or dishonest client clock can never earn a faster
// tier than the server saw.
func (c *Coordinator) SubmitAnswer(roomID, playerID string, answer int, clientElapsedSeconds float64) (*SubmitResult, error) {
	s := c.registry.get(roomID)
	if s == nil {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.DuelActive || s.challenge == nil {
		return nil, ErrNotActive
	}
	if _, known := s.scores[playerID]; !known {
		return nil, ErrUnknownPlayer
	}
	if s.answered[playerID] {
		return nil, ErrDuplicateSubmission
	}

	elapsed := clientElapsedSeconds
	if observed := c.now().Sub(s.challenge.IssuedAt).Seconds(); observed > elapsed {
		elapsed = observed
	}

	correct := answer == s.challenge.Answer
	points := 0
	if correct {
		points = pointsFor(elapsed)
	}

	s.scores[playerID] += points
	s.answered[playerID] = true

	return &SubmitResult{
		Correct:      correct,
		Points:       points,
		RunningScore: s.scores[playerID],
	}, nil
}

// MaybeAdvanceRound advances the round if both players have answered.
// A round never advances on a single answer, so a fast player cannot
// starve the other. On the final advance the session completes and is
// removed from the registry before the lock is released.
func (c *Coordinator) MaybeAdvanceRound(roomID string) (*Advance, error) {
	s := c.registry.get(roomID)
	if s == nil {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.DuelActive {
		return nil, ErrNotActive
	}
	if !s.bothAnsweredLocked() {
		return &Advance{State: RoundPending}, nil
	}

	return c.advanceLocked(s), nil
}

// ForceExpire resolves a round whose time limit lapsed: players who
// never answered are marked answered with 0 points, then the normal
// advance logic runs. The round argument is a fencing token — a stale
// timer firing after the round already advanced is a no-op.
func (c *Coordinator) ForceExpire(roomID string, round int) (*Advance, error) {
	s := c.registry.get(roomID)
	if s == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.DuelActive || s.challenge == nil || s.round != round {
		return nil, nil
	}

	for _, p := range s.players {
		if !s.answered[p] {
			s.answered[p] = true
		}
	}

	return c.advanceLocked(s), nil
}

// Forfeit ends a duel early because a player left. For an active duel
// the remaining player wins with scores as accrued; a waiting room is
// simply torn down. Forfeit is a terminal transition, not an error.
func (c *Coordinator) Forfeit(roomID, playerID string) (*Advance, error) {
	s := c.registry.get(roomID)
	if s == nil {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, known := s.scores[playerID]; !known {
		return nil, ErrUnknownPlayer
	}

	if s.status == model.DuelWaiting {
		c.registry.Remove(roomID)
		return nil, nil
	}
	if s.status != model.DuelActive {
		return nil, ErrNotActive
	}

	winner := s.players[0]
	if winner == playerID {
		winner = s.players[1]
	}

	s.status = model.DuelCompleted
	s.challenge = nil
	c.registry.Remove(roomID)

	return &Advance{
		State:       DuelCompleted,
		Players:     append([]string(nil), s.players...),
		Scores:      copyScores(s.scores),
		Winner:      winner,
		TotalRounds: s.round - 1,
	}, nil
}

// advanceLocked increments the round counter or, past the round limit,
// completes the session and removes it from the registry. Caller holds
// s.mu and has verified the session is active.
func (c *Coordinator) advanceLocked(s *session) *Advance {
	s.round++
	s.challenge = nil
	s.answered = make(map[string]bool)

	if s.round <= s.roundLimit {
		return &Advance{
			State:   RoundAdvanced,
			Round:   s.round,
			Players: append([]string(nil), s.players...),
			Scores:  copyScores(s.scores),
		}
	}

	s.status = model.DuelCompleted
	winner, draw := s.winnerLocked()
	c.registry.Remove(s.roomID)

	return &Advance{
		State:       DuelCompleted,
		Players:     append([]string(nil), s.players...),
		Scores:      copyScores(s.scores),
		Winner:      winner,
		Draw:        draw,
		TotalRounds: s.roundLimit,
	}
}

// pointsFor maps elapsed seconds to the speed-tiered score
func pointsFor(elapsed float64) int {
	switch {
	case elapsed < fastThreshold:
		return 100
	case elapsed < mediumThreshold:
		return 75
	case elapsed < slowThreshold:
		return 50
	default:
		return 25
	}
}

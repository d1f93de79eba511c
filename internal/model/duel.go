package model

import "time"

// DuelStatus is the lifecycle state of a duel session
type DuelStatus string

const (
	DuelWaiting   DuelStatus = "waiting"
	DuelActive    DuelStatus = "active"
	DuelCompleted DuelStatus = "completed"
)

// Challenge is one arithmetic question issued to both players in a round.
// The answer never leaves the server; clients only see the expression.
type Challenge struct {
	Expression string    `json:"expression"`
	Answer     int       `json:"-"`
	IssuedAt   time.Time `json:"-"`
}

// DuelSnapshot is a read-only copy of a session's state, safe to hand
// out without exposing the live session to concurrent mutation
type DuelSnapshot struct {
	RoomID           string         `json:"roomId"`
	Players          []string       `json:"players"`
	Status           DuelStatus     `json:"status"`
	Round            int            `json:"round"`
	RoundLimit       int            `json:"roundLimit"`
	TimeLimitSeconds int            `json:"timeLimitSeconds"`
	Scores           map[string]int `json:"scores"`
}

// PlayerStats is one player's line in a finished duel record
type PlayerStats struct {
	PlayerID string `json:"playerId" bson:"playerId"`
	Score    int    `json:"score" bson:"score"`
	Won      bool   `json:"won" bson:"won"`
}

// DuelResult is the durable record handed to persistence after completion
type DuelResult struct {
	ID          string        `json:"id" bson:"_id,omitempty"`
	RoomID      string        `json:"roomId" bson:"roomId"`
	Players     []PlayerStats `json:"players" bson:"players"`
	Winner      string        `json:"winner,omitempty" bson:"winner,omitempty"`
	Draw        bool          `json:"draw" bson:"draw"`
	TotalRounds int           `json:"totalRounds" bson:"totalRounds"`
	EndedAt     time.Time     `json:"endedAt" bson:"endedAt"`
}

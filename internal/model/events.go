package model

// Outbound event payloads pushed over the duel transport. The envelope
// (type + payload) lives in the ws package; these are the bodies.

// PlayerJoinedEvent announces the second player entering a room
type PlayerJoinedEvent struct {
	PlayerID string `json:"playerId"`
}

// RoundStartedEvent carries a fresh question to both players
type RoundStartedEvent struct {
	Question  string `json:"question"`
	Round     int    `json:"round"`
	TimeLimit int    `json:"timeLimit"`
}

// AnswerResultEvent is sent to the submitting player only
type AnswerResultEvent struct {
	Correct      bool `json:"correct"`
	Points       int  `json:"points"`
	RunningScore int  `json:"runningScore"`
}

// OpponentAnsweredEvent tells a player their opponent has locked in
type OpponentAnsweredEvent struct {
	PlayerID string `json:"playerId"`
	Correct  bool   `json:"correct"`
	Points   int    `json:"points"`
}

// RoundAdvancedEvent announces the next round number and running scores
type RoundAdvancedEvent struct {
	Round  int            `json:"round"`
	Scores map[string]int `json:"scores"`
}

// DuelCompletedEvent is the terminal broadcast for a room
type DuelCompletedEvent struct {
	Winner      string         `json:"winner,omitempty"`
	Draw        bool           `json:"draw"`
	FinalScores map[string]int `json:"finalScores"`
	TotalRounds int            `json:"totalRounds"`
}

// PlayerLeftEvent announces a disconnect or explicit leave
type PlayerLeftEvent struct {
	PlayerID string `json:"playerId"`
}

// ErrorEvent reports a rejected operation back to its sender
type ErrorEvent struct {
	Message string `json:"message"`
}

package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgType string, payload interface{})
	BroadcastToPlayer(roomID, playerID string, msgType string, payload interface{})
}

// Outbound event type names, mirrored by the ws package constants
const (
	EventPlayerJoined     = "player_joined"
	EventRoundStarted     = "round_started"
	EventAnswerResult     = "answer_result"
	EventOpponentAnswered = "opponent_answered"
	EventRoundAdvanced    = "round_advanced"
	EventDuelCompleted    = "duel_completed"
	EventPlayerLeft       = "player_left"
)

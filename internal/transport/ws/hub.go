package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Outbound message types
const (
	MsgPlayerJoined     MessageType = "player_joined"
	MsgRoundStarted     MessageType = "round_started"
	MsgAnswerResult     MessageType = "answer_result"
	MsgOpponentAnswered MessageType = "opponent_answered"
	MsgRoundAdvanced    MessageType = "round_advanced"
	MsgDuelCompleted    MessageType = "duel_completed"
	MsgPlayerLeft       MessageType = "player_left"
	MsgError            MessageType = "error"
)

// Inbound message types
const (
	MsgStartRequest MessageType = "start"
	MsgAnswer       MessageType = "answer"
	MsgLeave        MessageType = "leave"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections for duel rooms
type Hub struct {
	// roomID -> playerID -> conn
	conns map[string]map[string]*Connection

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	RoomID   string
	PlayerID string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	RoomID   string
	ToPlayer string // Empty means the whole room
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.RoomID] == nil {
				h.conns[conn.RoomID] = make(map[string]*Connection)
			}
			h.conns[conn.RoomID][conn.PlayerID] = conn
			log.Printf("Player %s connected to room %s", conn.PlayerID, conn.RoomID)
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if players, ok := h.conns[conn.RoomID]; ok {
				if existing, ok := players[conn.PlayerID]; ok && existing == conn {
					delete(players, conn.PlayerID)
					close(conn.Send)
					if len(players) == 0 {
						delete(h.conns, conn.RoomID)
					}
					log.Printf("Player %s disconnected from room %s", conn.PlayerID, conn.RoomID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if players, ok := h.conns[msg.RoomID]; ok {
				for playerID, conn := range players {
					if msg.ToPlayer != "" && playerID != msg.ToPlayer {
						continue
					}
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToRoom sends a message to every connection in a room
// (implements service.Broadcaster)
func (h *Hub) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomID: roomID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// BroadcastToPlayer sends a message to a single player in a room
// (implements service.Broadcaster)
func (h *Hub) BroadcastToPlayer(roomID, playerID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomID:   roomID,
		ToPlayer: playerID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

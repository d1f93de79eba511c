package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"mathduel/internal/engine"
	"mathduel/internal/model"
	"mathduel/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// AnswerPayload is the inbound body for an answer submission
type AnswerPayload struct {
	Value          int     `json:"value"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

// Handler handles WebSocket connections
type Handler struct {
	hub     *Hub
	authSvc *service.AuthService
	duelSvc *service.DuelService
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, duelSvc *service.DuelService) *Handler {
	return &Handler{
		hub:     hub,
		authSvc: authSvc,
		duelSvc: duelSvc,
	}
}

// DuelWS handles GET /v1/ws/duels/{roomId}
func (h *Handler) DuelWS(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidatePlayerToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	snap, err := h.duelSvc.Lookup(roomID)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if !isParticipant(snap, claims.PlayerID) {
		http.Error(w, "not a participant of this duel", http.StatusForbidden)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		RoomID:   roomID,
		PlayerID: claims.PlayerID,
		Send:     make(chan []byte, 256),
		Hub:      h.hub,
	}

	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()

		// A dropped connection forfeits any duel still in flight. After
		// normal completion the room is already gone and this is a no-op.
		if err := h.duelSvc.LeaveDuel(conn.RoomID, conn.PlayerID); err != nil && !errors.Is(err, engine.ErrNotFound) {
			log.Printf("forfeit on disconnect failed for room %s: %v", conn.RoomID, err)
		}
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(conn, "malformed message")
			continue
		}

		if done := h.dispatch(conn, &msg); done {
			break
		}
	}
}

// dispatch routes one inbound message. It returns true when the
// connection should close.
func (h *Handler) dispatch(conn *Connection, msg *Message) bool {
	switch msg.Type {
	case MsgStartRequest:
		if err := h.duelSvc.StartRound(conn.RoomID); err != nil {
			h.sendError(conn, err.Error())
		}

	case MsgAnswer:
		var payload AnswerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			h.sendError(conn, "malformed answer payload")
			return false
		}
		if _, err := h.duelSvc.SubmitAnswer(conn.RoomID, conn.PlayerID, payload.Value, payload.ElapsedSeconds); err != nil {
			h.sendError(conn, err.Error())
		}

	case MsgLeave:
		return true

	default:
		h.sendError(conn, "unknown message type")
	}
	return false
}

func (h *Handler) sendError(conn *Connection, message string) {
	h.hub.BroadcastToPlayer(conn.RoomID, conn.PlayerID, string(MsgError), model.ErrorEvent{Message: message})
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func isParticipant(snap *model.DuelSnapshot, playerID string) bool {
	for _, p := range snap.Players {
		if p == playerID {
			return true
		}
	}
	return false
}

// Package handlers exposes the router over transports: a websocket chat
// session for live conversations and plain JSON endpoints for one-shot
// classification and health checks.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Lumora-Labs/lumora-go-router/dispatch"
	"github.com/Lumora-Labs/lumora-go-router/models"
	"github.com/Lumora-Labs/lumora-go-router/router"
)

const heartbeatInterval = 30 * time.Second

// ChatSession is one live websocket conversation. Messages for it are
// processed sequentially by the read loop; the router adds its own
// same-session lock underneath, so a reconnecting client reusing the id is
// still safe.
type ChatSession struct {
	ID         string
	Connection *websocket.Conn
	Logger     *zap.Logger
	Router     *router.Router
	Dispatcher *dispatch.Dispatcher

	StartTime    time.Time
	LastActivity time.Time

	// writeMu serializes frames: the read loop and the heartbeat
	// goroutine both write to the connection.
	writeMu sync.Mutex
	stop    chan struct{}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow connections from any origin
	},
}

// WebSocketMessage is the JSON envelope for every frame in both directions.
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChatMessageData is the payload of an inbound chat_message frame. The
// artifact fields let a client that manages its own gallery assert context
// the server has not seen.
type ChatMessageData struct {
	Text              string `json:"text"`
	HasRecentArtifact bool   `json:"has_recent_artifact"`
	ArtifactSummary   string `json:"artifact_summary"`
}

func NewChatSession(id string, conn *websocket.Conn, rt *router.Router, d *dispatch.Dispatcher) *ChatSession {
	return &ChatSession{
		ID:           id,
		Connection:   conn,
		Logger:       zap.L().With(zap.String("session_id", id)),
		Router:       rt,
		Dispatcher:   d,
		StartTime:    time.Now(),
		LastActivity: time.Now(),
		stop:         make(chan struct{}),
	}
}

// HandleChatSession upgrades the request and runs the session until the
// client disconnects or sends stop. A session_id query parameter resumes an
// existing session; otherwise a fresh id is issued.
func HandleChatSession(w http.ResponseWriter, r *http.Request, rt *router.Router, d *dispatch.Dispatcher) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Error("Failed to upgrade to websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	session := NewChatSession(sessionID, conn, rt, d)
	session.Logger.Info("New chat session started")
	session.sendMessage("session_started", map[string]interface{}{
		"session_id": session.ID,
	})

	go session.heartbeat()
	session.listen()

	session.Stop()
	session.Logger.Info("Chat session ended")
}

func (s *ChatSession) listen() {
	for {
		var msg WebSocketMessage
		if err := s.Connection.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.Logger.Error("WebSocket error", zap.Error(err))
			}
			return
		}
		s.LastActivity = time.Now()

		switch msg.Type {
		case "chat_message":
			s.handleChatMessage(msg.Data)
		case "ping":
			s.sendMessage("pong", nil)
		case "stop":
			s.Logger.Info("Received stop command from client")
			s.sendMessage("stop_confirmation", map[string]interface{}{
				"session_id": s.ID,
			})
			return
		default:
			s.Logger.Warn("Unknown message type", zap.String("type", msg.Type))
		}
	}
}

func (s *ChatSession) handleChatMessage(raw interface{}) {
	var data ChatMessageData
	if err := reencode(raw, &data); err != nil {
		s.Logger.Error("Invalid chat_message data", zap.Error(err))
		s.sendMessage("error", map[string]interface{}{"message": "invalid chat_message payload"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	env := models.Env{
		HasRecentArtifact: data.HasRecentArtifact,
		ArtifactSummary:   data.ArtifactSummary,
	}
	res, err := s.Router.Classify(ctx, data.Text, s.ID, env)
	if err != nil {
		s.Logger.Error("Classification failed", zap.Error(err))
		s.sendMessage("error", map[string]interface{}{"message": "classification failed"})
		return
	}

	s.sendMessage("classification", map[string]interface{}{
		"category":   res.Category,
		"confidence": res.Confidence,
		"threshold":  res.Threshold,
		"action":     res.Action,
		"tone":       res.Emotion.OverallTone,
	})

	reply, outcome := s.Dispatcher.Dispatch(ctx, dispatch.Input{
		SessionID: s.ID,
		Message:   data.Text,
		Result:    *res,
		Env:       env,
	})

	if res.Action == models.ActionClarify {
		// A clarification is a question back to the user, not a
		// dispatched action; nothing to report.
		s.sendMessage("clarification", reply)
		return
	}

	s.sendMessage("response", reply)
	s.Router.ReportDispatch(ctx, s.ID, models.ActionRecord{
		ID:        uuid.New().String(),
		Category:  res.Category,
		Summary:   summarize(reply),
		Success:   outcome.Success,
		Timestamp: time.Now(),
	}, outcome)
}

func (s *ChatSession) heartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Logger.Debug("Session heartbeat")
			s.sendMessage("heartbeat", map[string]interface{}{
				"session_id": s.ID,
				"uptime":     time.Since(s.StartTime).String(),
			})
		case <-s.stop:
			return
		}
	}
}

func (s *ChatSession) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

func (s *ChatSession) sendMessage(msgType string, data interface{}) {
	msg := WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.Connection.WriteJSON(msg); err != nil {
		s.Logger.Error("Failed to send websocket message", zap.Error(err), zap.String("type", msgType))
	}
}

// reencode converts the loosely-typed envelope payload into a concrete
// struct via a JSON round trip.
func reencode(raw, out interface{}) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// summarize picks the history-worthy line of a reply: the artifact reference
// when one was produced, otherwise a bounded slice of the text.
func summarize(reply dispatch.Reply) string {
	if reply.ImageURL != "" {
		return reply.ImageURL
	}
	const max = 140
	runes := []rune(reply.Text)
	if len(runes) > max {
		return string(runes[:max])
	}
	return reply.Text
}

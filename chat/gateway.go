package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/swiftserve/swiftserve-chat-api/config"
	"github.com/swiftserve/swiftserve-chat-api/middleware"
	"gorm.io/gorm"
)

// Gateway is the connection entry point. It authenticates the handshake,
// registers the session, and dispatches inbound events to the room
// manager, the message pipeline, and the presence broadcaster.
type Gateway struct {
	cfg         *config.Config
	hub         *Hub
	verifier    *middleware.TokenVerifier
	authorizer  OrderAuthorizer
	pipeline    *Pipeline
	broadcaster *Broadcaster
	upgrader    websocket.Upgrader
}

// NewGateway wires the gateway with its collaborators.
func NewGateway(cfg *config.Config, db *gorm.DB, hub *Hub, verifier *middleware.TokenVerifier, authorizer OrderAuthorizer) *Gateway {
	return &Gateway{
		cfg:         cfg,
		hub:         hub,
		verifier:    verifier,
		authorizer:  authorizer,
		pipeline:    NewPipeline(db, hub),
		broadcaster: NewBroadcaster(db, hub),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket handles GET /ws - authenticates the handshake, then
// upgrades and runs the connection. A missing or invalid credential
// refuses the connection before any session exists.
func (g *Gateway) HandleWebSocket(c *gin.Context) {
	token := bearerToken(c.Request)
	identity, err := g.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		log.Printf("WebSocket handshake rejected: %v", err)
		c.PureJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Invalid or missing credential",
			},
		})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return
	}

	session := NewSession(*identity, conn)
	log.Printf("Session connected: %s (user %d, role %s)", session.ID, identity.UserID, identity.Role)

	go g.writePump(session)
	go g.readPump(session)
}

// bearerToken extracts the credential from the handshake: an explicit
// token query field, or an Authorization: Bearer header fallback.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// readPump reads frames until the connection drops, dispatching each event
// on its own goroutine so events from one connection interleave freely.
// Disconnect is the only cancellation primitive: it removes the session
// from every room before the socket is torn down.
func (g *Gateway) readPump(s *Session) {
	defer func() {
		g.hub.LeaveAll(s)
		s.close()
		s.conn.Close()
		log.Printf("Session disconnected: %s", s.ID)
	}()

	s.conn.SetReadLimit(g.cfg.WSMaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(g.cfg.WSReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(g.cfg.WSReadTimeout))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error on session %s: %v", s.ID, err)
			}
			break
		}
		go g.dispatch(s, data)
	}
}

// writePump drains the session's outbound queue and keeps the connection
// alive with pings.
func (g *Gateway) writePump(s *Session) {
	ticker := time.NewTicker(g.cfg.WSPingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(g.cfg.WSWriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("Failed to write to session %s: %v", s.ID, err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(g.cfg.WSWriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound frame. Event errors are scoped to that
// event: they are logged, reported back to the initiating session, and
// never disconnect it.
func (g *Gateway) dispatch(s *Session, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		g.sendError(s, ErrorCodeInvalidMessage, "malformed event")
		return
	}

	switch env.Event {
	case EventJoinOrder:
		g.handleJoin(s, env.Data)
	case EventMessageSend:
		g.handleSend(s, env.Data)
	case EventTypingStart:
		g.handleTyping(s, env.Data, true)
	case EventTypingStop:
		g.handleTyping(s, env.Data, false)
	case EventMessageSeen:
		g.handleSeen(s, env.Data)
	default:
		g.sendError(s, ErrorCodeInvalidMessage, "unknown event: "+env.Event)
	}
}

func (g *Gateway) handleJoin(s *Session, data []byte) {
	var p JoinOrderPayload
	if err := json.Unmarshal(data, &p); err != nil || p.OrderID == 0 {
		g.sendError(s, ErrorCodeInvalidMessage, "join_order requires an order_id")
		return
	}

	if err := g.authorizer.CanJoin(p.OrderID, s.Identity); err != nil {
		log.Printf("Join refused for user %d on order %d: %v", s.Identity.UserID, p.OrderID, err)
		g.sendError(s, ErrorCodeForbidden, "not allowed to join this order")
		return
	}

	if _, err := g.pipeline.EnsureConversation(p.OrderID, s.Identity.UserID); err != nil {
		log.Printf("Join failed for user %d on order %d: %v", s.Identity.UserID, p.OrderID, err)
		g.sendError(s, ErrorCodePersistence, "could not join the order room")
		return
	}

	g.hub.Join(s, p.OrderID)
	g.hub.Broadcast(p.OrderID, EventSystem, SystemPayload{
		OrderID: p.OrderID,
		UserID:  s.Identity.UserID,
		Text:    "user joined the order room",
	}, nil)
}

func (g *Gateway) handleSend(s *Session, data []byte) {
	var p SendPayload
	if err := json.Unmarshal(data, &p); err != nil || p.OrderID == 0 {
		g.sendError(s, ErrorCodeInvalidMessage, "message:send requires an order_id")
		return
	}

	if _, err := g.pipeline.Send(s, p); err != nil {
		if errors.Is(err, ErrInvalidMessage) {
			log.Printf("Dropped invalid message from user %d on order %d", s.Identity.UserID, p.OrderID)
			g.sendError(s, ErrorCodeInvalidMessage, "message failed validation")
			return
		}
		log.Printf("Send failed for user %d on order %d: %v", s.Identity.UserID, p.OrderID, err)
		g.sendError(s, ErrorCodePersistence, "message could not be saved")
	}
}

func (g *Gateway) handleTyping(s *Session, data []byte, isTyping bool) {
	var p TypingPayload
	if err := json.Unmarshal(data, &p); err != nil || p.OrderID == 0 {
		g.sendError(s, ErrorCodeInvalidMessage, "typing events require an order_id")
		return
	}
	g.broadcaster.Typing(s, p.OrderID, isTyping)
}

func (g *Gateway) handleSeen(s *Session, data []byte) {
	var p SeenPayload
	if err := json.Unmarshal(data, &p); err != nil || p.OrderID == 0 {
		g.sendError(s, ErrorCodeInvalidMessage, "message:seen requires an order_id")
		return
	}

	if _, err := g.broadcaster.MarkSeen(s, p.OrderID, p.MessageIDs); err != nil {
		log.Printf("Seen update failed for user %d on order %d: %v", s.Identity.UserID, p.OrderID, err)
		g.sendError(s, ErrorCodePersistence, "receipts could not be updated")
	}
}

// sendError reports an event-scoped failure to the initiating session.
func (g *Gateway) sendError(s *Session, code, message string) {
	frame, err := marshalEvent(EventError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		log.Printf("Failed to encode error event: %v", err)
		return
	}
	s.deliver(frame)
}

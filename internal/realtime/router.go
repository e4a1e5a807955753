package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/collab-gateway/internal/api/response"
	"github.com/Rrens/collab-gateway/internal/config"
	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/Rrens/collab-gateway/internal/metrics"
	"github.com/Rrens/collab-gateway/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// Router accepts websocket connections and dispatches their events
type Router struct {
	cfg        config.RealtimeConfig
	gate       *service.IdentityGate
	oracle     *service.MembershipOracle
	chat       *service.ChatService
	boards     *service.BoardService
	whiteboard *service.WhiteboardCache
	hub        *Hub
	upgrader   websocket.Upgrader
}

// NewRouter creates a new realtime router
func NewRouter(
	cfg config.RealtimeConfig,
	gate *service.IdentityGate,
	oracle *service.MembershipOracle,
	chat *service.ChatService,
	boards *service.BoardService,
	whiteboard *service.WhiteboardCache,
	hub *Hub,
) *Router {
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 6 << 20
	}

	rt := &Router{
		cfg:        cfg,
		gate:       gate,
		oracle:     oracle,
		chat:       chat,
		boards:     boards,
		whiteboard: whiteboard,
		hub:        hub,
	}
	rt.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     rt.checkOrigin,
	}
	return rt
}

// ServeHTTP authenticates the handshake and runs the session until it disconnects
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := rt.gate.Authenticate(r.Context(), handshakeToken(r))
	if err != nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	conn, err := rt.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	s := newSession(uuid.New().String(), userID, conn, rt.cfg.SendBuffer)
	metrics.RealtimeSessions.Inc()
	log.Info().Str("session_id", s.id).Str("user_id", userID).Msg("socket:connected")

	go s.writePump(rt.cfg.WriteWait, rt.cfg.PongWait*9/10)

	// In-flight operations outlive the transport.
	ctx := context.WithoutCancel(r.Context())
	rt.readLoop(ctx, s)

	rt.hub.LeaveAll(s)
	s.close()
	metrics.RealtimeSessions.Dec()
	log.Info().Str("session_id", s.id).Str("user_id", userID).Msg("socket:disconnected")
}

func (rt *Router) readLoop(ctx context.Context, s *Session) {
	s.conn.SetReadLimit(rt.cfg.MaxMessageBytes)
	s.conn.SetReadDeadline(time.Now().Add(rt.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(rt.cfg.PongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Debug().Err(err).Str("session_id", s.id).Msg("socket read failed")
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(rt.cfg.PongWait))

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			continue
		}
		rt.dispatch(ctx, s, frame)
	}
}

func (rt *Router) dispatch(ctx context.Context, s *Session, frame Frame) {
	switch frame.Event {
	case EventJoinWorkspace:
		var p joinPayload
		if decode(frame.Data, &p) {
			rt.handleJoin(ctx, s, p)
			return
		}
	case EventChatSend:
		var p chatSendPayload
		if decode(frame.Data, &p) {
			rt.handleChatSend(ctx, s, p)
			return
		}
	case EventTasksMove:
		var p taskMovePayload
		if decode(frame.Data, &p) {
			rt.handleTaskMove(ctx, s, p)
			return
		}
	case EventWhiteboardRequest:
		var p whiteboardRequestPayload
		if decode(frame.Data, &p) {
			rt.handleWhiteboardRequest(ctx, s, p)
			return
		}
	case EventWhiteboardUpdate:
		var p whiteboardUpdatePayload
		if decode(frame.Data, &p) && isObject(p.Payload) {
			rt.handleWhiteboardUpdate(ctx, s, p)
			return
		}
	default:
		return
	}
	metrics.RealtimeEvents.WithLabelValues(frame.Event, "invalid").Inc()
}

// authorize checks membership and signals the session when it fails
func (rt *Router) authorize(ctx context.Context, s *Session, event, workspaceID string) bool {
	err := rt.oracle.Authorize(ctx, s.userID, workspaceID)
	if err == nil {
		return true
	}

	if errors.Is(err, domain.ErrForbidden) {
		metrics.RealtimeEvents.WithLabelValues(event, "forbidden").Inc()
		s.emit(EventErrorAuth, errorPayload{Message: "Not a workspace member"})
		return false
	}

	rt.fail(s, event, workspaceID, err)
	return false
}

func (rt *Router) fail(s *Session, event, workspaceID string, err error) {
	metrics.RealtimeEvents.WithLabelValues(event, "failed").Inc()
	log.Error().Err(err).
		Str("session_id", s.id).
		Str("user_id", s.userID).
		Str("workspace_id", workspaceID).
		Str("event", event).
		Msg("realtime event failed")
	s.emit(EventErrorInternal, errorPayload{Message: "Internal error"})
}

func (rt *Router) broadcast(ctx context.Context, s *Session, workspaceID, event string, payload any, exclude string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode broadcast")
		return
	}
	env := domain.Envelope{Room: RoomName(workspaceID), Event: event, Data: data, Exclude: exclude}
	if err := rt.hub.Publish(ctx, env); err != nil {
		log.Error().Err(err).Str("session_id", s.id).Str("workspace_id", workspaceID).Str("event", event).Msg("broadcast failed")
	}
}

func (rt *Router) handleJoin(ctx context.Context, s *Session, p joinPayload) {
	if !rt.authorize(ctx, s, EventJoinWorkspace, p.WorkspaceID) {
		return
	}
	if err := rt.hub.Join(ctx, RoomName(p.WorkspaceID), s); err != nil {
		rt.fail(s, EventJoinWorkspace, p.WorkspaceID, err)
		return
	}

	metrics.RealtimeEvents.WithLabelValues(EventJoinWorkspace, "ok").Inc()
	log.Info().Str("session_id", s.id).Str("user_id", s.userID).Str("workspace_id", p.WorkspaceID).Msg("socket:join_workspace")
	s.emit(EventWorkspaceJoined, joinPayload{WorkspaceID: p.WorkspaceID})
}

func (rt *Router) handleChatSend(ctx context.Context, s *Session, p chatSendPayload) {
	if !rt.authorize(ctx, s, EventChatSend, p.WorkspaceID) {
		return
	}

	msg, err := rt.chat.Send(ctx, p.WorkspaceID, s.userID, p.Content)
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		metrics.RealtimeEvents.WithLabelValues(EventChatSend, "rate_limited").Inc()
		s.emit(EventErrorRate, errorPayload{Kind: "chat"})
		return
	case errors.Is(err, domain.ErrValidation):
		metrics.RealtimeEvents.WithLabelValues(EventChatSend, "invalid").Inc()
		return
	case err != nil:
		rt.fail(s, EventChatSend, p.WorkspaceID, err)
		return
	}

	metrics.RealtimeEvents.WithLabelValues(EventChatSend, "ok").Inc()
	rt.broadcast(ctx, s, p.WorkspaceID, EventChatNew, msg, "")
}

func (rt *Router) handleTaskMove(ctx context.Context, s *Session, p taskMovePayload) {
	if !rt.authorize(ctx, s, EventTasksMove, p.WorkspaceID) {
		return
	}

	move, err := rt.boards.MoveTask(ctx, p.WorkspaceID, p.TaskID, p.ToColumnID, *p.ToIndex)
	if err != nil {
		metrics.RealtimeEvents.WithLabelValues(EventTasksMove, "failed").Inc()
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("session_id", s.id).Str("task_id", p.TaskID).Msg("task move failed")
		}
		s.emit(EventErrorTasksMove, errorPayload{Message: "Move failed"})
		return
	}

	metrics.RealtimeEvents.WithLabelValues(EventTasksMove, "ok").Inc()
	rt.broadcast(ctx, s, p.WorkspaceID, EventTasksMoved, move, "")
}

func (rt *Router) handleWhiteboardRequest(ctx context.Context, s *Session, p whiteboardRequestPayload) {
	if !rt.authorize(ctx, s, EventWhiteboardRequest, p.WorkspaceID) {
		return
	}

	payload, err := rt.whiteboard.Get(ctx, p.WorkspaceID)
	if err != nil {
		rt.fail(s, EventWhiteboardRequest, p.WorkspaceID, err)
		return
	}

	metrics.RealtimeEvents.WithLabelValues(EventWhiteboardRequest, "ok").Inc()
	if payload != nil {
		s.send(Frame{Event: EventWhiteboardState, Data: payload})
	}
}

func (rt *Router) handleWhiteboardUpdate(ctx context.Context, s *Session, p whiteboardUpdatePayload) {
	if !rt.authorize(ctx, s, EventWhiteboardUpdate, p.WorkspaceID) {
		return
	}

	stored, err := rt.whiteboard.Set(ctx, p.WorkspaceID, p.Payload)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			metrics.RealtimeEvents.WithLabelValues(EventWhiteboardUpdate, "invalid").Inc()
			return
		}
		rt.fail(s, EventWhiteboardUpdate, p.WorkspaceID, err)
		return
	}
	if !stored {
		metrics.RealtimeEvents.WithLabelValues(EventWhiteboardUpdate, "too_large").Inc()
		return
	}

	metrics.RealtimeEvents.WithLabelValues(EventWhiteboardUpdate, "ok").Inc()
	rt.broadcast(ctx, s, p.WorkspaceID, EventWhiteboardUpdate, whiteboardRelay{Payload: p.Payload, From: s.id}, s.id)
}

func (rt *Router) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(rt.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range rt.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// handshakeToken reads a bearer token from the Authorization header or the token query parameter
func handshakeToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return r.URL.Query().Get("token")
}

func decode(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false
	}
	return validate.Struct(v) == nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

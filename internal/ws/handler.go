package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"socialhub/internal/domain"
)

// Dispatcher handles the business events of one connection. Dispatch is called
// sequentially per connection, in arrival order.
type Dispatcher interface {
	Welcome(ctx context.Context, c *Conn)
	Dispatch(ctx context.Context, c *Conn, env Envelope)
}

type HandlerConfig struct {
	AllowedOrigins   []string
	HandshakeTimeout time.Duration
	SendBuffer       int
}

// Handler serves the websocket endpoint.
type Handler struct {
	hub        *Hub
	dispatcher Dispatcher
	cfg        HandlerConfig
	upgrader   websocket.Upgrader
	log        *slog.Logger
}

func NewHandler(hub *Hub, d Dispatcher, cfg HandlerConfig, log *slog.Logger) *Handler {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 5 * time.Second
	}
	return &Handler{
		hub:        hub,
		dispatcher: d,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin:  makeCheckOrigin(cfg.AllowedOrigins),
			Subprotocols: []string{"bearer"},
		},
		log: log.With("component", "ws"),
	}
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

// makeCheckOrigin allows requests without an Origin header (non-browser
// clients) and browser requests from the configured origins. "*" allows all.
func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	_, allowAll := allowed["*"]

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" || allowAll {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// extractToken looks at the Authorization header, the Sec-WebSocket-Protocol
// pair "bearer, <token>" and the token query parameter, in that order.
func extractToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		if token := strings.TrimSpace(authHeader[len("Bearer "):]); token != "" {
			return token
		}
	}

	if protocolHeader := r.Header.Get("Sec-WebSocket-Protocol"); protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
			return parts[1]
		}
	}

	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingIdentity):
		return "missing identity"
	case errors.Is(err, domain.ErrMalformedIdentity):
		return "malformed identity"
	case errors.Is(err, domain.ErrUnknownUser):
		return "unknown user"
	default:
		return "authentication failed"
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.upgrader.CheckOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}
	ctx := r.Context()

	var user *domain.User
	if token := extractToken(r); token != "" {
		authCtx, cancel := context.WithTimeout(ctx, h.cfg.HandshakeTimeout)
		u, err := h.hub.Authenticate(authCtx, token)
		cancel()
		if err != nil {
			h.log.Debug("handshake rejected", "err", err)
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, domain.ErrUnauthorized):
				status = http.StatusUnauthorized
			case errors.Is(err, context.DeadlineExceeded):
				status = http.StatusServiceUnavailable
			}
			http.Error(w, authMessage(err), status)
			return
		}
		user = u
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(maxFrameSize)

	if user == nil {
		user, err = h.handshake(ctx, conn)
		if err != nil {
			h.log.Debug("handshake rejected", "err", err)
			h.reject(conn, err)
			return
		}
	}

	sock := newSocket(conn, h.cfg.SendBuffer)
	go sock.writePump()

	c := h.hub.Attach(user, sock)
	defer h.hub.Disconnect(c)

	h.dispatcher.Welcome(ctx, c)
	h.readLoop(ctx, conn, c)
}

// handshake waits for the first frame to be an authenticate event.
func (h *Handler) handshake(ctx context.Context, conn *websocket.Conn) (*domain.User, error) {
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.HandshakeTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMissingIdentity, err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Event != EventAuthenticate {
		return nil, domain.ErrMissingIdentity
	}
	var p struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return nil, domain.ErrMalformedIdentity
	}

	u, err := h.hub.Authenticate(ctx, p.Token)
	if err != nil {
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Time{})
	return u, nil
}

func (h *Handler) reject(conn *websocket.Conn, err error) {
	defer conn.Close()
	msg := authMessage(err)
	deadline := time.Now().Add(writeWait)
	if frame, encErr := Encode(EventConnectError, ErrorPayload{Error: msg}); encErr == nil {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.WriteMessage(websocket.TextMessage, frame)
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, msg), deadline)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, c *Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("read failed", "conn_id", c.ID, "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			h.hub.SendError(c, EventError, "malformed frame")
			continue
		}
		h.dispatcher.Dispatch(ctx, c, env)
	}
}

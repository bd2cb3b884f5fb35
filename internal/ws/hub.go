package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"socialhub/internal/domain"
	"socialhub/internal/metrics"
	"socialhub/internal/presence"
)

// IdentityVerifier turns an identity token into a user id.
type IdentityVerifier interface {
	Subject(token string) (string, error)
}

// Hub owns authenticated connections and their room membership. Every
// connection is in the personal room named after its user id.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Conn]struct{}
	conns map[*Conn]struct{}

	presence *presence.Registry
	tokens   IdentityVerifier
	users    domain.UserRepository
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewHub(
	reg *presence.Registry,
	tokens IdentityVerifier,
	users domain.UserRepository,
	m *metrics.Metrics,
	log *slog.Logger,
) *Hub {
	h := &Hub{
		rooms:    make(map[string]map[*Conn]struct{}),
		conns:    make(map[*Conn]struct{}),
		presence: reg,
		tokens:   tokens,
		users:    users,
		metrics:  m,
		log:      log.With("component", "gateway"),
	}
	reg.OnChange(func(online []string) {
		h.metrics.SetOnline(len(online))
		h.EmitAll(EventOnlineUsers, online)
	})
	return h
}

// Authenticate resolves token to a known user.
func (h *Hub) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := h.tokens.Subject(token)
	if err != nil {
		return nil, err
	}
	u, err := h.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	return u, nil
}

// Connect authenticates token and attaches t. On failure t is closed.
func (h *Hub) Connect(ctx context.Context, token string, t Transport) (*Conn, error) {
	u, err := h.Authenticate(ctx, token)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return h.Attach(u, t), nil
}

// Attach registers an already authenticated transport.
func (h *Hub) Attach(u *domain.User, t Transport) *Conn {
	c := newConn(u, t)

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.join(c, u.ID)
	h.mu.Unlock()
	h.metrics.ConnOpened()

	c.mu.Lock()
	first, added := false, false
	if !c.gone {
		first = h.presence.Add(u.ID, c.ID)
		c.online = true
		added = true
	}
	c.mu.Unlock()
	// Only a transition is broadcast; a further device still needs the list.
	if added && !first {
		_ = h.Send(c, EventOnlineUsers, h.presence.Snapshot())
	}

	h.log.Info("connected", "conn_id", c.ID, "user_id", u.ID)
	return c
}

// Disconnect tears c down. It is safe to call more than once.
func (h *Hub) Disconnect(c *Conn) {
	c.closeOnce.Do(func() {
		h.mu.Lock()
		c.closed = true
		for room := range c.rooms {
			h.leave(c, room)
		}
		delete(h.conns, c)
		h.mu.Unlock()

		c.mu.Lock()
		c.gone = true
		if c.online {
			h.presence.Remove(c.UserID, c.ID)
			c.online = false
		}
		c.mu.Unlock()

		_ = c.transport.Close()
		h.metrics.ConnClosed()
		h.log.Info("disconnected", "conn_id", c.ID, "user_id", c.UserID)
	})
}

// Close disconnects every live connection. Hijacked sockets are not closed by
// http.Server.Shutdown, so the server calls this on the way out.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.Disconnect(c)
	}
}

// JoinRoom is idempotent and a no-op on a closed connection.
func (h *Hub) JoinRoom(c *Conn, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.join(c, room)
}

func (h *Hub) LeaveRoom(c *Conn, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(c, room)
}

// Reauthenticate re-joins the personal room of c. userID must match the
// identity c was authenticated with.
func (h *Hub) Reauthenticate(c *Conn, userID string) error {
	if userID == "" {
		return domain.Invalid("userId is required")
	}
	if userID != c.UserID {
		return fmt.Errorf("%w: reauthenticate as %s", domain.ErrForbidden, userID)
	}
	h.JoinRoom(c, c.UserID)
	return nil
}

func (h *Hub) InRoom(c *Conn, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Connections is the number of live authenticated connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Online returns the ids of users with a live connection.
func (h *Hub) Online() []string {
	return h.presence.Snapshot()
}

// EmitToRoom sends one event to every connection in room and returns how many
// connections accepted it.
func (h *Hub) EmitToRoom(room, event string, data any) int {
	return h.emit(h.members(room, nil), event, data)
}

// EmitToRoomExcept skips except, used to relay an event back to a room
// without echoing it to its origin.
func (h *Hub) EmitToRoomExcept(room string, except *Conn, event string, data any) int {
	return h.emit(h.members(room, except), event, data)
}

func (h *Hub) EmitToUser(userID, event string, data any) int {
	return h.EmitToRoom(userID, event, data)
}

func (h *Hub) EmitAll(event string, data any) int {
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	return h.emit(targets, event, data)
}

// Send pushes one event to a single connection.
func (h *Hub) Send(c *Conn, event string, data any) error {
	frame, err := Encode(event, data)
	if err != nil {
		return err
	}
	if !h.deliver(c, frame) {
		return ErrClosed
	}
	return nil
}

func (h *Hub) SendError(c *Conn, event, msg string) {
	_ = h.Send(c, event, ErrorPayload{Error: msg})
}

func (h *Hub) members(room string, except *Conn) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.rooms[room]
	res := make([]*Conn, 0, len(set))
	for c := range set {
		if c != except {
			res = append(res, c)
		}
	}
	return res
}

func (h *Hub) emit(targets []*Conn, event string, data any) int {
	if len(targets) == 0 {
		return 0
	}
	frame, err := Encode(event, data)
	if err != nil {
		h.log.Error("encode event", "event", event, "err", err)
		return 0
	}
	n := 0
	for _, c := range targets {
		if h.deliver(c, frame) {
			n++
		}
	}
	return n
}

// deliver drops connections that cannot keep up. Disconnect runs on its own
// goroutine because callers may hold the presence lock.
func (h *Hub) deliver(c *Conn, frame []byte) bool {
	if err := c.transport.Send(frame); err != nil {
		if !errors.Is(err, ErrClosed) {
			h.log.Warn("dropping connection", "conn_id", c.ID, "user_id", c.UserID, "err", err)
		}
		go h.Disconnect(c)
		return false
	}
	return true
}

// join must be called with mu held.
func (h *Hub) join(c *Conn, room string) {
	if c.closed {
		return
	}
	set, ok := h.rooms[room]
	if !ok {
		set = make(map[*Conn]struct{})
		h.rooms[room] = set
	}
	set[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// leave must be called with mu held.
func (h *Hub) leave(c *Conn, room string) {
	if set, ok := h.rooms[room]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

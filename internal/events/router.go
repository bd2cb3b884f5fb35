// Package events maps inbound client events onto the chat store and the
// notification ledger, and pushes the results back through the gateway.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/go-playground/validator/v10"

	"socialhub/internal/domain"
	"socialhub/internal/metrics"
	"socialhub/internal/service"
	"socialhub/internal/ws"
)

// PendingPageSize is how many notifications a fresh connection receives.
const PendingPageSize = 10

// Limiter decides whether a user may send another event.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Publisher forwards persisted events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, key, event string, data any) error
}

type handlerFunc func(ctx context.Context, c *ws.Conn, data json.RawMessage) error

type Router struct {
	hub           *ws.Hub
	chats         *service.ChatService
	notifications *service.NotificationService
	stories       *service.StoryService

	validate  *validator.Validate
	chatLocks *keyedMutex
	handlers  map[string]handlerFunc

	limiter   Limiter
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
}

var _ ws.Dispatcher = (*Router)(nil)

type Option func(*Router)

func WithLimiter(l Limiter) Option {
	return func(r *Router) { r.limiter = l }
}

func WithPublisher(p Publisher) Option {
	return func(r *Router) { r.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

func NewRouter(
	hub *ws.Hub,
	chats *service.ChatService,
	notifications *service.NotificationService,
	stories *service.StoryService,
	log *slog.Logger,
	opts ...Option,
) *Router {
	r := &Router{
		hub:           hub,
		chats:         chats,
		notifications: notifications,
		stories:       stories,
		validate:      validator.New(),
		chatLocks:     newKeyedMutex(),
		log:           log.With("component", "router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[string]handlerFunc{
		ws.EventReauthenticate:     r.onReauthenticate,
		EventJoinChat:              r.onJoinChat,
		EventLeaveChat:             r.onLeaveChat,
		EventTyping:                r.onTyping(EventTyping),
		EventStopTyping:            r.onTyping(EventStopTyping),
		EventSendMessage:           r.onSendMessage,
		EventPostLiked:             r.onPostLiked,
		EventNewComment:            r.onNewComment,
		EventNewFollower:           r.onNewFollower,
		EventNewStory:              r.onNewStory,
		EventViewStory:             r.onViewStory,
		EventLikeStory:             r.onLikeStory,
		EventMarkNotificationsRead: r.onMarkNotificationsRead,
	}
	return r
}

// Welcome pushes the first page of the user's notifications to a new connection.
func (r *Router) Welcome(ctx context.Context, c *ws.Conn) {
	page, err := r.notifications.List(ctx, c.UserID, 1, PendingPageSize)
	if err != nil {
		r.log.Error("load pending notifications", "conn_id", c.ID, "user_id", c.UserID, "err", err)
		return
	}
	if len(page.Notifications) > 0 {
		_ = r.hub.Send(c, EventPendingNotifications, page.Notifications)
	}
	_ = r.hub.Send(c, EventUnreadCountUpdated, UnreadCountPayload{UnreadCount: page.UnreadCount})
}

// Dispatch runs the handler for env. A failing or panicking handler is logged
// and never affects the connection.
func (r *Router) Dispatch(ctx context.Context, c *ws.Conn, env ws.Envelope) {
	h, ok := r.handlers[env.Event]
	if !ok {
		r.log.Debug("unknown event", "event", env.Event, "conn_id", c.ID)
		r.metrics.Event("unknown", "dropped")
		return
	}

	if r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, c.UserID)
		if err != nil {
			r.log.Warn("rate limiter unavailable", "err", err)
		} else if !allowed {
			r.metrics.Event(env.Event, "limited")
			r.hub.SendError(c, ws.EventError, "rate limit exceeded")
			return
		}
	}

	err := r.call(ctx, h, c, env)
	r.metrics.Event(env.Event, outcome(err))
	if err == nil {
		return
	}
	attrs := []any{"event", env.Event, "conn_id", c.ID, "user_id", c.UserID, "err", err}
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		r.log.Debug("event dropped", attrs...)
	default:
		r.log.Error("event failed", attrs...)
	}
}

func (r *Router) call(ctx context.Context, h handlerFunc, c *ws.Conn, env ws.Envelope) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("handler panic", "event", env.Event, "conn_id", c.ID, "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: panic in %s: %v", domain.ErrInternal, env.Event, p)
		}
	}()
	return h(ctx, c, env.Data)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

// decode unmarshals data into v and validates it.
func (r *Router) decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return domain.Invalid("missing payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return domain.Invalid(err.Error())
	}
	if err := r.validate.Struct(v); err != nil {
		return domain.Invalid(err.Error())
	}
	return nil
}

// publicError is the text sent to clients; internal details stay in the logs.
func publicError(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
	case errors.Is(err, domain.ErrNotFound):
		return "not found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "internal error"
	}
}

func (r *Router) publish(ctx context.Context, key, event string, data any) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, key, event, data); err != nil {
		r.log.Warn("publish failed", "event", event, "err", err)
	}
}

// deliver pushes a ledger change to its recipient together with the fresh
// unread count. Suppressed and skipped outcomes push nothing.
func (r *Router) deliver(ctx context.Context, typ domain.NotificationType, n *domain.Notification, o service.Outcome) {
	r.metrics.Notification(string(typ), o.String())
	if n == nil || !o.Pushable() {
		return
	}
	r.hub.EmitToUser(n.Recipient, EventNewNotification, n)
	if _, err := r.PushUnreadCount(ctx, n.Recipient); err != nil {
		r.log.Error("unread count", "user_id", n.Recipient, "err", err)
	}
	r.publish(ctx, n.Recipient, EventNewNotification, n)
}

// PushUnreadCount sends userID's authoritative unread count to all of their
// connections.
func (r *Router) PushUnreadCount(ctx context.Context, userID string) (int, error) {
	unread, err := r.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	r.hub.EmitToUser(userID, EventUnreadCountUpdated, UnreadCountPayload{UnreadCount: unread})
	return unread, nil
}

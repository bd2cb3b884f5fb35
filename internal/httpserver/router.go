package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "socialhub/docs"
	"socialhub/internal/domain"
	"socialhub/internal/events"
	"socialhub/internal/service"
	"socialhub/internal/ws"
)

// Deps is everything the HTTP surface routes to.
type Deps struct {
	AllowedOrigins []string

	Tokens        ws.IdentityVerifier
	Users         domain.UserRepository
	Notifications *service.NotificationService
	Chats         *service.ChatService
	Events        *events.Router
	Hub           *ws.Hub

	// Socket serves /ws. Metrics serves /metrics when set.
	Socket  http.Handler
	Metrics http.Handler

	Log *slog.Logger
}

// NewRouter constructs the main HTTP router and wires routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "healthy",
			"connections": d.Hub.Connections(),
			"online":      len(d.Hub.Online()),
		})
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// The socket is long lived and must not sit behind the request timeout.
	if d.Socket != nil {
		r.Method(http.MethodGet, "/ws", d.Socket)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(AuthMiddleware(d.Tokens, d.Users, d.Log))

		r.Get("/presence", handleListOnlineUsers(d.Hub))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", handleListNotifications(d.Notifications))
			r.Get("/unread-count", handleUnreadCount(d.Notifications))
			r.Patch("/read", handleMarkRead(d.Notifications, d.Events))
			r.Patch("/read-all", handleMarkAllRead(d.Notifications, d.Events))
			r.Delete("/{notificationID}", handleDeleteNotification(d.Notifications, d.Events))
		})

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", handleListChats(d.Chats))
			r.Post("/", handleCreateChat(d.Chats))
			r.Get("/{chatID}", handleGetChat(d.Chats))
			r.Get("/{chatID}/messages", handleListMessages(d.Chats))
			r.Post("/{chatID}/messages", handleCreateMessage(d.Events))
		})
	})

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses. Unclassified errors are
// reported as 500 without their text.
func writeError(w http.ResponseWriter, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Invalid("invalid JSON body")
	}
	return nil
}

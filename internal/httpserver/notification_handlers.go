package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"socialhub/internal/events"
	"socialhub/internal/service"
)

type markReadRequest struct {
	NotificationIDs []string `json:"notificationIds"`
}

type readResponse struct {
	Success     bool  `json:"success"`
	Updated     int64 `json:"updated,omitempty"`
	UnreadCount int   `json:"unreadCount"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

// handleListNotifications
// @Summary      List notifications
// @Description  One page of the current user's notifications, newest first
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        page  query int false "1-based page (default 1)"
// @Param        limit query int false "Page size (default 20, max 50)"
// @Success      200  {object}  domain.NotificationPage
// @Failure      401  {object}  errorResponse
// @Router       /notifications [get]
func handleListNotifications(notifications *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		res, err := notifications.List(r.Context(), CurrentUser(r).ID, page, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// handleUnreadCount
// @Summary      Unread count
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  events.UnreadCountPayload
// @Router       /notifications/unread-count [get]
func handleUnreadCount(notifications *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := notifications.UnreadCount(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events.UnreadCountPayload{UnreadCount: n})
	}
}

// handleMarkRead marks the listed notifications read and pushes the new
// unread count to every socket of the user.
// @Summary      Mark notifications read
// @Tags         notifications
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body markReadRequest true "Notification ids"
// @Success      200  {object}  readResponse
// @Failure      400  {object}  errorResponse
// @Router       /notifications/read [patch]
func handleMarkRead(notifications *service.NotificationService, router *events.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markReadRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		userID := CurrentUser(r).ID
		if _, err := notifications.MarkAsRead(r.Context(), userID, req.NotificationIDs); err != nil {
			writeError(w, err)
			return
		}
		unread, err := router.PushUnreadCount(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, readResponse{Success: true, UnreadCount: unread})
	}
}

// handleMarkAllRead
// @Summary      Mark all notifications read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  readResponse
// @Router       /notifications/read-all [patch]
func handleMarkAllRead(notifications *service.NotificationService, router *events.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := CurrentUser(r).ID
		updated, err := notifications.MarkAllAsRead(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		unread, err := router.PushUnreadCount(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, readResponse{Success: true, Updated: updated, UnreadCount: unread})
	}
}

// handleDeleteNotification
// @Summary      Delete notification
// @Description  Deletes one of the current user's notifications; success is false when nothing matched
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        notificationID path string true "Notification id"
// @Success      200  {object}  deleteResponse
// @Router       /notifications/{notificationID} [delete]
func handleDeleteNotification(notifications *service.NotificationService, router *events.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := CurrentUser(r).ID
		ok, err := notifications.Delete(r.Context(), userID, chi.URLParam(r, "notificationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if ok {
			if _, err := router.PushUnreadCount(r.Context(), userID); err != nil {
				writeError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, deleteResponse{Success: ok})
	}
}

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"socialhub/internal/events"
	"socialhub/internal/service"
)

type chatCreateRequest struct {
	ParticipantID string `json:"participantId"`
}

type messageCreateRequest struct {
	Content string `json:"content"`
}

// handleCreateChat
// @Summary      Open a chat
// @Description  Returns the chat with participantId, creating it on first use
// @Tags         chats
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        input body chatCreateRequest true "Other participant"
// @Success      200  {object}  domain.Chat
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /chats [post]
func handleCreateChat(chats *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatCreateRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		chat, err := chats.FindOrCreate(r.Context(), CurrentUser(r).ID, req.ParticipantID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	}
}

// handleListChats
// @Summary      List chats
// @Description  Chats of the current user, most recent activity first
// @Tags         chats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   domain.Chat
// @Router       /chats [get]
func handleListChats(chats *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := chats.ListChats(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// handleGetChat
// @Summary      Get chat
// @Tags         chats
// @Security     BearerAuth
// @Produce      json
// @Param        chatID path string true "Chat id"
// @Success      200  {object}  domain.Chat
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /chats/{chatID} [get]
func handleGetChat(chats *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chat, err := chats.Get(r.Context(), chi.URLParam(r, "chatID"), CurrentUser(r).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	}
}

// handleListMessages
// @Summary      List messages
// @Description  Latest messages of a chat in sequence order
// @Tags         chats
// @Security     BearerAuth
// @Produce      json
// @Param        chatID path string true "Chat id"
// @Param        limit query int false "Max messages (default 50, max 200)"
// @Success      200  {array}   domain.Message
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /chats/{chatID}/messages [get]
func handleListMessages(chats *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		msgs, err := chats.ListMessages(r.Context(), chi.URLParam(r, "chatID"), CurrentUser(r).ID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

// handleCreateMessage sends through the event router, so socket members of
// the chat receive newMessage exactly as for a socket send.
// @Summary      Send message
// @Tags         chats
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        chatID path string true "Chat id"
// @Param        input body messageCreateRequest true "Message"
// @Success      201  {object}  events.NewMessagePayload
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /chats/{chatID}/messages [post]
func handleCreateMessage(router *events.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageCreateRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		out, err := router.SendMessage(r.Context(), CurrentUser(r).ID, chi.URLParam(r, "chatID"), req.Content, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

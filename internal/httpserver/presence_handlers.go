package httpserver

import (
	"net/http"

	"socialhub/internal/ws"
)

type presenceResponse struct {
	Online []string `json:"online"`
	Count  int      `json:"count"`
}

// handleListOnlineUsers
// @Summary      Online users
// @Description  Ids of users with at least one live socket, sorted
// @Tags         presence
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  presenceResponse
// @Failure      401  {object}  errorResponse
// @Router       /presence [get]
func handleListOnlineUsers(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		online := hub.Online()
		writeJSON(w, http.StatusOK, presenceResponse{Online: online, Count: len(online)})
	}
}

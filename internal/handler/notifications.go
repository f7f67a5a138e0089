package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/washline/api/internal/database"
	"github.com/washline/api/internal/middleware"
	"github.com/washline/api/internal/ws"
)

// NotificationStore defines the database methods needed by the notification feed.
// Satisfied by *database.Queries.
type NotificationStore interface {
	ListNotificationsByRooms(ctx context.Context, arg database.ListNotificationsByRoomsParams) ([]database.Notification, error)
}

type notificationResponse struct {
	ID          uuid.UUID `json:"id"`
	Room        string    `json:"room"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListNotifications returns the newest notifications of the caller's room,
// the same room its websocket subscribes to. Super admins have no room.
func ListNotifications(store NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		resp := []notificationResponse{}
		room, err := ws.RoomFor(claims)
		if err != nil {
			writeJSON(w, http.StatusOK, resp)
			return
		}

		limit, _ := pagination(r)
		rows, err := store.ListNotificationsByRooms(r.Context(), database.ListNotificationsByRoomsParams{
			Rooms: []string{room},
			Limit: limit,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		for _, n := range rows {
			resp = append(resp, notificationResponse{
				ID:          n.ID,
				Room:        n.Room,
				Title:       n.Title,
				Description: n.Description,
				CreatedAt:   n.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

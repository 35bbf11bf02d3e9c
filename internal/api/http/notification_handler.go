package http

import (
	"net/http"

	"iznajmi-backend/internal/domain"
)

type notificationListResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Total         int32                 `json:"total"`
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	page, pageSize, err := pageArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	notes, total, err := s.notifications.GetNotifications(r.Context(), userID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, notificationListResponse{Notifications: notes, Total: total})
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	noteID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.notifications.MarkAsRead(r.Context(), userID, noteID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

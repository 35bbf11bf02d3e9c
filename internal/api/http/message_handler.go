package http

import (
	"net/http"

	"iznajmi-backend/internal/domain"
)

type postMessageRequest struct {
	Body string `json:"body"`
}

type messageListResponse struct {
	Messages []domain.Message `json:"messages"`
	Total    int32            `json:"total"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	bookingID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req postMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	m, err := s.messages.PostMessage(r.Context(), userID, bookingID, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	bookingID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, pageSize, err := pageArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	msgs, total, err := s.messages.ListMessages(r.Context(), userID, bookingID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, messageListResponse{Messages: msgs, Total: total})
}

func (s *Server) messagingAllowed(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	bookingID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	allowed, err := s.messages.CanMessage(r.Context(), userID, bookingID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

package http

import (
	"net/http"

	"iznajmi-backend/internal/security"
	"iznajmi-backend/internal/service"

	"github.com/gorilla/mux"
)

// Server exposes the booking engine as JSON over HTTP.
type Server struct {
	bookings      service.BookingService
	messages      service.MessageService
	notifications service.NotificationService
	tokens        security.TokenManager
	limiter       *rateLimiter
}

func NewServer(
	bookings service.BookingService,
	messages service.MessageService,
	notifications service.NotificationService,
	tokens security.TokenManager,
	requestsPerSecond float64,
	burst int,
) *Server {
	return &Server{
		bookings:      bookings,
		messages:      messages,
		notifications: notifications,
		tokens:        tokens,
		limiter:       newRateLimiter(requestsPerSecond, burst),
	}
}

// Router builds the route table. Route names are the keys of config.EndpointSecurityConfig.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, recoverMiddleware, s.authMiddleware, s.rateLimitMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorBody(w, http.StatusNotFound, "not_found", "route not found")
	})

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet).Name("health")

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/bookings", s.createBooking).Methods(http.MethodPost).Name("booking.create")
	api.HandleFunc("/bookings", s.listBookings).Methods(http.MethodGet).Name("booking.list")
	api.HandleFunc("/bookings/{id:[0-9]+}", s.getBooking).Methods(http.MethodGet).Name("booking.get")
	api.HandleFunc("/bookings/{id:[0-9]+}/approve", s.transition(s.bookings.ApproveBooking)).Methods(http.MethodPost).Name("booking.approve")
	api.HandleFunc("/bookings/{id:[0-9]+}/reject", s.transition(s.bookings.RejectBooking)).Methods(http.MethodPost).Name("booking.reject")
	api.HandleFunc("/bookings/{id:[0-9]+}/cancel", s.transition(s.bookings.CancelBooking)).Methods(http.MethodPost).Name("booking.cancel")
	api.HandleFunc("/bookings/{id:[0-9]+}/agree", s.transition(s.bookings.AgreeToBooking)).Methods(http.MethodPost).Name("booking.agree")
	api.HandleFunc("/bookings/{id:[0-9]+}/ready", s.transition(s.bookings.MarkAsReady)).Methods(http.MethodPost).Name("booking.ready")
	api.HandleFunc("/bookings/{id:[0-9]+}/delivered", s.transition(s.bookings.MarkAsDelivered)).Methods(http.MethodPost).Name("booking.delivered")
	api.HandleFunc("/bookings/{id:[0-9]+}/returned", s.transition(s.bookings.MarkAsReturned)).Methods(http.MethodPost).Name("booking.returned")

	api.HandleFunc("/bookings/{id:[0-9]+}/messages", s.listMessages).Methods(http.MethodGet).Name("message.list")
	api.HandleFunc("/bookings/{id:[0-9]+}/messages", s.postMessage).Methods(http.MethodPost).Name("message.post")
	api.HandleFunc("/bookings/{id:[0-9]+}/messaging", s.messagingAllowed).Methods(http.MethodGet).Name("message.allowed")

	api.HandleFunc("/items/{id:[0-9]+}/booked-dates", s.bookedDates).Methods(http.MethodGet).Name("item.booked-dates")

	api.HandleFunc("/notifications", s.listNotifications).Methods(http.MethodGet).Name("notification.list")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", s.markNotificationRead).Methods(http.MethodPost).Name("notification.read")

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

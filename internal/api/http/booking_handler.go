package http

import (
	"context"
	"net/http"

	"iznajmi-backend/internal/domain"
)

type createBookingRequest struct {
	ItemID         int32                 `json:"item_id"`
	StartDate      string                `json:"start_date"`
	EndDate        string                `json:"end_date"`
	DeliveryMethod domain.DeliveryMethod `json:"delivery_method"`
}

type bookingListResponse struct {
	Bookings []domain.Booking `json:"bookings"`
	Total    int32            `json:"total"`
}

type bookedDatesResponse struct {
	ItemID      int32              `json:"item_id"`
	BookedDates []domain.DateRange `json:"booked_dates"`
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req createBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := s.bookings.CreateBooking(r.Context(), userID, req.ItemID, req.StartDate, req.EndDate, req.DeliveryMethod)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// listBookings serves both sides of the marketplace: role=renter (default) lists the caller's
// rentals, role=owner the bookings made on the caller's items.
func (s *Server) listBookings(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	page, pageSize, err := pageArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := r.URL.Query().Get("status")

	var (
		bookings []domain.Booking
		total    int32
	)
	switch role := r.URL.Query().Get("role"); role {
	case "", "renter":
		bookings, total, err = s.bookings.ListRentals(r.Context(), userID, status, page, pageSize)
	case "owner":
		bookings, total, err = s.bookings.ListLendings(r.Context(), userID, status, page, pageSize)
	default:
		err = domain.Validationf("invalid role %q, expected renter or owner", role)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, bookingListResponse{Bookings: bookings, Total: total})
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	bookingID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := s.bookings.GetBooking(r.Context(), userID, bookingID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type transitionFunc func(ctx context.Context, actorID, bookingID int32) (*domain.Booking, error)

// transition adapts every single-booking state change to one handler shape.
func (s *Server) transition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		bookingID, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		b, err := fn(r.Context(), userID, bookingID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func (s *Server) bookedDates(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ranges, err := s.bookings.GetItemBookedDates(r.Context(), itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ranges == nil {
		ranges = []domain.DateRange{}
	}
	writeJSON(w, http.StatusOK, bookedDatesResponse{ItemID: itemID, BookedDates: ranges})
}

package domain

import "time"

type BookingStatus string

// Persisted values are a wire contract with existing clients and must not change.
const (
	BookingStatusPending      BookingStatus = "pending"
	BookingStatusConfirmed    BookingStatus = "confirmed"
	BookingStatusAgreed       BookingStatus = "agreed"
	BookingStatusNotDelivered BookingStatus = "nije_isporucen"
	BookingStatusDelivered    BookingStatus = "isporucen"
	BookingStatusReturned     BookingStatus = "vracen"
	BookingStatusCancelled    BookingStatus = "cancelled"
)

// ActiveStatuses occupy their date range on the item and take part in conflict checks.
var ActiveStatuses = []BookingStatus{
	BookingStatusConfirmed,
	BookingStatusAgreed,
	BookingStatusNotDelivered,
	BookingStatusDelivered,
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:      {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:    {BookingStatusAgreed, BookingStatusCancelled},
	BookingStatusAgreed:       {BookingStatusNotDelivered},
	BookingStatusNotDelivered: {BookingStatusDelivered},
	BookingStatusDelivered:    {BookingStatusReturned},
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(s)
	if !st.Valid() {
		return "", Validationf("unknown booking status %q", s)
	}
	return st, nil
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusAgreed, BookingStatusNotDelivered,
		BookingStatusDelivered, BookingStatusReturned, BookingStatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusReturned || s == BookingStatusCancelled
}

func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// MessagingAllowed is the gate the chat subsystem consults: chat is open exactly while the
// booking occupies its dates.
func MessagingAllowed(s BookingStatus) bool {
	return s.IsActive()
}

type Party string

const (
	PartyNone   Party = ""
	PartyRenter Party = "renter"
	PartyOwner  Party = "owner"
)

type Booking struct {
	ID               int32          `json:"id"`
	ItemID           int32          `json:"item_id"`
	RenterID         int32          `json:"renter_id"`
	OwnerID          int32          `json:"owner_id"`
	StartDate        string         `json:"start_date"`
	EndDate          string         `json:"end_date"`
	TotalDays        int32          `json:"total_days"`
	PricePerDayCents int32          `json:"price_per_day_cents"`
	TotalPriceCents  int32          `json:"total_price_cents"`
	DeliveryMethod   DeliveryMethod `json:"delivery_method"`
	Status           BookingStatus  `json:"status"`
	// Meaningful while confirmed; frozen afterwards as an audit trail.
	RenterAgreed bool       `json:"renter_agreed"`
	OwnerAgreed  bool       `json:"owner_agreed"`
	Version      int32      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AgreedAt     *time.Time `json:"agreed_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
}

func (b *Booking) PartyOf(userID int32) Party {
	switch userID {
	case b.RenterID:
		return PartyRenter
	case b.OwnerID:
		return PartyOwner
	}
	return PartyNone
}

// Counterparty returns the other participant's id, or 0 for outsiders.
func (b *Booking) Counterparty(userID int32) int32 {
	switch b.PartyOf(userID) {
	case PartyRenter:
		return b.OwnerID
	case PartyOwner:
		return b.RenterID
	}
	return 0
}

func (b *Booking) Range() (DateRange, error) {
	return ParseDateRange(b.StartDate, b.EndDate)
}

// Transition moves the booking along one edge of the lifecycle graph and stamps the
// once-only timestamp that belongs to the target state.
func (b *Booking) Transition(to BookingStatus, at time.Time) error {
	if !b.Status.CanTransitionTo(to) {
		return InvalidTransitionf("booking %d cannot move from %s to %s", b.ID, b.Status, to)
	}
	b.Status = to
	b.UpdatedAt = at
	switch to {
	case BookingStatusAgreed:
		b.AgreedAt = stamp(b.AgreedAt, at)
	case BookingStatusDelivered:
		b.DeliveredAt = stamp(b.DeliveredAt, at)
	case BookingStatusReturned:
		b.ReturnedAt = stamp(b.ReturnedAt, at)
	}
	return nil
}

// MarkAgreed records one party's agreement. It reports false when that party had already agreed.
func (b *Booking) MarkAgreed(party Party, at time.Time) (bool, error) {
	if b.Status != BookingStatusConfirmed {
		return false, InvalidTransitionf("booking %d is %s, agreement is only possible while confirmed", b.ID, b.Status)
	}
	var flag *bool
	switch party {
	case PartyRenter:
		flag = &b.RenterAgreed
	case PartyOwner:
		flag = &b.OwnerAgreed
	default:
		return false, Unauthorizedf("only the renter or the owner can agree to booking %d", b.ID)
	}
	if *flag {
		return false, nil
	}
	*flag = true
	b.UpdatedAt = at
	return true, nil
}

func (b *Booking) BothAgreed() bool {
	return b.RenterAgreed && b.OwnerAgreed
}

func stamp(existing *time.Time, at time.Time) *time.Time {
	if existing != nil {
		return existing
	}
	t := at
	return &t
}

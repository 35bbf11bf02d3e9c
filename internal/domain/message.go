package domain

import "time"

const MaxMessageLength = 4000

// Message is one chat line on a booking thread. Only its existence matters to the engine.
type Message struct {
	ID        int32     `json:"id"`
	BookingID int32     `json:"booking_id"`
	SenderID  int32     `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

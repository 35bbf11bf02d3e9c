package domain

import "time"

type NotificationType string

const (
	NotificationBookingPending     NotificationType = "booking_pending"
	NotificationBookingApproved    NotificationType = "booking_approved"
	NotificationBookingRejected    NotificationType = "booking_rejected"
	NotificationBookingCancelled   NotificationType = "booking_cancelled"
	NotificationAgreementRequested NotificationType = "agreement_requested"
	NotificationBookingAgreed      NotificationType = "booking_agreed"
	NotificationItemReady          NotificationType = "item_ready"
	NotificationItemDelivered      NotificationType = "item_delivered"
	NotificationItemReturned       NotificationType = "item_returned"
)

// DeliveryStatus tracks the outbox side of a notification: the row is the in-app record and
// the queue entry for email/push fan-out at the same time.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliveryProcessing DeliveryStatus = "processing"
	DeliveryDelivered  DeliveryStatus = "delivered"
	DeliveryFailed     DeliveryStatus = "failed"
	DeliveryDead       DeliveryStatus = "dead"
)

type Notification struct {
	ID               int32             `json:"id"`
	UserID           int32             `json:"user_id"`
	Type             NotificationType  `json:"type"`
	Title            string            `json:"title"`
	Message          string            `json:"message"`
	Link             string            `json:"link"`
	IsRead           bool              `json:"is_read"`
	Attributes       map[string]string `json:"attributes"`
	CreatedOn        time.Time         `json:"created_on"`
	UpdatedOn        time.Time         `json:"updated_on"`
	DeliveryStatus   DeliveryStatus    `json:"-"`
	DeliveryAttempts int32             `json:"-"`
	NextAttemptAt    time.Time         `json:"-"`
	LastError        string            `json:"-"`
	DeliveredAt      *time.Time        `json:"-"`
}

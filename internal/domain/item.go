package domain

import "time"

type DeliveryMethod string

const (
	DeliveryMethodPickup   DeliveryMethod = "pickup"
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodShipping DeliveryMethod = "shipping"
)

// Item is owned and edited outside the booking engine; bookings only read it.
type Item struct {
	ID               int32            `json:"id"`
	OwnerID          int32            `json:"owner_id"`
	Title            string           `json:"title"`
	PricePerDayCents int32            `json:"price_per_day_cents"`
	DeliveryMethods  []DeliveryMethod `json:"delivery_methods"`
	CreatedOn        time.Time        `json:"created_on"`
	DeletedOn        *time.Time       `json:"deleted_on,omitempty"`
}

func (i *Item) AllowsDelivery(method DeliveryMethod) bool {
	for _, m := range i.DeliveryMethods {
		if m == method {
			return true
		}
	}
	return false
}

func (i *Item) IsDeleted() bool {
	return i.DeletedOn != nil
}

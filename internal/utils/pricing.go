package utils

import (
	"fmt"
	"math"

	"iznajmi-backend/internal/domain"
)

// RentalQuote is the price snapshot taken when a booking is created.
type RentalQuote struct {
	TotalDays        int32
	PricePerDayCents int32
	TotalPriceCents  int32
}

// QuoteRental prices a range linearly: inclusive day count times the item's daily price.
// Both ends are included, so 2024-01-01..2024-01-05 at 500/day is 5 days and 2500.
func QuoteRental(dates domain.DateRange, pricePerDayCents int32) (RentalQuote, error) {
	if pricePerDayCents < 0 {
		return RentalQuote{}, fmt.Errorf("price per day must not be negative")
	}
	days := dates.Days()
	if days <= 0 {
		return RentalQuote{}, fmt.Errorf("end date must be >= start date")
	}

	total := int64(days) * int64(pricePerDayCents)
	if total > math.MaxInt32 {
		return RentalQuote{}, fmt.Errorf("total price overflows: %d days at %d", days, pricePerDayCents)
	}

	return RentalQuote{
		TotalDays:        days,
		PricePerDayCents: pricePerDayCents,
		TotalPriceCents:  int32(total),
	}, nil
}

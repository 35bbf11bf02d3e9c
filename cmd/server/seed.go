package main

import (
	"context"

	"iznajmi-backend/internal/domain"
	"iznajmi-backend/internal/logger"
	"iznajmi-backend/internal/repository/memory"
	"iznajmi-backend/internal/security"
	"iznajmi-backend/internal/utils"
)

// seedDevData fills an empty in-memory store with an owner, a renter and one item, and logs an
// access token for each user so the API can be exercised with curl.
func seedDevData(ctx context.Context, store *memory.Store, tokens security.TokenManager, clock utils.Clock) error {
	owner := &domain.User{Name: "Marko", Email: "marko@example.com"}
	renter := &domain.User{Name: "Ana", Email: "ana@example.com"}
	for _, u := range []*domain.User{owner, renter} {
		if err := store.Users().Create(ctx, u); err != nil {
			return err
		}
	}

	item := &domain.Item{
		OwnerID:          owner.ID,
		Title:            "Bušilica Bosch",
		PricePerDayCents: 500,
		DeliveryMethods:  []domain.DeliveryMethod{domain.DeliveryMethodPickup, domain.DeliveryMethodDelivery},
		CreatedOn:        clock.Now(),
	}
	if err := store.Items().Create(ctx, item); err != nil {
		return err
	}

	for _, u := range []*domain.User{owner, renter} {
		token, err := tokens.GenerateAccessToken(u.ID, u.Email)
		if err != nil {
			return err
		}
		logger.Info("Seeded development user", "user_id", u.ID, "name", u.Name, "token", token)
	}
	logger.Info("Seeded development item", "item_id", item.ID, "owner_id", owner.ID)
	return nil
}

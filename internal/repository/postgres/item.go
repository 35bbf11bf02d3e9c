package postgres

import (
	"context"
	"database/sql"

	"iznajmi-backend/internal/domain"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

type itemRepository struct {
	db querier
}

const itemColumns = `id, owner_id, title, price_per_day_cents, delivery_methods, created_on, deleted_on`

func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	query := `INSERT INTO items (owner_id, title, price_per_day_cents, delivery_methods, created_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	methods := make([]string, len(it.DeliveryMethods))
	for i, m := range it.DeliveryMethods {
		methods[i] = string(m)
	}
	return r.db.QueryRowContext(ctx, query, it.OwnerID, it.Title, it.PricePerDayCents, pq.Array(methods), it.CreatedOn).Scan(&it.ID)
}

func (r *itemRepository) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	return r.get(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

func (r *itemRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Item, error) {
	return r.get(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
}

func (r *itemRepository) get(ctx context.Context, query string, id int32) (*domain.Item, error) {
	it := &domain.Item{}
	var methods []string
	var deletedOn sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(&it.ID, &it.OwnerID, &it.Title, &it.PricePerDayCents, pq.Array(&methods), &it.CreatedOn, &deletedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("item %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		it.DeliveryMethods = append(it.DeliveryMethods, domain.DeliveryMethod(m))
	}
	it.DeletedOn = nullTime(deletedOn)
	return it, nil
}

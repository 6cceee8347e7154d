package repository

import (
	"context"
	"fmt"

	"github.com/agri4/agri-server/internal/db/models"

	"github.com/uptrace/bun"
)

// AllCategories disables the category filter of market listings.
const AllCategories = "All"

type MarketFilter struct {
	Category string
	Search   string
}

type IMarketRepository interface {
	Repository[models.MarketItem]
	List(ctx context.Context, filter MarketFilter) ([]models.MarketItem, error)
}

type MarketRepository struct {
	db bun.IDB
}

func NewMarketRepository(db bun.IDB) IMarketRepository {
	return &MarketRepository{db: db}
}

func (r *MarketRepository) Create(ctx context.Context, item *models.MarketItem) (*models.MarketItem, error) {
	if item == nil {
		return nil, fmt.Errorf("market item model is nil")
	}

	if _, err := r.db.NewInsert().Model(item).Exec(ctx); err != nil {
		return nil, err
	}

	return item, nil
}

func (r *MarketRepository) GetByID(ctx context.Context, id string) (*models.MarketItem, error) {
	var item models.MarketItem
	if err := r.db.NewSelect().Model(&item).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}

	return &item, nil
}


// DeleteByID returns ErrNotFound when nothing was deleted.
func (r *MarketRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model(&models.MarketItem{}).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *MarketRepository) List(ctx context.Context, filter MarketFilter) ([]models.MarketItem, error) {
	items := []models.MarketItem{}
	query := r.db.NewSelect().Model(&items)

	if filter.Category != "" && filter.Category != AllCategories {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(filter.Search))
	}

	if err := query.Order("created_at ASC").Scan(ctx); err != nil {
		return nil, err
	}

	return items, nil
}

package migrations

import (
	"context"

	"github.com/agri4/agri-server/internal/db/models"

	"github.com/uptrace/bun"
)

var agriTables = []interface{}{
	(*models.User)(nil),
	(*models.MarketItem)(nil),
	(*models.Post)(nil),
	(*models.PostLike)(nil),
	(*models.Comment)(nil),
	(*models.APIKey)(nil),
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, model := range agriTables {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		indexes := []struct {
			model  interface{}
			name   string
			column string
		}{
			{(*models.Post)(nil), "posts_category_created_at_idx", "category, created_at"},
			{(*models.Comment)(nil), "comments_post_id_idx", "post_id"},
			{(*models.MarketItem)(nil), "market_items_category_idx", "category"},
		}
		for _, idx := range indexes {
			if _, err := db.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				ColumnExpr(idx.column).
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for i := len(agriTables) - 1; i >= 0; i-- {
			if _, err := db.NewDropTable().Model(agriTables[i]).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}

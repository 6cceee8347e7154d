package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type MarketItem struct {
	bun.BaseModel `bun:"table:market_items"`

	ID          uuid.UUID `bun:",type:uuid,pk" json:"id"`
	Name        string    `bun:",notnull" json:"name"`
	Company     string    `bun:",notnull" json:"company"`
	Price       float64   `bun:",notnull" json:"price"`
	Category    string    `bun:",notnull" json:"category"`
	Image       string    `bun:",notnull" json:"image"`
	Description string    `bun:",notnull" json:"description"`
	CreatedAt   time.Time `bun:",nullzero,notnull" json:"created_at"`
}

func NewMarketItem(name, company string, price float64, category, image, description string) *MarketItem {
	if company == "" {
		company = "Unknown"
	}

	return &MarketItem{
		ID:          uuid.Must(uuid.NewRandom()),
		Name:        name,
		Company:     company,
		Price:       price,
		Category:    category,
		Image:       image,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type APIKey struct {
	bun.BaseModel `bun:"table:api_keys"`

	ID        uuid.UUID `bun:",type:uuid,pk" json:"id"`
	KeyHash   string    `bun:",notnull,unique" json:"-"`
	KeyMask   string    `bun:",notnull" json:"key_mask"`
	IsRevoked bool      `bun:",notnull,default:false" json:"is_revoked"`
	CreatedAt time.Time `bun:",nullzero,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull" json:"updated_at"`
}

func NewAPIKey(keyHash, keyMask string) *APIKey {
	now := time.Now().UTC()
	return &APIKey{
		ID:        uuid.Must(uuid.NewRandom()),
		KeyHash:   keyHash,
		KeyMask:   keyMask,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

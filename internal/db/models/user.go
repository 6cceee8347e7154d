package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	RoleFarmer = "farmer"
	RoleAdmin  = "admin"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           uuid.UUID `bun:",type:uuid,pk" json:"id"`
	Name         string    `bun:",notnull" json:"name"`
	Email        string    `bun:",notnull,unique" json:"email"`
	PasswordHash string    `bun:",notnull" json:"-"`
	Role         string    `bun:",notnull,default:'farmer'" json:"role"`
	CreatedAt    time.Time `bun:",nullzero,notnull" json:"created_at"`
}

func NewUser(name, email, passwordHash string) *User {
	if name == "" {
		name = "User"
	}

	return &User{
		ID:           uuid.Must(uuid.NewRandom()),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleFarmer,
		CreatedAt:    time.Now().UTC(),
	}
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/agri4/agri-server/internal/db/models"

	"github.com/uptrace/bun"
)

type IUserRepository interface {
	Repository[models.User]
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type UserRepository struct {
	db bun.IDB
}

func NewUserRepository(db bun.IDB) IUserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, fmt.Errorf("user model is nil")
	}

	user.Email = normalizeEmail(user.Email)
	if _, err := r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.NewSelect().Model(&user).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}

	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.NewSelect().Model(&user).Where("email = ?", normalizeEmail(email)).Scan(ctx); err != nil {
		return nil, notFound(err)
	}

	return &user, nil
}


func (r *UserRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model(&models.User{}).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

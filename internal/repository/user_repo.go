package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&userRecord{})
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) (string, error) {
	rec := &userRecord{
		ID:           newID(user.ID),
		Email:        strings.ToLower(user.Email),
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		CreatedAt:    user.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", translate(err)
	}
	return rec.ID, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", strings.ToLower(email))
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepo) findOne(ctx context.Context, query, arg string) (*models.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).Where(query, arg).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:           rec.ID,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Name:         rec.Name,
		CreatedAt:    rec.CreatedAt.UTC(),
	}, nil
}

// NewGormStores builds the SQL-backed repositories.
func NewGormStores(db *gorm.DB) *Stores {
	return &Stores{
		Forms:     NewFormRepo(db),
		Responses: NewResponseRepo(db),
		Users:     NewUserRepo(db),
	}
}

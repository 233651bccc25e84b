// Package repository persists forms, responses and users. Lookups that find
// nothing return (nil, nil); callers decide whether that is an error.
package repository

import (
	"context"
	"errors"

	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

// ErrDuplicate is returned when a unique index (share link, email) rejects
// an insert.
var ErrDuplicate = errors.New("duplicate key")

type FormStore interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, form *models.Form) (string, error)
	FindByID(ctx context.Context, id string) (*models.Form, error)
	FindByShareLink(ctx context.Context, shareLink string) (*models.Form, error)
	FindByOwner(ctx context.Context, ownerID string) ([]models.Form, error)
	Update(ctx context.Context, form *models.Form) error
	Delete(ctx context.Context, id string) error
}

type ResponseStore interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, resp *models.Response) (string, error)
	// FindByFormID returns responses oldest first.
	FindByFormID(ctx context.Context, formID string) ([]models.Response, error)
	CountByFormID(ctx context.Context, formID string) (int64, error)
	DeleteByFormID(ctx context.Context, formID string) (int64, error)
}

type UserStore interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, user *models.User) (string, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Stores bundles one backend's repositories.
type Stores struct {
	Forms     FormStore
	Responses ResponseStore
	Users     UserStore
}

// EnsureIndexes prepares every collection/table of the backend.
func (s *Stores) EnsureIndexes(ctx context.Context) error {
	if err := s.Users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := s.Forms.EnsureIndexes(ctx); err != nil {
		return err
	}
	return s.Responses.EnsureIndexes(ctx)
}

package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

// FormRepo stores forms in a SQL table through gorm; the field list is a
// JSON column.
type FormRepo struct {
	db *gorm.DB
}

func NewFormRepo(db *gorm.DB) *FormRepo {
	return &FormRepo{db: db}
}

func (r *FormRepo) EnsureIndexes(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&formRecord{})
}

func (r *FormRepo) Create(ctx context.Context, form *models.Form) (string, error) {
	rec := formToRecord(form)
	rec.ID = newID(rec.ID)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", translate(err)
	}
	return rec.ID, nil
}

func (r *FormRepo) FindByID(ctx context.Context, id string) (*models.Form, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *FormRepo) FindByShareLink(ctx context.Context, shareLink string) (*models.Form, error) {
	return r.findOne(ctx, "share_link = ?", shareLink)
}

func (r *FormRepo) FindByOwner(ctx context.Context, ownerID string) ([]models.Form, error) {
	var recs []formRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	forms := make([]models.Form, 0, len(recs))
	for i := range recs {
		forms = append(forms, *recordToForm(&recs[i]))
	}
	return forms, nil
}

// Update replaces title and fields. Owner, share link and creation time are
// never rewritten.
func (r *FormRepo) Update(ctx context.Context, form *models.Form) error {
	rec := formToRecord(form)
	err := r.db.WithContext(ctx).
		Model(&formRecord{ID: form.ID}).
		Select("title", "fields", "updated_at").
		Updates(rec).Error
	return translate(err)
}

func (r *FormRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&formRecord{ID: id}).Error
}

func (r *FormRepo) findOne(ctx context.Context, query string, arg string) (*models.Form, error) {
	var rec formRecord
	err := r.db.WithContext(ctx).Where(query, arg).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return recordToForm(&rec), nil
}

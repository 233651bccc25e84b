package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

type ResponseRepo struct {
	db *gorm.DB
}

func NewResponseRepo(db *gorm.DB) *ResponseRepo {
	return &ResponseRepo{db: db}
}

func (r *ResponseRepo) EnsureIndexes(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&responseRecord{})
}

func (r *ResponseRepo) Create(ctx context.Context, resp *models.Response) (string, error) {
	rec := responseToRecord(resp)
	rec.ID = newID(rec.ID)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", translate(err)
	}
	return rec.ID, nil
}

func (r *ResponseRepo) FindByFormID(ctx context.Context, formID string) ([]models.Response, error) {
	var recs []responseRecord
	err := r.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("submitted_at asc").
		Order("id asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Response, 0, len(recs))
	for i := range recs {
		out = append(out, *recordToResponse(&recs[i]))
	}
	return out, nil
}

func (r *ResponseRepo) CountByFormID(ctx context.Context, formID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&responseRecord{}).Where("form_id = ?", formID).Count(&n).Error
	return n, err
}

func (r *ResponseRepo) DeleteByFormID(ctx context.Context, formID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("form_id = ?", formID).Delete(&responseRecord{})
	return res.RowsAffected, res.Error
}

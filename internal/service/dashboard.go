package service

import (
	"context"
	"time"
)

type FormStats struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	ShareLink     string    `json:"shareLink"`
	ResponseCount int64     `json:"responseCount"`
	FieldCount    int       `json:"fieldCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Dashboard struct {
	FormCount     int         `json:"formCount"`
	ResponseCount int64       `json:"responseCount"`
	Forms         []FormStats `json:"forms"`
}

// Dashboard summarizes the owner's forms with per-form response counts.
func (s *ResponseService) Dashboard(ctx context.Context, ownerID string) (*Dashboard, error) {
	forms, err := s.forms.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{FormCount: len(forms), Forms: make([]FormStats, 0, len(forms))}
	for _, f := range forms {
		n, err := s.CountByForm(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		d.ResponseCount += n
		d.Forms = append(d.Forms, FormStats{
			ID:            f.ID,
			Title:         f.Title,
			ShareLink:     f.ShareLink,
			ResponseCount: n,
			FieldCount:    len(f.Fields),
			CreatedAt:     f.CreatedAt,
		})
	}
	return d, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
	"github.com/parisxmas/OxiDB/OxiForms/internal/metrics"
	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
	"github.com/parisxmas/OxiDB/OxiForms/internal/repository"
)

// shareLinkAttempts bounds retries when a fresh share link collides.
const shareLinkAttempts = 3

type FormService struct {
	forms     repository.FormStore
	responses repository.ResponseStore
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	newLink   func() string
}

func NewFormService(forms repository.FormStore, responses repository.ResponseStore, log *zap.Logger, m *metrics.Metrics) *FormService {
	return &FormService{
		forms:     forms,
		responses: responses,
		log:       log,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
		newLink:   uuid.NewString,
	}
}

func (s *FormService) Create(ctx context.Context, title string, fields []models.Field, ownerID string) (*models.Form, error) {
	if ownerID == "" {
		return nil, apperr.ErrNotAuthenticated
	}
	title, fields, err := prepare(title, fields)
	if err != nil {
		return nil, err
	}
	models.AssignFieldIDs(fields)

	now := s.now()
	form := &models.Form{
		Title:     title,
		Fields:    fields,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for attempt := 1; ; attempt++ {
		form.ShareLink = s.newLink()
		id, err := s.forms.Create(ctx, form)
		if err == nil {
			form.ID = id
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == shareLinkAttempts {
			return nil, apperr.Upstream("create form", err)
		}
		s.log.Warn("share link collision, retrying", zap.Int("attempt", attempt))
	}

	s.metrics.FormCreated()
	s.log.Info("form created", zap.String("formId", form.ID), zap.String("ownerId", ownerID), zap.Int("fields", len(fields)))
	return form, nil
}

func (s *FormService) List(ctx context.Context, ownerID string) ([]models.Form, error) {
	if ownerID == "" {
		return nil, apperr.ErrNotAuthenticated
	}
	forms, err := s.forms.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Upstream("list forms", err)
	}
	return forms, nil
}

// Get returns a form to its owner. Non-owners get ErrNotAuthorized, which
// is distinct from ErrNotFound.
func (s *FormService) Get(ctx context.Context, id, ownerID string) (*models.Form, error) {
	form, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !form.IsOwnedBy(ownerID) {
		return nil, fmt.Errorf("form %s: %w", id, apperr.ErrNotAuthorized)
	}
	return form, nil
}

// GetByShareLink is the unauthenticated read path.
func (s *FormService) GetByShareLink(ctx context.Context, shareLink string) (*models.Form, error) {
	shareLink = strings.TrimSpace(shareLink)
	if shareLink == "" {
		return nil, fmt.Errorf("share link: %w", apperr.ErrNotFound)
	}
	form, err := s.forms.FindByShareLink(ctx, shareLink)
	if err != nil {
		return nil, apperr.Upstream("find form by share link", err)
	}
	if form == nil {
		return nil, fmt.Errorf("share link: %w", apperr.ErrNotFound)
	}
	return form, nil
}

// Update replaces title and fields wholesale. The share link is kept.
func (s *FormService) Update(ctx context.Context, id, title string, fields []models.Field, ownerID string) (*models.Form, error) {
	form, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	title, fields, err = prepare(title, fields)
	if err != nil {
		return nil, err
	}
	models.AssignFieldIDs(fields)

	form.Title = title
	form.Fields = fields
	form.UpdatedAt = s.now()
	if err := s.forms.Update(ctx, form); err != nil {
		return nil, apperr.Upstream("update form", err)
	}
	s.log.Info("form updated", zap.String("formId", id), zap.Int("fields", len(fields)))
	return form, nil
}

// Delete removes the form and then its responses. If the response purge
// fails the form is already gone, so the leftovers are unreachable; the
// failure is logged rather than returned.
func (s *FormService) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.forms.Delete(ctx, id); err != nil {
		return apperr.Upstream("delete form", err)
	}
	n, err := s.responses.DeleteByFormID(ctx, id)
	if err != nil {
		s.log.Warn("orphaned responses after form delete", zap.String("formId", id), zap.Error(err))
		return nil
	}
	s.log.Info("form deleted", zap.String("formId", id), zap.Int64("responses", n))
	return nil
}

func (s *FormService) load(ctx context.Context, id string) (*models.Form, error) {
	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("find form", err)
	}
	if form == nil {
		return nil, fmt.Errorf("form %s: %w", id, apperr.ErrNotFound)
	}
	return form, nil
}

// prepare normalizes and validates an incoming title and field list as a
// whole before anything is written.
func prepare(title string, fields []models.Field) (string, []models.Field, error) {
	title = strings.TrimSpace(title)
	fields = models.NormalizeFields(fields)

	err := models.ValidateFields(fields)
	verr, ok := apperr.AsValidation(err)
	if err != nil && !ok {
		return "", nil, err
	}
	if title == "" {
		if verr == nil {
			verr = &apperr.ValidationError{Message: "invalid form"}
		}
		verr.Fields = append([]apperr.FieldError{{Field: "title", Message: "is required"}}, verr.Fields...)
	}
	if verr != nil {
		return "", nil, verr
	}
	return title, fields, nil
}

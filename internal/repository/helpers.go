package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

type formRecord struct {
	ID        string                            `gorm:"primaryKey;size:36"`
	Title     string                            `gorm:"not null"`
	Fields    datatypes.JSONSlice[models.Field] `gorm:"not null"`
	ShareLink string                            `gorm:"size:64;not null;uniqueIndex"`
	OwnerID   string                            `gorm:"size:36;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (formRecord) TableName() string { return "forms" }

type responseRecord struct {
	ID          string                             `gorm:"primaryKey;size:36"`
	FormID      string                             `gorm:"size:36;not null;index:idx_responses_form_submitted,priority:1"`
	Answers     datatypes.JSONSlice[models.Answer] `gorm:"not null"`
	SubmittedAt time.Time                          `gorm:"not null;index:idx_responses_form_submitted,priority:2"`
}

func (responseRecord) TableName() string { return "responses" }

type userRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:320;not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	Name         string
	CreatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func formToRecord(f *models.Form) *formRecord {
	return &formRecord{
		ID:        f.ID,
		Title:     f.Title,
		Fields:    datatypes.NewJSONSlice(f.Fields),
		ShareLink: f.ShareLink,
		OwnerID:   f.OwnerID,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func recordToForm(r *formRecord) *models.Form {
	fields := []models.Field(r.Fields)
	if fields == nil {
		fields = []models.Field{}
	}
	return &models.Form{
		ID:        r.ID,
		Title:     r.Title,
		Fields:    fields,
		ShareLink: r.ShareLink,
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func responseToRecord(s *models.Response) *responseRecord {
	return &responseRecord{
		ID:          s.ID,
		FormID:      s.FormID,
		Answers:     datatypes.NewJSONSlice(s.Answers),
		SubmittedAt: s.SubmittedAt,
	}
}

func recordToResponse(r *responseRecord) *models.Response {
	answers := []models.Answer(r.Answers)
	for i := range answers {
		answers[i].Value = models.NormalizeValue(answers[i].Value)
	}
	return &models.Response{
		ID:          r.ID,
		FormID:      r.FormID,
		Answers:     answers,
		SubmittedAt: r.SubmittedAt.UTC(),
	}
}

// newID fills in a missing primary key. Keys are UUIDv7: their string form
// sorts in creation order within the process, which is the tie-break for
// responses that share a submittedAt.
func newID(id string) string {
	if id != "" {
		return id
	}
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}

// translate maps driver errors onto the package's sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	// Dialects without an error translator still report the constraint in
	// the message.
	msg := err.Error()
	for _, marker := range []string{"UNIQUE constraint failed", "duplicate key value", "Duplicate entry"} {
		if strings.Contains(msg, marker) {
			return ErrDuplicate
		}
	}
	return err
}

package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

// StoreTestSuite runs the same contract checks against any backend.
type StoreTestSuite struct {
	suite.Suite
	open   func(t *testing.T) *Stores
	stores *Stores
	ctx    context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.stores = s.open(s.T())
	s.Require().NoError(s.stores.EnsureIndexes(s.ctx))
}

func (s *StoreTestSuite) newForm(owner string) *models.Form {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Form{
		Title: "Survey",
		Fields: []models.Field{
			{ID: "f-name", Type: models.FieldText, Label: "Name", Required: true},
			{ID: "f-color", Type: models.FieldSelect, Label: "Color", Options: []string{"red", "blue"}},
		},
		ShareLink: uuid.NewString(),
		OwnerID:   owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *StoreTestSuite) TestFormRoundTrip() {
	form := s.newForm("owner-1")
	id, err := s.stores.Forms.Create(s.ctx, form)
	s.Require().NoError(err)
	s.NotEmpty(id)

	got, err := s.stores.Forms.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(form.Title, got.Title)
	s.Equal(form.Fields, got.Fields)
	s.Equal(form.ShareLink, got.ShareLink)
	s.Equal("owner-1", got.OwnerID)

	byLink, err := s.stores.Forms.FindByShareLink(s.ctx, form.ShareLink)
	s.Require().NoError(err)
	s.Require().NotNil(byLink)
	s.Equal(id, byLink.ID)
}

func (s *StoreTestSuite) TestFindMissingReturnsNil() {
	f, err := s.stores.Forms.FindByID(s.ctx, "nope")
	s.NoError(err)
	s.Nil(f)

	u, err := s.stores.Users.FindByEmail(s.ctx, "nobody@example.com")
	s.NoError(err)
	s.Nil(u)
}

func (s *StoreTestSuite) TestDuplicateShareLink() {
	a := s.newForm("owner-1")
	_, err := s.stores.Forms.Create(s.ctx, a)
	s.Require().NoError(err)

	b := s.newForm("owner-2")
	b.ShareLink = a.ShareLink
	_, err = s.stores.Forms.Create(s.ctx, b)
	s.ErrorIs(err, ErrDuplicate)
}

func (s *StoreTestSuite) TestFindByOwnerAndUpdate() {
	mine := s.newForm("owner-1")
	id, err := s.stores.Forms.Create(s.ctx, mine)
	s.Require().NoError(err)
	_, err = s.stores.Forms.Create(s.ctx, s.newForm("owner-2"))
	s.Require().NoError(err)

	forms, err := s.stores.Forms.FindByOwner(s.ctx, "owner-1")
	s.Require().NoError(err)
	s.Require().Len(forms, 1)
	s.Equal(id, forms[0].ID)

	mine.ID = id
	mine.Title = "Renamed"
	mine.Fields = []models.Field{{ID: "f-new", Type: models.FieldEmail, Label: "Email"}}
	mine.UpdatedAt = time.Now().UTC()
	s.Require().NoError(s.stores.Forms.Update(s.ctx, mine))

	got, err := s.stores.Forms.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Title)
	s.Equal(mine.Fields, got.Fields)
	s.Equal(mine.ShareLink, got.ShareLink)

	s.Require().NoError(s.stores.Forms.Delete(s.ctx, id))
	got, err = s.stores.Forms.FindByID(s.ctx, id)
	s.NoError(err)
	s.Nil(got)
}

func (s *StoreTestSuite) TestResponsesOrderedAndCascade() {
	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, name := range []string{"third", "first", "second"} {
		offset := map[string]time.Duration{"first": 0, "second": time.Second, "third": 2 * time.Second}[name]
		_, err := s.stores.Responses.Create(s.ctx, &models.Response{
			FormID: "form-1",
			Answers: []models.Answer{
				{FieldID: "Name", Value: name},
				{FieldID: "Tags", Value: []string{"a", "b"}},
				{FieldID: "Agree", Value: i%2 == 0},
			},
			SubmittedAt: base.Add(offset),
		})
		s.Require().NoError(err)
	}
	_, err := s.stores.Responses.Create(s.ctx, &models.Response{FormID: "form-2", SubmittedAt: base})
	s.Require().NoError(err)

	list, err := s.stores.Responses.FindByFormID(s.ctx, "form-1")
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	for i, want := range []string{"first", "second", "third"} {
		v, _ := list[i].Value("Name")
		s.Equal(want, v)
	}
	tags, _ := list[0].Value("Tags")
	s.Equal([]string{"a", "b"}, tags)

	n, err := s.stores.Responses.CountByFormID(s.ctx, "form-1")
	s.NoError(err)
	s.Equal(int64(3), n)

	deleted, err := s.stores.Responses.DeleteByFormID(s.ctx, "form-1")
	s.NoError(err)
	s.Equal(int64(3), deleted)

	n, err = s.stores.Responses.CountByFormID(s.ctx, "form-2")
	s.NoError(err)
	s.Equal(int64(1), n)
}

func (s *StoreTestSuite) TestResponsesSameTimestampKeepInsertionOrder() {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		_, err := s.stores.Responses.Create(s.ctx, &models.Response{
			FormID:      "form-tie",
			Answers:     []models.Answer{{FieldID: "Seq", Value: float64(i)}},
			SubmittedAt: at,
		})
		s.Require().NoError(err)
	}
	list, err := s.stores.Responses.FindByFormID(s.ctx, "form-tie")
	s.Require().NoError(err)
	s.Require().Len(list, 20)
	for i, r := range list {
		v, _ := r.Value("Seq")
		s.Equal(float64(i), v)
	}
}

func (s *StoreTestSuite) TestUsers() {
	id, err := s.stores.Users.Create(s.ctx, &models.User{
		Email:        "Alice@Example.com",
		PasswordHash: "hash",
		Name:         "Alice",
		CreatedAt:    time.Now().UTC(),
	})
	s.Require().NoError(err)

	u, err := s.stores.Users.FindByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Require().NotNil(u)
	s.Equal(id, u.ID)
	s.Equal("hash", u.PasswordHash)

	_, err = s.stores.Users.Create(s.ctx, &models.User{Email: "alice@example.com", PasswordHash: "x"})
	s.ErrorIs(err, ErrDuplicate)

	byID, err := s.stores.Users.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Alice", byID.Name)
}

// OpenTestDB opens a throwaway SQLite database in t's temp dir.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "forms.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGormStores(t *testing.T) {
	suite.Run(t, &StoreTestSuite{open: func(t *testing.T) *Stores {
		return NewGormStores(OpenTestDB(t))
	}})
}

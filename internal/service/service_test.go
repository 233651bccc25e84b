package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
	"github.com/parisxmas/OxiDB/OxiForms/internal/auth"
	"github.com/parisxmas/OxiDB/OxiForms/internal/metrics"
	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
	"github.com/parisxmas/OxiDB/OxiForms/internal/repository"
)

type ServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    *repository.Stores
	forms     *FormService
	responses *ResponseService
	users     *AuthService
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	db, err := gorm.Open(sqlite.Open(filepath.Join(s.T().TempDir(), "svc.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	s.stores = repository.NewGormStores(db)
	s.Require().NoError(s.stores.EnsureIndexes(s.ctx))

	log := zap.NewNop()
	m := metrics.New()
	s.forms = NewFormService(s.stores.Forms, s.stores.Responses, log, m)
	s.responses = NewResponseService(s.stores.Responses, s.forms, log, m)
	s.users = NewAuthService(s.stores.Users, auth.NewIssuer("test-secret", time.Hour), log)
}

func surveyFields() []models.Field {
	return []models.Field{{Type: models.FieldText, Label: "Name", Required: true}}
}

func (s *ServiceTestSuite) TestCreateThenGetRoundTrip() {
	fields := []models.Field{
		{Type: models.FieldText, Label: "Name", Required: true},
		{Type: models.FieldRadio, Label: "Size", Options: []string{"S", "M", "L"}},
		{Type: models.FieldSignature, Label: "Sign here"},
	}
	created, err := s.forms.Create(s.ctx, "Survey", fields, "owner")
	s.Require().NoError(err)
	s.NotEmpty(created.ShareLink)
	for _, f := range created.Fields {
		s.NotEmpty(f.ID)
	}

	got, err := s.forms.Get(s.ctx, created.ID, "owner")
	s.Require().NoError(err)
	s.Equal("Survey", got.Title)
	s.Equal(created.Fields, got.Fields)
}

func (s *ServiceTestSuite) TestCreateValidation() {
	_, err := s.forms.Create(s.ctx, "  ", surveyFields(), "owner")
	ve, ok := apperr.AsValidation(err)
	s.Require().True(ok)
	s.Contains(ve.FieldNames(), "title")

	_, err = s.forms.Create(s.ctx, "T", nil, "owner")
	_, ok = apperr.AsValidation(err)
	s.True(ok)

	_, err = s.forms.Create(s.ctx, "T", []models.Field{
		{Type: models.FieldText, Label: "A"},
		{Type: models.FieldText, Label: "A"},
	}, "owner")
	_, ok = apperr.AsValidation(err)
	s.True(ok, "duplicate labels")

	_, err = s.forms.Create(s.ctx, "T", []models.Field{{Type: models.FieldSelect, Label: "Pick"}}, "owner")
	_, ok = apperr.AsValidation(err)
	s.True(ok, "select without options")

	_, err = s.forms.Create(s.ctx, "T", []models.Field{{Type: "hologram", Label: "X"}}, "owner")
	_, ok = apperr.AsValidation(err)
	s.True(ok, "unknown type")

	_, err = s.forms.Create(s.ctx, "T", surveyFields(), "")
	s.ErrorIs(err, apperr.ErrNotAuthenticated)
}

func (s *ServiceTestSuite) TestShareLinkCollisionRetries() {
	first, err := s.forms.Create(s.ctx, "One", surveyFields(), "owner")
	s.Require().NoError(err)

	links := []string{first.ShareLink, first.ShareLink, "fresh-link"}
	s.forms.newLink = func() string {
		l := links[0]
		links = links[1:]
		return l
	}
	second, err := s.forms.Create(s.ctx, "Two", surveyFields(), "owner")
	s.Require().NoError(err)
	s.Equal("fresh-link", second.ShareLink)

	s.forms.newLink = func() string { return first.ShareLink }
	_, err = s.forms.Create(s.ctx, "Three", surveyFields(), "owner")
	var ue *apperr.UpstreamError
	s.True(errors.As(err, &ue))
}

func (s *ServiceTestSuite) TestOwnershipChecks() {
	form, err := s.forms.Create(s.ctx, "Survey", surveyFields(), "owner")
	s.Require().NoError(err)

	_, err = s.forms.Get(s.ctx, form.ID, "intruder")
	s.ErrorIs(err, apperr.ErrNotAuthorized)
	_, err = s.forms.Get(s.ctx, "missing", "owner")
	s.ErrorIs(err, apperr.ErrNotFound)

	public, err := s.forms.GetByShareLink(s.ctx, form.ShareLink)
	s.Require().NoError(err)
	s.Equal(form.ID, public.ID)
	_, err = s.forms.GetByShareLink(s.ctx, "nope")
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.forms.Update(s.ctx, form.ID, "Hacked", surveyFields(), "intruder")
	s.ErrorIs(err, apperr.ErrNotAuthorized)
	_, err = s.forms.Update(s.ctx, "missing", "X", surveyFields(), "owner")
	s.ErrorIs(err, apperr.ErrNotFound)

	s.ErrorIs(s.forms.Delete(s.ctx, form.ID, "intruder"), apperr.ErrNotAuthorized)
	unchanged, err := s.forms.Get(s.ctx, form.ID, "owner")
	s.Require().NoError(err)
	s.Equal("Survey", unchanged.Title)

	_, err = s.responses.ListByForm(s.ctx, form.ID, "intruder")
	s.ErrorIs(err, apperr.ErrNotAuthorized)
	_, err = s.responses.Export(s.ctx, form.ID, "intruder", FormatCSV)
	s.ErrorIs(err, apperr.ErrNotAuthorized)
}

func (s *ServiceTestSuite) TestListOnlyOwnersForms() {
	_, err := s.forms.Create(s.ctx, "Mine", surveyFields(), "owner")
	s.Require().NoError(err)
	_, err = s.forms.Create(s.ctx, "Theirs", surveyFields(), "someone-else")
	s.Require().NoError(err)

	list, err := s.forms.List(s.ctx, "owner")
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Mine", list[0].Title)
}

func (s *ServiceTestSuite) TestUpdateReplacesFieldsKeepsShareLink() {
	form, err := s.forms.Create(s.ctx, "Survey", surveyFields(), "owner")
	s.Require().NoError(err)
	keptID := form.Fields[0].ID

	updated, err := s.forms.Update(s.ctx, form.ID, "Survey v2", []models.Field{
		{ID: keptID, Type: models.FieldText, Label: "Full name", Required: true},
		{Type: models.FieldEmail, Label: "Email"},
	}, "owner")
	s.Require().NoError(err)
	s.Equal(form.ShareLink, updated.ShareLink)
	s.Equal(keptID, updated.Fields[0].ID)
	s.NotEmpty(updated.Fields[1].ID)

	got, err := s.forms.Get(s.ctx, form.ID, "owner")
	s.Require().NoError(err)
	s.Equal("Survey v2", got.Title)
	s.Len(got.Fields, 2)

	_, err = s.forms.Update(s.ctx, form.ID, "Survey v3", []models.Field{
		{Type: models.FieldText, Label: "X"},
		{Type: models.FieldText, Label: "x"},
	}, "owner")
	_, ok := apperr.AsValidation(err)
	s.True(ok)
}

func (s *ServiceTestSuite) TestSubmitRequiredFields() {
	form, err := s.forms.Create(s.ctx, "Survey", surveyFields(), "owner")
	s.Require().NoError(err)

	_, err = s.responses.Submit(s.ctx, form.ID, nil, "")
	ve, ok := apperr.AsValidation(err)
	s.Require().True(ok)
	s.Contains(ve.Error(), "Name")
	s.Equal([]string{"Name"}, ve.FieldNames())

	answers := []models.Answer{{FieldID: "Name", Value: "Alice"}}
	resp, err := s.responses.Submit(s.ctx, form.ID, answers, "")
	s.Require().NoError(err)
	stored := []models.Answer{{FieldID: form.Fields[0].ID, Value: "Alice"}}
	s.Equal(stored, resp.Answers)
	s.False(resp.SubmittedAt.IsZero())

	list, err := s.responses.ListByForm(s.ctx, form.ID, "owner")
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(stored, list[0].Answers)
}

func (s *ServiceTestSuite) TestSubmitShapeAndShareLink() {
	form, err := s.forms.Create(s.ctx, "Survey", []models.Field{
		{Type: models.FieldSelect, Label: "Color", Required: true, Options: []string{"red", "blue"}},
		{Type: models.FieldEmail, Label: "Email"},
	}, "owner")
	s.Require().NoError(err)

	_, err = s.responses.Submit(s.ctx, form.ID, []models.Answer{
		{FieldID: "Color", Value: "green"},
		{FieldID: "Email", Value: "not-an-email"},
	}, "")
	ve, ok := apperr.AsValidation(err)
	s.Require().True(ok)
	s.ElementsMatch([]string{"Color", "Email"}, ve.FieldNames())

	_, err = s.responses.Submit(s.ctx, "missing", nil, "")
	s.ErrorIs(err, apperr.ErrNotFound)

	_, err = s.responses.Submit(s.ctx, form.ID, []models.Answer{{FieldID: "Color", Value: "red"}}, "wrong-link")
	s.ErrorIs(err, apperr.ErrNotFound)

	resp, err := s.responses.SubmitByShareLink(s.ctx, form.ShareLink, []models.Answer{
		{FieldID: form.Fields[0].ID, Value: "blue"},
		{FieldID: "Extra", Value: "kept"},
	})
	s.Require().NoError(err)
	s.Len(resp.Answers, 2)
}

func (s *ServiceTestSuite) TestExportSparseColumns() {
	form, err := s.forms.Create(s.ctx, "Survey", []models.Field{
		{Type: models.FieldText, Label: "A"},
		{Type: models.FieldText, Label: "B"},
	}, "owner")
	s.Require().NoError(err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	s.responses.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
	_, err = s.responses.Submit(s.ctx, form.ID, []models.Answer{{FieldID: "A", Value: "a1"}, {FieldID: "B", Value: "b1"}}, "")
	s.Require().NoError(err)
	_, err = s.responses.Submit(s.ctx, form.ID, []models.Answer{{FieldID: "A", Value: "a2"}}, "")
	s.Require().NoError(err)

	res, err := s.responses.Export(s.ctx, form.ID, "owner", "csv")
	s.Require().NoError(err)
	s.Equal("Survey_responses.csv", res.Filename)
	s.Equal("submittedAt,A,B\n2024-01-01T00:00:01.000Z,a1,b1\n2024-01-01T00:00:02.000Z,a2,\n", string(res.Body))

	pdf, err := s.responses.Export(s.ctx, form.ID, "owner", "PDF")
	s.Require().NoError(err)
	s.Equal("application/pdf", pdf.ContentType)
	s.Equal(2, pdf.Rows)

	_, err = s.responses.Export(s.ctx, form.ID, "owner", "xlsx")
	_, ok := apperr.AsValidation(err)
	s.True(ok)
}

func (s *ServiceTestSuite) TestSearchByFormFiltersAndPages() {
	form, err := s.forms.Create(s.ctx, "Survey", surveyFields(), "owner")
	s.Require().NoError(err)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	step := 0
	s.responses.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	for _, name := range []string{"Alice", "Bob", "Alina", "Carl"} {
		_, err = s.responses.Submit(s.ctx, form.ID, []models.Answer{{FieldID: "Name", Value: name}}, "")
		s.Require().NoError(err)
	}

	page, err := s.responses.SearchByForm(s.ctx, form.ID, "owner", ListOptions{Query: "ali"})
	s.Require().NoError(err)
	s.Equal(2, page.Total)
	s.Len(page.Responses, 2)

	page, err = s.responses.SearchByForm(s.ctx, form.ID, "owner", ListOptions{Skip: 1, Limit: 2})
	s.Require().NoError(err)
	s.Equal(4, page.Total)
	s.Require().Len(page.Responses, 2)
	v, _ := page.Responses[0].Value(form.Fields[0].ID)
	s.Equal("Bob", v)

	page, err = s.responses.SearchByForm(s.ctx, form.ID, "owner", ListOptions{Skip: 10})
	s.Require().NoError(err)
	s.Empty(page.Responses)

	_, err = s.responses.SearchByForm(s.ctx, form.ID, "owner", ListOptions{Limit: -1})
	_, ok := apperr.AsValidation(err)
	s.True(ok)
}

func (s *ServiceTestSuite) TestExportMergesIDAndLabelKeyedAnswers() {
	form, err := s.forms.Create(s.ctx, "Survey", surveyFields(), "owner")
	s.Require().NoError(err)
	_, err = s.responses.Submit(s.ctx, form.ID, []models.Answer{{FieldID: "Name", Value: "Alice"}}, "")
	s.Require().NoError(err)
	_, err = s.responses.Submit(s.ctx, form.ID, []models.Answer{{FieldID: form.Fields[0].ID, Value: "Bob"}}, "")
	s.Require().NoError(err)

	res, err := s.responses.Export(s.ctx, form.ID, "owner", FormatCSV)
	s.Require().NoError(err)
	lines := strings.Split(strings.TrimSpace(string(res.Body)), "\n")
	s.Require().Len(lines, 3)
	s.Equal("submittedAt,Name", lines[0])
	s.True(strings.HasSuffix(lines[1], ",Alice"), lines[1])
	s.True(strings.HasSuffix(lines[2], ",Bob"), lines[2])
}

func (s *ServiceTestSuite) TestListKeepsInsertionOrderOnTimestampTies() {
	form, err := s.forms.Create(s.ctx, "Survey", surveyFields(), "owner")
	s.Require().NoError(err)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.responses.now = func() time.Time { return fixed }

	var want []string
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("respondent-%02d", i)
		want = append(want, name)
		_, err = s.responses.Submit(s.ctx, form.ID, []models.Answer{{FieldID: "Name", Value: name}}, "")
		s.Require().NoError(err)
	}

	list, err := s.responses.ListByForm(s.ctx, form.ID, "owner")
	s.Require().NoError(err)
	got := make([]string, 0, len(list))
	for _, r := range list {
		v, _ := r.Value(form.Fields[0].ID)
		got = append(got, v.(string))
	}
	s.Equal(want, got)
}

func (s *ServiceTestSuite) TestDeleteCascades() {
	form, err := s.forms.Create(s.ctx, "Survey", surveyFields(), "owner")
	s.Require().NoError(err)
	_, err = s.responses.Submit(s.ctx, form.ID, []models.Answer{{FieldID: "Name", Value: "Alice"}}, "")
	s.Require().NoError(err)

	s.Require().NoError(s.forms.Delete(s.ctx, form.ID, "owner"))
	_, err = s.forms.Get(s.ctx, form.ID, "owner")
	s.ErrorIs(err, apperr.ErrNotFound)

	n, err := s.responses.CountByForm(s.ctx, form.ID)
	s.Require().NoError(err)
	s.Zero(n)

	s.ErrorIs(s.forms.Delete(s.ctx, form.ID, "owner"), apperr.ErrNotFound)
}

func (s *ServiceTestSuite) TestDashboard() {
	a, err := s.forms.Create(s.ctx, "A", surveyFields(), "owner")
	s.Require().NoError(err)
	_, err = s.forms.Create(s.ctx, "B", surveyFields(), "owner")
	s.Require().NoError(err)
	for i := 0; i < 3; i++ {
		_, err = s.responses.Submit(s.ctx, a.ID, []models.Answer{{FieldID: "Name", Value: "x"}}, "")
		s.Require().NoError(err)
	}

	d, err := s.responses.Dashboard(s.ctx, "owner")
	s.Require().NoError(err)
	s.Equal(2, d.FormCount)
	s.Equal(int64(3), d.ResponseCount)
}

func (s *ServiceTestSuite) TestRegisterAndLogin() {
	res, err := s.users.Register(s.ctx, RegisterInput{Email: "Alice@Example.com", Password: "secret1", Name: "Alice"})
	s.Require().NoError(err)
	s.NotEmpty(res.Token)
	s.Equal("alice@example.com", res.User.Email)

	_, err = s.users.Register(s.ctx, RegisterInput{Email: "alice@example.com", Password: "secret1"})
	s.ErrorIs(err, apperr.ErrConflict)

	_, err = s.users.Register(s.ctx, RegisterInput{Email: "bad", Password: "123"})
	ve, ok := apperr.AsValidation(err)
	s.Require().True(ok)
	s.ElementsMatch([]string{"email", "password"}, ve.FieldNames())

	logged, err := s.users.Login(s.ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
	s.Require().NoError(err)
	s.Equal(res.User.ID, logged.User.ID)

	_, err = s.users.Login(s.ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	s.ErrorIs(err, apperr.ErrNotAuthenticated)

	me, err := s.users.Me(s.ctx, res.User.ID)
	s.Require().NoError(err)
	s.Equal("Alice", me.Name)
}

func (s *ServiceTestSuite) TestSeedAdminIsIdempotent() {
	s.Require().NoError(s.users.SeedAdmin(s.ctx, "Admin@Example.com", "admin123"))
	s.Require().NoError(s.users.SeedAdmin(s.ctx, "admin@example.com", "other-pass"))
	s.Require().NoError(s.users.SeedAdmin(s.ctx, "", ""))

	_, err := s.users.Login(s.ctx, LoginInput{Email: "admin@example.com", Password: "admin123"})
	s.NoError(err)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

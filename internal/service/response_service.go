package service

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
	"github.com/parisxmas/OxiDB/OxiForms/internal/export"
	"github.com/parisxmas/OxiDB/OxiForms/internal/metrics"
	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
	"github.com/parisxmas/OxiDB/OxiForms/internal/repository"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type ResponseService struct {
	responses repository.ResponseStore
	forms     *FormService
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewResponseService(responses repository.ResponseStore, forms *FormService, log *zap.Logger, m *metrics.Metrics) *ResponseService {
	return &ResponseService{
		responses: responses,
		forms:     forms,
		log:       log,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit records one response. No authentication is involved. When
// shareLink is non-empty it must belong to the form.
func (s *ResponseService) Submit(ctx context.Context, formID string, answers []models.Answer, shareLink string) (*models.Response, error) {
	form, err := s.forms.load(ctx, formID)
	if err != nil {
		return nil, err
	}
	if shareLink != "" && shareLink != form.ShareLink {
		return nil, fmt.Errorf("form %s: share link mismatch: %w", formID, apperr.ErrNotFound)
	}
	return s.record(ctx, form, answers)
}

// SubmitByShareLink resolves the form from its share link and submits.
func (s *ResponseService) SubmitByShareLink(ctx context.Context, shareLink string, answers []models.Answer) (*models.Response, error) {
	form, err := s.forms.GetByShareLink(ctx, shareLink)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, form, answers)
}

func (s *ResponseService) record(ctx context.Context, form *models.Form, answers []models.Answer) (*models.Response, error) {
	answers, err := CheckAnswers(form, answers)
	if err != nil {
		s.metrics.ResponseRejected()
		return nil, err
	}
	resp := &models.Response{
		FormID:      form.ID,
		Answers:     answers,
		SubmittedAt: s.now(),
	}
	id, err := s.responses.Create(ctx, resp)
	if err != nil {
		return nil, apperr.Upstream("create response", err)
	}
	resp.ID = id
	s.metrics.ResponseSubmitted()
	s.log.Info("response submitted", zap.String("formId", form.ID), zap.String("responseId", id), zap.Int("answers", len(answers)))
	return resp, nil
}

// CheckAnswers is the server-side authority on a submission: every required
// field must have a non-empty answer (matched by field id or label), and
// answers to known field types must have the right shape. Answers to keys
// the form does not know are kept as given. It returns the answers with
// normalized list values, each keyed by its field's id when the key
// resolves to a field.
func CheckAnswers(form *models.Form, answers []models.Answer) ([]models.Answer, error) {
	verr := &apperr.ValidationError{}
	clean := make([]models.Answer, 0, len(answers))
	for i, a := range answers {
		a.FieldID = strings.TrimSpace(a.FieldID)
		if a.FieldID == "" {
			verr.Add(fmt.Sprintf("answers[%d]", i), "fieldId is required")
			continue
		}
		if f, ok := form.FieldFor(a.FieldID); ok {
			a.FieldID = f.Key()
		}
		a.Value = models.NormalizeValue(a.Value)
		clean = append(clean, a)
	}

	missing := models.MissingRequired(form, clean)
	for _, f := range missing {
		verr.Add(f.Label, "is required")
	}
	for _, a := range clean {
		f, ok := form.FieldFor(a.FieldID)
		if !ok || !f.Type.Known() || models.IsEmptyValue(a.Value) {
			continue
		}
		if msg := models.CheckValue(f, a.Value); msg != "" {
			verr.Add(f.Label, msg)
		}
	}

	if !verr.Has() {
		return clean, nil
	}
	if len(missing) > 0 {
		labels := make([]string, len(missing))
		for i, f := range missing {
			labels[i] = f.Label
		}
		verr.Message = "missing required fields: " + strings.Join(labels, ", ")
	} else {
		verr.Message = "invalid answers"
	}
	return nil, verr
}

// ListByForm returns the form's responses to its owner, oldest first.
func (s *ResponseService) ListByForm(ctx context.Context, formID, ownerID string) ([]models.Response, error) {
	if _, err := s.forms.Get(ctx, formID, ownerID); err != nil {
		return nil, err
	}
	list, err := s.responses.FindByFormID(ctx, formID)
	if err != nil {
		return nil, apperr.Upstream("list responses", err)
	}
	return list, nil
}

// ListOptions narrows a response listing. Query matches answers
// case-insensitively; Limit 0 means no limit.
type ListOptions struct {
	Query string
	Skip  int
	Limit int
}

// ResponsePage is one window of a filtered listing. Total counts every
// match, not just the window.
type ResponsePage struct {
	Responses []models.Response `json:"responses"`
	Total     int               `json:"total"`
	Skip      int               `json:"skip"`
	Limit     int               `json:"limit"`
}

// SearchByForm lists the owner's responses that match opts.Query, oldest
// first, and cuts the requested window out of the matches. Filtering and
// paging happen in memory: every response of the form is read from the
// store regardless of Skip and Limit.
func (s *ResponseService) SearchByForm(ctx context.Context, formID, ownerID string, opts ListOptions) (*ResponsePage, error) {
	if opts.Skip < 0 || opts.Limit < 0 {
		return nil, apperr.Invalid("skip and limit must not be negative")
	}
	list, err := s.ListByForm(ctx, formID, ownerID)
	if err != nil {
		return nil, err
	}
	if q := strings.ToLower(strings.TrimSpace(opts.Query)); q != "" {
		matched := list[:0]
		for _, r := range list {
			if responseContains(r, q) {
				matched = append(matched, r)
			}
		}
		list = matched
	}

	page := &ResponsePage{Total: len(list), Skip: opts.Skip, Limit: opts.Limit}
	start := min(opts.Skip, len(list))
	end := len(list)
	if opts.Limit > 0 {
		end = min(start+opts.Limit, len(list))
	}
	page.Responses = list[start:end]
	return page, nil
}

func responseContains(r models.Response, q string) bool {
	for _, a := range r.Answers {
		if strings.Contains(strings.ToLower(export.FormatCell(a.Value)), q) {
			return true
		}
	}
	return false
}

func (s *ResponseService) CountByForm(ctx context.Context, formID string) (int64, error) {
	n, err := s.responses.CountByFormID(ctx, formID)
	if err != nil {
		return 0, apperr.Upstream("count responses", err)
	}
	return n, nil
}

// ExportResult is an encoded export ready to be sent as a download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// Export flattens the form's responses into a table and encodes it.
func (s *ResponseService) Export(ctx context.Context, formID, ownerID, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		verr := apperr.Invalid("unsupported export format %q", format)
		verr.Add("format", "must be csv or pdf")
		return nil, verr
	}

	form, err := s.forms.Get(ctx, formID, ownerID)
	if err != nil {
		return nil, err
	}
	list, err := s.responses.FindByFormID(ctx, formID)
	if err != nil {
		return nil, apperr.Upstream("list responses", err)
	}

	table := export.Build(form, list)
	var buf bytes.Buffer
	res := &ExportResult{Rows: len(table.Rows)}
	base := fileStem(form.Title) + "_responses"
	switch format {
	case FormatCSV:
		err = export.WriteCSV(&buf, table)
		res.Filename, res.ContentType = base+".csv", "text/csv; charset=utf-8"
	case FormatPDF:
		err = export.WritePDF(&buf, table, s.now())
		res.Filename, res.ContentType = base+".pdf", "application/pdf"
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s export: %w", format, err)
	}
	res.Body = buf.Bytes()

	s.metrics.Exported(format)
	s.log.Info("responses exported", zap.String("formId", formID), zap.String("format", format), zap.Int("rows", res.Rows))
	return res, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func fileStem(title string) string {
	stem := strings.Trim(unsafeFileChars.ReplaceAllString(title, "_"), "_.")
	if stem == "" {
		stem = "form"
	}
	return stem
}

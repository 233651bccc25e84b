package render

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

// Decode converts a posted HTML form into answers keyed by field label, each
// carrying the value shape Submit expects: strings for free text, dates,
// times and choices, a bool for checkboxes, a numeric string for ratings and
// a data URI for signatures and files. Blank inputs produce no answer except
// for checkboxes, which always report true or false.
func Decode(form *models.Form, values url.Values, files map[string][]*multipart.FileHeader) ([]models.Answer, error) {
	answers := make([]models.Answer, 0, len(form.Fields))
	for _, f := range form.Fields {
		name := f.Key()
		spec := f.Type.Spec()
		var v any

		switch spec.Affordance {
		case models.AffordanceBoolean:
			v = truthy(values.Get(name))
		case models.AffordanceChoiceMultiple:
			var picked []string
			for _, s := range values[name] {
				if s = strings.TrimSpace(s); s != "" {
					picked = append(picked, s)
				}
			}
			if len(picked) > 0 {
				v = picked
			}
		case models.AffordanceFileLike:
			if fh := firstFile(files, name); fh != nil {
				uri, err := dataURI(fh)
				if err != nil {
					return nil, apperr.Invalid("could not read upload for %q: %v", f.Label, err)
				}
				v = uri
			} else if s := strings.TrimSpace(values.Get(name)); s != "" {
				v = s
			}
		default:
			if s := strings.TrimSpace(values.Get(name)); s != "" {
				v = s
			}
		}

		if v != nil {
			answers = append(answers, models.Answer{FieldID: f.Label, Value: v})
		}
	}
	return answers, nil
}

func firstFile(files map[string][]*multipart.FileHeader, name string) *multipart.FileHeader {
	for _, fh := range files[name] {
		if fh != nil && fh.Size > 0 {
			return fh
		}
	}
	return nil
}

func dataURI(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	ctype := fh.Header.Get("Content-Type")
	if ctype == "" || ctype == "application/octet-stream" {
		ctype = http.DetectContentType(body)
	}
	if i := strings.IndexByte(ctype, ';'); i >= 0 {
		ctype = strings.TrimSpace(ctype[:i])
	}
	return fmt.Sprintf("data:%s;base64,%s", ctype, base64.StdEncoding.EncodeToString(body)), nil
}

// Validate applies the same required rule as the server plus the shape
// check, so the page can flag problems before a round trip to the store.
func Validate(form *models.Form, answers []models.Answer) Errors {
	errs := Errors{}
	for _, f := range models.MissingRequired(form, answers) {
		errs[f.Label] = "is required"
	}
	for _, f := range form.Fields {
		if _, done := errs[f.Label]; done || !f.Type.Known() {
			continue
		}
		v, ok := models.AnswerFor(f, answers)
		if !ok || models.IsEmptyValue(v) {
			continue
		}
		if msg := models.CheckValue(f, v); msg != "" {
			errs[f.Label] = msg
		}
	}
	return errs
}

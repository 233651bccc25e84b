package render

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

//go:embed templates/form.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/form.html"))

// GenericNotice is shown for any failure that is not a validation problem.
const GenericNotice = "Your response could not be saved. Please try again in a moment."

// Page is the view model of the public form page.
type Page struct {
	Title     string
	Action    string
	Controls  []Control
	Notice    string
	Submitted bool
}

// FormPage is the empty form as first shown on the share link.
func FormPage(form *models.Form, action string) *Page {
	return &Page{Title: form.Title, Action: action, Controls: Plan(form, nil, nil)}
}

// FailedPage shows the form again with the submitted values. Validation
// problems go inline next to their fields; anything else becomes a notice
// above the form.
func FailedPage(form *models.Form, action string, answers []models.Answer, err error) *Page {
	p := &Page{Title: form.Title, Action: action}
	var errs Errors
	if verr, ok := apperr.AsValidation(err); ok {
		errs = FromValidation(verr)
		p.Notice = verr.Message
		if unplaced := unplacedErrors(form, errs); unplaced != "" {
			p.Notice += ": " + unplaced
		}
	} else if err != nil {
		p.Notice = GenericNotice
	}
	p.Controls = Plan(form, answers, errs)
	return p
}

// ThankYouPage confirms a recorded submission.
func ThankYouPage(form *models.Form) *Page {
	return &Page{Title: form.Title, Submitted: true}
}

func (p *Page) Write(w io.Writer) error {
	if p == nil {
		return errors.New("render: nil page")
	}
	return pageTmpl.ExecuteTemplate(w, "form.html", p)
}

// unplacedErrors collects messages for keys that match no field, so they are
// not lost from the page.
func unplacedErrors(form *models.Form, errs Errors) string {
	var parts []string
	for key, msg := range errs {
		if _, ok := form.FieldFor(key); !ok {
			parts = append(parts, key+" "+msg)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// Package render turns a form's field list into input controls, decodes
// posted HTML forms back into answers, and renders the public form page.
package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

type Option struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// Control is one rendered input. Name is the HTML form key the control posts
// under; Decode reads it back.
type Control struct {
	Name       string            `json:"name"`
	FieldID    string            `json:"fieldId"`
	Label      string            `json:"label"`
	Type       models.FieldType  `json:"type"`
	Affordance models.Affordance `json:"affordance"`
	InputType  string            `json:"inputType"`
	Required   bool              `json:"required"`
	Options    []Option          `json:"options,omitempty"`
	Value      string            `json:"value,omitempty"`
	Checked    bool              `json:"checked,omitempty"`
	Error      string            `json:"error,omitempty"`
	Supported  bool              `json:"supported"`
}

// Errors holds per-field messages keyed by field label.
type Errors map[string]string

// Err turns the messages into a ValidationError, or nil when there are none.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	verr := &apperr.ValidationError{Message: "please correct the highlighted fields"}
	for _, k := range keys {
		verr.Add(k, e[k])
	}
	return verr
}

// FromValidation keys the field problems of a ValidationError by label. The
// first message per field wins.
func FromValidation(verr *apperr.ValidationError) Errors {
	errs := Errors{}
	if verr == nil {
		return errs
	}
	for _, f := range verr.Fields {
		if _, ok := errs[f.Field]; !ok {
			errs[f.Field] = f.Message
		}
	}
	return errs
}

// Plan builds one control per field. answers carry the values to prefill,
// typically a rejected submission being shown again.
func Plan(form *models.Form, answers []models.Answer, errs Errors) []Control {
	controls := make([]Control, 0, len(form.Fields))
	for _, f := range form.Fields {
		controls = append(controls, control(f, answers, errs))
	}
	return controls
}

func control(f models.Field, answers []models.Answer, errs Errors) Control {
	spec := f.Type.Spec()
	c := Control{
		Name:       f.Key(),
		FieldID:    f.ID,
		Label:      f.Label,
		Type:       f.Type,
		Affordance: spec.Affordance,
		InputType:  spec.InputType,
		Required:   f.Required,
		Error:      errs[f.Label],
		Supported:  f.Type.Known(),
	}
	v, _ := models.AnswerFor(f, answers)

	switch spec.Affordance {
	case models.AffordanceUnsupported:
		c.InputType = ""
	case models.AffordanceBoolean:
		c.Checked = truthy(v)
	case models.AffordanceChoiceSingle, models.AffordanceChoiceMultiple:
		c.Value = valueString(v)
		c.Options = options(f, v)
	case models.AffordanceFileLike:
		// Uploaded files are never echoed back into the page. A drawn
		// signature is kept so the signer does not have to redraw it.
		if f.Type == models.FieldSignature {
			c.Value = valueString(v)
		}
	default:
		c.Value = valueString(v)
	}
	return c
}

func options(f models.Field, v any) []Option {
	values := f.Options
	if f.Type == models.FieldRating {
		values = make([]string, models.RatingScale)
		for i := range values {
			values[i] = strconv.Itoa(i + 1)
		}
	}
	selected := map[string]bool{}
	if items, ok := models.ListItems(v); ok {
		for _, it := range items {
			selected[it] = true
		}
	} else if v != nil {
		selected[models.ScalarString(v)] = true
	}
	out := make([]Option, len(values))
	for i, o := range values {
		out[i] = Option{Value: o, Selected: selected[o]}
	}
	return out
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		if x == "on" {
			return true
		}
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return err == nil && b
	}
	return false
}

func valueString(v any) string {
	if v == nil {
		return ""
	}
	if items, ok := models.ListItems(v); ok {
		if len(items) == 0 {
			return ""
		}
		return items[0]
	}
	return models.ScalarString(v)
}

package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
)

// FieldType is the closed set of input slots a form can carry.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldEmail     FieldType = "email"
	FieldNumber    FieldType = "number"
	FieldTextarea  FieldType = "textarea"
	FieldSelect    FieldType = "select"
	FieldRadio     FieldType = "radio"
	FieldCheckbox  FieldType = "checkbox"
	FieldDate      FieldType = "date"
	FieldTime      FieldType = "time"
	FieldFile      FieldType = "file"
	FieldPhone     FieldType = "phone"
	FieldAddress   FieldType = "address"
	FieldURL       FieldType = "url"
	FieldRating    FieldType = "rating"
	FieldSignature FieldType = "signature"
)

// Affordance is the class of input control a field type renders as.
type Affordance string

const (
	AffordanceFreeText       Affordance = "free-text"
	AffordanceChoiceSingle   Affordance = "choice-single"
	AffordanceChoiceMultiple Affordance = "choice-multiple"
	AffordanceBoolean        Affordance = "boolean"
	AffordanceFileLike       Affordance = "file-like"
	AffordanceComposite      Affordance = "composite"
	AffordanceUnsupported    Affordance = "unsupported"
)

// TypeSpec is what a field type contributes to rendering and validation.
type TypeSpec struct {
	Affordance Affordance
	// InputType is the concrete control: an HTML input type, or one of
	// textarea, select, radio, rating, signature.
	InputType    string
	NeedsOptions bool
	Shape        Shape
}

var typeSpecs = map[FieldType]TypeSpec{
	FieldText:      {Affordance: AffordanceFreeText, InputType: "text"},
	FieldEmail:     {Affordance: AffordanceFreeText, InputType: "email", Shape: ShapeEmail},
	FieldNumber:    {Affordance: AffordanceFreeText, InputType: "number", Shape: ShapeNumber},
	FieldTextarea:  {Affordance: AffordanceFreeText, InputType: "textarea"},
	FieldSelect:    {Affordance: AffordanceChoiceSingle, InputType: "select", NeedsOptions: true, Shape: ShapeOption},
	FieldRadio:     {Affordance: AffordanceChoiceSingle, InputType: "radio", NeedsOptions: true, Shape: ShapeOption},
	FieldCheckbox:  {Affordance: AffordanceBoolean, InputType: "checkbox", Shape: ShapeBool},
	FieldDate:      {Affordance: AffordanceFreeText, InputType: "date", Shape: ShapeDate},
	FieldTime:      {Affordance: AffordanceFreeText, InputType: "time", Shape: ShapeTime},
	FieldFile:      {Affordance: AffordanceFileLike, InputType: "file", Shape: ShapeDataURI},
	FieldPhone:     {Affordance: AffordanceFreeText, InputType: "tel", Shape: ShapePhone},
	FieldAddress:   {Affordance: AffordanceComposite, InputType: "textarea"},
	FieldURL:       {Affordance: AffordanceFreeText, InputType: "url", Shape: ShapeURL},
	FieldRating:    {Affordance: AffordanceChoiceSingle, InputType: "rating", Shape: ShapeRating},
	FieldSignature: {Affordance: AffordanceFileLike, InputType: "signature", Shape: ShapeDataURI},
}

// FieldTypes lists every supported type tag in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldText, FieldEmail, FieldNumber, FieldTextarea, FieldSelect,
		FieldRadio, FieldCheckbox, FieldDate, FieldTime, FieldFile,
		FieldPhone, FieldAddress, FieldURL, FieldRating, FieldSignature,
	}
}

// Known reports whether t is a supported type tag.
func (t FieldType) Known() bool {
	_, ok := typeSpecs[t]
	return ok
}

// Spec returns the rendering/validation contract for t. Unknown tags get a
// presence-only spec with the unsupported affordance.
func (t FieldType) Spec() TypeSpec {
	if s, ok := typeSpecs[t]; ok {
		return s
	}
	return TypeSpec{Affordance: AffordanceUnsupported}
}

// RatingScale is the inclusive upper bound of a rating field.
const RatingScale = 5

// Field is one input slot of a form.
type Field struct {
	ID       string    `json:"id,omitempty" bson:"id"`
	Type     FieldType `json:"type" bson:"type"`
	Label    string    `json:"label" bson:"label"`
	Required bool      `json:"required" bson:"required"`
	Options  []string  `json:"options,omitempty" bson:"options,omitempty"`
}

// Key returns the identifier answers should use for this field.
func (f Field) Key() string {
	if f.ID != "" {
		return f.ID
	}
	return f.Label
}

// Matches reports whether an answer key refers to this field, by id or label.
func (f Field) Matches(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	return (f.ID != "" && key == f.ID) || key == f.Label
}

// Validate checks the authoring-time shape of a single field.
func (f Field) Validate() error {
	if strings.TrimSpace(f.Label) == "" {
		return fmt.Errorf("label is required")
	}
	spec, ok := typeSpecs[f.Type]
	if !ok {
		return fmt.Errorf("unsupported field type %q", f.Type)
	}
	if spec.NeedsOptions {
		if len(f.Options) == 0 {
			return fmt.Errorf("%s field needs at least one option", f.Type)
		}
		seen := make(map[string]struct{}, len(f.Options))
		for _, o := range f.Options {
			if strings.TrimSpace(o) == "" {
				return fmt.Errorf("options must not be blank")
			}
			if _, dup := seen[o]; dup {
				return fmt.Errorf("duplicate option %q", o)
			}
			seen[o] = struct{}{}
		}
	}
	return nil
}

// NormalizeFields trims labels and options and drops options on types that
// do not use them. The input slice is not modified.
func NormalizeFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		f.ID = strings.TrimSpace(f.ID)
		f.Label = strings.TrimSpace(f.Label)
		f.Type = FieldType(strings.ToLower(strings.TrimSpace(string(f.Type))))
		if f.Type.Spec().NeedsOptions {
			opts := make([]string, len(f.Options))
			for j, o := range f.Options {
				opts[j] = strings.TrimSpace(o)
			}
			f.Options = opts
		} else {
			f.Options = nil
		}
		out[i] = f
	}
	return out
}

// ValidateFields checks a complete field list: non-empty, each field valid,
// labels unique (case-insensitive) and ids unique. The whole list is checked
// before anything is reported so the caller sees every problem at once.
func ValidateFields(fields []Field) error {
	verr := &apperr.ValidationError{Message: "invalid form fields"}
	if len(fields) == 0 {
		verr.Add("fields", "at least one field is required")
		return verr
	}
	labels := make(map[string]int, len(fields))
	ids := make(map[string]int, len(fields))
	for i, f := range fields {
		name := f.Label
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("fields[%d]", i)
		}
		if err := f.Validate(); err != nil {
			verr.Add(name, err.Error())
			continue
		}
		key := strings.ToLower(strings.TrimSpace(f.Label))
		if prev, dup := labels[key]; dup {
			verr.Add(name, fmt.Sprintf("duplicate label (also used by fields[%d])", prev))
		} else {
			labels[key] = i
		}
		if f.ID != "" {
			if prev, dup := ids[f.ID]; dup {
				verr.Add(name, fmt.Sprintf("duplicate field id (also used by fields[%d])", prev))
			} else {
				ids[f.ID] = i
			}
		}
	}
	if verr.Has() {
		return verr
	}
	return nil
}

// AssignFieldIDs gives every field without an id a fresh one. Ids already
// present are kept so answers recorded against them stay linked.
func AssignFieldIDs(fields []Field) {
	for i := range fields {
		if fields[i].ID == "" {
			fields[i].ID = uuid.NewString()
		}
	}
}

package models

import (
	"strings"
	"time"
)

// Answer is one {fieldId, value} pair of a response. Value is a string,
// bool, number, list of strings, or a data-URI string.
type Answer struct {
	FieldID string `json:"fieldId" bson:"fieldId"`
	Value   any    `json:"value" bson:"value"`
}

// Response is one immutable submission against a form.
type Response struct {
	ID          string    `json:"_id,omitempty" bson:"_id,omitempty"`
	FormID      string    `json:"formId" bson:"formId"`
	Answers     []Answer  `json:"answers" bson:"answers"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}

// Value returns the first non-empty answer recorded under fieldID.
func (r *Response) Value(fieldID string) (any, bool) {
	var (
		found any
		ok    bool
	)
	for _, a := range r.Answers {
		if a.FieldID != fieldID {
			continue
		}
		if !ok || (IsEmptyValue(found) && !IsEmptyValue(a.Value)) {
			found, ok = a.Value, true
		}
	}
	return found, ok
}

// AnswerFor finds the answer for a field, matching by field id first and
// label second.
func AnswerFor(f Field, answers []Answer) (any, bool) {
	var (
		byLabel any
		labelOK bool
	)
	for _, a := range answers {
		key := strings.TrimSpace(a.FieldID)
		if f.ID != "" && key == f.ID && !IsEmptyValue(a.Value) {
			return a.Value, true
		}
		if key == f.Label && (!labelOK || IsEmptyValue(byLabel)) {
			byLabel, labelOK = a.Value, true
		}
	}
	return byLabel, labelOK
}

// MissingRequired lists the required fields with no non-empty answer. Fields
// of unknown type still honor the required flag.
func MissingRequired(form *Form, answers []Answer) []Field {
	var missing []Field
	for _, f := range form.Fields {
		if !f.Required {
			continue
		}
		v, ok := AnswerFor(f, answers)
		if !ok || IsEmptyValue(v) {
			missing = append(missing, f)
		}
	}
	return missing
}

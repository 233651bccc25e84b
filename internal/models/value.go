package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Shape is the answer-level rule a field type applies on top of presence.
type Shape string

const (
	ShapeAny     Shape = ""
	ShapeEmail   Shape = "email"
	ShapeURL     Shape = "url"
	ShapeNumber  Shape = "number"
	ShapePhone   Shape = "phone"
	ShapeDate    Shape = "date"
	ShapeTime    Shape = "time"
	ShapeOption  Shape = "option"
	ShapeBool    Shape = "bool"
	ShapeRating  Shape = "rating"
	ShapeDataURI Shape = "data-uri"
)

var (
	validate = validator.New()
	phoneRe  = regexp.MustCompile(`^\+?[0-9 ().\-]{5,24}$`)
)

// IsEmptyValue reports whether v counts as "no answer" for the required
// rule: nil, blank strings, false, and empty or all-blank lists.
func IsEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	case []string:
		for _, s := range x {
			if strings.TrimSpace(s) != "" {
				return false
			}
		}
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if !IsEmptyValue(rv.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsEmptyValue(rv.Elem().Interface())
	}
	return false
}

// ListItems returns the elements of a list-valued answer as strings. The
// second result is false when v is not a list.
func ListItems(v any) ([]string, bool) {
	if v == nil {
		return nil, false
	}
	if ss, ok := v.([]string); ok {
		return ss, true
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, ScalarString(rv.Index(i).Interface()))
	}
	return out, true
}

// ScalarString renders a non-list answer value as text.
func ScalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// NormalizeValue turns generic JSON lists of strings into []string so list
// answers have one concrete shape from the API onward.
func NormalizeValue(v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return v
		}
		out = append(out, s)
	}
	return out
}

// CheckValue applies the field type's shape rule to a non-empty answer and
// returns a message describing the problem, or "" when the value is fine.
// Unknown types only get presence checks.
func CheckValue(f Field, v any) string {
	spec := f.Type.Spec()
	if items, isList := ListItems(v); isList {
		if spec.Affordance != AffordanceChoiceMultiple {
			return "must be a single value"
		}
		for _, it := range items {
			if !containsString(f.Options, it) {
				return fmt.Sprintf("%q is not one of the options", it)
			}
		}
		return ""
	}
	s := ScalarString(v)
	switch spec.Shape {
	case ShapeAny:
		return ""
	case ShapeOption:
		if !containsString(f.Options, s) {
			return fmt.Sprintf("%q is not one of the options", s)
		}
	case ShapeBool:
		if _, ok := v.(bool); ok {
			return ""
		}
		if _, err := strconv.ParseBool(s); err != nil && s != "on" {
			return "must be true or false"
		}
	case ShapeNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return "must be a number"
		}
	case ShapeRating:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 1 || n > RatingScale {
			return fmt.Sprintf("must be a whole number from 1 to %d", RatingScale)
		}
	case ShapeEmail:
		if validate.Var(s, "email") != nil {
			return "must be a valid email address"
		}
	case ShapeURL:
		if validate.Var(s, "url") != nil {
			return "must be a valid URL"
		}
	case ShapePhone:
		if !phoneRe.MatchString(strings.TrimSpace(s)) {
			return "must be a valid phone number"
		}
	case ShapeDate:
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return "must be a date (YYYY-MM-DD)"
		}
	case ShapeTime:
		_, err1 := time.Parse("15:04", s)
		_, err2 := time.Parse("15:04:05", s)
		if err1 != nil && err2 != nil {
			return "must be a time (HH:MM)"
		}
	case ShapeDataURI:
		if !strings.HasPrefix(s, "data:") || !strings.Contains(s, ",") {
			return "must be a data URI"
		}
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, o := range list {
		if o == s {
			return true
		}
	}
	return false
}

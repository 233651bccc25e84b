// Package export flattens sparse per-response answers into a dense table
// and encodes it as CSV or PDF.
package export

import (
	"strings"
	"time"

	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
)

// SubmittedAtColumn is the key and heading of the leading column.
const SubmittedAtColumn = "submittedAt"

// ListSeparator joins the items of a list-valued answer inside one cell.
const ListSeparator = ", "

type Column struct {
	// Key is the fieldId as recorded in responses.
	Key string
	// Heading is what a reader sees: the current label when the key is a
	// field id the form still knows, the key itself otherwise.
	Heading string
}

type Row struct {
	SubmittedAt time.Time
	// Cells holds one entry per non-leading column.
	Cells []string
}

type Table struct {
	Title   string
	Columns []Column
	Rows    []Row
}

// Headings returns the header row including the leading submittedAt column.
func (t *Table) Headings() []string {
	out := make([]string, 0, len(t.Columns)+1)
	out = append(out, SubmittedAtColumn)
	for _, c := range t.Columns {
		out = append(out, c.Heading)
	}
	return out
}

// Build computes the union of answer keys across responses, in first-seen
// order, and renders one row per response. Columns come from the responses,
// not the form's current field list, so answers to fields that were later
// removed still export. A key that resolves to a current field, by id or by
// label, lands in that field's column. form may be nil.
func Build(form *models.Form, responses []models.Response) *Table {
	t := &Table{}
	canonical := func(key string) (string, string) { return key, key }
	if form != nil {
		t.Title = form.Title
		canonical = func(key string) (string, string) {
			if f, ok := form.FieldFor(key); ok {
				return f.Key(), f.Label
			}
			return key, key
		}
	}

	index := map[string]int{}
	for _, r := range responses {
		for _, a := range r.Answers {
			key, heading := canonical(a.FieldID)
			if _, seen := index[key]; seen {
				continue
			}
			index[key] = len(t.Columns)
			t.Columns = append(t.Columns, Column{Key: key, Heading: heading})
		}
	}

	t.Rows = make([]Row, 0, len(responses))
	for _, r := range responses {
		values := make([]any, len(t.Columns))
		filled := make([]bool, len(t.Columns))
		for _, a := range r.Answers {
			key, _ := canonical(a.FieldID)
			j := index[key]
			if !filled[j] || (models.IsEmptyValue(values[j]) && !models.IsEmptyValue(a.Value)) {
				values[j], filled[j] = a.Value, true
			}
		}
		cells := make([]string, len(t.Columns))
		for j := range cells {
			if filled[j] {
				cells[j] = FormatCell(values[j])
			}
		}
		t.Rows = append(t.Rows, Row{SubmittedAt: r.SubmittedAt.UTC(), Cells: cells})
	}
	return t
}

// FormatCell renders one answer value. List items are joined with
// ListSeparator; an item that itself contains a comma or a double quote is
// wrapped in double quotes with inner quotes doubled, so the join stays
// reversible.
func FormatCell(v any) string {
	items, isList := models.ListItems(v)
	if !isList {
		return models.ScalarString(v)
	}
	quoted := make([]string, len(items))
	for i, it := range items {
		if strings.ContainsAny(it, ",\"") {
			it = `"` + strings.ReplaceAll(it, `"`, `""`) + `"`
		}
		quoted[i] = it
	}
	return strings.Join(quoted, ListSeparator)
}

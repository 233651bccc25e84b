package export

import (
	"encoding/csv"
	"io"
)

// TimeLayout is RFC 3339 with millisecond precision, always in UTC.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// WriteCSV writes the header row and one record per response.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headings()); err != nil {
		return err
	}
	record := make([]string, len(t.Columns)+1)
	for _, row := range t.Rows {
		record[0] = row.SubmittedAt.UTC().Format(TimeLayout)
		copy(record[1:], row.Cells)
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

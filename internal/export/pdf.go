package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin   = 10.0
	rowHeight    = 7.0
	timeColWidth = 42.0
	minColWidth  = 30.0
	footerSpace  = 8.0
)

// WritePDF renders the table as a landscape A4 document. Columns that do not
// fit one page width are split into groups, each starting on a new page and
// repeating the submittedAt column; the header row repeats on every page.
func WritePDF(w io.Writer, t *Table, generated time.Time) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := t.Title
	if title == "" {
		title = "Form"
	}
	pdf.SetTitle(title+" responses", true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pageW, pageH := pdf.GetPageSize()
	usable := pageW - 2*pageMargin
	headings := t.Headings()

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Responses for "+title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	summary := fmt.Sprintf("%d responses, exported %s UTC", len(t.Rows), generated.UTC().Format("2006-01-02 15:04"))
	pdf.CellFormat(0, 6, summary, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	for gi, group := range columnGroups(len(t.Columns), usable) {
		if gi > 0 {
			pdf.AddPage()
		}
		colW := usable - timeColWidth
		if len(group) > 0 {
			colW = (usable - timeColWidth) / float64(len(group))
		}

		header := func() {
			pdf.SetFont("Helvetica", "B", 9)
			pdf.SetFillColor(230, 230, 240)
			pdf.CellFormat(timeColWidth, rowHeight, "Submitted At", "1", 0, "L", true, 0, "")
			for _, c := range group {
				pdf.CellFormat(colW, rowHeight, fit(pdf, tr(headings[c+1]), colW), "1", 0, "L", true, 0, "")
			}
			pdf.Ln(rowHeight)
			pdf.SetFont("Helvetica", "", 9)
		}

		header()
		for _, row := range t.Rows {
			if pdf.GetY()+rowHeight > pageH-pageMargin-footerSpace {
				pdf.AddPage()
				header()
			}
			pdf.CellFormat(timeColWidth, rowHeight, row.SubmittedAt.UTC().Format("2006-01-02 15:04:05"), "1", 0, "L", false, 0, "")
			for _, c := range group {
				pdf.CellFormat(colW, rowHeight, fit(pdf, tr(row.Cells[c]), colW), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(rowHeight)
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// columnGroups splits column indexes into page-wide groups.
func columnGroups(n int, usable float64) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	per := int((usable - timeColWidth) / minColWidth)
	if per < 1 {
		per = 1
	}
	var groups [][]int
	for start := 0; start < n; start += per {
		end := min(start+per, n)
		g := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			g = append(g, i)
		}
		groups = append(groups, g)
	}
	return groups
}

// fit truncates s so it fits a cell of width w with padding.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+"...") > limit {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}

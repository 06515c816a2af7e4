package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/bookmatch/internal/books"
)

// WritePDF renders a printable catalog: one entry per record with its
// description and clickable links.
func WritePDF(path string, records []books.Record) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate UTF-8 text before drawing.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Book catalog", true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, "Page "+strconv.Itoa(pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Book catalog", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, r := range records {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", r.Rank, r.Title)), "", "L", false)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 5, tr("by "+r.Author), "", "L", false)
		if s := strings.TrimSpace(r.OtherNames); s != "" {
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
		}
		pdf.SetFont("Helvetica", "", 10)
		if s := strings.TrimSpace(r.Description); s != "" {
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
		}
		wrote := false
		for _, cat := range books.Categories() {
			url := r.Links.Get(cat)
			if url == "" {
				continue
			}
			if wrote {
				pdf.Write(5, "  |  ")
			}
			pdf.SetTextColor(0, 0, 180)
			pdf.WriteLinkString(5, string(cat), url)
			pdf.SetTextColor(0, 0, 0)
			wrote = true
		}
		if wrote {
			pdf.Ln(5)
		}
		pdf.Ln(4)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.OutputFileAndClose(path)
}

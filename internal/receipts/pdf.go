package receipts

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Renderer writes a receipt document.
type Renderer interface {
	Render(w io.Writer, c Content) error
}

// PDFRenderer renders A4 receipts with the PDF core fonts.
type PDFRenderer struct {
	// Title is printed in the header, e.g. "Rent Receipt".
	Title string
	// Compress enables stream compression. Uncompressed output keeps text searchable.
	Compress bool
}

// NewPDFRenderer returns a renderer with the default title and compression enabled.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{Title: "Rent Receipt", Compress: true}
}

// The core fonts are Windows-1252; the rupee sign is outside it.
var rupee = strings.NewReplacer("₹", "Rs. ")

// Render draws the receipt and writes the PDF to w.
func (r *PDFRenderer) Render(w io.Writer, c Content) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetTitle(r.Title+" "+c.ReceiptID, true)
	pdf.SetCreator("RentApp", true)
	pdf.SetCreationDate(c.IssuedAt)
	pdf.SetModificationDate(c.IssuedAt)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(rupee.Replace(s)) }

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, text(r.Title), "", 1, "C", false, 0, "")
	if c.PropertyName != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 7, text(c.PropertyName), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetDrawColor(180, 180, 180)
	for _, line := range c.Lines() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 9, text(line.Label), "B", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 9, text(line.Value), "B", 1, "L", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, text("This is a computer generated receipt and does not require a signature."), "", "C", false)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render receipt %s: %w", c.ReceiptID, err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write receipt %s: %w", c.ReceiptID, err)
	}
	return nil
}

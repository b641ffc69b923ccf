package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Data is everything printed on an admission receipt.
type Data struct {
	Number        string
	StudentName   string
	Standard      string
	Medium        string
	Contact       string
	Email         string
	Course        string
	Amount        int64
	PaymentID     string
	PaymentStatus string
	IssuedAt      time.Time
}

// Generator renders admission confirmation PDFs.
type Generator struct {
	Institute string
}

// Render returns the PDF bytes for d.
func (g Generator) Render(d Data) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Admission Confirmation Receipt", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, g.Institute, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "Admission Confirmation Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	rows := [][2]string{
		{"Receipt No", d.Number},
		{"Student Name", d.StudentName},
		{"Class", d.Standard},
		{"Medium", d.Medium},
		{"Contact", d.Contact},
		{"Email", d.Email},
	}
	if d.Course != "" {
		rows = append(rows, [2]string{"Course", d.Course})
	}
	if d.Amount > 0 {
		rows = append(rows, [2]string{"Amount", fmt.Sprintf("INR %d", d.Amount)})
	}
	rows = append(rows,
		[2]string{"Payment ID", d.PaymentID},
		[2]string{"Status", d.PaymentStatus},
		[2]string{"Date", d.IssuedAt.Format("02 Jan 2006")},
	)

	pdf.SetFont("Helvetica", "", 12)
	for _, r := range rows {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(45, 8, r[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 8, r[1], "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

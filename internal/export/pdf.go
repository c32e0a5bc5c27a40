package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Page layout (A4 portrait, mm).
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 15.0
	qrSize       = 32.0
	rollHeight   = 9.0
	rollSpacing  = 6.0
	rollLabelW   = 18.0
	summaryLineH = 6.0
)

type pieceColor struct {
	R, G, B int
}

var pieceColors = []pieceColor{
	{R: 76, G: 175, B: 80},
	{R: 33, G: 150, B: 243},
	{R: 255, G: 152, B: 0},
	{R: 156, G: 39, B: 176},
	{R: 0, G: 188, B: 212},
	{R: 244, G: 67, B: 54},
}

// planSummary is encoded into the QR code printed on the first page.
type planSummary struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	StockLength int    `json:"stockLength"`
	Rolls       int    `json:"rolls"`
	TotalWaste  int    `json:"totalWaste"`
}

// WritePDF renders the plan with one bar per roll, pieces drawn to scale.
func WritePDF(w io.Writer, doc Document) error {
	if err := doc.validate(); err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()

	if err := renderHeader(pdf, doc); err != nil {
		return err
	}

	colors := colorByLength(doc)
	y := margin + qrSize + 10
	barWidth := pageWidth - 2*margin - rollLabelW
	for i, roll := range doc.Result.Plan.Rolls {
		if y+rollHeight > pageHeight-margin {
			pdf.AddPage()
			y = margin
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(margin, y)
		pdf.CellFormat(rollLabelW, rollHeight, fmt.Sprintf("#%d", i+1), "", 0, "L", false, 0, "")

		scale := barWidth / float64(doc.StockLength)
		x := margin + rollLabelW
		pdf.SetFont("Helvetica", "", 7)
		for _, piece := range roll.Pieces {
			c := colors[piece]
			width := float64(piece) * scale
			pdf.SetFillColor(c.R, c.G, c.B)
			pdf.SetDrawColor(30, 30, 30)
			pdf.SetLineWidth(0.2)
			pdf.Rect(x, y, width, rollHeight, "FD")
			if width >= pdf.GetStringWidth(fmt.Sprint(piece))+1 {
				pdf.SetTextColor(255, 255, 255)
				pdf.SetXY(x, y)
				pdf.CellFormat(width, rollHeight, fmt.Sprint(piece), "", 0, "C", false, 0, "")
			}
			x += width
		}
		if roll.Waste > 0 {
			width := float64(roll.Waste) * scale
			pdf.SetFillColor(220, 220, 220)
			pdf.SetDrawColor(150, 150, 150)
			pdf.Rect(x, y, width, rollHeight, "FD")
			if width >= pdf.GetStringWidth(fmt.Sprint(roll.Waste))+1 {
				pdf.SetTextColor(90, 90, 90)
				pdf.SetXY(x, y)
				pdf.CellFormat(width, rollHeight, fmt.Sprint(roll.Waste), "", 0, "C", false, 0, "")
			}
		}
		y += rollHeight + rollSpacing
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func renderHeader(pdf *fpdf.Fpdf, doc Document) error {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(margin, margin)
	pdf.CellFormat(pageWidth-2*margin-qrSize, 10, "Cutting plan", "", 0, "L", false, 0, "")

	lines := []string{
		fmt.Sprintf("Plan: %s", doc.ID),
		fmt.Sprintf("Status: %s (variant %s)", doc.Result.Status, doc.Result.Variant),
		fmt.Sprintf("Stock length: %d | Rolls used: %d (bounds %d-%d)",
			doc.StockLength, doc.Result.NumRollsUsed, doc.Result.Bounds.MinRolls, doc.Result.Bounds.MaxRolls),
		fmt.Sprintf("Total waste: %d | Efficiency: %.1f%%", doc.Result.Plan.TotalWaste(), doc.Efficiency()),
	}
	pdf.SetFont("Helvetica", "", 10)
	for i, line := range lines {
		pdf.SetXY(margin, margin+12+float64(i)*summaryLineH)
		pdf.CellFormat(pageWidth-2*margin-qrSize, summaryLineH, line, "", 0, "L", false, 0, "")
	}

	data, err := json.Marshal(planSummary{
		ID:          doc.ID,
		Status:      doc.Result.Status.String(),
		StockLength: doc.StockLength,
		Rolls:       len(doc.Result.Plan.Rolls),
		TotalWaste:  doc.Result.Plan.TotalWaste(),
	})
	if err != nil {
		return fmt.Errorf("marshal plan summary: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}
	name := "qr_" + doc.ID
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(name, pageWidth-margin-qrSize, margin, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}

// colorByLength gives every distinct piece length a stable color in demand order.
func colorByLength(doc Document) map[int]pieceColor {
	colors := make(map[int]pieceColor)
	next := 0
	assign := func(length int) {
		if _, ok := colors[length]; !ok {
			colors[length] = pieceColors[next%len(pieceColors)]
			next++
		}
	}
	for _, d := range doc.Demands {
		assign(d.Length)
	}
	for _, roll := range doc.Result.Plan.Rolls {
		for _, p := range roll.Pieces {
			assign(p)
		}
	}
	return colors
}

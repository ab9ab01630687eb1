package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each piece label's QR code.
type LabelInfo struct {
	PieceLabel string `json:"label"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	StockIndex int    `json:"stock_idx"`
	StockLabel string `json:"stock_label"`
	Step       int    `json:"step"`
	Rotated    bool   `json:"rotated"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF of QR-coded labels, one per placed piece.
// Labels are laid out on a US Letter Avery 5160 sheet (3 x 10).
func ExportLabels(path string, layout Layout) error {
	labels := CollectLabelInfos(layout)
	if len(labels) == 0 {
		return ErrNothingToExport
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.PieceLabel, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	// Step numbers are unique within an episode
	imgName := fmt.Sprintf("qr_%d_%d", info.StockIndex, info.Step)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	pieceLabel := info.PieceLabel
	if pdf.GetStringWidth(pieceLabel) > textW {
		for len(pieceLabel) > 0 && pdf.GetStringWidth(pieceLabel+"...") > textW {
			pieceLabel = pieceLabel[:len(pieceLabel)-1]
		}
		pieceLabel += "..."
	}
	pdf.CellFormat(textW, 4.5, pieceLabel, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%d x %d", info.Width, info.Height), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	stockInfo := fmt.Sprintf("%s @ (%d, %d)", info.StockLabel, info.X, info.Y)
	pdf.CellFormat(textW, 3, stockInfo, "", 1, "L", false, 0, "")

	if info.Rotated {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, "Rotated 90\xb0", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// CollectLabelInfos lists the label data for every placed piece in sheet order.
func CollectLabelInfos(layout Layout) []LabelInfo {
	var labels []LabelInfo
	for _, sheet := range layout.Sheets {
		for _, p := range sheet.Pieces {
			labels = append(labels, LabelInfo{
				PieceLabel: p.Label,
				Width:      p.Size.Width,
				Height:     p.Size.Height,
				StockIndex: sheet.Index,
				StockLabel: sheet.Label,
				Step:       p.Step,
				Rotated:    p.Rotated,
				X:          p.Position.X,
				Y:          p.Position.Y,
			})
		}
	}
	return labels
}

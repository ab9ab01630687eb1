package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

// DXF layer names.
const (
	LayerStock  = "STOCK"
	LayerPieces = "PIECES"
)

// dxfSheetGap is the spacing between consecutive stocks, in cells.
const dxfSheetGap = 10.0

// ExportDXF writes the used stocks side by side along the X axis, one cell
// per drawing unit. Stock outlines go to LayerStock, piece rectangles to
// LayerPieces. Grid rows grow downwards so Y is mirrored.
func ExportDXF(path string, layout Layout) error {
	if len(layout.Sheets) == 0 {
		return ErrNothingToExport
	}

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(LayerStock, color.White, dxf.DefaultLineType, false); err != nil {
		return fmt.Errorf("add layer %s: %w", LayerStock, err)
	}
	if _, err := d.AddLayer(LayerPieces, color.Cyan, dxf.DefaultLineType, false); err != nil {
		return fmt.Errorf("add layer %s: %w", LayerPieces, err)
	}

	originX := 0.0
	for _, sheet := range layout.Sheets {
		h := float64(sheet.Usable.Height)

		if err := d.ChangeLayer(LayerStock); err != nil {
			return err
		}
		if err := rect(d, originX, 0, float64(sheet.Usable.Width), h); err != nil {
			return fmt.Errorf("stock %d outline: %w", sheet.Index, err)
		}

		if err := d.ChangeLayer(LayerPieces); err != nil {
			return err
		}
		for _, p := range sheet.Pieces {
			x := originX + float64(p.Position.X)
			y := h - float64(p.Position.Y+p.Size.Height)
			if err := rect(d, x, y, float64(p.Size.Width), float64(p.Size.Height)); err != nil {
				return fmt.Errorf("stock %d piece %q: %w", sheet.Index, p.Label, err)
			}
		}

		originX += float64(sheet.Usable.Width) + dxfSheetGap
	}

	return d.SaveAs(path)
}

// rect draws a closed rectangle as four LINE entities with (x, y) as the
// lower-left corner.
func rect(d *drawing.Drawing, x, y, w, h float64) error {
	corners := [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return err
		}
	}
	return nil
}

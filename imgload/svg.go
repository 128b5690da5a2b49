package imgload

import (
	"bytes"
	"errors"
	"image"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// rasterizeSVG renders the icon at `scale` times its natural size,
// so that it stays sharp once drawn on a supersampled label.
// The natural size is the view box.
func rasterizeSVG(data []byte, scale float64, maxPixels int) (*Resource, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if !(w > 0 && h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return nil, errors.New("svg without a view box")
	}
	if scale < 1 {
		scale = 1
	}
	fw, fh := math.Ceil(w*scale), math.Ceil(h*scale)
	if err := checkSize(fw, fh, maxPixels); err != nil {
		return nil, err
	}
	pw, ph := int(fw), int(fh)
	img := image.NewRGBA(image.Rect(0, 0, pw, ph))
	icon.SetTarget(0, 0, float64(pw), float64(ph))

	scanner := rasterx.NewScannerGV(pw, ph, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(pw, ph, scanner), 1.0)
	return &Resource{Image: img, Width: w, Height: h}, nil
}

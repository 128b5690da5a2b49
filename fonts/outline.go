package fonts

import (
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/benoitkugler/oklabel/canvas"
)

func fx(v fixed.Int26_6) float64 { return float64(v) / 64 }

// AppendOutline adds to `path` the glyph outlines of `text`, drawn with `face`
// at `size` pixels per em. The text starts at (0, 0) and is anchored
// at the top of the em box: glyphs are shifted down by the ascent.
// It returns the advance of the whole text.
func AppendOutline(path *canvas.Path, face *sfnt.Font, text string, size float64) (float64, error) {
	var buf sfnt.Buffer
	ppem := fixed.Int26_6(math.Round(size * 64))
	metrics, err := face.Metrics(&buf, ppem, font.HintingNone)
	if err != nil {
		return 0, err
	}
	ascent := fx(metrics.Ascent)

	var (
		pen     float64
		prev    sfnt.GlyphIndex
		hasPrev bool
	)
	for _, r := range text {
		idx, err := face.GlyphIndex(&buf, r)
		if err != nil {
			return pen, err
		}
		// idx 0 is .notdef, drawn as is, like browsers do
		if hasPrev {
			if kern, err := face.Kern(&buf, prev, idx, ppem, font.HintingNone); err == nil {
				pen += fx(kern)
			}
		}

		segments, err := face.LoadGlyph(&buf, idx, ppem, nil)
		if err != nil {
			return pen, err
		}
		for _, seg := range segments {
			a := seg.Args
			switch seg.Op {
			case sfnt.SegmentOpMoveTo:
				path.MoveTo(pen+fx(a[0].X), ascent+fx(a[0].Y))
			case sfnt.SegmentOpLineTo:
				path.LineTo(pen+fx(a[0].X), ascent+fx(a[0].Y))
			case sfnt.SegmentOpQuadTo:
				path.QuadTo(pen+fx(a[0].X), ascent+fx(a[0].Y), pen+fx(a[1].X), ascent+fx(a[1].Y))
			case sfnt.SegmentOpCubeTo:
				path.CubicTo(pen+fx(a[0].X), ascent+fx(a[0].Y),
					pen+fx(a[1].X), ascent+fx(a[1].Y), pen+fx(a[2].X), ascent+fx(a[2].Y))
			}
		}

		advance, err := face.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			return pen, err
		}
		pen += fx(advance)
		prev, hasPrev = idx, true
	}
	return pen, nil
}

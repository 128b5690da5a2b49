// Package printsize lays a label raster out on a print surface whose
// page matches the physical size of the label, with no margin, and
// triggers printing once the layout is committed.
package printsize

import (
	"fmt"
	"strconv"

	"github.com/benoitkugler/oklabel/units"
)

// Rule is a page description. All lengths are in inches.
type Rule struct {
	Width, Height float64
	Margin        float64
	// Inset is removed from the raster size, so that printer
	// drivers do not clip its borders.
	Inset float64
}

// NewRule returns the rule for a label of the given size:
// zero margin and a one pixel inset.
func NewRule(width, height float64) Rule {
	return Rule{Width: width, Height: height, Inset: 1. / units.DPI}
}

// ImageSize returns the size the raster is laid out at.
func (r Rule) ImageSize() (width, height float64) {
	return r.Width - 2*r.Margin - r.Inset, r.Height - 2*r.Margin - r.Inset
}

func inches(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) + "in" }

// CSS returns the rule as a print media style sheet.
func (r Rule) CSS() string {
	inset := strconv.FormatFloat(units.ToPixels(r.Inset), 'f', -1, 64) + "px"
	return fmt.Sprintf(`
@media print {
  @page {
    size: %s %s;
    margin: %s;
  }

  html, body {
    margin: 0;
    padding: 0;
    overflow: hidden;
    background: white;
  }

  #printRoot {
    width: 100%%;
    height: 100%%;
  }

  img {
    width: calc(100%% - %s);
    height: calc(100%% - %s);
  }
}
`, inches(r.Width), inches(r.Height), marginCSS(r.Margin), inset, inset)
}

func marginCSS(m float64) string {
	if m == 0 {
		return "0"
	}
	return inches(m)
}

package markup

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor parses a CSS color: hexadecimal forms (#rgb, #rgba,
// #rrggbb, #rrggbbaa), rgb() and rgba() functions,
// named colors and "transparent".
func ParseColor(s string) (color.Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "transparent":
		return color.NRGBA{}, nil
	case strings.HasPrefix(v, "#"):
		return parseHexColor(v[1:])
	case strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba("):
		return parseRGBFunc(v)
	}
	if c, ok := colornames.Map[v]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("invalid color %q", s)
}

func parseHexColor(h string) (color.Color, error) {
	var digits []uint8
	for _, r := range h {
		d, ok := hexDigit(r)
		if !ok {
			return nil, fmt.Errorf("invalid color #%s", h)
		}
		digits = append(digits, d)
	}
	c := color.NRGBA{A: 0xff}
	switch len(digits) {
	case 3, 4:
		c.R, c.G, c.B = digits[0]*17, digits[1]*17, digits[2]*17
		if len(digits) == 4 {
			c.A = digits[3] * 17
		}
	case 6, 8:
		c.R, c.G, c.B = digits[0]<<4|digits[1], digits[2]<<4|digits[3], digits[4]<<4|digits[5]
		if len(digits) == 8 {
			c.A = digits[6]<<4 | digits[7]
		}
	default:
		return nil, fmt.Errorf("invalid color #%s", h)
	}
	return c, nil
}

func hexDigit(r rune) (uint8, bool) {
	switch {
	case '0' <= r && r <= '9':
		return uint8(r - '0'), true
	case 'a' <= r && r <= 'f':
		return uint8(r-'a') + 10, true
	}
	return 0, false
}

// parseRGBFunc handles rgb(r, g, b) and rgba(r, g, b, a), with
// channels as numbers in [0, 255] or percentages.
func parseRGBFunc(v string) (color.Color, error) {
	open, end := strings.IndexByte(v, '('), strings.LastIndexByte(v, ')')
	if end < open {
		return nil, fmt.Errorf("invalid color %q", v)
	}
	args := strings.FieldsFunc(v[open+1:end], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(args) != 3 && len(args) != 4 {
		return nil, fmt.Errorf("invalid color %q: expected 3 or 4 components", v)
	}
	var channels [4]uint8
	channels[3] = 0xff
	for i, arg := range args {
		f, err := parseComponent(arg, i == 3)
		if err != nil {
			return nil, fmt.Errorf("invalid color %q: %s", v, err)
		}
		channels[i] = f
	}
	return color.NRGBA{R: channels[0], G: channels[1], B: channels[2], A: channels[3]}, nil
}

// parseComponent returns a clamped channel value.
// Alpha components are in [0, 1] unless given as percentage.
func parseComponent(arg string, isAlpha bool) (uint8, error) {
	scale := 1.
	if strings.HasSuffix(arg, "%") {
		arg = strings.TrimSuffix(arg, "%")
		scale = 255. / 100
	} else if isAlpha {
		scale = 255
	}
	f, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, err
	}
	f *= scale
	if f < 0 {
		f = 0
	} else if f > 255 {
		f = 255
	}
	return uint8(f + 0.5), nil
}

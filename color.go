package main

import (
	"image/color"
	"strings"
)

// seriesPalette is the default cycle of series colors, chosen for similar
// lightness so that no series visually dominates.
var seriesPalette = []color.NRGBA{
	{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff},
	{R: 0xa4, G: 0x63, B: 0x3a, A: 0xff},
	{R: 0x51, G: 0x85, B: 0x4d, A: 0xff},
	{R: 0x72, G: 0x6c, B: 0xae, A: 0xff},
	{R: 0x85, G: 0x76, B: 0x25, A: 0xff},
	{R: 0x97, G: 0x5f, B: 0x91, A: 0xff},
}

// highContrastPalette trades hue variety for luminance separation against
// a light background.
var highContrastPalette = []color.NRGBA{
	{R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	{R: 0xc0, G: 0x00, B: 0x00, A: 0xff},
	{R: 0x00, G: 0x00, B: 0xc8, A: 0xff},
	{R: 0x00, G: 0x78, B: 0x00, A: 0xff},
	{R: 0xa8, G: 0x00, B: 0xa8, A: 0xff},
	{R: 0xb0, G: 0x58, B: 0x00, A: 0xff},
}

func seriesColor(i int, highContrast bool) color.NRGBA {
	palette := seriesPalette
	if highContrast {
		palette = highContrastPalette
	}
	return palette[i%len(palette)]
}

func brushTint(highContrast bool) color.NRGBA {
	if highContrast {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff}
}

func anomalyTint(highContrast bool) color.NRGBA {
	if highContrast {
		return color.NRGBA{R: 0xd0, A: 0xff}
	}
	return color.NRGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}
}

func markerTint(highContrast bool) color.NRGBA {
	if highContrast {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
}

// parseHexColor reads override color cells of the form #rgb, #rrggbb, or
// #rrggbbaa.
func parseHexColor(cell string) (color.NRGBA, bool) {
	cell = strings.TrimSpace(cell)
	if len(cell) < 2 || cell[0] != '#' {
		return color.NRGBA{}, false
	}
	hex := cell[1:]
	var c color.NRGBA
	c.A = 0xff
	switch len(hex) {
	case 3:
		for i, dst := range []*uint8{&c.R, &c.G, &c.B} {
			n, ok := hexNibble(hex[i])
			if !ok {
				return color.NRGBA{}, false
			}
			*dst = n<<4 | n
		}
	case 6, 8:
		channels := []*uint8{&c.R, &c.G, &c.B, &c.A}
		for i := 0; i*2 < len(hex); i++ {
			b, ok := hexByte(hex[i*2], hex[i*2+1])
			if !ok {
				return color.NRGBA{}, false
			}
			*channels[i] = b
		}
	default:
		return color.NRGBA{}, false
	}
	return c, true
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

func hexByte(hi, lo byte) (uint8, bool) {
	h, okHi := hexNibble(hi)
	l, okLo := hexNibble(lo)
	return h<<4 | l, okHi && okLo
}

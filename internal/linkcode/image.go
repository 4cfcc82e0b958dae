package linkcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
)

var dark = color.RGBA{A: 0xff}

// SVG renders the matrix with finder patterns in the style color.
func (m Matrix) SVG(style Style) ([]byte, error) {
	finder, err := parseHexColor(style.FinderColor)
	if err != nil {
		return nil, err
	}
	scale := max(style.Scale, 1)
	border := max(style.Border, 0)
	side := (m.Size() + 2*border) * scale

	var finderPath, darkPath strings.Builder
	for r, row := range m {
		for c, on := range row {
			if !on {
				continue
			}
			target := &darkPath
			if m.InFinder(r, c) {
				target = &finderPath
			}
			fmt.Fprintf(target, "M%d %dh%dv%dh-%dz", (c+border)*scale, (r+border)*scale, scale, scale, scale)
		}
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="utf-8"?>`+"\n")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, side, side, side, side)
	fmt.Fprintf(&b, `<path fill="%s" d="%s"/>`, hexColor(dark), darkPath.String())
	fmt.Fprintf(&b, `<path fill="%s" d="%s"/>`, hexColor(finder), finderPath.String())
	b.WriteString("</svg>\n")
	return b.Bytes(), nil
}

// PNG renders the matrix as a transparent-background image with finder
// patterns in the style color.
func (m Matrix) PNG(style Style) ([]byte, error) {
	finder, err := parseHexColor(style.FinderColor)
	if err != nil {
		return nil, err
	}
	scale := max(style.Scale, 1)
	border := max(style.Border, 0)
	side := (m.Size() + 2*border) * scale

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for r, row := range m {
		for c, on := range row {
			if !on {
				continue
			}
			fill := dark
			if m.InFinder(r, c) {
				fill = finder
			}
			x0, y0 := (c+border)*scale, (r+border)*scale
			for y := y0; y < y0+scale; y++ {
				for x := x0; x < x0+scale; x++ {
					img.SetRGBA(x, y, fill)
				}
			}
		}
	}

	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func parseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Package palette holds the ordered colour table sprites are indexed against,
// along with the digit arithmetic the textual sprite format is built on.
package palette

import (
	"image"
	"image/color"
	"strconv"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/pkg/errors"
)

// Palette is an ordered table of RGBA colours. Sprites refer to entries by
// their position, so the order must not change once sprites were encoded.
type Palette []color.RGBA

// FromArrays builds a palette out of 4-element channel arrays, as they
// appear in settings files.
func FromArrays(raw [][]int) (Palette, error) {
	p := make(Palette, len(raw))
	for i, c := range raw {
		if len(c) != 4 {
			return nil, errors.Errorf("palette entry %d has %d channels, want 4", i, len(c))
		}
		for ch, v := range c {
			if v < 0 || v > 255 {
				return nil, errors.Errorf("palette entry %d channel %d out of range: %d", i, ch, v)
			}
		}
		p[i] = color.RGBA{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: uint8(c[3])}
	}
	return p, nil
}

// DigitWidth returns how many decimal digits are needed to write the index
// of the last entry in a table of n entries. It never returns less than 1.
func DigitWidth(n int) int {
	width := 1
	for last := n - 1; last >= 10; last /= 10 {
		width++
	}
	return width
}

// DigitWidth is the width of a single palette index in sprite strings using
// this palette.
func (p Palette) DigitWidth() int {
	return DigitWidth(len(p))
}

// Lookup returns the colour at idx.
func (p Palette) Lookup(idx int) (color.RGBA, bool) {
	if idx < 0 || idx >= len(p) {
		return color.RGBA{}, false
	}
	return p[idx], true
}

// Closest returns the index of the entry nearest to c, measured as the sum
// of absolute channel differences. Equally distant entries resolve to the
// lowest index.
func (p Palette) Closest(c color.RGBA) int {
	best := -1
	bestDist := 0
	for i, e := range p {
		d := channelDiff(e.R, c.R) + channelDiff(e.G, c.G) + channelDiff(e.B, c.B) + channelDiff(e.A, c.A)
		if best == -1 || d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	return best
}

func channelDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// Arrays is the inverse of FromArrays.
func (p Palette) Arrays() [][]int {
	out := make([][]int, len(p))
	for i, c := range p {
		out[i] = []int{int(c.R), int(c.G), int(c.B), int(c.A)}
	}
	return out
}

// Color adapts the palette to color.Palette, e.g. for image.Paletted.
func (p Palette) Color() color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = c
	}
	return out
}

// Image renders the palette as a strip of size x size swatches.
func (p Palette) Image(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, len(p)*size, size))
	for i, c := range p {
		for y := 0; y < size; y++ {
			for x := i * size; x < (i+1)*size; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}

// MakeDigit formats idx as a zero-padded group of width digits.
func MakeDigit(idx, width int) string {
	s := strconv.Itoa(idx)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// Generate suggests a palette of at most n colours for the passed image
// using median cut. A fully transparent entry is always placed first, since
// sprites rely on index 0 being see-through.
func Generate(img image.Image, n int) (Palette, error) {
	if n < 2 {
		return nil, errors.Errorf("palette: need room for at least 2 colours, got %d", n)
	}
	q := quantize.MedianCutQuantizer{}
	cp := q.Quantize(make(color.Palette, 0, n-1), img)

	out := Palette{{}}
	seen := map[color.RGBA]bool{{}: true}
	for _, c := range cp {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		if seen[rgba] {
			continue
		}
		seen[rgba] = true
		out = append(out, rgba)
	}
	return out, nil
}

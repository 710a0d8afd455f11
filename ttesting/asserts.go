// Package ttesting holds small assertion helpers shared by the package tests.
package ttesting

import (
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func AssertEqualInt(t *testing.T, name string, got, want int) {
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %d; want %d", got, want)
		}
	})
}

func AssertEqualString(t *testing.T, name string, got, want string) {
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %q; want %q", got, want)
		}
	})
}

// AssertPixels checks that buf holds exactly the passed colours, 4 bytes each.
func AssertPixels(t *testing.T, name string, buf []byte, want ...color.RGBA) {
	t.Run(name, func(t *testing.T) {
		assert.Equal(t, Buffer(want...), buf)
	})
}

// Buffer flattens colours into an RGBA byte buffer.
func Buffer(cols ...color.RGBA) []byte {
	out := make([]byte, 0, len(cols)*4)
	for _, c := range cols {
		out = append(out, c.R, c.G, c.B, c.A)
	}
	return out
}

// Pixel returns the colour of the pixel at idx in an RGBA buffer.
func Pixel(buf []byte, idx int) color.RGBA {
	return color.RGBA{R: buf[idx*4], G: buf[idx*4+1], B: buf[idx*4+2], A: buf[idx*4+3]}
}

// DescribePixels renders a buffer as a list of palette-ish tuples, for
// failure messages.
func DescribePixels(buf []byte) string {
	s := ""
	for i := 0; i+3 < len(buf); i += 4 {
		s += fmt.Sprintf("(%d,%d,%d,%d)", buf[i], buf[i+1], buf[i+2], buf[i+3])
	}
	return s
}

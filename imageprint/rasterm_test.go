//go:build !windows

package imageprint

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaletted(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 16; i++ {
		img.Set(i%4, i/4, color.RGBA{R: uint8(i * 16), A: 255})
	}
	p := Paletted(img, 4)
	assert.LessOrEqual(t, len(p.Palette), 4)
	assert.Equal(t, img.Bounds(), p.Bounds())
}

package imageprint

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"badc0de.net/pkg/pixelrender/library"
)

func TestPrintNoColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 1, color.RGBA{A: 255})

	var b bytes.Buffer
	PrintNoColor(&b, img)
	assert.Equal(t, "##\x1b[0m  \n\x1b[0m  ..\n", b.String())
}

func TestPrint24bit(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	var b bytes.Buffer
	Print24bit(&b, img, true)
	assert.Equal(t, "\x1b[48;2;10;20;30m  \x1b[0m\x1b[0m\n", b.String())
}

func TestPrintITerm(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, PrintITerm(&b, image.NewRGBA(image.Rect(0, 0, 3, 2)), "block"))
	assert.True(t, strings.HasPrefix(b.String(), "\n\033]1337;File=name=YmxvY2s=;inline=1;"), b.String())
	assert.Contains(t, b.String(), "width=3px;height=2px:")
}

func TestPrintMultiple(t *testing.T) {
	red := []byte{255, 0, 0, 255}
	m := &library.Multiple{
		Layout: library.LayoutVertical,
		Sprites: map[string][]byte{
			"top":    append(append([]byte{}, red...), red...),
			"middle": make([]byte, 8),
			"bottom": append(append([]byte{}, red...), red...),
		},
		Widths: map[string]int{"top": 2, "middle": 2, "bottom": 1},
	}
	var b bytes.Buffer
	require.NoError(t, PrintMultiple(&b, m, ModeNoColor, false))
	out := b.String()
	assert.Contains(t, out, "top (2x1):\n")
	assert.Contains(t, out, "bottom (1x2):\n")
	assert.True(t, strings.Index(out, "top") < strings.Index(out, "middle"))

	m.Widths["middle"] = 3
	assert.Error(t, PrintMultiple(&b, m, ModeNoColor, false))
}

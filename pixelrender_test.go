package pixelrender

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"badc0de.net/pkg/pixelrender/library"
	"badc0de.net/pkg/pixelrender/palette"
	"badc0de.net/pkg/pixelrender/sprite"
	"badc0de.net/pkg/pixelrender/ttesting"
)

var (
	transparent = color.RGBA{}
	white       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	brown       = color.RGBA{R: 136, G: 80, A: 255}
)

func testSettings() Settings {
	return Settings{
		Palette: palette.Palette{transparent, white, brown},
		Scale:   2,
		Filters: map[string]*sprite.Filter{
			"Underworld": {Kind: sprite.FilterPalette, Substitutions: map[int]int{2: 1}},
		},
		Library: map[string]interface{}{
			"Block": map[string]interface{}{
				"normal": "0220",
				"Used":   []interface{}{"same", []interface{}{"Block", "normal"}},
			},
			"Underground": []interface{}{"filter", "Block", "Underworld"},
		},
	}
}

func TestNewRequiresPalette(t *testing.T) {
	_, err := New(Settings{})
	assert.Error(t, err)

	_, err = New(Settings{Palette: palette.Palette{transparent}, Library: map[string]interface{}{"bad": 4}})
	assert.Error(t, err)

	pr, err := New(Settings{Palette: palette.Palette{transparent}})
	require.NoError(t, err)
	_, err = pr.Decode("anything", Attributes{Width: 1})
	assert.True(t, errors.Is(err, library.ErrNotFound), "got %v", err)
}

func TestDecode(t *testing.T) {
	pr, err := New(testSettings())
	require.NoError(t, err)

	res, err := pr.Decode("Block", Attributes{Width: 4})
	require.NoError(t, err)
	px, ok := res.(library.Pixels)
	require.True(t, ok, "got %T", res)
	// Scale 2 doubles every pixel and the single row.
	ttesting.AssertPixels(t, "block", px,
		transparent, transparent, brown, brown, brown, brown, transparent, transparent,
		transparent, transparent, brown, brown, brown, brown, transparent, transparent)

	again, err := pr.Decode("Block", Attributes{Width: 4})
	require.NoError(t, err)
	assert.Equal(t, px, again)

	res, err = pr.Decode("Block Used", Attributes{Width: 4})
	require.NoError(t, err)
	assert.Equal(t, px, res)

	res, err = pr.Decode("Underground Used", Attributes{Width: 4})
	require.NoError(t, err)
	ttesting.AssertPixels(t, "filtered alias", res.(library.Pixels),
		transparent, transparent, white, white, white, white, transparent, transparent,
		transparent, transparent, white, white, white, white, transparent, transparent)

	_, err = pr.Decode("Block", Attributes{Width: 3})
	assert.True(t, errors.Is(err, sprite.ErrDimensions), "got %v", err)
}

func TestImage(t *testing.T) {
	pr, err := New(testSettings())
	require.NoError(t, err)
	img, err := pr.Image("Block", Attributes{Height: 1})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 2), img.Bounds())
	assert.Equal(t, brown, img.RGBAAt(3, 1))

	require.NoError(t, pr.ResetLibrary(map[string]interface{}{
		"pipe": []interface{}{"multiple", "vertical", map[string]interface{}{"top": "1", "middle": "1", "bottom": "1"}},
	}))
	_, err = pr.Image("pipe", Attributes{Width: 1})
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	s := testSettings()
	s.Scale = 1
	pr, err := New(s)
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, brown)
	img.Set(1, 0, white)
	img.Set(2, 1, brown)
	encoded, err := pr.Encode(img)
	require.NoError(t, err)

	require.NoError(t, pr.ResetLibrary(map[string]interface{}{"img": encoded}))
	res, err := pr.Decode("img", Attributes{Width: 3, Height: 2})
	require.NoError(t, err)
	assert.Equal(t, img.Pix, []byte(res.(library.Pixels)))
	assert.Equal(t, encoded, pr.Settings().Library["img"])

	fromBuffer, err := pr.EncodeBuffer(img.Pix)
	require.NoError(t, err)
	assert.Equal(t, encoded, fromBuffer)
}

func TestResetLibraryError(t *testing.T) {
	pr, err := New(testSettings())
	require.NoError(t, err)
	err = pr.ResetLibrary(map[string]interface{}{"x": []interface{}{"rotate", "Block"}})
	assert.True(t, errors.Is(err, library.ErrUnknownCommand), "got %v", err)
}

func TestMemCopy(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, 6)
	ttesting.AssertEqualInt(t, "copied", MemCopy(src, dst, 2, 1, 3), 3)
	assert.Equal(t, []byte{0, 3, 4, 5, 0, 0}, dst)
	ttesting.AssertEqualInt(t, "clamped", MemCopy(src, dst, 4, 0, -1), 4)
	assert.Equal(t, []byte{5, 6, 7, 8, 0, 0}, dst)
	ttesting.AssertEqualInt(t, "out of range", MemCopy(src, dst, 9, 0, 1), 0)
}

func TestPaletteFromImage(t *testing.T) {
	pr, err := New(testSettings())
	require.NoError(t, err)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 16; i++ {
		img.Set(i%4, i/4, color.RGBA{R: uint8(i * 16), A: 255})
	}
	p, err := pr.PaletteFromImage(img, 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(p), 4)
	assert.Equal(t, transparent, p[0])
}

// Package pixelrender renders sprites from a compact textual encoding.
//
// A PixelRender holds a palette, a codec built over it and a library of
// named sprite definitions. Sprites are looked up by key, decoded on demand
// into flat RGBA buffers and cached per key and size:
//
//	pr, err := pixelrender.New(pixelrender.Settings{
//		Palette: palette.Palette{{}, {R: 255, A: 255}},
//		Library: map[string]interface{}{"block": "0110"},
//	})
//	...
//	res, err := pr.Decode("block", pixelrender.Attributes{Width: 2})
//
// A PixelRender is not safe for concurrent use.
package pixelrender

import (
	"image"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/pixelrender/library"
	"badc0de.net/pkg/pixelrender/palette"
	"badc0de.net/pkg/pixelrender/sprite"
)

// Settings configure a PixelRender.
type Settings struct {
	// Palette is required.
	Palette palette.Palette
	// Scale is how many times each source pixel is repeated along both
	// axes. Zero means 1.
	Scale int
	// Filters are available to filter commands by name.
	Filters map[string]*sprite.Filter
	// FlipHoriz and FlipVert are the key markers requesting a flip. Empty
	// means sprite.DefaultFlipHoriz and sprite.DefaultFlipVert.
	FlipHoriz, FlipVert string
	// Normal is the child followed when no key segment matches. Empty
	// means "normal".
	Normal string
	// Library is the tree of sprite definitions, as decoded from JSON.
	Library map[string]interface{}
}

// Attributes describe one decode request.
type Attributes struct {
	Width, Height int
}

func (a Attributes) size() sprite.Size {
	return sprite.Size{Width: a.Width, Height: a.Height}
}

// Result is either library.Pixels or *library.Multiple.
type Result = library.Output

type PixelRender struct {
	settings Settings
	codec    *sprite.Codec
	library  *library.Library
}

// New builds a PixelRender, parsing the library in the settings.
func New(s Settings) (*PixelRender, error) {
	codec, err := sprite.New(sprite.Options{
		Palette:   s.Palette,
		Scale:     s.Scale,
		FlipHoriz: s.FlipHoriz,
		FlipVert:  s.FlipVert,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating codec")
	}
	raw := s.Library
	if raw == nil {
		raw = map[string]interface{}{}
	}
	lib, err := library.New(raw, library.Options{
		Codec:   codec,
		Filters: s.Filters,
		Normal:  s.Normal,
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing library")
	}
	glog.Infof("pixelrender: %d colours, digit width %d, scale %d", len(s.Palette), codec.DigitWidth(), codec.Scale())
	return &PixelRender{
		settings: s,
		codec:    codec,
		library:  lib,
	}, nil
}

// Decode returns the sprite key refers to, sized per attrs. Decoding the
// same key with the same attributes again returns the cached Result.
func (pr *PixelRender) Decode(key string, attrs Attributes) (Result, error) {
	return pr.library.Decode(key, attrs.size())
}

// Image decodes key and wraps the result as an image. Composite sprites
// are not painted and yield an error.
func (pr *PixelRender) Image(key string, attrs Attributes) (*image.RGBA, error) {
	res, err := pr.Decode(key, attrs)
	if err != nil {
		return nil, err
	}
	px, ok := res.(library.Pixels)
	if !ok {
		return nil, errors.Errorf("%q is a composite sprite", key)
	}
	w, err := pr.codec.OutputWidth(px, attrs.size())
	if err != nil {
		return nil, err
	}
	return sprite.ToImage(px, w)
}

// Encode turns img into the textual sprite encoding, snapping every pixel to
// the closest palette colour.
func (pr *PixelRender) Encode(img image.Image) (string, error) {
	return pr.codec.Encode(img)
}

// EncodeBuffer is Encode for a flat RGBA buffer.
func (pr *PixelRender) EncodeBuffer(buf []byte) (string, error) {
	return pr.codec.EncodeBuffer(buf)
}

// ResetLibrary replaces the library with raw. Everything decoded so far is
// dropped.
func (pr *PixelRender) ResetLibrary(raw map[string]interface{}) error {
	if err := pr.library.Reset(raw); err != nil {
		return errors.Wrap(err, "resetting library")
	}
	pr.settings.Library = raw
	return nil
}

// PaletteFromImage suggests a palette of at most n colours for img, the
// first of which is transparent.
func (pr *PixelRender) PaletteFromImage(img image.Image, n int) (palette.Palette, error) {
	return palette.Generate(img, n)
}

// MemCopy copies length bytes from src at readOffset into dst at
// writeOffset, clamped to both buffers. A negative length copies the rest of
// src. It returns the number of bytes copied.
func MemCopy(src, dst []byte, readOffset, writeOffset, length int) int {
	return sprite.MemCopy(src, dst, readOffset, writeOffset, length)
}

func (pr *PixelRender) Settings() Settings {
	return pr.settings
}

func (pr *PixelRender) Palette() palette.Palette {
	return pr.codec.Palette()
}

func (pr *PixelRender) Codec() *sprite.Codec {
	return pr.codec
}

func (pr *PixelRender) Library() *library.Library {
	return pr.library
}

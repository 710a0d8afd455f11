package sprite

import (
	"github.com/pkg/errors"

	"badc0de.net/pkg/pixelrender/palette"
)

var (
	// ErrMalformed is returned for sprite strings that do not follow the grammar.
	ErrMalformed = errors.New("malformed sprite string")
	// ErrPaletteIndex is returned when a sprite refers to a palette entry
	// that does not exist.
	ErrPaletteIndex = errors.New("palette index out of range")
	// ErrDimensions is returned when a buffer cannot be laid out in rows of
	// the requested size.
	ErrDimensions = errors.New("sprite dimensions do not match buffer")
)

const (
	DefaultFlipHoriz = "flip-horiz"
	DefaultFlipVert  = "flip-vert"
)

// Options configures a Codec.
type Options struct {
	Palette palette.Palette
	// Scale is how many output pixels each source pixel covers along each
	// axis. Zero means 1.
	Scale int
	// FlipHoriz and FlipVert are substrings that, when present in a request
	// key, flip the decoded sprite. Empty values take the defaults.
	FlipHoriz string
	FlipVert  string
}

// Codec decodes and encodes sprite strings against a fixed palette.
type Codec struct {
	palette    palette.Palette
	digitWidth int
	scale      int
	flipHoriz  string
	flipVert   string
}

func New(o Options) (*Codec, error) {
	if len(o.Palette) == 0 {
		return nil, errors.New("sprite: a palette is required")
	}
	if o.Scale < 0 {
		return nil, errors.Errorf("sprite: scale must be positive, got %d", o.Scale)
	}
	c := &Codec{
		palette:    o.Palette,
		digitWidth: o.Palette.DigitWidth(),
		scale:      o.Scale,
		flipHoriz:  o.FlipHoriz,
		flipVert:   o.FlipVert,
	}
	if c.scale == 0 {
		c.scale = 1
	}
	if c.flipHoriz == "" {
		c.flipHoriz = DefaultFlipHoriz
	}
	if c.flipVert == "" {
		c.flipVert = DefaultFlipVert
	}
	return c, nil
}

func (c *Codec) Palette() palette.Palette { return c.palette }
func (c *Codec) Scale() int               { return c.scale }
func (c *Codec) DigitWidth() int          { return c.digitWidth }

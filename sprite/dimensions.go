package sprite

import (
	"strings"

	"github.com/bradfitz/iter"
	"github.com/pkg/errors"
)

// Size is the size of a sprite in source pixels, before scaling. Either
// dimension may be left zero when the other one is enough to lay the buffer
// out in rows.
type Size struct {
	Width, Height int
}

// Flip selects which axes a buffer is mirrored along.
type Flip int

const (
	FlipNone Flip = iota
	FlipHorizontal
	FlipVertical
	FlipBoth
)

// FlipFor reports the flip requested by markers in key.
func (c *Codec) FlipFor(key string) Flip {
	horiz := strings.Contains(key, c.flipHoriz)
	vert := strings.Contains(key, c.flipVert)
	switch {
	case horiz && vert:
		return FlipBoth
	case horiz:
		return FlipHorizontal
	case vert:
		return FlipVertical
	}
	return FlipNone
}

// rowPixels returns the width, in output pixels, of one row of base.
func (c *Codec) rowPixels(base []byte, size Size) (int, error) {
	pixels := len(base) / 4
	if len(base)%4 != 0 {
		return 0, errors.Wrapf(ErrDimensions, "buffer of %d bytes is not whole pixels", len(base))
	}
	switch {
	case size.Width > 0:
		if size.Width > pixels/c.scale {
			return 0, errors.Wrapf(ErrDimensions, "width %d is wider than %d pixels", size.Width, pixels)
		}
		row := size.Width * c.scale
		if pixels%row != 0 {
			return 0, errors.Wrapf(ErrDimensions, "%d pixels are not whole rows of %d", pixels, row)
		}
		if size.Height > 0 && pixels/row != size.Height {
			return 0, errors.Wrapf(ErrDimensions, "%d pixels make %d rows of %d, want %d rows", pixels, pixels/row, row, size.Height)
		}
		return row, nil
	case size.Height > 0:
		if size.Height > pixels {
			return 0, errors.Wrapf(ErrDimensions, "height %d is taller than %d pixels", size.Height, pixels)
		}
		if pixels%size.Height != 0 {
			return 0, errors.Wrapf(ErrDimensions, "%d pixels are not %d whole rows", pixels, size.Height)
		}
		return pixels / size.Height, nil
	}
	return 0, errors.Wrap(ErrDimensions, "neither width nor height given")
}

// Dimensions turns a base buffer into the buffer for one request: each row
// is repeated Scale times, then the result is flipped according to the
// markers in key. base is never modified.
func (c *Codec) Dimensions(base []byte, key string, size Size) ([]byte, error) {
	row, err := c.rowPixels(base, size)
	if err != nil {
		return nil, errors.Wrapf(err, "sizing %q", key)
	}
	out := c.repeatRows(base, row)
	switch c.FlipFor(key) {
	case FlipHorizontal:
		return FlipRowsHorizontal(out, row), nil
	case FlipVertical:
		return FlipRowsVertical(out, row), nil
	case FlipBoth:
		return Reverse(out), nil
	case FlipNone:
	}
	return out, nil
}

// OutputWidth returns the width, in pixels, of a buffer returned by
// Dimensions for size.
func (c *Codec) OutputWidth(out []byte, size Size) (int, error) {
	pixels := len(out) / 4
	switch {
	case size.Width > 0:
		if size.Width > pixels/c.scale {
			return 0, errors.Wrapf(ErrDimensions, "width %d is wider than %d pixels", size.Width, pixels)
		}
		return size.Width * c.scale, nil
	case size.Height > 0:
		if size.Height > pixels/c.scale {
			return 0, errors.Wrapf(ErrDimensions, "height %d is taller than %d pixels", size.Height, pixels)
		}
		rows := size.Height * c.scale
		if pixels%rows == 0 {
			return pixels / rows, nil
		}
		return 0, errors.Wrapf(ErrDimensions, "%d bytes are not %d whole rows", len(out), rows)
	}
	return 0, errors.Wrap(ErrDimensions, "neither width nor height given")
}

// repeatRows writes every row of base Scale times in a row.
func (c *Codec) repeatRows(base []byte, rowPixels int) []byte {
	rowBytes := rowPixels * 4
	out := make([]byte, 0, len(base)*c.scale)
	for read := 0; read+rowBytes <= len(base); read += rowBytes {
		for range iter.N(c.scale) {
			out = append(out, base[read:read+rowBytes]...)
		}
	}
	return out
}

// FlipRowsHorizontal mirrors each row of buf, rowPixels wide, into a new buffer.
func FlipRowsHorizontal(buf []byte, rowPixels int) []byte {
	out := make([]byte, len(buf))
	rowBytes := rowPixels * 4
	for start := 0; start < len(buf); start += rowBytes {
		for x := 0; x < rowPixels; x++ {
			copy(out[start+x*4:start+x*4+4], buf[start+(rowPixels-1-x)*4:start+(rowPixels-x)*4])
		}
	}
	return out
}

// FlipRowsVertical reverses the order of rows, rowPixels wide, into a new buffer.
func FlipRowsVertical(buf []byte, rowPixels int) []byte {
	out := make([]byte, len(buf))
	rowBytes := rowPixels * 4
	for start := 0; start < len(buf); start += rowBytes {
		copy(out[len(buf)-start-rowBytes:len(buf)-start], buf[start:start+rowBytes])
	}
	return out
}

// Reverse reverses pixel order over the whole buffer, which flips it along
// both axes at once.
func Reverse(buf []byte) []byte {
	out := make([]byte, len(buf))
	n := len(buf) / 4
	for i := 0; i < n; i++ {
		copy(out[i*4:i*4+4], buf[(n-1-i)*4:(n-i)*4])
	}
	return out
}

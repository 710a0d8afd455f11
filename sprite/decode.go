package sprite

// This file contains the base decode stages: unravel, filter, expand and
// rasterize.

import (
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/pixelrender/palette"
)

// FilterPalette is the only filter kind the codec understands: it
// substitutes palette indices for other palette indices.
const FilterPalette = "palette"

// MaxPixels bounds the number of source pixels one sprite string may
// unravel to.
const MaxPixels = 1 << 22

// Filter rewrites decoded palette indices before rasterization.
type Filter struct {
	Kind          string
	Substitutions map[int]int
}

// DecodeBase runs a sprite string through unravel, filter, expand and
// rasterize. The result holds 4 bytes per pixel, with each source pixel
// repeated Scale times horizontally.
func (c *Codec) DecodeBase(source string, f *Filter) ([]byte, error) {
	indices, err := c.unravel(source)
	if err != nil {
		return nil, err
	}
	indices = c.applyFilter(indices, f)
	indices = c.expand(indices)
	return c.rasterize(indices)
}

// unravelState is the part of the parser a palette switch changes.
type unravelState struct {
	// ref maps local indices to palette indices. nil means the codec's
	// palette is addressed directly.
	ref   []int
	width int
}

func (c *Codec) defaultState() unravelState {
	return unravelState{width: c.digitWidth}
}

// atoi parses a non-empty run of decimal digits. Signs and spaces are
// rejected.
func atoi(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

func (s unravelState) resolve(group string, paletteSize int) (int, error) {
	idx, err := atoi(group)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformed, "bad digit group %q", group)
	}
	if s.ref != nil {
		if idx >= len(s.ref) {
			return 0, errors.Wrapf(ErrPaletteIndex, "local index %d, local palette has %d entries", idx, len(s.ref))
		}
		idx = s.ref[idx]
	}
	if idx >= paletteSize {
		return 0, errors.Wrapf(ErrPaletteIndex, "index %d, palette has %d entries", idx, paletteSize)
	}
	return idx, nil
}

// unravel expands runs and resolves palette switches, producing one palette
// index per pixel.
func (c *Codec) unravel(colors string) ([]int, error) {
	var out []int
	state := c.defaultState()
	n := len(colors)
	loc := 0
	for loc < n {
		switch colors[loc] {
		case 'x':
			loc++
			end := strings.IndexByte(colors[loc:], ',')
			if end == -1 {
				return nil, errors.Wrapf(ErrMalformed, "run at %d has no terminating comma", loc-1)
			}
			end += loc
			if end-loc <= state.width {
				return nil, errors.Wrapf(ErrMalformed, "run at %d has no count", loc-1)
			}
			idx, err := state.resolve(colors[loc:loc+state.width], len(c.palette))
			if err != nil {
				return nil, errors.Wrapf(err, "run at %d", loc-1)
			}
			count, err := atoi(colors[loc+state.width : end])
			if err != nil {
				return nil, errors.Wrapf(ErrMalformed, "run at %d has bad count %q", loc-1, colors[loc+state.width:end])
			}
			if count > MaxPixels-len(out) {
				return nil, errors.Wrapf(ErrMalformed, "run at %d of %d pixels goes past %d pixels", loc-1, count, MaxPixels)
			}
			for i := 0; i < count; i++ {
				out = append(out, idx)
			}
			loc = end + 1
		case 'p':
			loc++
			if loc < n && colors[loc] == '[' {
				end := strings.IndexByte(colors[loc:], ']')
				if end == -1 {
					return nil, errors.Wrapf(ErrMalformed, "palette switch at %d is not closed", loc-1)
				}
				end += loc
				ref, err := parsePaletteRef(colors[loc+1 : end])
				if err != nil {
					return nil, errors.Wrapf(err, "palette switch at %d", loc-1)
				}
				state = unravelState{ref: ref, width: palette.DigitWidth(len(ref))}
				loc = end + 1
			} else {
				state = c.defaultState()
			}
		default:
			if loc+state.width > n {
				return nil, errors.Wrapf(ErrMalformed, "truncated digit group %q at %d", colors[loc:], loc)
			}
			idx, err := state.resolve(colors[loc:loc+state.width], len(c.palette))
			if err != nil {
				return nil, errors.Wrapf(err, "literal at %d", loc)
			}
			out = append(out, idx)
			loc += state.width
		}
	}
	return out, nil
}

func parsePaletteRef(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	ref := make([]int, len(parts))
	for i, p := range parts {
		v, err := atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "bad palette reference %q", p)
		}
		ref[i] = v
	}
	return ref, nil
}

// applyFilter substitutes indices according to f. Substitutions apply to
// the original indices only, so chains like 1->2, 2->3 do not cascade.
func (c *Codec) applyFilter(indices []int, f *Filter) []int {
	if f == nil || f.Kind == "" {
		return indices
	}
	switch f.Kind {
	case FilterPalette:
		out := make([]int, len(indices))
		for i, idx := range indices {
			if sub, ok := f.Substitutions[idx]; ok {
				out[i] = sub
			} else {
				out[i] = idx
			}
		}
		return out
	default:
		glog.Warningf("sprite: unknown filter kind %q, decoding unfiltered", f.Kind)
		return indices
	}
}

// expand repeats each pixel Scale times horizontally.
func (c *Codec) expand(indices []int) []int {
	if c.scale == 1 {
		return indices
	}
	out := make([]int, 0, len(indices)*c.scale)
	for _, idx := range indices {
		for i := 0; i < c.scale; i++ {
			out = append(out, idx)
		}
	}
	return out
}

// rasterize maps indices to RGBA bytes.
func (c *Codec) rasterize(indices []int) ([]byte, error) {
	out := make([]byte, len(indices)*4)
	for i, idx := range indices {
		col, ok := c.palette.Lookup(idx)
		if !ok {
			return nil, errors.Wrapf(ErrPaletteIndex, "pixel %d refers to %d, palette has %d entries", i, idx, len(c.palette))
		}
		out[i*4] = col.R
		out[i*4+1] = col.G
		out[i*4+2] = col.B
		out[i*4+3] = col.A
	}
	glog.V(2).Infof("sprite: rasterized %d pixels", len(indices))
	return out, nil
}

package sprite

// This file contains the encode stages: extract pixels, quantize to the
// palette, build the local palette and combine runs.

import (
	"image"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/pixelrender/palette"
)

// Encode converts an image into a sprite string. Colours that are not in
// the palette are snapped to the closest entry.
func (c *Codec) Encode(img image.Image) (string, error) {
	return c.EncodeBuffer(Pixels(img))
}

// EncodeBuffer converts a flat RGBA buffer into a sprite string.
func (c *Codec) EncodeBuffer(buf []byte) (string, error) {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return "", errors.Errorf("sprite: cannot encode buffer of %d bytes", len(buf))
	}
	indices, occurrences := c.quantize(buf)
	local, numbers, width := mapToLocal(indices, occurrences)
	s := combine(local, numbers, width)
	glog.V(2).Infof("sprite: encoded %d pixels with %d colours into %d bytes", len(indices), len(local), len(s))
	return s, nil
}

// quantize finds the nearest palette entry for each pixel and counts how
// often each entry is used.
func (c *Codec) quantize(buf []byte) ([]int, map[int]int) {
	indices := make([]int, len(buf)/4)
	occurrences := make(map[int]int)
	cache := make(map[color.RGBA]int)
	for i := range indices {
		col := color.RGBA{R: buf[i*4], G: buf[i*4+1], B: buf[i*4+2], A: buf[i*4+3]}
		idx, ok := cache[col]
		if !ok {
			idx = c.palette.Closest(col)
			cache[col] = idx
		}
		indices[i] = idx
		occurrences[idx]++
	}
	return indices, occurrences
}

// mapToLocal builds a compact palette out of the indices actually used,
// in ascending order, and rewrites each pixel as a local index.
func mapToLocal(indices []int, occurrences map[int]int) ([]int, []int, int) {
	local := make([]int, 0, len(occurrences))
	for idx := range occurrences {
		local = append(local, idx)
	}
	sort.Ints(local)
	position := make(map[int]int, len(local))
	for i, idx := range local {
		position[idx] = i
	}
	numbers := make([]int, len(indices))
	for i, idx := range indices {
		numbers[i] = position[idx]
	}
	return local, numbers, palette.DigitWidth(len(local))
}

// RunThreshold is the longest run still written out as literals for a
// given digit width.
func RunThreshold(width int) int {
	t := (4 + width - 1) / width
	if t < 3 {
		t = 3
	}
	return t
}

// combine writes the palette declaration followed by literals and run tokens.
func combine(local, numbers []int, width int) string {
	var sb strings.Builder
	sb.WriteString("p[")
	for i, idx := range local {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(idx))
	}
	sb.WriteByte(']')

	threshold := RunThreshold(width)
	for i := 0; i < len(numbers); {
		j := i + 1
		for j < len(numbers) && numbers[j] == numbers[i] {
			j++
		}
		digit := palette.MakeDigit(numbers[i], width)
		if rep := j - i; rep > threshold {
			sb.WriteByte('x')
			sb.WriteString(digit)
			sb.WriteString(strconv.Itoa(rep))
			sb.WriteByte(',')
		} else {
			for k := i; k < j; k++ {
				sb.WriteString(digit)
			}
		}
		i = j
	}
	return sb.String()
}

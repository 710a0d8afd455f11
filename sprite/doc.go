// Package sprite implements the textual sprite format: a palette-indexed,
// run-length compressed string that decodes into a flat RGBA buffer.
//
// Decoding happens in two steps. DecodeBase turns a sprite string into the
// cacheable base buffer (unravel runs and palette switches, apply an optional
// palette filter, expand horizontally by the codec's scale, rasterize through
// the palette). Dimensions then repeats rows to undo the vertical scale and
// flips the result according to markers found in the request key. The second
// step depends on the caller, so its output is cached per request rather
// than per sprite.
//
// Encode performs the inverse of unravel and rasterize: it snaps each pixel of
// an image to the nearest palette entry and writes a compact string with a
// local palette declaration and run tokens for longer runs.
//
// Grammar:
//
//	sprite         := token*
//	token          := run | palette-switch | literal
//	run            := "x" digitgroup count ","
//	palette-switch := "p" ( "[" index ("," index)* "]" )?
//	literal        := digitgroup
package sprite

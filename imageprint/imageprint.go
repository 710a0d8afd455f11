// Package imageprint prints sprites on terminal. UNSUPPORTED debug package.
//
// This package has an API with no stability guarantees.
package imageprint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	ic "image/color"
	"image/png"
	"io"

	"github.com/gookit/color"
)

// Mode selects how pixels are drawn.
type Mode int

const (
	// Mode256Color uses the xterm 256 colour palette.
	Mode256Color Mode = iota
	// Mode24bit changes the background with true colour escape sequences.
	Mode24bit
	// ModeNoColor uses no escape sequences for opaque pixels. Only makes
	// sense without blanks.
	ModeNoColor
)

func shade(w io.Writer, col ic.Color, mode Mode, blanks bool) {
	cR, cG, cB, cA := col.RGBA()
	if cA == 0 {
		fmt.Fprintf(w, "\x1b[0m  ")
		return
	}
	s := "  "
	if !blanks {
		a := ((cR + cG + cB) / 3) >> 8
		switch {
		case a < 32:
			s = ".."
		case a < 64:
			s = "--"
		case a < 128:
			s = "=="
		default:
			s = "##"
		}
	}

	switch mode {
	case ModeNoColor:
		fmt.Fprint(w, s)
	case Mode24bit:
		fmt.Fprintf(w, "\x1b[48;2;%d;%d;%dm%s\x1b[0m", uint8(cR>>8), uint8(cG>>8), uint8(cB>>8), s)
	case Mode256Color:
		fmt.Fprint(w, color.RGB(uint8(cR>>8), uint8(cG>>8), uint8(cB>>8), true).Sprint(s))
	}
}

// Print draws an image as ascii art, two columns per pixel.
func Print(w io.Writer, i image.Image, mode Mode, blanks bool) {
	for y := i.Bounds().Min.Y; y < i.Bounds().Max.Y; y++ {
		for x := i.Bounds().Min.X; x < i.Bounds().Max.X; x++ {
			shade(w, i.At(x, y), mode, blanks)
		}
		if mode != ModeNoColor {
			fmt.Fprintf(w, "\x1b[0m")
		}
		fmt.Fprintf(w, "\n")
	}
}

// Print256Color draws an image using 256color'd ascii art.
func Print256Color(w io.Writer, i image.Image, blanks bool) {
	Print(w, i, Mode256Color, blanks)
}

// Print24bit draws an image using 24bit color escape sequences by changing background.
func Print24bit(w io.Writer, i image.Image, blanks bool) {
	Print(w, i, Mode24bit, blanks)
}

// PrintNoColor draws an image without using color escape sequences.
func PrintNoColor(w io.Writer, i image.Image) {
	Print(w, i, ModeNoColor, false)
}

// PrintITerm draws an image using iTerm2's escape sequences.
//
// https://www.iterm2.com/documentation-images.html
func PrintITerm(w io.Writer, i image.Image, fn string) error {
	name := base64.StdEncoding.EncodeToString([]byte(fn))
	b := &bytes.Buffer{}
	bEnc := base64.NewEncoder(base64.StdEncoding, b)
	if err := png.Encode(bEnc, i); err != nil {
		return err
	}
	if err := bEnc.Close(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n\033]1337;File=name=%s;inline=1;size=%d,width=%dpx;height=%dpx:%s\a\n", name, b.Len(), i.Bounds().Size().X, i.Bounds().Size().Y, b.String())
	return err
}

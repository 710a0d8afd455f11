//go:build !windows

package imageprint

import (
	"fmt"
	"image"
	"io"

	"github.com/BourgeoisBear/rasterm"
	"github.com/andybons/gogif"
	"github.com/pkg/errors"
)

// CanRasTerm reports whether PrintRasTerm can draw on this terminal.
func CanRasTerm() bool {
	if rasterm.IsTermKitty() || rasterm.IsTermItermWez() {
		return true
	}
	capable, err := rasterm.IsSixelCapable()
	return capable && err == nil
}

// PrintRasTerm draws an image using the RasTerm library.
//
// This should enable drawing in Kitty, iTerm and sixel capable terminals.
func PrintRasTerm(w io.Writer, i image.Image) error {
	if rasterm.IsTermKitty() {
		if err := (rasterm.Settings{}).KittyWriteImage(w, i); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n")
		return nil
	}
	if rasterm.IsTermItermWez() {
		if err := (rasterm.Settings{}).ItermWriteImage(w, i); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n")
		return nil
	}
	if capable, err := rasterm.IsSixelCapable(); capable && err == nil {
		if err := (rasterm.Settings{}).SixelWriteImage(w, Paletted(i, 64)); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n")
		return nil
	}
	return errors.New("terminal cannot draw images")
}

// Paletted reduces i to at most n colours for sixel output.
func Paletted(i image.Image, n int) *image.Paletted {
	palettedImage := image.NewPaletted(i.Bounds(), nil)
	quantizer := gogif.MedianCutQuantizer{NumColor: n}
	quantizer.Quantize(palettedImage, i.Bounds(), i, image.Point{})
	return palettedImage
}

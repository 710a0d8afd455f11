package library_test

import (
	"fmt"
	"image/color"

	"badc0de.net/pkg/pixelrender/library"
	"badc0de.net/pkg/pixelrender/palette"
	"badc0de.net/pkg/pixelrender/sprite"
)

func ExampleLibrary_Decode() {
	codec, err := sprite.New(sprite.Options{
		Palette: palette.Palette{{}, color.RGBA{R: 255, A: 255}, color.RGBA{G: 255, A: 255}},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	lib, err := library.New(map[string]interface{}{
		"Goomba": map[string]interface{}{
			"normal":   "0110",
			"Squashed": []interface{}{"same", "Goomba normal"},
		},
		"Underworld": []interface{}{"filter", "Goomba", "Green"},
	}, library.Options{
		Codec: codec,
		Filters: map[string]*sprite.Filter{
			"Green": {Kind: sprite.FilterPalette, Substitutions: map[int]int{1: 2}},
		},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, key := range []string{"Goomba", "Goomba Squashed", "Underworld Squashed"} {
		out, err := lib.Decode(key, sprite.Size{Width: 2})
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(key, []byte(out.(library.Pixels))[4:8])
	}
	// Output:
	// Goomba [255 0 0 255]
	// Goomba Squashed [255 0 0 255]
	// Underworld Squashed [0 255 0 255]
}

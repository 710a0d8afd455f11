package imageprint

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"badc0de.net/pkg/pixelrender/library"
	"badc0de.net/pkg/pixelrender/sprite"
)

// PrintMultiple prints every part of a composite sprite under its name, in
// the order the layout lists them.
func PrintMultiple(w io.Writer, m *library.Multiple, mode Mode, blanks bool) error {
	fmt.Fprintf(w, "%v composite, thickness %+v, middle stretch %v\n", m.Layout, m.Thickness, m.MiddleStretch)
	for _, part := range m.Layout.Parts() {
		img, err := sprite.ToImage(m.Sprites[part], m.Widths[part])
		if err != nil {
			return errors.Wrapf(err, "part %q", part)
		}
		fmt.Fprintf(w, "%s (%dx%d):\n", part, img.Bounds().Dx(), img.Bounds().Dy())
		Print(w, img, mode, blanks)
	}
	return nil
}

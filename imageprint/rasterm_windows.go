package imageprint

import (
	"image"
	"io"

	"github.com/pkg/errors"
)

func CanRasTerm() bool {
	return false
}

func PrintRasTerm(w io.Writer, i image.Image) error {
	return errors.New("rasterm not supported on windows")
}

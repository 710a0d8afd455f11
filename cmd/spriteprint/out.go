package main

import (
	"image"
	"os"

	"github.com/golang/glog"
	"github.com/nfnt/resize"

	"badc0de.net/pkg/pixelrender/imageprint"
)

func mode() imageprint.Mode {
	switch {
	case !*col:
		return imageprint.ModeNoColor
	case *col256:
		return imageprint.Mode256Color
	}
	return imageprint.Mode24bit
}

func out(img image.Image) {
	if *downsize {
		termSize, err := GetTermSize()
		if err == nil {
			if (termSize.WSXPixel != 0 && termSize.WSYPixel != 0) && (*rasterm || *iterm) {
				// Prefer printing out in native size if there's a chance we print out an image rather than pixels.
				img = resize.Thumbnail(termSize.WSXPixel/2, termSize.WSYPixel/2, img, resize.NearestNeighbor)
			} else {
				// Two columns per pixel.
				img = resize.Thumbnail(termSize.WSCol/2, termSize.WSRow, img, resize.NearestNeighbor)
			}
		} else {
			glog.Warningf("not downsizing: %v", err)
		}
	}

	var err error
	switch {
	case *rasterm:
		err = imageprint.PrintRasTerm(os.Stdout, img)
	case *iterm:
		err = imageprint.PrintITerm(os.Stdout, img, "sprite.png")
	default:
		imageprint.Print(os.Stdout, img, mode(), *blanks)
	}
	if err != nil {
		glog.Errorf("printing: %v", err)
	}
}

// Command spriteprint prints a sprite from a settings file on the terminal.
//
//	spriteprint -settings smb.json -key "Goomba flip-horiz" -w 16
package main

import (
	"flag"
	"fmt"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"

	"badc0de.net/pkg/pixelrender"
	"badc0de.net/pkg/pixelrender/datafiles"
	"badc0de.net/pkg/pixelrender/imageprint"
	"badc0de.net/pkg/pixelrender/library"
	"badc0de.net/pkg/pixelrender/paths"
	"badc0de.net/pkg/pixelrender/settings"
)

var (
	key      = flag.String("key", "", "key of the sprite to print")
	width    = flag.Int("w", 0, "width of the sprite, in source pixels")
	height   = flag.Int("h", 0, "height of the sprite, in source pixels")
	col      = flag.Bool("col", true, "whether to use color at all")
	col256   = flag.Bool("col256", false, "whether to use 256 col instead of 24 bit")
	iterm    = flag.Bool("iterm", false, "whether to print with iterm escape code instead of 24 bit")
	rasterm  = flag.Bool("rasterm", false, "whether to print with rasterm (kitty, iterm or sixel) instead of 24 bit")
	blanks   = flag.Bool("blanks", true, "whether to just use colored blanks instead of some bad ascii art")
	downsize = flag.Bool("downsize", false, "whether to shrink the sprite to fit the terminal")
	palette  = flag.Bool("palette", false, "print the palette instead of a sprite")

	settingsPath string
)

func loadSettings() (pixelrender.Settings, error) {
	if settingsPath == "" {
		glog.Warningf("no %s found, using the built in sample", datafiles.SettingsFileName)
		return settings.Parse(datafiles.Settings)
	}
	return settings.Load(settingsPath)
}

func main() {
	paths.SetupFilePathFlag(datafiles.SettingsFileName, "settings", &settingsPath)
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	s, err := loadSettings()
	if err != nil {
		glog.Exitf("loading settings: %v", err)
	}
	pr, err := pixelrender.New(s)
	if err != nil {
		glog.Exitf("creating renderer: %v", err)
	}

	if *palette {
		out(pr.Palette().Image(1))
		return
	}
	if *key == "" {
		glog.Exit("no key given; pass -key")
	}

	attrs := pixelrender.Attributes{Width: *width, Height: *height}
	res, err := pr.Decode(*key, attrs)
	if err != nil {
		glog.Exitf("decoding %q: %v", *key, err)
	}
	if m, ok := res.(*library.Multiple); ok {
		if err := imageprint.PrintMultiple(os.Stdout, m, mode(), *blanks); err != nil {
			glog.Exitf("printing %q: %v", *key, err)
		}
		return
	}
	img, err := pr.Image(*key, attrs)
	if err != nil {
		glog.Exitf("decoding %q: %v", *key, err)
	}
	fmt.Printf("%s (%dx%d)\n", *key, img.Bounds().Dx(), img.Bounds().Dy())
	out(img)
}

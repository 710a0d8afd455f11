// Command spritetool encodes images into sprite strings, decodes sprites
// from a settings file and suggests palettes.
package main

import (
	"flag"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/golang/glog"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
}

func setupLogging(c *cli.Context) error {
	flag.Set("logtostderr", "true")
	if c.Bool("verbose") {
		flag.Set("v", "2")
	}
	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "spritetool"
	app.Usage = "sprite string encoder, decoder and palette suggester"
	app.Version = "1.0.0"

	settingsFlag := &cli.StringFlag{
		Name:    "settings",
		EnvVars: []string{"PIXELRENDER_SETTINGS"},
		Value:   "settings.json",
		Usage:   "settings file, found the way paths.Find finds it",
	}

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}
	app.Before = setupLogging

	app.Commands = []*cli.Command{
		{
			Name:      "encode",
			Usage:     "Encode images into sprite strings using the settings palette",
			ArgsUsage: "FILE...",
			Flags: []cli.Flag{
				settingsFlag,
				&cli.IntFlag{
					Name:  "jobs",
					Value: 4,
					Usage: "how many images to encode at once",
				},
				&cli.StringFlag{
					Name:  "into",
					Usage: "add the sprites to the library, keyed by file name, and write the settings here",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				s, err := loadSettings(c.String("settings"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				encoded, err := encodeFiles(c.Context, s.Palette, c.Args().Slice(), c.Int("jobs"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				if into := c.String("into"); into != "" {
					if err := addToLibrary(&s, encoded, into); err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				}
				for _, e := range encoded {
					fmt.Printf("%s\t%s\n", e.Key, e.Sprite)
				}
				return nil
			},
		},
		{
			Name:      "decode",
			Usage:     "Decode a sprite from the settings library into a PNG",
			ArgsUsage: "KEY",
			Flags: []cli.Flag{
				settingsFlag,
				&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Usage: "width in source pixels"},
				&cli.IntFlag{Name: "height", Usage: "height in source pixels"},
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "PNG file to write; a data URL is printed when empty"},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				s, err := loadSettings(c.String("settings"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				if err := decodeKey(os.Stdout, s, c.Args().First(), c.Int("width"), c.Int("height"), c.String("out")); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			},
		},
		{
			Name:      "palette",
			Usage:     "Suggest a palette for an image and write it as settings",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "colors",
					Value: 16,
					Usage: "palette size, including the transparent entry",
				},
				&cli.StringFlag{
					Name:  "out",
					Usage: "settings file to write; .zst and .lz4 are compressed. Printed when empty",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				if err := suggestPalette(os.Stdout, c.Args().First(), c.Int("colors"), c.String("out")); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			},
		},
	}

	defer glog.Flush()
	if err := app.Run(os.Args); err != nil {
		glog.Exit(err)
	}
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/pixelrender"
	"badc0de.net/pkg/pixelrender/library"
	"badc0de.net/pkg/pixelrender/palette"
	"badc0de.net/pkg/pixelrender/settings"
	"badc0de.net/pkg/pixelrender/sprite"
)

type encodedFile struct {
	Key    string
	Sprite string
}

func loadSettings(path string) (pixelrender.Settings, error) {
	return settings.Load(path)
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", path)
	}
	return img, nil
}

// keyFor names a library entry after an image file.
func keyFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// encodeFiles encodes every file with up to jobs encoders running at once.
// Results are in the order of files.
func encodeFiles(ctx context.Context, pal palette.Palette, files []string, jobs int) ([]encodedFile, error) {
	codec, err := sprite.New(sprite.Options{Palette: pal})
	if err != nil {
		return nil, err
	}
	out := make([]encodedFile, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := decodeImageFile(path)
			if err != nil {
				return err
			}
			s, err := codec.Encode(img)
			if err != nil {
				return errors.Wrapf(err, "encoding %q", path)
			}
			glog.V(2).Infof("encoded %q: %d pixels into %d bytes", path, img.Bounds().Dx()*img.Bounds().Dy(), len(s))
			out[i] = encodedFile{Key: keyFor(path), Sprite: s}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func addToLibrary(s *pixelrender.Settings, encoded []encodedFile, path string) error {
	if s.Library == nil {
		s.Library = make(map[string]interface{})
	}
	for _, e := range encoded {
		s.Library[e.Key] = e.Sprite
	}
	// Make sure the result still parses before writing it out.
	if _, err := pixelrender.New(*s); err != nil {
		return err
	}
	return writeSettings(*s, path)
}

func writeSettings(s pixelrender.Settings, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := settings.Write(f, s, settings.CompressionFor(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func decodeKey(w io.Writer, s pixelrender.Settings, key string, width, height int, out string) error {
	pr, err := pixelrender.New(s)
	if err != nil {
		return err
	}
	attrs := pixelrender.Attributes{Width: width, Height: height}
	res, err := pr.Decode(key, attrs)
	if err != nil {
		return err
	}
	if m, ok := res.(*library.Multiple); ok {
		return describeMultiple(w, m)
	}
	img, err := pr.Image(key, attrs)
	if err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return err
	}
	if out == "" {
		_, err := fmt.Fprintln(w, dataurl.New(buf.Bytes(), "image/png").String())
		return err
	}
	return os.WriteFile(out, buf.Bytes(), 0o644)
}

func describeMultiple(w io.Writer, m *library.Multiple) error {
	fmt.Fprintf(w, "%v composite\n", m.Layout)
	for _, part := range m.Layout.Parts() {
		img, err := sprite.ToImage(m.Sprites[part], m.Widths[part])
		if err != nil {
			return errors.Wrapf(err, "part %q", part)
		}
		buf := &bytes.Buffer{}
		if err := png.Encode(buf, img); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", part, dataurl.New(buf.Bytes(), "image/png").String())
	}
	return nil
}

func suggestPalette(w io.Writer, path string, colors int, out string) error {
	img, err := decodeImageFile(path)
	if err != nil {
		return err
	}
	pal, err := palette.Generate(img, colors)
	if err != nil {
		return err
	}
	s := pixelrender.Settings{Palette: pal}
	if out == "" {
		data, err := settings.Marshal(s)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	return writeSettings(s, out)
}

package settings

import (
	"bytes"
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"badc0de.net/pkg/pixelrender"
	"badc0de.net/pkg/pixelrender/library"
	"badc0de.net/pkg/pixelrender/paths"
	"badc0de.net/pkg/pixelrender/sprite"
)

const smb = `{
	"palette": [[0, 0, 0, 0], [255, 255, 255, 255], [136, 80, 0, 255]],
	"scale": 2,
	"filters": {
		"Underworld": ["palette", {"1": "2"}],
		"Castle": ["palette", {"2": 1}]
	},
	"flipHoriz": "flipped",
	"library": {
		"Block": {"normal": "0220", "Used": ["same", ["Block", "normal"]]},
		"Pipe": ["multiple", "vertical", {"top": "11", "middle": "22", "bottom": "11", "topheight": 1}]
	}
}`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(smb))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 136, G: 80, A: 255}, s.Palette[2])
	assert.Equal(t, 2, s.Scale)
	assert.Equal(t, "flipped", s.FlipHoriz)
	assert.Equal(t, "", s.FlipVert)
	require.Len(t, s.Filters, 2)
	assert.Equal(t, &sprite.Filter{Kind: sprite.FilterPalette, Substitutions: map[int]int{1: 2}}, s.Filters["Underworld"])
	assert.Equal(t, map[int]int{2: 1}, s.Filters["Castle"].Substitutions)
	assert.Contains(t, s.Library, "Block")
}

func TestParsedSettingsDecode(t *testing.T) {
	s, err := Parse([]byte(smb))
	require.NoError(t, err)
	pr, err := pixelrender.New(s)
	require.NoError(t, err)

	res, err := pr.Decode("Pipe", pixelrender.Attributes{Width: 2})
	require.NoError(t, err)
	m := res.(*library.Multiple)
	assert.Equal(t, 1, m.Thickness.Top)
	assert.Len(t, m.Sprites["top"], 2*2*2*4)
}

func TestParseErrors(t *testing.T) {
	for name, src := range map[string]string{
		"not json":         `{`,
		"bad palette":      `{"palette": [[0, 0, 0]]}`,
		"short filter":     `{"palette": [[0, 0, 0, 0]], "filters": {"x": ["palette"]}}`,
		"bad substitution": `{"palette": [[0, 0, 0, 0]], "filters": {"x": ["palette", {"a": "1"}]}}`,
		"bad target":       `{"palette": [[0, 0, 0, 0]], "filters": {"x": ["palette", {"1": "b"}]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, CompressionZstd, CompressionFor("smb.json.zst"))
	assert.Equal(t, CompressionLZ4, CompressionFor("smb.json.lz4"))
	assert.Equal(t, CompressionNone, CompressionFor("smb.json"))
	assert.Equal(t, "zstd", CompressionZstd.String())
}

func TestWriteRead(t *testing.T) {
	orig, err := Parse([]byte(smb))
	require.NoError(t, err)
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, orig, c))
			if c != CompressionNone {
				assert.False(t, json.Valid(buf.Bytes()), "output is compressed")
			}
			got, err := Read(&buf, c)
			require.NoError(t, err)
			assert.Equal(t, orig.Palette, got.Palette)
			assert.Equal(t, orig.Filters, got.Filters)
			assert.Equal(t, orig.Scale, got.Scale)
			assert.Equal(t, orig.FlipHoriz, got.FlipHoriz)

			want, err := json.Marshal(orig.Library)
			require.NoError(t, err)
			have, err := json.Marshal(got.Library)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(have))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(paths.DataEnv, dir)
	s, err := Parse([]byte(smb))
	require.NoError(t, err)

	f, err := os.Create(filepath.Join(dir, "smb.json.zst"))
	require.NoError(t, err)
	require.NoError(t, Write(f, s, CompressionZstd))
	require.NoError(t, f.Close())

	got, err := Load("smb.json.zst")
	require.NoError(t, err)
	assert.Equal(t, s.Palette, got.Palette)

	_, err = Load("missing.json")
	assert.Error(t, err)
}

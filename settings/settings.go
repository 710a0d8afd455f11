// Package settings loads pixelrender.Settings from JSON files:
//
//	{
//	  "palette": [[0, 0, 0, 0], [255, 255, 255, 255]],
//	  "scale": 2,
//	  "filters": {"Underworld": ["palette", {"1": "2"}]},
//	  "flipHoriz": "flip-horiz",
//	  "flipVert": "flip-vert",
//	  "library": {"Block": "0110"}
//	}
//
// Files ending in .zst are zstd compressed, files ending in .lz4 are lz4
// frames.
package settings

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/pixelrender"
	"badc0de.net/pkg/pixelrender/palette"
	"badc0de.net/pkg/pixelrender/paths"
	"badc0de.net/pkg/pixelrender/sprite"
)

type file struct {
	Palette   [][]int                      `json:"palette"`
	Scale     int                          `json:"scale,omitempty"`
	Filters   map[string][]json.RawMessage `json:"filters,omitempty"`
	FlipHoriz string                       `json:"flipHoriz,omitempty"`
	FlipVert  string                       `json:"flipVert,omitempty"`
	Normal    string                       `json:"normal,omitempty"`
	Library   map[string]interface{}       `json:"library"`
}

// Parse decodes uncompressed settings JSON.
func Parse(data []byte) (pixelrender.Settings, error) {
	var f file
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&f); err != nil {
		return pixelrender.Settings{}, errors.Wrap(err, "decoding settings")
	}
	pal, err := palette.FromArrays(f.Palette)
	if err != nil {
		return pixelrender.Settings{}, errors.Wrap(err, "settings palette")
	}
	s := pixelrender.Settings{
		Palette:   pal,
		Scale:     f.Scale,
		FlipHoriz: f.FlipHoriz,
		FlipVert:  f.FlipVert,
		Normal:    f.Normal,
		Library:   f.Library,
	}
	if len(f.Filters) > 0 {
		s.Filters = make(map[string]*sprite.Filter, len(f.Filters))
	}
	for name, raw := range f.Filters {
		filter, err := parseFilter(raw)
		if err != nil {
			return pixelrender.Settings{}, errors.Wrapf(err, "filter %q", name)
		}
		s.Filters[name] = filter
	}
	return s, nil
}

// parseFilter reads ["palette", {"from": "to", ...}]. Indices may be given as
// strings or numbers.
func parseFilter(raw []json.RawMessage) (*sprite.Filter, error) {
	if len(raw) != 2 {
		return nil, errors.Errorf("filter has %d elements, want 2", len(raw))
	}
	f := &sprite.Filter{Substitutions: make(map[int]int)}
	if err := json.Unmarshal(raw[0], &f.Kind); err != nil {
		return nil, errors.Wrap(err, "filter kind")
	}
	var subs map[string]json.RawMessage
	if err := json.Unmarshal(raw[1], &subs); err != nil {
		return nil, errors.Wrap(err, "filter substitutions")
	}
	for from, to := range subs {
		fromIdx, err := strconv.Atoi(from)
		if err != nil {
			return nil, errors.Wrapf(err, "substitution key %q", from)
		}
		toIdx, err := parseIndex(to)
		if err != nil {
			return nil, errors.Wrapf(err, "substitution for %q", from)
		}
		f.Substitutions[fromIdx] = toIdx
	}
	if f.Kind != sprite.FilterPalette {
		glog.Warningf("settings: filter kind %q will be ignored", f.Kind)
	}
	return f, nil
}

func parseIndex(raw json.RawMessage) (int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.Atoi(s)
	}
	var i int
	if err := json.Unmarshal(raw, &i); err != nil {
		return 0, err
	}
	return i, nil
}

// Read decodes settings from r, stored as c.
func Read(r io.Reader, c Compression) (pixelrender.Settings, error) {
	data, err := decompress(r, c)
	if err != nil {
		return pixelrender.Settings{}, errors.Wrapf(err, "reading %v settings", c)
	}
	return Parse(data)
}

// Load finds fileName with paths.Open and reads settings from it, picking
// the compression from its extension.
func Load(fileName string) (pixelrender.Settings, error) {
	f, err := paths.Open(fileName)
	if err != nil {
		return pixelrender.Settings{}, err
	}
	defer f.Close()
	s, err := Read(f, CompressionFor(fileName))
	if err != nil {
		return pixelrender.Settings{}, errors.Wrapf(err, "loading %q", fileName)
	}
	glog.Infof("settings: loaded %q: %d colours, %d filters, %d library entries", fileName, len(s.Palette), len(s.Filters), len(s.Library))
	return s, nil
}

// Marshal encodes s as settings JSON.
func Marshal(s pixelrender.Settings) ([]byte, error) {
	f := file{
		Palette:   s.Palette.Arrays(),
		Scale:     s.Scale,
		FlipHoriz: s.FlipHoriz,
		FlipVert:  s.FlipVert,
		Normal:    s.Normal,
		Library:   s.Library,
	}
	if f.Library == nil {
		f.Library = map[string]interface{}{}
	}
	if len(s.Filters) > 0 {
		f.Filters = make(map[string][]json.RawMessage, len(s.Filters))
	}
	for name, filter := range s.Filters {
		raw, err := marshalFilter(filter)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %q", name)
		}
		f.Filters[name] = raw
	}
	return json.MarshalIndent(f, "", "  ")
}

func marshalFilter(filter *sprite.Filter) ([]json.RawMessage, error) {
	kind, err := json.Marshal(filter.Kind)
	if err != nil {
		return nil, err
	}
	subs := make(map[string]string, len(filter.Substitutions))
	for from, to := range filter.Substitutions {
		subs[strconv.Itoa(from)] = strconv.Itoa(to)
	}
	body, err := json.Marshal(subs)
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{kind, body}, nil
}

// Write encodes s as settings JSON into w, stored as c.
func Write(w io.Writer, s pixelrender.Settings, c Compression) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return errors.Wrapf(compress(w, data, c), "writing %v settings", c)
}

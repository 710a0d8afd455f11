package library

import (
	"sort"

	"github.com/pkg/errors"
)

// CommandKind enumerates the commands a library entry may hold instead of
// a sprite string.
type CommandKind int

const (
	// CommandMultiple assembles a composite sprite out of several parts.
	CommandMultiple CommandKind = iota + 1
	// CommandSame aliases another node or directory.
	CommandSame
	// CommandFilter is another node or directory with a named filter.
	CommandFilter
)

func (k CommandKind) String() string {
	switch k {
	case CommandMultiple:
		return "multiple"
	case CommandSame:
		return "same"
	case CommandFilter:
		return "filter"
	}
	return "unknown"
}

// ParseCommandKind is the inverse of CommandKind.String.
func ParseCommandKind(s string) (CommandKind, error) {
	switch s {
	case "multiple":
		return CommandMultiple, nil
	case "same":
		return CommandSame, nil
	case "filter":
		return CommandFilter, nil
	}
	return 0, errors.Wrapf(ErrUnknownCommand, "%q", s)
}

// Layout is how the parts of a composite sprite are arranged.
type Layout int

const (
	LayoutVertical Layout = iota + 1
	LayoutHorizontal
	LayoutCorners
)

func (l Layout) String() string {
	switch l {
	case LayoutVertical:
		return "vertical"
	case LayoutHorizontal:
		return "horizontal"
	case LayoutCorners:
		return "corners"
	}
	return "unknown"
}

func ParseLayout(s string) (Layout, error) {
	switch s {
	case "vertical":
		return LayoutVertical, nil
	case "horizontal":
		return LayoutHorizontal, nil
	case "corners":
		return LayoutCorners, nil
	}
	return 0, errors.Wrapf(ErrUnknownLayout, "%q", s)
}

// Parts lists the parts a layout needs.
func (l Layout) Parts() []string {
	switch l {
	case LayoutVertical:
		return []string{"top", "middle", "bottom"}
	case LayoutHorizontal:
		return []string{"left", "middle", "right"}
	case LayoutCorners:
		return []string{"topLeft", "top", "topRight", "right", "bottomRight", "bottom", "bottomLeft", "left", "middle"}
	}
	return nil
}

// Thickness holds the optional edge sizes of a composite, in source pixels.
type Thickness struct {
	Top, Right, Bottom, Left int
}

// Command is the parsed form of a command entry.
type Command struct {
	Kind CommandKind

	// Path is the target of same and filter.
	Path []string
	// FilterName names the filter applied by filter.
	FilterName string

	// Layout, Parts, Thickness and MiddleStretch describe a multiple.
	Layout        Layout
	Parts         map[string]string
	Thickness     Thickness
	MiddleStretch bool
}

// missingParts returns the parts the layout needs that the command lacks.
func (c *Command) missingParts() []string {
	var missing []string
	for _, p := range c.Layout.Parts() {
		if _, ok := c.Parts[p]; !ok {
			missing = append(missing, p)
		}
	}
	sort.Strings(missing)
	return missing
}

// Output is the result of decoding a key: either Pixels or *Multiple.
type Output interface {
	output()
}

// Pixels is a decoded RGBA buffer. It is shared with the library's cache
// and must not be modified.
type Pixels []byte

func (Pixels) output() {}

// Multiple is a composite sprite: independently decoded parts, arranged by
// Layout when painted.
type Multiple struct {
	Layout  Layout
	Sprites map[string][]byte
	// Widths holds the row width of each part, in pixels.
	Widths        map[string]int
	Thickness     Thickness
	MiddleStretch bool
}

func (*Multiple) output() {}

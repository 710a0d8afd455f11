package library

import (
	"encoding/json"

	"github.com/pkg/errors"

	"badc0de.net/pkg/pixelrender/filer"
)

// parse adds the directory raw to the arena, recursing into nested
// directories, and returns its index. where is used in error messages.
func (l *Library) parse(raw map[string]interface{}, where string) (int, error) {
	dir := l.addDir()
	for key, v := range raw {
		path := key
		if where != "" {
			path = where + " " + key
		}
		switch v := v.(type) {
		case string:
			l.place(dir, key, l.addNode(newNode(v, nil, nil)))
		case []interface{}:
			cmd, err := parseCommand(v)
			if err != nil {
				return 0, errors.Wrapf(err, "library entry %q", path)
			}
			l.place(dir, key, l.addNode(newNode("", cmd, nil)))
		case map[string]interface{}:
			child, err := l.parse(v, path)
			if err != nil {
				return 0, err
			}
			l.dirs[dir].children[key] = Ref{Kind: RefDir, ID: child}
		default:
			return 0, errors.Errorf("library entry %q: unsupported value of type %T", path, v)
		}
	}
	return dir, nil
}

func parseCommand(raw []interface{}) (*Command, error) {
	if len(raw) < 2 || len(raw) > 3 {
		return nil, errors.Errorf("command has %d elements, want 2 or 3", len(raw))
	}
	name, ok := raw[0].(string)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCommand, "command name is a %T", raw[0])
	}
	kind, err := ParseCommandKind(name)
	if err != nil {
		return nil, err
	}
	cmd := &Command{Kind: kind}
	switch kind {
	case CommandMultiple:
		layout, ok := raw[1].(string)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownLayout, "layout is a %T", raw[1])
		}
		if cmd.Layout, err = ParseLayout(layout); err != nil {
			return nil, err
		}
		if len(raw) != 3 {
			return nil, errors.Wrap(ErrIncompleteComposite, "multiple has no parts")
		}
		parts, ok := raw[2].(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("multiple parts are a %T, want an object", raw[2])
		}
		if err := cmd.parseParts(parts); err != nil {
			return nil, err
		}
	case CommandSame:
		if cmd.Path, err = parsePath(raw[1]); err != nil {
			return nil, err
		}
	case CommandFilter:
		if cmd.Path, err = parsePath(raw[1]); err != nil {
			return nil, err
		}
		if len(raw) != 3 {
			return nil, errors.New("filter command has no filter name")
		}
		if cmd.FilterName, ok = raw[2].(string); !ok {
			return nil, errors.Errorf("filter name is a %T", raw[2])
		}
	default:
		return nil, errors.Wrapf(ErrUnknownCommand, "%v", kind)
	}
	return cmd, nil
}

// parsePath accepts an array of segments or a single separated string.
func parsePath(raw interface{}) ([]string, error) {
	var path []string
	switch v := raw.(type) {
	case string:
		path = filer.Segments(v)
	case []interface{}:
		for _, seg := range v {
			s, ok := seg.(string)
			if !ok {
				return nil, errors.Errorf("path segment is a %T", seg)
			}
			path = append(path, s)
		}
	case []string:
		path = v
	default:
		return nil, errors.Errorf("path is a %T", raw)
	}
	if len(path) == 0 {
		return nil, errors.New("empty path")
	}
	return path, nil
}

func (c *Command) parseParts(raw map[string]interface{}) error {
	c.Parts = make(map[string]string)
	for k, v := range raw {
		var err error
		switch k {
		case "topheight":
			err = setThickness(k, v, &c.Thickness.Top)
		case "rightwidth":
			err = setThickness(k, v, &c.Thickness.Right)
		case "bottomheight":
			err = setThickness(k, v, &c.Thickness.Bottom)
		case "leftwidth":
			err = setThickness(k, v, &c.Thickness.Left)
		case "middleStretch":
			b, ok := v.(bool)
			if !ok {
				err = errors.Errorf("middleStretch is a %T", v)
			}
			c.MiddleStretch = b
		default:
			s, ok := v.(string)
			if !ok {
				err = errors.Errorf("part %q is a %T", k, v)
			}
			c.Parts[k] = s
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func setThickness(name string, raw interface{}, dst *int) error {
	switch v := raw.(type) {
	case float64:
		*dst = int(v)
	case int:
		*dst = v
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return errors.Wrapf(err, "%s", name)
		}
		*dst = int(i)
	default:
		return errors.Errorf("%s is a %T, want a number", name, raw)
	}
	if *dst < 0 {
		return errors.Errorf("%s is negative: %d", name, *dst)
	}
	return nil
}

package library

import (
	"math"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/pixelrender/sprite"
)

// Decode returns the sprite for key at the passed size. Results are cached
// per node and (key, size), so decoding the same request twice returns the
// same Output.
func (l *Library) Decode(key string, size sprite.Size) (Output, error) {
	ref, err := l.filer.Resolve(key)
	if err != nil {
		return nil, err
	}
	return l.decodeNode(NodeID(ref.ID), key, size)
}

func (l *Library) decodeNode(id NodeID, key string, size sprite.Size) (Output, error) {
	n := l.nodes[id]
	req := OutputKey{Key: key, Size: size}
	if out, ok := n.outputs[req]; ok {
		return out, nil
	}
	if n.replacedBy != nil {
		// Reached through a stale cache entry; look the key up again.
		l.filer.Invalidate(key)
		return l.Decode(key, size)
	}
	if n.resolving {
		return nil, errors.Wrapf(ErrCycle, "decoding %q", key)
	}
	n.resolving = true
	defer func() { n.resolving = false }()

	out, err := l.generate(id, key, size)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", key)
	}
	if p, isPixels := out.(Pixels); isPixels && len(p) == 0 {
		return nil, errors.Wrapf(ErrEmptySprite, "decoding %q", key)
	}
	n.outputs[req] = out
	return out, nil
}

func (l *Library) generate(id NodeID, key string, size sprite.Size) (Output, error) {
	n := l.nodes[id]
	if n.Command == nil {
		return l.generateSingle(n, key, size)
	}
	switch n.Command.Kind {
	case CommandMultiple:
		return l.generateMultiple(n, key, size)
	case CommandSame:
		return l.generateSame(id, key, size)
	case CommandFilter:
		return l.generateFilter(id, key, size)
	}
	return nil, errors.Wrapf(ErrUnknownCommand, "%v", n.Command.Kind)
}

// base returns the base decode of a part of n, decoding it on first use.
func (l *Library) base(n *Node, part, source string) ([]byte, error) {
	if b, ok := n.base[part]; ok {
		return b, nil
	}
	b, err := l.codec.DecodeBase(source, n.Filter)
	if err != nil {
		return nil, err
	}
	l.baseDecodes++
	if len(b) == 0 {
		return nil, ErrEmptySprite
	}
	n.base[part] = b
	return b, nil
}

func (l *Library) generateSingle(n *Node, key string, size sprite.Size) (Output, error) {
	b, err := l.base(n, "", n.Source)
	if err != nil {
		return nil, err
	}
	out, err := l.codec.Dimensions(b, key, size)
	if err != nil {
		return nil, err
	}
	return Pixels(out), nil
}

func (l *Library) generateMultiple(n *Node, key string, size sprite.Size) (Output, error) {
	cmd := n.Command
	if missing := cmd.missingParts(); len(missing) > 0 {
		return nil, errors.Wrapf(ErrIncompleteComposite, "%v layout lacks %q", cmd.Layout, missing)
	}
	m := &Multiple{
		Layout:        cmd.Layout,
		Sprites:       make(map[string][]byte, len(cmd.Parts)),
		Widths:        make(map[string]int, len(cmd.Parts)),
		Thickness:     cmd.Thickness,
		MiddleStretch: cmd.MiddleStretch,
	}
	for part, source := range cmd.Parts {
		b, err := l.base(n, part, source)
		if err != nil {
			return nil, errors.Wrapf(err, "part %q", part)
		}
		partSize, err := l.partSize(cmd, part, b, size)
		if err != nil {
			return nil, errors.Wrapf(err, "part %q", part)
		}
		out, err := l.codec.Dimensions(b, key, partSize)
		if err != nil {
			return nil, errors.Wrapf(err, "part %q", part)
		}
		if m.Widths[part], err = l.codec.OutputWidth(out, partSize); err != nil {
			return nil, errors.Wrapf(err, "part %q", part)
		}
		m.Sprites[part] = out
	}
	return m, nil
}

// partSize picks the dimension a composite part is laid out by. Parts
// spanning the sprite share its width (or height, for horizontal layouts);
// edges and corners use the declared thickness, or are taken to be square.
func (l *Library) partSize(cmd *Command, part string, base []byte, size sprite.Size) (sprite.Size, error) {
	switch cmd.Layout {
	case LayoutVertical:
		return sprite.Size{Width: size.Width}, nil
	case LayoutHorizontal:
		return sprite.Size{Height: size.Height}, nil
	case LayoutCorners:
		switch part {
		case "top", "bottom", "middle":
			return sprite.Size{Width: size.Width}, nil
		case "left", "topLeft", "bottomLeft":
			if cmd.Thickness.Left > 0 {
				return sprite.Size{Width: cmd.Thickness.Left}, nil
			}
		case "right", "topRight", "bottomRight":
			if cmd.Thickness.Right > 0 {
				return sprite.Size{Width: cmd.Thickness.Right}, nil
			}
		}
		if part == "left" || part == "right" {
			return sprite.Size{Height: size.Height}, nil
		}
		return l.squareSize(base)
	}
	return sprite.Size{}, errors.Wrapf(ErrUnknownLayout, "%v", cmd.Layout)
}

// squareSize finds the side of a square part from its base decode, which
// holds side*scale by side pixels.
func (l *Library) squareSize(base []byte) (sprite.Size, error) {
	pixels := len(base) / 4 / l.codec.Scale()
	side := int(math.Sqrt(float64(pixels)) + 0.5)
	if side*side != pixels {
		return sprite.Size{}, errors.Wrapf(sprite.ErrDimensions, "%d pixels do not form a square", pixels)
	}
	return sprite.Size{Width: side}, nil
}

func (l *Library) generateSame(id NodeID, key string, size sprite.Size) (Output, error) {
	cmd := l.nodes[id].Command
	target, err := l.Lookup(cmd.Path...)
	if err != nil {
		return nil, err
	}
	if target == (Ref{Kind: RefNode, ID: int(id)}) {
		return nil, errors.Wrapf(ErrCycle, "%q refers to itself", cmd.Path)
	}
	if err := l.replace(id, target); err != nil {
		return nil, err
	}
	l.filer.Invalidate(key)
	return l.Decode(key, size)
}

func (l *Library) generateFilter(id NodeID, key string, size sprite.Size) (Output, error) {
	cmd := l.nodes[id].Command
	f, ok := l.filters[cmd.FilterName]
	if !ok {
		glog.Warningf("library: unknown filter %q for %q, using the unfiltered target", cmd.FilterName, key)
	}
	target, err := l.Lookup(cmd.Path...)
	if err != nil {
		return nil, err
	}
	if target, err = l.settle(target); err != nil {
		return nil, err
	}
	if target == (Ref{Kind: RefNode, ID: int(id)}) {
		return nil, errors.Wrapf(ErrCycle, "%q refers to itself", cmd.Path)
	}

	var filtered Ref
	if target.Kind == RefNode {
		filtered = Ref{Kind: RefNode, ID: int(l.addNode(l.filteredCopy(l.nodes[target.ID], f)))}
	} else {
		dir, err := l.filterDir(target.ID, f, make(map[int]bool))
		if err != nil {
			return nil, err
		}
		filtered = Ref{Kind: RefDir, ID: dir}
	}
	if err := l.replace(id, filtered); err != nil {
		return nil, err
	}
	l.filer.Invalidate(key)
	return l.Decode(key, size)
}

// settle follows unresolved same commands without rewriting the tree, so a
// filter copies the sprite an alias stands for rather than the alias.
func (l *Library) settle(r Ref) (Ref, error) {
	seen := make(map[int]bool)
	for r.Kind == RefNode {
		n := l.nodes[r.ID]
		if n.Command == nil || n.Command.Kind != CommandSame {
			break
		}
		if seen[r.ID] {
			return Ref{}, errors.Wrapf(ErrCycle, "alias %q", n.Command.Path)
		}
		seen[r.ID] = true
		next, err := l.Lookup(n.Command.Path...)
		if err != nil {
			return Ref{}, err
		}
		r = next
	}
	return r, nil
}

func (l *Library) filteredCopy(n *Node, f *sprite.Filter) *Node {
	return newNode(n.Source, n.Command, f)
}

// filterDir builds a copy of directory dir in which every node carries f.
// Aliases inside dir are followed, so the copy holds filtered versions of
// what they stand for.
func (l *Library) filterDir(dir int, f *sprite.Filter, visiting map[int]bool) (int, error) {
	if visiting[dir] {
		return 0, errors.Wrap(ErrCycle, "filtered directory contains itself")
	}
	visiting[dir] = true
	defer delete(visiting, dir)

	out := l.addDir()
	for key, child := range l.dirs[dir].children {
		child, err := l.settle(child)
		if err != nil {
			return 0, errors.Wrapf(err, "filtering %q", key)
		}
		switch child.Kind {
		case RefNode:
			l.place(out, key, l.addNode(l.filteredCopy(l.nodes[child.ID], f)))
		case RefDir:
			sub, err := l.filterDir(child.ID, f, visiting)
			if err != nil {
				return 0, err
			}
			l.dirs[out].children[key] = Ref{Kind: RefDir, ID: sub}
		}
	}
	return out, nil
}

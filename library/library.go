package library

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/pixelrender/filer"
	"badc0de.net/pkg/pixelrender/sprite"
)

var (
	// ErrNotFound is returned when a key or path leads nowhere.
	ErrNotFound = filer.ErrNotFound
	// ErrEmptySprite is returned when decoding produced no pixels.
	ErrEmptySprite = errors.New("decoded sprite is empty")
	// ErrCycle is returned when same or filter commands refer back to
	// themselves.
	ErrCycle = errors.New("cyclic sprite reference")
	// ErrIncompleteComposite is returned when a multiple command lacks a
	// part its layout needs.
	ErrIncompleteComposite = errors.New("composite sprite is missing parts")
	// ErrUnknownCommand is returned for commands other than multiple, same
	// and filter.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownLayout is returned for composite layouts other than
	// vertical, horizontal and corners.
	ErrUnknownLayout = errors.New("unknown composite layout")
)

type RefKind uint8

const (
	RefNone RefKind = iota
	RefNode
	RefDir
)

// Ref points at either a node or a directory in the arena.
type Ref struct {
	Kind RefKind
	ID   int
}

// NodeID indexes the node arena.
type NodeID int

// Slot is a place in a directory that holds a node.
type Slot struct {
	Dir int
	Key string
}

type directory struct {
	children map[string]Ref
}

// OutputKey identifies one decode request against a node.
type OutputKey struct {
	Key  string
	Size sprite.Size
}

// Node is a render node: a raw sprite string or a command, plus the outputs
// computed from it so far.
type Node struct {
	Source  string
	Command *Command
	Filter  *sprite.Filter

	// base holds the result of the base decode per composite part; plain
	// sprites use the empty part name.
	base       map[string][]byte
	outputs    map[OutputKey]Output
	replacedBy *Ref
	resolving  bool
}

func newNode(source string, cmd *Command, f *sprite.Filter) *Node {
	return &Node{
		Source:  source,
		Command: cmd,
		Filter:  f,
		base:    make(map[string][]byte),
		outputs: make(map[OutputKey]Output),
	}
}

// Options configures a Library.
type Options struct {
	Codec *sprite.Codec
	// Filters are the named filters filter commands may refer to.
	Filters map[string]*sprite.Filter
	// Normal is the child followed by key lookups when no key segment
	// matches. Empty means filer.DefaultNormal.
	Normal string
}

// Library is the sprite definition tree with its decode cache.
type Library struct {
	codec   *sprite.Codec
	filters map[string]*sprite.Filter

	nodes    []*Node
	dirs     []*directory
	backrefs map[NodeID][]Slot
	root     int

	filer       *filer.Filer[Ref]
	baseDecodes int
}

// New parses raw into a Library. raw is the declarative tree as decoded
// from JSON: strings are sprites, 2 or 3 element arrays are commands and
// objects are directories.
func New(raw map[string]interface{}, o Options) (*Library, error) {
	if o.Codec == nil {
		return nil, errors.New("library: a codec is required")
	}
	normal := o.Normal
	if normal == "" {
		normal = filer.DefaultNormal
	}
	l := &Library{
		codec:   o.Codec,
		filters: o.Filters,
	}
	l.filer = filer.New[Ref](l, normal)
	if err := l.Reset(raw); err != nil {
		return nil, err
	}
	return l, nil
}

// Reset discards the current tree, along with everything decoded from it,
// and parses raw in its place.
func (l *Library) Reset(raw map[string]interface{}) error {
	l.nodes = nil
	l.dirs = nil
	l.backrefs = make(map[NodeID][]Slot)
	root, err := l.parse(raw, "")
	if err != nil {
		return err
	}
	l.root = root
	l.filer.Reset()
	glog.Infof("library: parsed %d nodes in %d directories", len(l.nodes), len(l.dirs))
	return nil
}

// Root implements filer.Source.
func (l *Library) Root() Ref {
	return Ref{Kind: RefDir, ID: l.root}
}

// Child implements filer.Source.
func (l *Library) Child(parent Ref, name string) (Ref, bool) {
	if parent.Kind != RefDir {
		return Ref{}, false
	}
	r, ok := l.dirs[parent.ID].children[name]
	return r, ok
}

// IsLeaf implements filer.Source.
func (l *Library) IsLeaf(r Ref) bool {
	return r.Kind == RefNode
}

// Node returns the node with the passed id.
func (l *Library) Node(id NodeID) *Node {
	return l.nodes[id]
}

// Backrefs returns the slots currently holding the node.
func (l *Library) Backrefs(id NodeID) []Slot {
	return append([]Slot(nil), l.backrefs[id]...)
}

// BaseDecodes reports how many times a sprite string went through the base
// decode since the library was created.
func (l *Library) BaseDecodes() int {
	return l.baseDecodes
}

// Lookup follows path from the root exactly, segment by segment.
func (l *Library) Lookup(path ...string) (Ref, error) {
	cur := l.Root()
	for i, seg := range path {
		next, ok := l.Child(cur, seg)
		if !ok {
			return Ref{}, errors.Wrapf(ErrNotFound, "path %q stops at %q", path, path[:i])
		}
		cur = next
	}
	return cur, nil
}

func (l *Library) addDir() int {
	l.dirs = append(l.dirs, &directory{children: make(map[string]Ref)})
	return len(l.dirs) - 1
}

func (l *Library) addNode(n *Node) NodeID {
	l.nodes = append(l.nodes, n)
	return NodeID(len(l.nodes) - 1)
}

// place stores node id under key in dir and records the back-reference.
func (l *Library) place(dir int, key string, id NodeID) {
	l.dirs[dir].children[key] = Ref{Kind: RefNode, ID: int(id)}
	l.backrefs[id] = append(l.backrefs[id], Slot{Dir: dir, Key: key})
}

// reaches reports whether dir to is reachable from dir from.
func (l *Library) reaches(from, to int) bool {
	seen := make(map[int]bool)
	stack := []int{from}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if d == to {
			return true
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		for _, c := range l.dirs[d].children {
			if c.Kind == RefDir {
				stack = append(stack, c.ID)
			}
		}
	}
	return false
}

// replace puts with into every slot holding node id. The node keeps its
// outputs but is no longer reachable from the root.
func (l *Library) replace(id NodeID, with Ref) error {
	slots := l.backrefs[id]
	if with.Kind == RefDir {
		for _, s := range slots {
			if l.reaches(with.ID, s.Dir) {
				return errors.Wrapf(ErrCycle, "directory would contain itself at %q", s.Key)
			}
		}
	}
	for _, s := range slots {
		l.dirs[s.Dir].children[s.Key] = with
		if with.Kind == RefNode {
			l.backrefs[NodeID(with.ID)] = append(l.backrefs[NodeID(with.ID)], s)
		}
	}
	delete(l.backrefs, id)
	l.nodes[id].replacedBy = &with
	glog.V(2).Infof("library: node %d replaced in %d slots", id, len(slots))
	return nil
}

// CheckBackrefs verifies that every slot holding a node is listed among the
// node's back-references and vice versa.
func (l *Library) CheckBackrefs() error {
	found := make(map[NodeID]map[Slot]bool)
	for d, dir := range l.dirs {
		for k, r := range dir.children {
			if r.Kind != RefNode {
				continue
			}
			id := NodeID(r.ID)
			if found[id] == nil {
				found[id] = make(map[Slot]bool)
			}
			found[id][Slot{Dir: d, Key: k}] = true
		}
	}
	for id, slots := range l.backrefs {
		if len(slots) != len(found[id]) {
			return errors.Errorf("node %d lists %d slots, is held by %d", id, len(slots), len(found[id]))
		}
		for _, s := range slots {
			if !found[id][s] {
				return errors.Errorf("node %d lists slot %v it is not in", id, s)
			}
		}
	}
	for id := range found {
		if _, ok := l.backrefs[id]; !ok {
			return errors.Errorf("node %d is held without back-references", id)
		}
	}
	return nil
}

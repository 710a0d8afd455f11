// Package filer resolves space or dot separated keys against a tree and
// caches the result per key until the key is invalidated.
//
// Key segments match children regardless of their order: "goomba flip-horiz
// small" finds the leaf under goomba/small, ignoring segments that name no
// child. When no segment matches at some level, a child called Normal is
// followed instead, if one exists.
package filer

import (
	"strings"
	"unicode"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a key does not lead to a leaf.
var ErrNotFound = errors.New("no leaf found")

// DefaultNormal is the child followed when no key segment matches.
const DefaultNormal = "normal"

// Source is the tree a Filer resolves keys against.
type Source[T comparable] interface {
	Root() T
	Child(parent T, name string) (T, bool)
	IsLeaf(T) bool
}

// Filer caches key resolutions over a Source.
type Filer[T comparable] struct {
	source Source[T]
	normal string
	cache  map[string]T
}

// New creates a Filer over source. An empty normal disables the fallback.
func New[T comparable](source Source[T], normal string) *Filer[T] {
	return &Filer[T]{
		source: source,
		normal: normal,
		cache:  make(map[string]T),
	}
}

// Segments splits a key into its path segments.
func Segments(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})
}

func normalize(key string) string {
	return strings.Join(Segments(key), " ")
}

// Resolve returns the leaf key leads to. Resolving a key again returns the
// same leaf until Invalidate or Reset is called.
func (f *Filer[T]) Resolve(key string) (T, error) {
	norm := normalize(key)
	if v, ok := f.cache[norm]; ok {
		return v, nil
	}
	v := f.follow(Segments(key), f.source.Root())
	if !f.source.IsLeaf(v) {
		var zero T
		return zero, errors.Wrapf(ErrNotFound, "key %q", key)
	}
	glog.V(2).Infof("filer: resolved %q", norm)
	f.cache[norm] = v
	return v, nil
}

func (f *Filer[T]) follow(segments []string, current T) T {
	if f.source.IsLeaf(current) {
		return current
	}
	for i, seg := range segments {
		if child, ok := f.source.Child(current, seg); ok {
			rest := make([]string, 0, len(segments)-1)
			rest = append(rest, segments[:i]...)
			rest = append(rest, segments[i+1:]...)
			return f.follow(rest, child)
		}
	}
	if f.normal != "" {
		if child, ok := f.source.Child(current, f.normal); ok {
			return f.follow(segments, child)
		}
	}
	return current
}

// Invalidate drops the cached resolution of key, so the next Resolve walks
// the tree from its root again.
func (f *Filer[T]) Invalidate(key string) {
	delete(f.cache, normalize(key))
}

// Reset drops every cached resolution.
func (f *Filer[T]) Reset() {
	f.cache = make(map[string]T)
}

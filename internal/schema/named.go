// Package schema holds the in-memory metadata graph produced by a crawl:
// catalogs, schemas, tables, columns, keys, indexes, procedures and the
// relationships between them.
//
// Every object is identified by its name together with the names of its
// owners. The dotted form of that chain is the full name, which is also the
// key used by the ordered collections in this package.
package schema

import (
	"hash/fnv"
	"slices"
	"strings"
)

// NamedObject is implemented by every object in the metadata graph.
type NamedObject interface {
	// Name returns the simple name, which may be empty.
	Name() string
	// FullName returns the dotted path from the root owner.
	FullName() string
	// Parent returns the owning object, or nil for a root object.
	Parent() NamedObject
}

// FullName computes the dotted name of an object from its owner chain.
// Empty segments are omitted.
func FullName(n NamedObject) string {
	return joinName(segments(n)...)
}

// Equal reports whether two objects have the same name and equal owners.
func Equal(a, b NamedObject) bool {
	for {
		if a == nil || b == nil {
			return a == nil && b == nil
		}
		if a.Name() != b.Name() {
			return false
		}
		a, b = a.Parent(), b.Parent()
	}
}

// Hash returns a hash consistent with Equal.
func Hash(n NamedObject) uint64 {
	h := fnv.New64a()
	for cur := n; cur != nil; cur = cur.Parent() {
		h.Write([]byte(cur.Name()))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func segments(n NamedObject) []string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent() {
		if name := cur.Name(); name != "" {
			parts = append(parts, name)
		}
	}
	slices.Reverse(parts)
	return parts
}

func joinName(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

// namedObject carries the state shared by all graph objects.
type namedObject struct {
	name string
	// Remarks holds the comment recorded in the database, if any.
	Remarks string
	// Attributes holds driver specific or additional attributes.
	Attributes Attributes
}

// Name returns the simple name.
func (n *namedObject) Name() string {
	return n.name
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

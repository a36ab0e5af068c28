package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Order selects how a collection is materialized.
type Order int

const (
	// Natural uses the ordering that makes sense for each kind of object,
	// such as ordinal position for columns.
	Natural Order = iota
	// Alphabetical compares full names without regard to case.
	Alphabetical
)

// String returns the order name.
func (o Order) String() string {
	switch o {
	case Natural:
		return "natural"
	case Alphabetical:
		return "alphabetical"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// naturalOrdering is implemented by objects with a domain specific order.
// It returns 0 when the objects are not ordered relative to each other,
// leaving the tie to the full name.
type naturalOrdering interface {
	compareNatural(other NamedObject) int
}

// Compare orders two objects. Objects that compare equal under the selected
// order are ordered by full name, so the result is a total order.
func Compare(order Order, a, b NamedObject) int {
	switch order {
	case Alphabetical:
		if c := strings.Compare(strings.ToLower(a.FullName()), strings.ToLower(b.FullName())); c != 0 {
			return c
		}
	default:
		if n, ok := a.(naturalOrdering); ok {
			if c := n.compareNatural(b); c != 0 {
				return c
			}
		}
	}
	return strings.Compare(a.FullName(), b.FullName())
}

// Sort returns a sorted copy of items.
func Sort[T NamedObject](items []T, order Order) []T {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return Compare(order, a, b)
	})
	return sorted
}

// compareSignatures orders two column lists element by element, then by
// length.
func compareSignatures(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

package core

import (
	"fmt"
	"strings"
)

// ConflictError is returned when a delta would both add and remove the same elements.
type ConflictError struct {
	Keys []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("delta adds and removes the same elements: %s", strings.Join(e.Keys, "; "))
}

// SetDelta is an added/removed pair over a set. The two sides are always disjoint.
// The zero value is the empty delta.
type SetDelta[T Keyed] struct {
	added   Set[T]
	removed Set[T]
}

// NewSetDelta builds a delta, failing with *ConflictError when added and removed intersect.
func NewSetDelta[T Keyed](added, removed Set[T]) (SetDelta[T], error) {
	if both := added.Intersection(removed); len(both) > 0 {
		keys := make([]string, 0, len(both))
		for _, it := range both.Items() {
			keys = append(keys, it.Key())
		}
		return SetDelta[T]{}, &ConflictError{Keys: keys}
	}
	return SetDelta[T]{added: added.Clone(), removed: removed.Clone()}, nil
}

// MustSetDelta is like NewSetDelta but panics on conflict.
func MustSetDelta[T Keyed](added, removed Set[T]) SetDelta[T] {
	d, err := NewSetDelta(added, removed)
	if err != nil {
		panic(err)
	}
	return d
}

// Adding returns a delta that only adds items.
func Adding[T Keyed](items ...T) SetDelta[T] {
	return SetDelta[T]{added: NewSet(items...), removed: NewSet[T]()}
}

// Removing returns a delta that only removes items.
func Removing[T Keyed](items ...T) SetDelta[T] {
	return SetDelta[T]{added: NewSet[T](), removed: NewSet(items...)}
}

// Added returns a copy of the added side.
func (d SetDelta[T]) Added() Set[T] { return d.added.Clone() }

// Removed returns a copy of the removed side.
func (d SetDelta[T]) Removed() Set[T] { return d.removed.Clone() }

// IsAdded reports whether item is on the added side.
func (d SetDelta[T]) IsAdded(item T) bool { return d.added.Contains(item) }

// IsRemoved reports whether item is on the removed side.
func (d SetDelta[T]) IsRemoved(item T) bool { return d.removed.Contains(item) }

// IsEmpty reports whether the delta changes nothing.
func (d SetDelta[T]) IsEmpty() bool { return len(d.added) == 0 && len(d.removed) == 0 }

// Merge composes d then other. It is not commutative:
//
//	added'   = (added − other.removed) ∪ other.added
//	removed' = (removed − other.added) ∪ other.removed
func (d SetDelta[T]) Merge(other SetDelta[T]) SetDelta[T] {
	return SetDelta[T]{
		added:   d.added.Difference(other.removed).Union(other.added),
		removed: d.removed.Difference(other.added).Union(other.removed),
	}
}

// Plus returns d with items moved to the added side.
func (d SetDelta[T]) Plus(items ...T) SetDelta[T] {
	return d.Merge(Adding(items...))
}

// Minus returns d with items moved to the removed side.
func (d SetDelta[T]) Minus(items ...T) SetDelta[T] {
	return d.Merge(Removing(items...))
}

// Apply returns set ∪ added − removed, leaving set untouched.
func (d SetDelta[T]) Apply(set Set[T]) Set[T] {
	return set.Union(d.added).Difference(d.removed)
}

// ApplyTo mutates set in place and reports whether it changed.
func (d SetDelta[T]) ApplyTo(set Set[T]) bool {
	added := set.Add(d.added.Items()...)
	removed := set.Remove(d.removed.Items()...)
	return added || removed
}

// Equal reports whether both deltas add and remove the same elements.
func (d SetDelta[T]) Equal(o SetDelta[T]) bool {
	return d.added.Equal(o.added) && d.removed.Equal(o.removed)
}

// String renders the delta as "+a +b -c".
func (d SetDelta[T]) String() string {
	var parts []string
	for _, it := range d.added.Items() {
		parts = append(parts, "+"+it.Key())
	}
	for _, it := range d.removed.Items() {
		parts = append(parts, "-"+it.Key())
	}
	return strings.Join(parts, " ")
}

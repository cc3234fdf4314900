package core

import (
	"sort"
	"strings"
)

// Keyed is implemented by values stored in a Set. Two values with the same key
// are the same element.
type Keyed interface {
	Key() string
}

// Set is an unordered collection of Keyed values indexed by key.
// The zero value is an empty, read-only set; use NewSet before calling Add.
type Set[T Keyed] map[string]T

// NewSet builds a set holding items.
func NewSet[T Keyed](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, it := range items {
		s[it.Key()] = it
	}
	return s
}

// Add inserts items and reports whether the set grew.
func (s Set[T]) Add(items ...T) bool {
	changed := false
	for _, it := range items {
		k := it.Key()
		if _, ok := s[k]; !ok {
			s[k] = it
			changed = true
		}
	}
	return changed
}

// Remove deletes items and reports whether the set shrank.
func (s Set[T]) Remove(items ...T) bool {
	changed := false
	for _, it := range items {
		k := it.Key()
		if _, ok := s[k]; ok {
			delete(s, k)
			changed = true
		}
	}
	return changed
}

// Contains reports whether item is a member.
func (s Set[T]) Contains(item T) bool {
	_, ok := s[item.Key()]
	return ok
}

// Len returns the number of elements.
func (s Set[T]) Len() int { return len(s) }

// Clone returns an independent copy. Cloning a nil set yields an empty set.
func (s Set[T]) Clone() Set[T] {
	out := make(Set[T], len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Union returns s ∪ o.
func (s Set[T]) Union(o Set[T]) Set[T] {
	out := s.Clone()
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Difference returns s − o.
func (s Set[T]) Difference(o Set[T]) Set[T] {
	out := make(Set[T], len(s))
	for k, v := range s {
		if _, ok := o[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// Intersection returns s ∩ o.
func (s Set[T]) Intersection(o Set[T]) Set[T] {
	out := make(Set[T])
	for k, v := range s {
		if _, ok := o[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Equal reports whether both sets hold the same keys.
func (s Set[T]) Equal(o Set[T]) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if _, ok := o[k]; !ok {
			return false
		}
	}
	return true
}

// Items returns the elements sorted by key.
func (s Set[T]) Items() []T {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, s[k])
	}
	return out
}

// Filter returns the elements for which keep returns true.
func (s Set[T]) Filter(keep func(T) bool) Set[T] {
	out := make(Set[T])
	for k, v := range s {
		if keep(v) {
			out[k] = v
		}
	}
	return out
}

// String joins the sorted keys with ", ".
func (s Set[T]) String() string {
	items := s.Items()
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Key()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

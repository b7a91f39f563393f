package utils

import (
	"cmp"
	"slices"
)

// Set is a set
type Set[T comparable] map[T]struct{}

// Add adds an item to the set
func (s Set[T]) Add(item T) {
	s[item] = struct{}{}
}

// Remove removes an item from the set
func (s Set[T]) Remove(item T) {
	delete(s, item)
}

// Contains returns true if the set contains the item
func (s Set[T]) Contains(item T) bool {
	_, ok := s[item]
	return ok
}

// Len returns the number of items in the set
func (s Set[T]) Len() int {
	return len(s)
}

// AddIfNotExists adds an item to the set if it does not already exist
func (s Set[T]) AddIfNotExists(item T) bool {
	if s.Contains(item) {
		return false
	}
	s.Add(item)
	return true
}

// Intersects returns true if the two sets share at least one item.
func (s Set[T]) Intersects(other Set[T]) bool {
	small, big := s, other
	if len(small) > len(big) {
		small, big = big, small
	}
	for item := range small {
		if big.Contains(item) {
			return true
		}
	}
	return false
}

// ToSlice converts the set to a slice
func (s Set[T]) ToSlice() []T {
	ret := make([]T, 0, len(s))
	for item := range s {
		ret = append(ret, item)
	}
	return ret
}

// Equal check two set equal
func (s Set[T]) Equal(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for item := range s {
		if _, ok := other[item]; !ok {
			return false
		}
	}
	return true
}

// NewSet creates a new Set
func NewSet[T comparable](elems ...T) Set[T] {
	s := make(Set[T], len(elems))
	for _, elem := range elems {
		s.Add(elem)
	}
	return s
}

// SortedSlice returns the items of an ordered set in ascending order.
func SortedSlice[T cmp.Ordered](s Set[T]) []T {
	ret := s.ToSlice()
	slices.Sort(ret)
	return ret
}

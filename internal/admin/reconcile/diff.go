// Package reconcile computes the delta between a current and a desired
// collection so callers can apply only additions and removals.
package reconcile

import (
	"slices"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
)

// Equal reports whether two items denote the same element.
type Equal[T any] func(a, b T) bool

// Diff returns the items of desired missing from current (toAdd) and the
// items of current missing from desired (toRemove). Neither input is mutated
// and output order is not significant. Duplicates in desired are kept.
func Diff[T any](current, desired []T, eq Equal[T]) (toAdd, toRemove []T) {
	if len(current) == 0 {
		return slices.Clone(desired), nil
	}

	for _, d := range desired {
		if !slices.ContainsFunc(current, func(c T) bool { return eq(d, c) }) {
			toAdd = append(toAdd, d)
		}
	}
	for _, c := range current {
		if !slices.ContainsFunc(desired, func(d T) bool { return eq(c, d) }) {
			toRemove = append(toRemove, c)
		}
	}
	return toAdd, toRemove
}

// Apply removes toRemove from current and appends toAdd, returning a new slice.
func Apply[T any](current, toAdd, toRemove []T, eq Equal[T]) []T {
	out := make([]T, 0, len(current)+len(toAdd))
	for _, c := range current {
		if !slices.ContainsFunc(toRemove, func(r T) bool { return eq(c, r) }) {
			out = append(out, c)
		}
	}
	return append(out, toAdd...)
}

// ByKey builds an equality from a key projection.
func ByKey[T any, K comparable](key func(T) K) Equal[T] {
	return func(a, b T) bool { return key(a) == key(b) }
}

// Strings compares plain strings, e.g. claim types or role ids.
func Strings(a, b string) bool { return a == b }

// Claims compares claims structurally on type and value.
func Claims(a, b domain.Claim) bool { return a.Type == b.Type && a.Value == b.Value }

// PropertyKeys compares properties by key only.
func PropertyKeys(a, b domain.Property) bool { return a.Key == b.Key }

// Properties compares properties on key and value.
func Properties(a, b domain.Property) bool { return a == b }

// Duplicates returns every item equal to an earlier item of items.
func Duplicates[T any](items []T, eq Equal[T]) []T {
	var dups []T
	for i, it := range items {
		if slices.ContainsFunc(items[:i], func(prev T) bool { return eq(prev, it) }) {
			dups = append(dups, it)
		}
	}
	return dups
}

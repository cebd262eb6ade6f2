package endpoint

import (
	"slices"

	"github.com/teranos/classdb/errors"
)

// SortByDependencies orders descriptors so that each one comes after every
// descriptor whose criterion it depends on.
//
// Dependencies on criteria that no descriptor provides are ignored.
// Among descriptors that are ready at the same time, input order is kept.
// Depending on one's own criterion orders a descriptor after the other
// descriptors of that criterion. A cycle yields an error wrapping
// errors.ErrCycleDetected and no ordering at all. The input is not modified.
func SortByDependencies(descriptors []Descriptor) ([]Descriptor, error) {
	n := len(descriptors)
	if n == 0 {
		return []Descriptor{}, nil
	}

	// providers[c] lists the positions of descriptors indexing criterion c
	providers := make(map[string][]int, n)
	for i, d := range descriptors {
		providers[d.Criterion] = append(providers[d.Criterion], i)
	}

	// dependents[i] lists the positions that must wait for i
	dependents := make([][]int, n)
	pending := make([]int, n)
	for i, d := range descriptors {
		seen := make(map[int]bool)
		for _, dep := range d.Depends {
			for _, p := range providers[dep] {
				if p == i || seen[p] {
					continue
				}
				seen[p] = true
				dependents[p] = append(dependents[p], i)
				pending[i]++
			}
		}
	}

	done := make([]bool, n)
	ordered := make([]Descriptor, 0, n)
	for len(ordered) < n {
		next := -1
		for i := range descriptors {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, errors.Wrapf(errors.ErrCycleDetected,
				"criteria %v cannot be ordered", unresolved(descriptors, done))
		}

		done[next] = true
		ordered = append(ordered, descriptors[next])
		for _, dependent := range dependents[next] {
			pending[dependent]--
		}
	}

	return ordered, nil
}

func unresolved(descriptors []Descriptor, done []bool) []string {
	var criteria []string
	for i, d := range descriptors {
		if !done[i] && !slices.Contains(criteria, d.Criterion) {
			criteria = append(criteria, d.Criterion)
		}
	}
	return criteria
}

// Package endpoint describes the classifier/criterion pairs run during
// indexing and orders them so every criterion is indexed before the
// endpoints that depend on it.
package endpoint

import (
	"fmt"
	"slices"
	"strings"
)

// Descriptor says: run Classifier against Criterion, after every criterion
// in Depends has been indexed for the same item.
// Descriptors are built once from configuration and never mutated.
type Descriptor struct {
	Classifier string
	Criterion  string
	Depends    []string
	Binary     bool
}

// New builds a descriptor, copying depends so the caller's slice stays its own.
func New(classifier, criterion string, depends []string, binary bool) Descriptor {
	return Descriptor{
		Classifier: classifier,
		Criterion:  criterion,
		Depends:    slices.Clone(depends),
		Binary:     binary,
	}
}

// DependsOn reports whether criterion must be indexed before d runs.
func (d Descriptor) DependsOn(criterion string) bool {
	return slices.Contains(d.Depends, criterion)
}

// dependencySet returns the sorted, de-duplicated dependencies.
func (d Descriptor) dependencySet() []string {
	deps := slices.Clone(d.Depends)
	slices.Sort(deps)
	return slices.Compact(deps)
}

// Equal compares all four fields, treating Depends as a set.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.Classifier == o.Classifier &&
		d.Criterion == o.Criterion &&
		d.Binary == o.Binary &&
		slices.Equal(d.dependencySet(), o.dependencySet())
}

// Key is a canonical string for d, equal for descriptors that are Equal.
// Use it where a descriptor must key a map.
func (d Descriptor) Key() string {
	return fmt.Sprintf("%q/%q/%q/%t", d.Classifier, d.Criterion, d.dependencySet(), d.Binary)
}

func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteString(d.Classifier)
	b.WriteByte('/')
	b.WriteString(d.Criterion)
	if len(d.Depends) > 0 {
		b.WriteString(" after [")
		b.WriteString(strings.Join(d.Depends, ","))
		b.WriteByte(']')
	}
	if d.Binary {
		b.WriteString(" (binary)")
	}
	return b.String()
}

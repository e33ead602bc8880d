// Package catalog indexes the stage catalog fetched from the backend.
//
// An Index is immutable, a new catalog fetch builds a new Index.
package catalog

import (
	"fmt"
	"slices"

	"github.com/slok/deployboard/internal/model"
)

// Meta is the display information of a stage.
type Meta struct {
	Name  string
	Label string
	// Order is nil when the stage is not in the catalog.
	Order *int
}

// Index is a lookup of stages by name with their display order.
type Index struct {
	stages []model.StageDefinition
	byName map[string]int
}

// NewIndex returns a new index for the catalog, stages are sorted by their order.
// Duplicated names keep the first definition.
func NewIndex(stages []model.StageDefinition) *Index {
	idx := &Index{
		stages: make([]model.StageDefinition, 0, len(stages)),
		byName: make(map[string]int, len(stages)),
	}

	seen := map[string]struct{}{}
	for _, s := range stages {
		if s.Name == "" {
			continue
		}
		if _, ok := seen[s.Name]; ok {
			continue
		}
		seen[s.Name] = struct{}{}
		idx.stages = append(idx.stages, s)
	}

	slices.SortStableFunc(idx.stages, func(a, b model.StageDefinition) int {
		return a.Order - b.Order
	})

	for i, s := range idx.stages {
		idx.byName[s.Name] = i
	}

	return idx
}

// Stages returns the catalog stages in display order.
func (i *Index) Stages() []model.StageDefinition {
	return slices.Clone(i.stages)
}

// Len returns the number of stages in the catalog.
func (i *Index) Len() int { return len(i.stages) }

// Has returns true if the stage is in the catalog.
func (i *Index) Has(name string) bool {
	_, ok := i.byName[name]
	return ok
}

// Lookup returns the stage definition.
func (i *Index) Lookup(name string) (model.StageDefinition, bool) {
	pos, ok := i.byName[name]
	if !ok {
		return model.StageDefinition{}, false
	}
	return i.stages[pos], true
}

// Meta returns the display info of a stage. Unknown stages use the name as label
// and have no order, empty names return nil.
func (i *Index) Meta(name string) *Meta {
	if name == "" {
		return nil
	}

	s, ok := i.Lookup(name)
	if !ok {
		return &Meta{Name: name, Label: name}
	}

	order := s.Order
	label := s.Label
	if label == "" {
		label = s.Name
	}
	return &Meta{Name: name, Label: label, Order: &order}
}

// Label returns the display label of a stage.
func (i *Index) Label(name string) string {
	if m := i.Meta(name); m != nil {
		return m.Label
	}
	return ""
}

// SortNames returns the names in catalog order. Names missing from the catalog go
// last keeping their relative order.
func (i *Index) SortNames(names []string) []string {
	sorted := slices.Clone(names)
	slices.SortStableFunc(sorted, func(a, b string) int {
		pa, oka := i.byName[a]
		pb, okb := i.byName[b]
		switch {
		case oka && okb:
			return i.stages[pa].Order - i.stages[pb].Order
		case oka:
			return -1
		case okb:
			return 1
		default:
			return 0
		}
	})
	return sorted
}

// Filter returns the names that are in the catalog, keeping their order.
func (i *Index) Filter(names []string) []string {
	res := make([]string, 0, len(names))
	for _, n := range names {
		if i.Has(n) {
			res = append(res, n)
		}
	}
	return res
}

// FormatOrder returns the zero padded order or a placeholder when unknown.
func FormatOrder(order *int) string {
	if order == nil || *order <= 0 {
		return "--"
	}
	return fmt.Sprintf("%02d", *order)
}

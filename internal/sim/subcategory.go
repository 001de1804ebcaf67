package sim

import "sort"

// SubcategoryIndex maps a tag to the category names it covers.
type SubcategoryIndex struct {
	tags    map[string][]string
	members map[string]map[string]bool
	order   []string
}

// NewSubcategoryIndex builds an index from tag → member categories. Duplicate
// members within a tag are counted once.
func NewSubcategoryIndex(tags map[string][]string) *SubcategoryIndex {
	idx := &SubcategoryIndex{
		tags:    make(map[string][]string, len(tags)),
		members: make(map[string]map[string]bool, len(tags)),
	}
	for tag, cats := range tags {
		idx.add(tag, cats...)
	}
	return idx
}

func (idx *SubcategoryIndex) add(tag string, cats ...string) {
	set, ok := idx.members[tag]
	if !ok {
		set = make(map[string]bool, len(cats))
		idx.members[tag] = set
		idx.order = append(idx.order, tag)
		sort.Strings(idx.order)
	}
	for _, c := range cats {
		if set[c] {
			continue
		}
		set[c] = true
		idx.tags[tag] = append(idx.tags[tag], c)
	}
}

// Tags returns the tag names in lexicographic order.
func (idx *SubcategoryIndex) Tags() []string {
	if idx == nil {
		return nil
	}
	out := make([]string, len(idx.order))
	copy(out, idx.order)
	return out
}

// Members returns the categories covered by tag.
func (idx *SubcategoryIndex) Members(tag string) []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.tags[tag]...)
}

// Contains reports whether category belongs to tag.
func (idx *SubcategoryIndex) Contains(tag, category string) bool {
	if idx == nil {
		return false
	}
	return idx.members[tag][category]
}

// Aggregate adds one entry per tag to counts, holding the summed count of the
// tag's members. A tag that shares a name with a category overwrites that
// category's direct count. The input map is modified and returned.
func (idx *SubcategoryIndex) Aggregate(counts Counts) Counts {
	if idx == nil {
		return counts
	}
	// Sum every tag from the direct counts before writing any of them back, so a
	// tag named after another tag's member does not leak into that sum.
	sums := make([]int, len(idx.order))
	for i, tag := range idx.order {
		for _, c := range idx.tags[tag] {
			sums[i] += counts[c]
		}
	}
	for i, tag := range idx.order {
		counts[tag] = sums[i]
	}
	return counts
}

// Collisions returns tags whose names are also declared category names.
func (idx *SubcategoryIndex) Collisions(categories []CountEntry) []string {
	if idx == nil {
		return nil
	}
	var out []string
	for _, e := range categories {
		if _, ok := idx.members[e.Name]; ok {
			out = append(out, e.Name)
		}
	}
	return out
}

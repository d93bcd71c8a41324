package domain

// Permissions answers the permission questions that gate a delta
type Permissions interface {
	// CanDeleteLink reports whether the current user may unlink the annotation
	// from the selected objects
	CanDeleteLink(a *Annotation) bool
	// CanAnnotate reports whether the current user may link annotations at all
	CanAnnotate() bool
}

// AllowAll grants every permission
type AllowAll struct{}

func (AllowAll) CanDeleteLink(*Annotation) bool { return true }
func (AllowAll) CanAnnotate() bool              { return true }

// Delta holds the links to create and to remove for one kind. ToUpdate
// holds persisted annotations whose content changed; they are rewritten in
// place and gain no links.
type Delta struct {
	Kind     Kind
	ToAdd    []*Annotation
	ToRemove []*Annotation
	ToUpdate []*Annotation
}

// IsEmpty reports whether the delta changes nothing
func (d Delta) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 && len(d.ToUpdate) == 0
}

// DeltaInput carries everything ComputeDelta reads
type DeltaInput struct {
	Kind Kind
	// Entries is the editing listing after the user's changes, one entry per
	// document. In multi mode an annotation applied to every object appears
	// once per object.
	Entries []Entry
	Pending PendingChangeSet
	// Original is the deduplicated union of the kind known before editing
	Original      []*Annotation
	SelectionSize int
	// LinkCount returns how many selected objects already carry the annotation
	LinkCount   func(*Annotation) int
	Permissions Permissions
}

// ComputeDelta reconciles the listing with the original state of a kind.
// A clean kind yields an empty delta. Annotations the user may not unlink
// are left out of both sides. Entries of another kind are skipped.
func ComputeDelta(in DeltaInput) Delta {
	d := Delta{Kind: in.Kind}
	if !in.Pending.Dirty(in.Kind) {
		return d
	}

	perms := in.Permissions
	if perms == nil {
		perms = AllowAll{}
	}
	linkCount := in.LinkCount
	if linkCount == nil {
		linkCount = func(*Annotation) int { return 0 }
	}

	blocked := func(a *Annotation) bool {
		return a.Persisted() && !perms.CanDeleteLink(a)
	}

	keep := make(map[int64]bool)
	for _, e := range in.Entries {
		if e.Annotation.Kind() == in.Kind && e.Annotation.Persisted() {
			keep[e.Annotation.ID] = true
		}
	}

	known := make(map[int64]bool)
	removed := make(map[int64]bool)
	for _, a := range in.Original {
		if a.Kind() != in.Kind || !a.Persisted() {
			continue
		}
		known[a.ID] = true
		if keep[a.ID] || removed[a.ID] || blocked(a) {
			continue
		}
		removed[a.ID] = true
		d.ToRemove = append(d.ToRemove, a)
	}

	if !perms.CanAnnotate() {
		return d
	}

	counts := make(map[int64]int)
	first := make(map[int64]*Annotation)
	var order []int64

	for _, e := range in.Entries {
		a := e.Annotation
		if a.Kind() != in.Kind {
			continue
		}
		if known[a.ID] && blocked(a) {
			continue
		}
		if !a.Persisted() || !known[a.ID] {
			d.ToAdd = addUnique(d.ToAdd, a, e.Modified)
			continue
		}
		// a content edit never links by itself
		if e.Modified {
			d.ToUpdate = addUnique(d.ToUpdate, a, true)
		}
		if _, ok := first[a.ID]; !ok {
			order = append(order, a.ID)
			first[a.ID] = a
		} else if e.Modified {
			first[a.ID] = a
		}
		counts[a.ID]++
	}

	for _, id := range order {
		a := first[id]
		if counts[id] == in.SelectionSize && linkCount(a) < counts[id] {
			d.ToAdd = addUnique(d.ToAdd, a, false)
		}
	}

	return d
}

// addUnique appends a unless the list already holds the same annotation.
// A modified instance replaces the one in the list.
func addUnique(list []*Annotation, a *Annotation, modified bool) []*Annotation {
	for i, existing := range list {
		if SameAnnotation(existing, a) {
			if modified {
				list[i] = a
			}
			return list
		}
	}
	return append(list, a)
}

// Calculator computes deltas against an index
type Calculator struct {
	index *Index
	perms Permissions
}

// NewCalculator binds a calculator to an index and a permission model
func NewCalculator(index *Index, perms Permissions) *Calculator {
	if perms == nil {
		perms = AllowAll{}
	}
	return &Calculator{index: index, perms: perms}
}

// Original returns the annotations of the kind the index knows for the
// selection. The published flag is reconciled separately and never listed.
func (c *Calculator) Original(kind Kind) []*Annotation {
	all := c.index.AllOfKind(kind)
	if kind != KindBoolean {
		return all
	}
	out := all[:0:0]
	for _, a := range all {
		if a.Namespace != NamespacePublished {
			out = append(out, a)
		}
	}
	return out
}

// Delta computes the delta of one kind. It fails with ErrNotLoaded when the
// index has not received its data.
func (c *Calculator) Delta(kind Kind, entries []Entry, pending PendingChangeSet) (Delta, error) {
	if c.index.State() == NotLoaded {
		return Delta{Kind: kind}, ErrNotLoaded
	}
	return ComputeDelta(DeltaInput{
		Kind:          kind,
		Entries:       entries,
		Pending:       pending,
		Original:      c.Original(kind),
		SelectionSize: c.index.Selection().Size(),
		LinkCount:     c.index.LinkCount,
		Permissions:   c.perms,
	}), nil
}

package domain

// SaveRequest is what the editor hands to the store
type SaveRequest struct {
	Selection Selection
	ToAdd     []*Annotation
	ToRemove  []*Annotation
	// ToUpdate is rewritten in place; the store links none of it
	ToUpdate []*Annotation
	// Metadata carries non-annotation changes; kept opaque to the engine
	Metadata []any
}

// IsEmpty reports whether the request changes nothing
func (r SaveRequest) IsEmpty() bool {
	return len(r.ToAdd) == 0 && len(r.ToRemove) == 0 && len(r.ToUpdate) == 0 && len(r.Metadata) == 0
}

// Merge appends the delta to the request, skipping annotations already present
func (r *SaveRequest) Merge(d Delta) {
	for _, a := range d.ToAdd {
		r.ToAdd = addUnique(r.ToAdd, a, false)
	}
	for _, a := range d.ToUpdate {
		r.ToUpdate = addUnique(r.ToUpdate, a, true)
	}
	for _, a := range d.ToRemove {
		if !containsID(r.ToRemove, a) {
			r.ToRemove = append(r.ToRemove, a)
		}
	}
}

func containsID(list []*Annotation, a *Annotation) bool {
	for _, existing := range list {
		if existing == a || (a.Persisted() && existing.ID == a.ID) {
			return true
		}
	}
	return false
}

// SaveResult reports what the store changed
type SaveResult struct {
	ID      string
	Added   int
	Removed int
	Updated int
}

// Changed returns the number of changed items
func (r SaveResult) Changed() int {
	return r.Added + r.Removed + r.Updated
}

package domain

import (
	"errors"
	"fmt"
)

// LoadState tells whether the index holds data for its selection
type LoadState int

const (
	// NotLoaded means the structured data has not arrived yet
	NotLoaded LoadState = iota
	// Empty means the data arrived and carries no annotations
	Empty
	// Loaded means the data arrived and carries at least one annotation
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loaded:
		return "loaded"
	default:
		return "not loaded"
	}
}

var (
	// ErrNotFound is returned when an object or annotation does not exist
	ErrNotFound = errors.New("not found")
	// ErrNotLoaded is returned when a computation needs loaded data
	ErrNotLoaded = errors.New("annotations not loaded")
	// ErrStaleSelection is returned when data arrives for a selection that is no longer active
	ErrStaleSelection = errors.New("stale selection")
)

// Index keeps the annotations linked to each object of the active selection.
// Queries on an index that is not loaded return empty results; use State to
// tell "not yet known" apart from "none".
type Index struct {
	selection Selection
	state     LoadState
	bundles   map[string]*StructuredAnnotations
	filter    *NamespaceFilter
	less      Less
}

// NewIndex creates an index with no selection
func NewIndex(filter *NamespaceFilter, less Less) *Index {
	if less == nil {
		less = ByDisplayValue
	}
	return &Index{filter: filter, less: less}
}

// SetRoot switches the index to a new selection and drops loaded data
func (idx *Index) SetRoot(selection Selection) {
	idx.selection = selection
	idx.state = NotLoaded
	idx.bundles = nil
}

// Selection returns the active selection
func (idx *Index) Selection() Selection {
	return idx.selection
}

// State returns the load state
func (idx *Index) State() LoadState {
	return idx.state
}

// Populate stores the bundles for the active selection. Bundles for objects
// outside the selection are ignored; objects without a bundle are treated
// as having no annotations.
func (idx *Index) Populate(selection Selection, bundles []*StructuredAnnotations) error {
	if !idx.selection.Equal(selection) {
		return fmt.Errorf("populate %d objects: %w", selection.Size(), ErrStaleSelection)
	}

	idx.bundles = make(map[string]*StructuredAnnotations, selection.Size())
	total := 0
	for _, b := range bundles {
		if b == nil || !selection.Contains(b.Object) {
			continue
		}
		f := b.filtered(idx.filter)
		idx.bundles[b.Object.key()] = f
		total += len(f.Links)
	}

	if total == 0 {
		idx.state = Empty
	} else {
		idx.state = Loaded
	}
	return nil
}

// Bundle returns the structured annotations of one object
func (idx *Index) Bundle(o ObjectRef) *StructuredAnnotations {
	return idx.bundles[o.key()]
}

func (idx *Index) perObject(kind Kind) map[ObjectRef][]*Annotation {
	m := make(map[ObjectRef][]*Annotation, len(idx.selection.objects))
	for _, o := range idx.selection.objects {
		m[o] = idx.bundles[o.key()].OfKind(kind)
	}
	return m
}

// AllOfKind returns the deduplicated union of the kind across all objects
func (idx *Index) AllOfKind(kind Kind) []*Annotation {
	if idx.state == NotLoaded {
		return nil
	}
	return unionOfKind(kind, idx.selection, idx.perObject(kind), idx.less)
}

// Common returns the annotations of the kind linked to every selected object
func (idx *Index) Common(kind Kind) []*Annotation {
	if idx.state == NotLoaded {
		return nil
	}
	return ComputeCommon(kind, idx.selection, idx.perObject(kind), idx.less)
}

// Links returns every link to the annotation id across the selection
func (idx *Index) Links(id int64) []Link {
	var out []Link
	for _, o := range idx.selection.objects {
		out = append(out, idx.bundles[o.key()].LinksTo(id)...)
	}
	return out
}

// LinkCount returns how many selected objects are linked to the annotation
func (idx *Index) LinkCount(a *Annotation) int {
	if a == nil || !a.Persisted() {
		return 0
	}
	n := 0
	for _, o := range idx.selection.objects {
		if len(idx.bundles[o.key()].LinksTo(a.ID)) > 0 {
			n++
		}
	}
	return n
}

// IsLinkedToAllObjects reports whether every selected object carries the annotation
func (idx *Index) IsLinkedToAllObjects(a *Annotation) bool {
	if idx.state == NotLoaded || idx.selection.IsEmpty() {
		return false
	}
	return idx.LinkCount(a) == idx.selection.Size()
}

// Annotators returns the distinct owners of links to the annotation, first seen first
func (idx *Index) Annotators(a *Annotation) []Experimenter {
	if a == nil {
		return nil
	}
	seen := make(map[int64]bool)
	var out []Experimenter
	for _, l := range idx.Links(a.ID) {
		if seen[l.Owner.ID] {
			continue
		}
		seen[l.Owner.ID] = true
		out = append(out, l.Owner)
	}
	return out
}

// UserRating returns the rating annotation owned by the user, if any
func (idx *Index) UserRating(user Experimenter) *Annotation {
	for _, a := range idx.AllOfKind(KindRating) {
		if a.Owner.ID == user.ID {
			return a
		}
	}
	return nil
}

// AverageRating returns the mean of all ratings across the selection and their count
func (idx *Index) AverageRating() (float64, int) {
	ratings := idx.AllOfKind(KindRating)
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, a := range ratings {
		if v, ok := a.Value.(RatingValue); ok {
			sum += v.Stars
		}
	}
	return float64(sum) / float64(len(ratings)), len(ratings)
}

// Published returns the published flag annotation, if one exists
func (idx *Index) Published() *Annotation {
	for _, a := range idx.AllOfKind(KindBoolean) {
		if a.Namespace == NamespacePublished {
			return a
		}
	}
	return nil
}

// Others returns the single-value annotations without the published flag
func (idx *Index) Others() []*Annotation {
	var out []*Annotation
	for _, k := range Kinds {
		if !k.IsOther() {
			continue
		}
		for _, a := range idx.AllOfKind(k) {
			if a.Namespace == NamespacePublished {
				continue
			}
			out = append(out, a)
		}
	}
	return out
}

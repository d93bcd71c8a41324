package domain

// Selection is the set of objects currently being annotated
type Selection struct {
	objects []ObjectRef
	multi   bool
}

// Single creates a selection of one object
func Single(o ObjectRef) Selection {
	return Selection{objects: []ObjectRef{o}}
}

// Multi creates a multi-object selection. Duplicate references are collapsed,
// first occurrence wins.
func Multi(objects ...ObjectRef) Selection {
	seen := make(map[string]bool, len(objects))
	var kept []ObjectRef
	for _, o := range objects {
		if seen[o.key()] {
			continue
		}
		seen[o.key()] = true
		kept = append(kept, o)
	}
	return Selection{objects: kept, multi: true}
}

// Objects returns a copy of the selected objects in selection order
func (s Selection) Objects() []ObjectRef {
	out := make([]ObjectRef, len(s.objects))
	copy(out, s.objects)
	return out
}

// Size returns the number of selected objects
func (s Selection) Size() int {
	return len(s.objects)
}

// IsMulti reports whether the selection was made in multi mode
func (s Selection) IsMulti() bool {
	return s.multi
}

// IsEmpty reports whether nothing is selected
func (s Selection) IsEmpty() bool {
	return len(s.objects) == 0
}

// Contains reports whether the object is part of the selection
func (s Selection) Contains(o ObjectRef) bool {
	for _, obj := range s.objects {
		if obj.key() == o.key() {
			return true
		}
	}
	return false
}

// Equal reports whether both selections hold the same objects in the same mode
func (s Selection) Equal(other Selection) bool {
	if s.multi != other.multi || len(s.objects) != len(other.objects) {
		return false
	}
	for i := range s.objects {
		if s.objects[i].key() != other.objects[i].key() {
			return false
		}
	}
	return true
}

package domain

// ComputeCommon returns the annotations of the kind linked to every object of
// the selection. An annotation counts once per object however many links the
// object holds to it, and transient annotations (negative id) never count.
// The first instance seen for an id is the one returned.
func ComputeCommon(kind Kind, selection Selection, perObject map[ObjectRef][]*Annotation, less Less) []*Annotation {
	if selection.IsEmpty() {
		return nil
	}

	counts := make(map[int64]int)
	first := make(map[int64]*Annotation)
	var order []int64

	for _, obj := range selection.objects {
		seen := make(map[int64]bool)
		for _, a := range lookupObject(perObject, obj) {
			if a.Kind() != kind || !a.Persisted() || seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			if _, ok := first[a.ID]; !ok {
				first[a.ID] = a
				order = append(order, a.ID)
			}
			counts[a.ID]++
		}
	}

	var common []*Annotation
	for _, id := range order {
		if counts[id] == selection.Size() {
			common = append(common, first[id])
		}
	}
	sortAnnotations(common, less)
	return common
}

// unionOfKind deduplicates the annotations of the kind across the selection,
// first occurrence wins
func unionOfKind(kind Kind, selection Selection, perObject map[ObjectRef][]*Annotation, less Less) []*Annotation {
	seen := make(map[int64]bool)
	var out []*Annotation
	for _, obj := range selection.objects {
		for _, a := range lookupObject(perObject, obj) {
			if a.Kind() != kind {
				continue
			}
			if a.Persisted() {
				if seen[a.ID] {
					continue
				}
				seen[a.ID] = true
			}
			out = append(out, a)
		}
	}
	sortAnnotations(out, less)
	return out
}

func lookupObject(perObject map[ObjectRef][]*Annotation, obj ObjectRef) []*Annotation {
	if list, ok := perObject[obj]; ok {
		return list
	}
	for ref, list := range perObject {
		if ref.key() == obj.key() {
			return list
		}
	}
	return nil
}

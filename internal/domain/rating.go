package domain

// MaxRating is the highest star value a rating can hold
const MaxRating = 5

// ClampRating bounds a star value to 0..MaxRating
func ClampRating(stars int) int {
	switch {
	case stars < 0:
		return 0
	case stars > MaxRating:
		return MaxRating
	}
	return stars
}

// ReconcileRating compares the rating captured at load time with the current
// one. A changed non-zero rating yields a new rating annotation; a reset to
// zero yields the original annotation for removal.
func ReconcileRating(initial, current int, original *Annotation, owner Experimenter) Delta {
	d := Delta{Kind: KindRating}
	initial, current = ClampRating(initial), ClampRating(current)
	if initial == current {
		return d
	}
	if current == 0 {
		if original.Persisted() {
			d.ToRemove = append(d.ToRemove, original)
		}
		return d
	}
	d.ToAdd = append(d.ToAdd, NewAnnotation(RatingValue{Stars: current}, owner))
	return d
}

// ReconcilePublished does the same for the published flag
func ReconcilePublished(initial, current bool, original *Annotation, owner Experimenter) Delta {
	d := Delta{Kind: KindBoolean}
	if initial == current {
		return d
	}
	if current {
		a := NewAnnotation(BooleanValue{Value: true}, owner)
		a.Namespace = NamespacePublished
		d.ToAdd = append(d.ToAdd, a)
		return d
	}
	if original.Persisted() {
		d.ToRemove = append(d.ToRemove, original)
	}
	return d
}

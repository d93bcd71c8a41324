package domain

// PendingChangeSet records which kinds were edited since the last load.
// It is a value: every method returns a new set.
type PendingChangeSet uint32

// Mark flags the kind as dirty
func (p PendingChangeSet) Mark(kind Kind) PendingChangeSet {
	return p | 1<<uint(kind)
}

// Clear flags the kind as clean
func (p PendingChangeSet) Clear(kind Kind) PendingChangeSet {
	return p &^ (1 << uint(kind))
}

// Dirty reports whether the kind needs a delta at save time
func (p PendingChangeSet) Dirty(kind Kind) bool {
	return p&(1<<uint(kind)) != 0
}

// Any reports whether at least one kind is dirty
func (p PendingChangeSet) Any() bool {
	return p != 0
}

// DirtyKinds lists the dirty kinds in Kinds order
func (p PendingChangeSet) DirtyKinds() []Kind {
	var out []Kind
	for _, k := range Kinds {
		if p.Dirty(k) {
			out = append(out, k)
		}
	}
	return out
}

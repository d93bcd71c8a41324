package domain

// LinkPermissions derives permissions from the deletable flag of loaded links.
// An annotation may be unlinked when at least one of its links in the
// selection is deletable; unlinking affects only those links.
type LinkPermissions struct {
	Index *Index
	// Annotate is the result of the external "can annotate" check
	Annotate bool
}

func (p LinkPermissions) CanDeleteLink(a *Annotation) bool {
	if a == nil || p.Index == nil {
		return false
	}
	for _, l := range p.Index.Links(a.ID) {
		if l.Deletable {
			return true
		}
	}
	return false
}

func (p LinkPermissions) CanAnnotate() bool {
	return p.Annotate
}

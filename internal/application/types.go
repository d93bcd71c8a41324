package application

import "annotator/internal/domain"

// Re-export kinds for use by adapters
type Kind = domain.Kind

const (
	KindTag        = domain.KindTag
	KindAttachment = domain.KindAttachment
	KindRating     = domain.KindRating
	KindBoolean    = domain.KindBoolean
	KindMap        = domain.KindMap
)

// Re-export domain types for use by adapters
type (
	Annotation   = domain.Annotation
	Entry        = domain.Entry
	Experimenter = domain.Experimenter
	ObjectRef    = domain.ObjectRef
	Selection    = domain.Selection
	SaveRequest  = domain.SaveRequest
	SaveResult   = domain.SaveResult
)

// ParseKind converts a kind name into a Kind
func ParseKind(s string) (Kind, error) {
	return domain.ParseKind(s)
}

// ParseObjectRefs parses a list of "type:id" references
func ParseObjectRefs(refs []string) ([]ObjectRef, error) {
	out := make([]ObjectRef, 0, len(refs))
	for _, r := range refs {
		ref, err := domain.ParseObjectRef(r)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

// SelectionOf builds a single selection for one object and a multi selection otherwise
func SelectionOf(objects []ObjectRef) Selection {
	if len(objects) == 1 {
		return domain.Single(objects[0])
	}
	return domain.Multi(objects...)
}

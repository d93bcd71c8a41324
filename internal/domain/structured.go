package domain

// StructuredAnnotations groups the links of one object by annotation kind
type StructuredAnnotations struct {
	Object ObjectRef
	Links  []Link
}

// OfKind returns the annotations of the given kind, in link order
func (s *StructuredAnnotations) OfKind(kind Kind) []*Annotation {
	if s == nil {
		return nil
	}
	var out []*Annotation
	for _, l := range s.Links {
		if l.Annotation.Kind() == kind {
			out = append(out, l.Annotation)
		}
	}
	return out
}

// Tags returns the tag annotations
func (s *StructuredAnnotations) Tags() []*Annotation {
	return s.OfKind(KindTag)
}

// Attachments returns the file annotations
func (s *StructuredAnnotations) Attachments() []*Annotation {
	return s.OfKind(KindAttachment)
}

// Ratings returns the rating annotations
func (s *StructuredAnnotations) Ratings() []*Annotation {
	return s.OfKind(KindRating)
}

// Maps returns the map annotations
func (s *StructuredAnnotations) Maps() []*Annotation {
	return s.OfKind(KindMap)
}

// Others returns the single-value annotations (boolean, long, double, term, xml, time)
func (s *StructuredAnnotations) Others() []*Annotation {
	if s == nil {
		return nil
	}
	var out []*Annotation
	for _, l := range s.Links {
		if l.Annotation.Kind().IsOther() {
			out = append(out, l.Annotation)
		}
	}
	return out
}

// LinksTo returns the links of this object pointing at the annotation id
func (s *StructuredAnnotations) LinksTo(id int64) []Link {
	if s == nil {
		return nil
	}
	var out []Link
	for _, l := range s.Links {
		if l.Annotation != nil && l.Annotation.ID == id {
			out = append(out, l)
		}
	}
	return out
}

// filtered returns a copy without links whose namespace the filter excludes
func (s *StructuredAnnotations) filtered(f *NamespaceFilter) *StructuredAnnotations {
	out := &StructuredAnnotations{Object: s.Object}
	for _, l := range s.Links {
		if l.Annotation == nil || f.Excluded(l.Annotation.Namespace) {
			continue
		}
		out.Links = append(out.Links, l)
	}
	return out
}

package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind represents the type of an annotation payload
type Kind int

const (
	KindUnknown Kind = iota
	KindTag
	KindAttachment
	KindRating
	KindBoolean
	KindLong
	KindDouble
	KindTerm
	KindXML
	KindTime
	KindMap
)

// Kinds lists every concrete kind in display order
var Kinds = []Kind{
	KindTag, KindAttachment, KindRating, KindBoolean, KindLong,
	KindDouble, KindTerm, KindXML, KindTime, KindMap,
}

func (k Kind) String() string {
	switch k {
	case KindTag:
		return "tag"
	case KindAttachment:
		return "attachment"
	case KindRating:
		return "rating"
	case KindBoolean:
		return "boolean"
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	case KindTerm:
		return "term"
	case KindXML:
		return "xml"
	case KindTime:
		return "time"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name back into a Kind
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "file", "files", "attachments":
		return KindAttachment, nil
	case "tags":
		return KindTag, nil
	}
	for _, k := range Kinds {
		if k.String() == name {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown annotation kind: %s", s)
}

// IsOther reports whether the kind belongs to the "other" group
// (single typed values shown together in one pane)
func (k Kind) IsOther() bool {
	switch k {
	case KindBoolean, KindLong, KindDouble, KindTerm, KindXML, KindTime:
		return true
	}
	return false
}

// Value is the payload of an annotation. The set of implementations is closed.
type Value interface {
	kind() Kind
	display() string
}

type TagValue struct {
	Name        string
	Description string
}

type FileValue struct {
	Name     string
	MimeType string
	Size     int64
}

type RatingValue struct {
	Stars int
}

type BooleanValue struct{ Value bool }
type LongValue struct{ Value int64 }
type DoubleValue struct{ Value float64 }
type TermValue struct{ Term string }
type XMLValue struct{ Text string }
type TimeValue struct{ Value time.Time }

// Pair is one key/value entry of a map annotation
type Pair struct {
	Name  string
	Value string
}

type MapValue struct {
	Pairs []Pair
}

func (TagValue) kind() Kind     { return KindTag }
func (FileValue) kind() Kind    { return KindAttachment }
func (RatingValue) kind() Kind  { return KindRating }
func (BooleanValue) kind() Kind { return KindBoolean }
func (LongValue) kind() Kind    { return KindLong }
func (DoubleValue) kind() Kind  { return KindDouble }
func (TermValue) kind() Kind    { return KindTerm }
func (XMLValue) kind() Kind     { return KindXML }
func (TimeValue) kind() Kind    { return KindTime }
func (MapValue) kind() Kind     { return KindMap }

func (v TagValue) display() string    { return v.Name }
func (v FileValue) display() string   { return v.Name }
func (v RatingValue) display() string { return strconv.Itoa(v.Stars) }
func (v BooleanValue) display() string {
	return strconv.FormatBool(v.Value)
}
func (v LongValue) display() string   { return strconv.FormatInt(v.Value, 10) }
func (v DoubleValue) display() string { return strconv.FormatFloat(v.Value, 'g', -1, 64) }
func (v TermValue) display() string   { return v.Term }
func (v XMLValue) display() string    { return v.Text }
func (v TimeValue) display() string   { return v.Value.UTC().Format(time.RFC3339) }
func (v MapValue) display() string {
	parts := make([]string, 0, len(v.Pairs))
	for _, p := range v.Pairs {
		parts = append(parts, p.Name+"="+p.Value)
	}
	return strings.Join(parts, ", ")
}

// Experimenter identifies a user owning annotations or links
type Experimenter struct {
	ID   int64
	Name string
}

// Annotation is a typed piece of metadata that can be linked to objects.
// A negative ID marks an annotation that has not been saved yet.
type Annotation struct {
	ID        int64
	Namespace string
	Owner     Experimenter
	Value     Value
}

// NewAnnotation creates a transient annotation holding the given value
func NewAnnotation(v Value, owner Experimenter) *Annotation {
	return &Annotation{ID: -1, Owner: owner, Value: v}
}

// Kind returns the kind derived from the payload
func (a *Annotation) Kind() Kind {
	if a == nil || a.Value == nil {
		return KindUnknown
	}
	return a.Value.kind()
}

// Persisted reports whether the annotation exists in the store
func (a *Annotation) Persisted() bool {
	return a != nil && a.ID >= 0
}

// DisplayValue returns the text used to sort and show the annotation
func (a *Annotation) DisplayValue() string {
	if a == nil || a.Value == nil {
		return ""
	}
	return a.Value.display()
}

func (a *Annotation) String() string {
	return fmt.Sprintf("%s#%d(%s)", a.Kind(), a.ID, a.DisplayValue())
}

// ObjectRef identifies an annotatable data object (image, dataset, ...)
type ObjectRef struct {
	Type    string
	ID      int64
	GroupID int64
}

func (o ObjectRef) String() string {
	return fmt.Sprintf("%s:%d", o.Type, o.ID)
}

// ParseObjectRef parses the "type:id" form produced by String
func ParseObjectRef(s string) (ObjectRef, error) {
	typ, idStr, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || typ == "" {
		return ObjectRef{}, fmt.Errorf("invalid object reference: %s (expected type:id)", s)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 0 {
		return ObjectRef{}, fmt.Errorf("invalid object id in reference: %s", s)
	}
	return ObjectRef{Type: strings.ToLower(typ), ID: id}, nil
}

// key ignores the group so that refs parsed from user input match loaded ones
func (o ObjectRef) key() string {
	return o.String()
}

// Link associates an object with an annotation
type Link struct {
	Object     ObjectRef
	Annotation *Annotation
	Owner      Experimenter
	Deletable  bool
}

// Entry is one document in an editing listing
type Entry struct {
	Annotation *Annotation
	Modified   bool
}

// Entries wraps annotations as unmodified entries
func Entries(annotations ...*Annotation) []Entry {
	entries := make([]Entry, 0, len(annotations))
	for _, a := range annotations {
		entries = append(entries, Entry{Annotation: a})
	}
	return entries
}

// SameAnnotation reports whether a and b stand for one annotation: the same
// instance, the same persisted id, or two unsaved values of one kind that
// display alike.
func SameAnnotation(a, b *Annotation) bool {
	if a == b {
		return true
	}
	if a.Persisted() || b.Persisted() {
		return a.Persisted() && b.Persisted() && a.ID == b.ID
	}
	return a.Kind() == b.Kind() && a.DisplayValue() == b.DisplayValue()
}

// Clone returns a deep copy of the annotation
func (a *Annotation) Clone() *Annotation {
	if a == nil {
		return nil
	}
	c := *a
	if m, ok := a.Value.(MapValue); ok {
		c.Value = MapValue{Pairs: append([]Pair(nil), m.Pairs...)}
	}
	return &c
}

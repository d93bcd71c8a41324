package domain

import (
	"testing"
	"time"
)

func TestAnnotation_KindFromValue(t *testing.T) {
	tests := []struct {
		value Value
		want  Kind
	}{
		{TagValue{Name: "x"}, KindTag},
		{FileValue{Name: "a.pdf"}, KindAttachment},
		{RatingValue{Stars: 2}, KindRating},
		{BooleanValue{Value: true}, KindBoolean},
		{LongValue{Value: 4}, KindLong},
		{DoubleValue{Value: 1.5}, KindDouble},
		{TermValue{Term: "GO:0005634"}, KindTerm},
		{XMLValue{Text: "<a/>"}, KindXML},
		{TimeValue{Value: time.Unix(0, 0)}, KindTime},
		{MapValue{Pairs: []Pair{{Name: "k", Value: "v"}}}, KindMap},
		{nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			a := &Annotation{ID: 1, Value: tt.value}
			if got := a.Kind(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{input: "tag", want: KindTag},
		{input: "Tags", want: KindTag},
		{input: "file", want: KindAttachment},
		{input: "attachment", want: KindAttachment},
		{input: " map ", want: KindMap},
		{input: "comment", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParseObjectRef(t *testing.T) {
	ref, err := ParseObjectRef("Image:42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Type != "image" || ref.ID != 42 {
		t.Errorf("unexpected ref: %+v", ref)
	}

	for _, bad := range []string{"42", "image:", ":4", "image:-1", "image:x"} {
		if _, err := ParseObjectRef(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestNamespaceFilter(t *testing.T) {
	f, err := DefaultNamespaceFilter("example.org/internal/*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		namespace string
		want      bool
	}{
		{NamespaceCompanionFile, true},
		{NamespaceFLIM + "/results/fit", true},
		{NamespaceEditor + "/protocol", true},
		{"example.org/internal/x", true},
		{"example.org/internal/x/y", false},
		{NamespacePublished, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			if got := f.Excluded(tt.namespace); got != tt.want {
				t.Errorf("Excluded(%q) = %v, want %v", tt.namespace, got, tt.want)
			}
		})
	}

	if _, err := NewNamespaceFilter("bad[pattern"); err == nil {
		t.Error("expected invalid pattern error")
	}
}

func TestMustDefaultNamespaceFilter(t *testing.T) {
	if !MustDefaultNamespaceFilter().Excluded(NamespaceCompanionFile) {
		t.Error("expected the default exclusions")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected a panic on an invalid pattern")
		}
	}()
	MustDefaultNamespaceFilter("bad[pattern")
}

func TestSameAnnotation(t *testing.T) {
	saved := &Annotation{ID: 4, Value: TagValue{Name: "x"}}
	tests := []struct {
		name string
		a, b *Annotation
		want bool
	}{
		{"same instance", saved, saved, true},
		{"same id", saved, &Annotation{ID: 4, Value: TagValue{Name: "renamed"}}, true},
		{"other id", saved, &Annotation{ID: 5, Value: TagValue{Name: "x"}}, false},
		{"unsaved alike", NewAnnotation(TagValue{Name: "x"}, alice), NewAnnotation(TagValue{Name: "x"}, bob), true},
		{"unsaved other value", NewAnnotation(TagValue{Name: "x"}, alice), NewAnnotation(TagValue{Name: "y"}, alice), false},
		{"unsaved other kind", NewAnnotation(TagValue{Name: "1"}, alice), NewAnnotation(LongValue{Value: 1}, alice), false},
		{"saved and unsaved", saved, NewAnnotation(TagValue{Name: "x"}, alice), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameAnnotation(tt.a, tt.b); got != tt.want {
				t.Errorf("SameAnnotation() = %v, want %v", got, tt.want)
			}
		})
	}
}

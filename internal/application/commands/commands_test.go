package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"annotator/internal/adapters/memory"
	"annotator/internal/application"
	"annotator/internal/domain"
)

var (
	alice = domain.Experimenter{ID: 1, Name: "alice"}
	bob   = domain.Experimenter{ID: 2, Name: "bob"}
	img1  = domain.ObjectRef{Type: "image", ID: 1}
	img2  = domain.ObjectRef{Type: "image", ID: 2}
	img3  = domain.ObjectRef{Type: "image", ID: 3}
)

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewStore()
	for _, o := range []domain.ObjectRef{img1, img2, img3} {
		if err := s.CreateObject(context.Background(), o); err != nil {
			t.Fatalf("create object: %v", err)
		}
	}
	return s
}

func tagOn(s *memory.Store, name string, owner domain.Experimenter, objs ...domain.ObjectRef) int64 {
	a := domain.NewAnnotation(domain.TagValue{Name: name}, owner)
	id := s.Link(objs[0], a, owner)
	shared := &domain.Annotation{ID: id, Owner: owner, Value: domain.TagValue{Name: name}}
	for _, o := range objs[1:] {
		s.Link(o, shared, owner)
	}
	return id
}

func tagsOf(t *testing.T, s *memory.Store, obj domain.ObjectRef) []string {
	t.Helper()
	bundles, err := s.LoadStructured(context.Background(), []domain.ObjectRef{obj}, alice)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var names []string
	for _, a := range bundles[0].Tags() {
		names = append(names, a.DisplayValue())
	}
	return names
}

func sameNames(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]int)
	for _, g := range got {
		seen[g]++
	}
	for _, w := range want {
		if seen[w] == 0 {
			return false
		}
		seen[w]--
	}
	return true
}

func TestSetAnnotationsCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		objects []domain.ObjectRef
		kind    domain.Kind
		values  []string
		mode    SetMode
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid replace",
			objects: []domain.ObjectRef{img1},
			kind:    domain.KindTag,
			values:  []string{"a"},
			mode:    SetModeReplace,
		},
		{
			name:    "replace with nothing clears the listing",
			objects: []domain.ObjectRef{img1},
			kind:    domain.KindTag,
			mode:    SetModeReplace,
		},
		{
			name:    "no objects",
			kind:    domain.KindTag,
			values:  []string{"a"},
			wantErr: true,
			errMsg:  "at least one of objects is required",
		},
		{
			name:    "rating not editable here",
			objects: []domain.ObjectRef{img1},
			kind:    domain.KindRating,
			values:  []string{"3"},
			wantErr: true,
			errMsg:  "expected an editable kind",
		},
		{
			name:    "add without values",
			objects: []domain.ObjectRef{img1},
			kind:    domain.KindTag,
			mode:    SetModeAdd,
			wantErr: true,
			errMsg:  "at least one value is required to add",
		},
		{
			name:    "bad long value",
			objects: []domain.ObjectRef{img1},
			kind:    domain.KindLong,
			values:  []string{"twelve"},
			mode:    SetModeAdd,
			wantErr: true,
			errMsg:  "invalid long value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &SetAnnotationsCommand{
				Objects: tt.objects,
				Kind:    tt.kind,
				Values:  tt.values,
				Mode:    tt.mode,
			}
			err := cmd.Validate()

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
					return
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSetAnnotationsCommand_ReplaceAcrossSelection(t *testing.T) {
	s := newStore(t)
	tagOn(s, "a", alice, img1, img2)
	tagOn(s, "b", alice, img1)

	cmd := NewSetAnnotationsCommand(s, nil, alice, []domain.ObjectRef{img1, img2}, domain.KindTag, []string{"a", "c"}, SetModeReplace)
	result, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Save.Removed != 1 || result.Save.Added != 2 {
		t.Errorf("expected b unlinked and c linked twice, got %+v", result.Save)
	}
	if got := tagsOf(t, s, img1); !sameNames(got, "a", "c") {
		t.Errorf("img1 tags = %v", got)
	}
	if got := tagsOf(t, s, img2); !sameNames(got, "a", "c") {
		t.Errorf("img2 tags = %v", got)
	}
	if got := tagsOf(t, s, img3); len(got) != 0 {
		t.Errorf("img3 must be untouched, got %v", got)
	}
}

func TestSetAnnotationsCommand_RepeatedValues(t *testing.T) {
	s := newStore(t)
	tagOn(s, "a", alice, img1)

	cmd := NewSetAnnotationsCommand(s, nil, alice, []domain.ObjectRef{img1, img2}, domain.KindTag, []string{"a", "a", "new", "new"}, SetModeReplace)
	result, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.Save.Added != 3 {
		t.Errorf("expected a linked to img2 and new to both, got %+v", result.Save)
	}
	if got := tagsOf(t, s, img2); !sameNames(got, "a", "new") {
		t.Errorf("img2 tags = %v", got)
	}
	all, _ := s.ListAnnotations(context.Background(), domain.KindTag)
	if len(all) != 2 {
		t.Errorf("expected a single new tag to be created, got %d tags", len(all))
	}
}

func TestSetAnnotationsCommand_AddReusesStoredAnnotation(t *testing.T) {
	s := newStore(t)
	id := tagOn(s, "lab", bob, img3)

	cmd := NewSetAnnotationsCommand(s, nil, alice, []domain.ObjectRef{img1}, domain.KindTag, []string{"lab"}, SetModeAdd)
	result, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.Request.ToAdd) != 1 || result.Request.ToAdd[0].ID != id {
		t.Fatalf("expected the stored tag to be linked, got %v", result.Request.ToAdd)
	}

	all, _ := s.ListAnnotations(context.Background(), domain.KindTag)
	if len(all) != 1 {
		t.Errorf("expected no duplicate tag to be created, got %d", len(all))
	}
}

func TestSetAnnotationsCommand_RemoveUnknownValue(t *testing.T) {
	s := newStore(t)
	cmd := NewSetAnnotationsCommand(s, nil, alice, []domain.ObjectRef{img1}, domain.KindTag, []string{"ghost"}, SetModeRemove)
	if _, err := cmd.Execute(context.Background()); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetAnnotationsCommand_RemoveOthersLinkIsIgnored(t *testing.T) {
	s := newStore(t)
	tagOn(s, "theirs", bob, img1)

	cmd := NewSetAnnotationsCommand(s, nil, alice, []domain.ObjectRef{img1}, domain.KindTag, []string{"theirs"}, SetModeRemove)
	result, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Save.Changed() != 0 {
		t.Errorf("expected nothing changed, got %+v", result.Save)
	}
	if got := tagsOf(t, s, img1); !sameNames(got, "theirs") {
		t.Errorf("img1 tags = %v", got)
	}
}

func TestSetAnnotationsCommand_ReadOnly(t *testing.T) {
	s := newStore(t)
	perms := application.StaticPermissions{ReadOnly: true}
	cmd := NewSetAnnotationsCommand(s, perms, alice, []domain.ObjectRef{img1}, domain.KindTag, []string{"x"}, SetModeAdd)
	if _, err := cmd.Execute(context.Background()); !errors.Is(err, application.ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
}

func TestSetAnnotationsCommand_UnknownObject(t *testing.T) {
	s := newStore(t)
	cmd := NewSetAnnotationsCommand(s, nil, alice, []domain.ObjectRef{{Type: "image", ID: 99}}, domain.KindTag, []string{"x"}, SetModeAdd)
	if _, err := cmd.Execute(context.Background()); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAnnotationsCommand(t *testing.T) {
	s := newStore(t)
	tagOn(s, "both", alice, img1, img2)
	tagOn(s, "one", bob, img2)
	s.Link(img1, domain.NewAnnotation(domain.RatingValue{Stars: 4}, alice), alice)

	result, err := NewListAnnotationsCommand(s, alice, []domain.ObjectRef{img1, img2}, domain.KindUnknown).Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.State != domain.Loaded || result.Objects != 2 {
		t.Errorf("unexpected state %s for %d objects", result.State, result.Objects)
	}
	if len(result.Annotations) != 2 {
		t.Fatalf("expected 2 tags listed, got %d", len(result.Annotations))
	}
	linked := make(map[string]int)
	for _, sum := range result.Annotations {
		linked[sum.Annotation.DisplayValue()] = sum.Linked
	}
	if linked["both"] != 2 || linked["one"] != 1 {
		t.Errorf("unexpected link counts: %v", linked)
	}
	if result.Rating != 4 || result.RatingCount != 1 {
		t.Errorf("unexpected rating: %d (%d ratings)", result.Rating, result.RatingCount)
	}
}

func TestListAnnotationsCommand_ExcludedNamespaces(t *testing.T) {
	s := newStore(t)
	tagOn(s, "visible", alice, img1)
	hidden := domain.NewAnnotation(domain.TagValue{Name: "hidden"}, alice)
	hidden.Namespace = "example.org/pipeline/qc"
	s.Link(img1, hidden, alice)

	tests := []struct {
		name  string
		extra []string
		want  []string
	}{
		{"defaults", nil, []string{"visible", "hidden"}},
		{"extra pattern", []string{"example.org/pipeline/**"}, []string{"visible"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := domain.DefaultNamespaceFilter(tt.extra...)
			if err != nil {
				t.Fatalf("filter: %v", err)
			}
			cmd := NewListAnnotationsCommand(s, alice, []domain.ObjectRef{img1}, domain.KindTag, application.WithNamespaceFilter(filter))
			result, err := cmd.Execute(context.Background())
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			var got []string
			for _, sum := range result.Annotations {
				got = append(got, sum.Annotation.DisplayValue())
			}
			if !sameNames(got, tt.want...) {
				t.Errorf("listed %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommonAnnotationsCommand(t *testing.T) {
	s := newStore(t)
	tagOn(s, "both", alice, img1, img2)
	tagOn(s, "one", alice, img2)

	result, err := NewCommonAnnotationsCommand(s, alice, []domain.ObjectRef{img1, img2}, domain.KindTag).Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.Annotations) != 1 || result.Annotations[0].DisplayValue() != "both" {
		t.Errorf("expected only the shared tag, got %v", result.Annotations)
	}

	if _, err := NewCommonAnnotationsCommand(s, alice, []domain.ObjectRef{img1}, domain.KindUnknown).Execute(context.Background()); err == nil {
		t.Error("expected error for missing kind")
	}
}

func TestRateCommand(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	objs := []domain.ObjectRef{img1, img2}

	result, err := NewRateCommand(s, nil, alice, objs, 3).Execute(ctx)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Save.Added != 2 {
		t.Errorf("expected one rating link per object, got %+v", result.Save)
	}

	result, err = NewRateCommand(s, nil, alice, objs, 0).Execute(ctx)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Save.Removed != 2 || !strings.Contains(result.Message, "Removed rating") {
		t.Errorf("expected ratings removed, got %+v %q", result.Save, result.Message)
	}

	if _, err := NewRateCommand(s, nil, alice, objs, 9).Execute(ctx); err == nil {
		t.Error("expected range error")
	}
}

func TestPublishCommand(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := NewPublishCommand(s, nil, alice, []domain.ObjectRef{img1}, true).Execute(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}
	listed, err := NewListAnnotationsCommand(s, alice, []domain.ObjectRef{img1}, domain.KindUnknown).Execute(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !listed.Published || len(listed.Annotations) != 0 {
		t.Errorf("expected published flag only, got published=%v annotations=%v", listed.Published, listed.Annotations)
	}

	result, err := NewPublishCommand(s, nil, alice, []domain.ObjectRef{img1}, false).Execute(ctx)
	if err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if result.Save.Removed != 1 {
		t.Errorf("expected flag removed, got %+v", result.Save)
	}

	readOnly := application.StaticPermissions{ReadOnly: true}
	if _, err := NewPublishCommand(s, readOnly, alice, []domain.ObjectRef{img1}, true).Execute(ctx); !errors.Is(err, application.ErrNotPermitted) {
		t.Errorf("expected ErrNotPermitted, got %v", err)
	}
}

func TestCreateObjectCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		id      int64
		wantErr bool
		errMsg  string
	}{
		{name: "valid", typ: "image", id: 7},
		{name: "empty type", typ: " ", id: 7, wantErr: true, errMsg: "object type is required"},
		{name: "colon in type", typ: "image:1", id: 7, wantErr: true, errMsg: "must not contain"},
		{name: "negative id", typ: "image", id: -1, wantErr: true, errMsg: "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&CreateObjectCommand{ObjectType: tt.typ, ObjectID: tt.id}).Validate()
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateAndListObjects(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	result, err := NewCreateObjectCommand(s, "Dataset", 4, 1).Execute(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.Object.String() != "dataset:4" {
		t.Errorf("unexpected object: %s", result.Object)
	}
	if _, err := NewCreateObjectCommand(s, "image", 1, 1).Execute(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}

	datasets, err := NewListObjectsCommand(s, "dataset").Execute(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(datasets) != 1 || datasets[0].GroupID != 1 {
		t.Errorf("unexpected datasets: %v", datasets)
	}
	all, _ := NewListObjectsCommand(s, "").Execute(ctx)
	if len(all) != 2 {
		t.Errorf("expected 2 objects, got %d", len(all))
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.Kind
		text    string
		display string
		wantErr bool
	}{
		{name: "tag", kind: domain.KindTag, text: " urgent ", display: "urgent"},
		{name: "file", kind: domain.KindAttachment, text: "notes.txt", display: "notes.txt"},
		{name: "long", kind: domain.KindLong, text: "42", display: "42"},
		{name: "double", kind: domain.KindDouble, text: "1.50", display: "1.5"},
		{name: "boolean", kind: domain.KindBoolean, text: "true", display: "true"},
		{name: "time", kind: domain.KindTime, text: "2024-05-01T10:00:00Z", display: "2024-05-01T10:00:00Z"},
		{name: "map", kind: domain.KindMap, text: "stain=DAPI, lens=63x", display: "stain=DAPI, lens=63x"},
		{name: "bad map", kind: domain.KindMap, text: "novalue", wantErr: true},
		{name: "empty", kind: domain.KindTag, text: "", wantErr: true},
		{name: "rating", kind: domain.KindRating, text: "3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseValue(tt.kind, tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			a := &domain.Annotation{Value: v}
			if a.Kind() != tt.kind {
				t.Errorf("kind = %s, want %s", a.Kind(), tt.kind)
			}
			if a.DisplayValue() != tt.display {
				t.Errorf("display = %q, want %q", a.DisplayValue(), tt.display)
			}
		})
	}
}

func TestParseSetMode(t *testing.T) {
	for input, want := range map[string]SetMode{"": SetModeReplace, "add": SetModeAdd, "rm": SetModeRemove} {
		got, err := ParseSetMode(input)
		if err != nil || got != want {
			t.Errorf("ParseSetMode(%q) = %v, %v", input, got, err)
		}
	}
	if _, err := ParseSetMode("toggle"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

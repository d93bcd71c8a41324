package domain

import (
	"testing"
)

var (
	alice = Experimenter{ID: 1, Name: "alice"}
	bob   = Experimenter{ID: 2, Name: "bob"}

	imgA = ObjectRef{Type: "image", ID: 1, GroupID: 3}
	imgB = ObjectRef{Type: "image", ID: 2, GroupID: 3}
	imgC = ObjectRef{Type: "image", ID: 3, GroupID: 3}
)

func tag(id int64, name string) *Annotation {
	return &Annotation{ID: id, Owner: alice, Value: TagValue{Name: name}}
}

func file(id int64, name string) *Annotation {
	return &Annotation{ID: id, Owner: alice, Value: FileValue{Name: name}}
}

func ids(annotations []*Annotation) []int64 {
	out := make([]int64, 0, len(annotations))
	for _, a := range annotations {
		out = append(out, a.ID)
	}
	return out
}

func equalIDs(got []*Annotation, want ...int64) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestComputeCommon(t *testing.T) {
	t1, t2, t3 := tag(1, "T1"), tag(2, "T2"), tag(3, "T3")

	tests := []struct {
		name      string
		kind      Kind
		selection Selection
		perObject map[ObjectRef][]*Annotation
		want      []int64
	}{
		{
			name:      "intersection of two images",
			kind:      KindTag,
			selection: Multi(imgA, imgB),
			perObject: map[ObjectRef][]*Annotation{
				imgA: {t1, t2},
				imgB: {t2, t3},
			},
			want: []int64{2},
		},
		{
			name:      "single selection returns everything",
			kind:      KindTag,
			selection: Single(imgA),
			perObject: map[ObjectRef][]*Annotation{
				imgA: {t3, t1, t2},
			},
			want: []int64{1, 2, 3},
		},
		{
			name:      "empty selection",
			kind:      KindTag,
			selection: Multi(),
			perObject: map[ObjectRef][]*Annotation{imgA: {t1}},
			want:      nil,
		},
		{
			name:      "object without data breaks the intersection",
			kind:      KindTag,
			selection: Multi(imgA, imgB),
			perObject: map[ObjectRef][]*Annotation{imgA: {t1}},
			want:      nil,
		},
		{
			name:      "duplicate links on one object count once",
			kind:      KindTag,
			selection: Multi(imgA, imgB),
			perObject: map[ObjectRef][]*Annotation{
				imgA: {t1, t1},
				imgB: {t2},
			},
			want: nil,
		},
		{
			name:      "transient annotations never common",
			kind:      KindTag,
			selection: Single(imgA),
			perObject: map[ObjectRef][]*Annotation{
				imgA: {tag(-1, "new"), t1},
			},
			want: []int64{1},
		},
		{
			name:      "other kinds ignored",
			kind:      KindAttachment,
			selection: Multi(imgA, imgB),
			perObject: map[ObjectRef][]*Annotation{
				imgA: {t1, file(10, "a.pdf")},
				imgB: {t1, file(10, "a.pdf")},
			},
			want: []int64{10},
		},
		{
			name:      "three objects need all three",
			kind:      KindTag,
			selection: Multi(imgA, imgB, imgC),
			perObject: map[ObjectRef][]*Annotation{
				imgA: {t1, t2},
				imgB: {t1, t2},
				imgC: {t2},
			},
			want: []int64{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeCommon(tt.kind, tt.selection, tt.perObject, nil)
			if !equalIDs(got, tt.want...) {
				t.Errorf("expected %v, got %v", tt.want, ids(got))
			}
		})
	}
}

func TestComputeCommon_KeepsFirstInstance(t *testing.T) {
	first := tag(4, "shared")
	second := tag(4, "shared")

	got := ComputeCommon(KindTag, Multi(imgA, imgB), map[ObjectRef][]*Annotation{
		imgA: {first},
		imgB: {second},
	}, nil)

	if len(got) != 1 || got[0] != first {
		t.Fatalf("expected the first instance to be returned, got %v", got)
	}
}

func TestComputeCommon_SortIsStable(t *testing.T) {
	a, b := tag(8, "same"), tag(9, "same")
	c := tag(7, "alpha")

	got := ComputeCommon(KindTag, Single(imgA), map[ObjectRef][]*Annotation{
		imgA: {a, b, c},
	}, nil)

	if !equalIDs(got, 7, 8, 9) {
		t.Errorf("expected [7 8 9], got %v", ids(got))
	}
}

func TestComputeCommon_MatchesRefsWithoutGroup(t *testing.T) {
	t1 := tag(1, "T1")
	parsed := ObjectRef{Type: "image", ID: 1}

	got := ComputeCommon(KindTag, Single(parsed), map[ObjectRef][]*Annotation{
		imgA: {t1},
	}, nil)

	if !equalIDs(got, 1) {
		t.Errorf("expected [1], got %v", ids(got))
	}
}

func TestNaturalCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"tag2", "tag10", -1},
		{"tag10", "tag2", 1},
		{"Alpha", "alpha", 0},
		{"a", "b", -1},
		{"img007", "img7", 0},
		{"abc", "ab", 1},
		{"", "a", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := NaturalCompare(tt.a, tt.b); got != tt.want {
				t.Errorf("NaturalCompare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotator/internal/domain"
)

var (
	img1 = domain.ObjectRef{Type: "image", ID: 1, GroupID: 3}
	img2 = domain.ObjectRef{Type: "image", ID: 2, GroupID: 3}
)

type fixture struct {
	store *Store
	alice domain.Experimenter
	bob   domain.Experimenter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "annotations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.CreateObject(ctx, img1))
	require.NoError(t, s.CreateObject(ctx, img2))

	alice, err := s.EnsureExperimenter(ctx, "alice")
	require.NoError(t, err)
	bob, err := s.EnsureExperimenter(ctx, "bob")
	require.NoError(t, err)

	return fixture{store: s, alice: alice, bob: bob}
}

func (f fixture) save(t *testing.T, sel domain.Selection, user domain.Experimenter, add, remove []*domain.Annotation) *domain.SaveResult {
	t.Helper()
	result, err := f.store.Save(context.Background(), domain.SaveRequest{Selection: sel, ToAdd: add, ToRemove: remove}, user)
	require.NoError(t, err)
	return result
}

func (f fixture) load(t *testing.T, objs ...domain.ObjectRef) []*domain.StructuredAnnotations {
	t.Helper()
	bundles, err := f.store.LoadStructured(context.Background(), objs, f.alice)
	require.NoError(t, err)
	return bundles
}

func TestStore_ObjectsAndUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.CreateObject(ctx, domain.ObjectRef{Type: "dataset", ID: 1}))
	require.NoError(t, f.store.CreateObject(ctx, domain.ObjectRef{Type: "image", ID: 1, GroupID: 9}))

	images, err := f.store.ListObjects(ctx, "IMAGE")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, int64(9), images[0].GroupID, "re-registering updates the group")

	all, err := f.store.ListObjects(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	again, err := f.store.EnsureExperimenter(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, f.alice, again)

	_, err = f.store.ResolveObjects(ctx, []domain.ObjectRef{{Type: "image", ID: 42}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SaveAndLoad(t *testing.T) {
	f := newFixture(t)
	sel := domain.Multi(img1, img2)

	tag := domain.NewAnnotation(domain.TagValue{Name: "mitosis", Description: "cell division"}, domain.Experimenter{})
	result := f.save(t, sel, f.alice, []*domain.Annotation{tag}, nil)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 2, result.Added)

	bundles := f.load(t, domain.ObjectRef{Type: "image", ID: 1}, domain.ObjectRef{Type: "image", ID: 2})
	require.Len(t, bundles, 2)
	assert.Equal(t, int64(3), bundles[0].Object.GroupID)

	l1, l2 := bundles[0].Links[0], bundles[1].Links[0]
	assert.Same(t, l1.Annotation, l2.Annotation, "one instance per load")
	assert.True(t, l1.Deletable)
	assert.Equal(t, f.alice.ID, l1.Annotation.Owner.ID)
	assert.Equal(t, "alice", l1.Annotation.Owner.Name)
	assert.Equal(t, domain.TagValue{Name: "mitosis", Description: "cell division"}, l1.Annotation.Value)

	// linking again changes nothing
	again := f.save(t, sel, f.alice, []*domain.Annotation{l1.Annotation}, nil)
	assert.Equal(t, 0, again.Changed())
}

func TestStore_RemoveOnlyOwnLinks(t *testing.T) {
	f := newFixture(t)
	sel := domain.Single(img1)

	f.save(t, sel, f.bob, []*domain.Annotation{domain.NewAnnotation(domain.TagValue{Name: "theirs"}, f.bob)}, nil)
	f.save(t, sel, f.alice, []*domain.Annotation{domain.NewAnnotation(domain.TagValue{Name: "mine"}, f.alice)}, nil)

	links := f.load(t, img1)[0].Links
	require.Len(t, links, 2)
	assert.False(t, links[0].Deletable)
	assert.True(t, links[1].Deletable)

	var remove []*domain.Annotation
	for _, l := range links {
		remove = append(remove, l.Annotation)
	}
	result := f.save(t, sel, f.alice, nil, remove)
	assert.Equal(t, 1, result.Removed)

	left := f.load(t, img1)[0].Tags()
	require.Len(t, left, 1)
	assert.Equal(t, "theirs", left[0].DisplayValue())
}

func TestStore_UpdateModifiedContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sel := domain.Single(img1)

	f.save(t, sel, f.alice, []*domain.Annotation{domain.NewAnnotation(domain.TagValue{Name: "t"}, f.alice)}, nil)
	loaded := f.load(t, img1)[0].Tags()[0]

	edited := loaded.Clone()
	edited.Value = domain.TagValue{Name: "t", Description: "edited"}
	result := f.save(t, sel, f.alice, []*domain.Annotation{edited}, nil)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Added)

	got, err := f.store.GetAnnotation(ctx, loaded.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Value.(domain.TagValue).Description)

	_, err = f.store.GetAnnotation(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpdateDoesNotLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.save(t, domain.Single(img1), f.alice, []*domain.Annotation{domain.NewAnnotation(domain.TagValue{Name: "partial"}, f.alice)}, nil)
	loaded := f.load(t, img1)[0].Tags()[0]

	edited := loaded.Clone()
	edited.Value = domain.TagValue{Name: "partial", Description: "edited"}
	result, err := f.store.Save(ctx, domain.SaveRequest{
		Selection: domain.Multi(img1, img2),
		ToUpdate:  []*domain.Annotation{edited},
	}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Added)

	assert.Empty(t, f.load(t, img2)[0].Tags())
	got, err := f.store.GetAnnotation(ctx, loaded.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Value.(domain.TagValue).Description)
}

func TestStore_RatingReplacesUsersRating(t *testing.T) {
	f := newFixture(t)
	sel := domain.Single(img1)

	f.save(t, sel, f.bob, []*domain.Annotation{domain.NewAnnotation(domain.RatingValue{Stars: 4}, f.bob)}, nil)
	f.save(t, sel, f.alice, []*domain.Annotation{domain.NewAnnotation(domain.RatingValue{Stars: 2}, f.alice)}, nil)
	f.save(t, sel, f.alice, []*domain.Annotation{domain.NewAnnotation(domain.RatingValue{Stars: 5}, f.alice)}, nil)

	ratings := f.load(t, img1)[0].Ratings()
	require.Len(t, ratings, 2)
	stars := map[int64]int{}
	for _, r := range ratings {
		stars[r.Owner.ID] = r.Value.(domain.RatingValue).Stars
	}
	assert.Equal(t, map[int64]int{f.bob.ID: 4, f.alice.ID: 5}, stars)
}

func TestStore_PayloadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	when := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	values := []domain.Value{
		domain.FileValue{Name: "a.csv", MimeType: "text/csv", Size: 12},
		domain.BooleanValue{Value: true},
		domain.LongValue{Value: -7},
		domain.DoubleValue{Value: 2.5},
		domain.TermValue{Term: "GO:0007067"},
		domain.XMLValue{Text: "<a/>"},
		domain.TimeValue{Value: when},
		domain.MapValue{Pairs: []domain.Pair{{Name: "stain", Value: "DAPI"}}},
	}
	var add []*domain.Annotation
	for _, v := range values {
		a := domain.NewAnnotation(v, f.alice)
		a.Namespace = "lab/protocol"
		add = append(add, a)
	}
	f.save(t, domain.Single(img2), f.alice, add, nil)

	links := f.load(t, img2)[0].Links
	require.Len(t, links, len(values))
	for i, l := range links {
		assert.Equal(t, "lab/protocol", l.Annotation.Namespace)
		if tv, ok := values[i].(domain.TimeValue); ok {
			assert.True(t, tv.Value.Equal(l.Annotation.Value.(domain.TimeValue).Value))
			continue
		}
		assert.Equal(t, values[i], l.Annotation.Value)
	}

	maps, err := f.store.ListAnnotations(ctx, domain.KindMap)
	require.NoError(t, err)
	assert.Len(t, maps, 1)
}

func TestStore_SaveUnknownObjectRollsBack(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Save(context.Background(), domain.SaveRequest{
		Selection: domain.Multi(img1, domain.ObjectRef{Type: "image", ID: 77}),
		ToAdd:     []*domain.Annotation{domain.NewAnnotation(domain.TagValue{Name: "x"}, f.alice)},
	}, f.alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tags, err := f.store.ListAnnotations(context.Background(), domain.KindTag)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

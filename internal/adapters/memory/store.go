// Package memory provides an in-process annotation store. It mirrors the
// semantics of the SQLite store and backs tests and throwaway sessions.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"annotator/internal/domain"
	"annotator/internal/ports"
)

type storedLink struct {
	object       string
	annotationID int64
	owner        domain.Experimenter
}

// Store implements ports.AnnotationStore in memory
type Store struct {
	mu sync.Mutex

	objects     map[string]domain.ObjectRef
	objectOrder []string
	annotations map[int64]*domain.Annotation
	links       []storedLink
	users       map[string]domain.Experimenter

	nextAnnotationID int64
	nextUserID       int64
}

// Ensure Store implements AnnotationStore
var _ ports.AnnotationStore = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		objects:          make(map[string]domain.ObjectRef),
		annotations:      make(map[int64]*domain.Annotation),
		users:            make(map[string]domain.Experimenter),
		nextAnnotationID: 1,
		nextUserID:       1,
	}
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// CreateObject registers an object; registering it twice updates its group
func (s *Store) CreateObject(_ context.Context, obj domain.ObjectRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := obj.String()
	if _, ok := s.objects[key]; !ok {
		s.objectOrder = append(s.objectOrder, key)
	}
	s.objects[key] = obj
	return nil
}

// ListObjects returns the objects of a type, or all objects when objectType is empty
func (s *Store) ListObjects(_ context.Context, objectType string) ([]domain.ObjectRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.ObjectRef
	for _, key := range s.objectOrder {
		obj := s.objects[key]
		if objectType == "" || strings.EqualFold(obj.Type, objectType) {
			out = append(out, obj)
		}
	}
	return out, nil
}

// ResolveObjects returns the stored form (with group) of each reference
func (s *Store) ResolveObjects(_ context.Context, refs []domain.ObjectRef) ([]domain.ObjectRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resolve(refs)
}

func (s *Store) resolve(refs []domain.ObjectRef) ([]domain.ObjectRef, error) {
	out := make([]domain.ObjectRef, 0, len(refs))
	for _, r := range refs {
		obj, ok := s.objects[r.String()]
		if !ok {
			return nil, fmt.Errorf("object %s: %w", r, domain.ErrNotFound)
		}
		out = append(out, obj)
	}
	return out, nil
}

// EnsureExperimenter returns the user with the name, creating it when missing
func (s *Store) EnsureExperimenter(_ context.Context, name string) (domain.Experimenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[name]; ok {
		return u, nil
	}
	u := domain.Experimenter{ID: s.nextUserID, Name: name}
	s.nextUserID++
	s.users[name] = u
	return u, nil
}

// LoadStructured returns one bundle per object. Each annotation is a single
// instance shared by all bundles of the call.
func (s *Store) LoadStructured(_ context.Context, objects []domain.ObjectRef, user domain.Experimenter) ([]*domain.StructuredAnnotations, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved, err := s.resolve(objects)
	if err != nil {
		return nil, err
	}

	instances := make(map[int64]*domain.Annotation)
	out := make([]*domain.StructuredAnnotations, 0, len(resolved))
	for _, obj := range resolved {
		b := &domain.StructuredAnnotations{Object: obj}
		for _, l := range s.links {
			if l.object != obj.String() {
				continue
			}
			a, ok := instances[l.annotationID]
			if !ok {
				a = s.annotations[l.annotationID].Clone()
				instances[l.annotationID] = a
			}
			b.Links = append(b.Links, domain.Link{
				Object:     obj,
				Annotation: a,
				Owner:      l.owner,
				Deletable:  l.owner.ID == user.ID,
			})
		}
		out = append(out, b)
	}
	return out, nil
}

// ListAnnotations returns every stored annotation of a kind, by id
func (s *Store) ListAnnotations(_ context.Context, kind domain.Kind) ([]*domain.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Annotation
	for id := int64(1); id < s.nextAnnotationID; id++ {
		if a, ok := s.annotations[id]; ok && a.Kind() == kind {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

// GetAnnotation returns one annotation
func (s *Store) GetAnnotation(_ context.Context, id int64) (*domain.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.annotations[id]
	if !ok {
		return nil, fmt.Errorf("annotation %d: %w", id, domain.ErrNotFound)
	}
	return a.Clone(), nil
}

// Save applies removals, then content updates, then additions to every
// object of the selection. Only links owned by user are removed.
func (s *Store) Save(ctx context.Context, req domain.SaveRequest, user domain.Experimenter) (*domain.SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	objects, err := s.resolve(req.Selection.Objects())
	if err != nil {
		return nil, err
	}

	result := &domain.SaveResult{ID: uuid.NewString()}

	for _, a := range req.ToRemove {
		if !a.Persisted() {
			continue
		}
		for _, obj := range objects {
			result.Removed += s.unlink(obj.String(), func(l storedLink) bool {
				return l.annotationID == a.ID && l.owner.ID == user.ID
			})
		}
	}

	for _, a := range req.ToUpdate {
		if !a.Persisted() {
			continue
		}
		updated, err := s.rewrite(a)
		if err != nil {
			return nil, err
		}
		if updated {
			result.Updated++
		}
	}

	for _, a := range req.ToAdd {
		id := a.ID
		if !a.Persisted() {
			stored := a.Clone()
			stored.ID = s.nextAnnotationID
			if stored.Owner.ID == 0 {
				stored.Owner = user
			}
			s.nextAnnotationID++
			s.annotations[stored.ID] = stored
			id = stored.ID
		} else {
			updated, err := s.rewrite(a)
			if err != nil {
				return nil, err
			}
			if updated {
				result.Updated++
			}
		}

		for _, obj := range objects {
			key := obj.String()
			if a.Kind() == domain.KindRating {
				s.unlink(key, func(l storedLink) bool {
					return l.owner.ID == user.ID && l.annotationID != id &&
						s.annotations[l.annotationID].Kind() == domain.KindRating
				})
			}
			if s.linked(key, id) {
				continue
			}
			s.links = append(s.links, storedLink{object: key, annotationID: id, owner: user})
			result.Added++
		}
	}

	return result, nil
}

// rewrite replaces the stored content of a persisted annotation when it
// differs. The owner never changes.
func (s *Store) rewrite(a *domain.Annotation) (bool, error) {
	stored, ok := s.annotations[a.ID]
	if !ok {
		return false, fmt.Errorf("annotation %d: %w", a.ID, domain.ErrNotFound)
	}
	if stored.Namespace == a.Namespace && reflect.DeepEqual(stored.Value, a.Value) {
		return false, nil
	}
	updated := a.Clone()
	updated.Owner = stored.Owner
	s.annotations[a.ID] = updated
	return true, nil
}

func (s *Store) unlink(object string, match func(storedLink) bool) int {
	kept := s.links[:0]
	removed := 0
	for _, l := range s.links {
		if l.object == object && match(l) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	s.links = kept
	return removed
}

func (s *Store) linked(object string, id int64) bool {
	for _, l := range s.links {
		if l.object == object && l.annotationID == id {
			return true
		}
	}
	return false
}

// Link creates a link owned by owner directly, bypassing reconciliation.
// It stores the annotation first when it is transient and returns its id.
func (s *Store) Link(obj domain.ObjectRef, a *domain.Annotation, owner domain.Experimenter) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := a.ID
	if !a.Persisted() {
		stored := a.Clone()
		stored.ID = s.nextAnnotationID
		s.nextAnnotationID++
		s.annotations[stored.ID] = stored
		id = stored.ID
	} else if _, ok := s.annotations[id]; !ok {
		s.annotations[id] = a.Clone()
		if id >= s.nextAnnotationID {
			s.nextAnnotationID = id + 1
		}
	}
	key := obj.String()
	if !s.linked(key, id) {
		s.links = append(s.links, storedLink{object: key, annotationID: id, owner: owner})
	}
	return id
}

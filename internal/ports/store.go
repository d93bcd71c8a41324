package ports

import (
	"context"

	"annotator/internal/domain"
)

// AnnotationStore is the server side of the engine: it loads the structured
// annotations of objects and persists save requests.
type AnnotationStore interface {
	// Lifecycle
	Close() error

	// Objects
	CreateObject(ctx context.Context, obj domain.ObjectRef) error
	ListObjects(ctx context.Context, objectType string) ([]domain.ObjectRef, error)
	ResolveObjects(ctx context.Context, refs []domain.ObjectRef) ([]domain.ObjectRef, error)

	// Annotations. Links owned by user are reported as deletable.
	LoadStructured(ctx context.Context, objects []domain.ObjectRef, user domain.Experimenter) ([]*domain.StructuredAnnotations, error)
	ListAnnotations(ctx context.Context, kind domain.Kind) ([]*domain.Annotation, error)
	GetAnnotation(ctx context.Context, id int64) (*domain.Annotation, error)

	// Save applies a request to every object of its selection on behalf of the user
	Save(ctx context.Context, req domain.SaveRequest, user domain.Experimenter) (*domain.SaveResult, error)

	// Users
	EnsureExperimenter(ctx context.Context, name string) (domain.Experimenter, error)
}

// PermissionModel answers the permission questions for the current user
type PermissionModel interface {
	// ForIndex returns the permissions that gate deltas over the loaded index
	ForIndex(index *domain.Index) domain.Permissions
}

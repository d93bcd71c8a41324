package commands

import (
	"context"
	"fmt"
	"strings"

	"annotator/internal/application"
	"annotator/internal/domain"
	"annotator/internal/ports"
)

// CreateObjectResult contains the result of registering an object
type CreateObjectResult struct {
	Object  domain.ObjectRef
	Message string
}

// CreateObjectCommand registers an annotatable object in the store
type CreateObjectCommand struct {
	store      ports.AnnotationStore
	ObjectType string
	ObjectID   int64
	GroupID    int64
}

// NewCreateObjectCommand creates a new CreateObjectCommand
func NewCreateObjectCommand(store ports.AnnotationStore, objectType string, objectID, groupID int64) *CreateObjectCommand {
	return &CreateObjectCommand{
		store:      store,
		ObjectType: objectType,
		ObjectID:   objectID,
		GroupID:    groupID,
	}
}

// Validate checks the object reference
func (c *CreateObjectCommand) Validate() error {
	if err := application.ValidateRequired("objectType", c.ObjectType); err != nil {
		return err
	}
	if strings.Contains(c.ObjectType, ":") {
		return &application.ValidationError{
			Field:   "objectType",
			Message: fmt.Sprintf("object type must not contain ':', got: %s", c.ObjectType),
		}
	}
	if c.ObjectID < 0 {
		return &application.ValidationError{
			Field:   "objectID",
			Message: fmt.Sprintf("object ID must not be negative, got: %d", c.ObjectID),
		}
	}
	return nil
}

// Execute runs the create object command
func (c *CreateObjectCommand) Execute(ctx context.Context) (*CreateObjectResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	obj := domain.ObjectRef{
		Type:    strings.ToLower(strings.TrimSpace(c.ObjectType)),
		ID:      c.ObjectID,
		GroupID: c.GroupID,
	}
	if err := c.store.CreateObject(ctx, obj); err != nil {
		return nil, fmt.Errorf("failed to create object: %w", err)
	}

	return &CreateObjectResult{
		Object:  obj,
		Message: fmt.Sprintf("Registered object: %s", obj),
	}, nil
}

// ListObjectsCommand lists the registered objects, optionally of one type
type ListObjectsCommand struct {
	store      ports.AnnotationStore
	ObjectType string
}

// NewListObjectsCommand creates a new ListObjectsCommand
func NewListObjectsCommand(store ports.AnnotationStore, objectType string) *ListObjectsCommand {
	return &ListObjectsCommand{
		store:      store,
		ObjectType: objectType,
	}
}

// Execute runs the list objects command
func (c *ListObjectsCommand) Execute(ctx context.Context) ([]domain.ObjectRef, error) {
	return c.store.ListObjects(ctx, strings.TrimSpace(c.ObjectType))
}

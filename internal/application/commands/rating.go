package commands

import (
	"context"
	"fmt"

	"annotator/internal/application"
	"annotator/internal/domain"
	"annotator/internal/ports"
)

// RateResult contains the result of rating a selection
type RateResult struct {
	Save    *domain.SaveResult
	Message string
}

// RateCommand sets the user's rating on every selected object. Zero removes it.
type RateCommand struct {
	store   ports.AnnotationStore
	options []application.EditorOption
	perms   ports.PermissionModel
	User    domain.Experimenter
	Objects []domain.ObjectRef
	Stars   int
}

// NewRateCommand creates a new RateCommand
func NewRateCommand(store ports.AnnotationStore, perms ports.PermissionModel, user domain.Experimenter, objects []domain.ObjectRef, stars int, opts ...application.EditorOption) *RateCommand {
	return &RateCommand{
		store:   store,
		options: opts,
		perms:   perms,
		User:    user,
		Objects: objects,
		Stars:   stars,
	}
}

// Validate checks the selection and the star range
func (c *RateCommand) Validate() error {
	if err := application.ValidateObjects("objects", c.Objects); err != nil {
		return err
	}
	return application.ValidateRating("stars", c.Stars)
}

// Execute runs the rate command
func (c *RateCommand) Execute(ctx context.Context) (*RateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	e, err := openEditor(ctx, c.store, c.perms, c.User, c.Objects, c.options...)
	if err != nil {
		return nil, err
	}
	if c.Stars > 0 && !permissionsOf(c.perms, e).CanAnnotate() {
		return nil, fmt.Errorf("cannot rate: %w", application.ErrNotPermitted)
	}
	if err := e.SetRating(c.Stars); err != nil {
		return nil, err
	}

	saved, err := e.Save(ctx)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Rated %d objects: %d stars", len(c.Objects), c.Stars)
	if c.Stars == 0 {
		msg = fmt.Sprintf("Removed rating from %d objects", len(c.Objects))
	}
	return &RateResult{Save: saved, Message: msg}, nil
}

// PublishResult contains the result of changing the published flag
type PublishResult struct {
	Save    *domain.SaveResult
	Message string
}

// PublishCommand sets or clears the published flag of a selection
type PublishCommand struct {
	store     ports.AnnotationStore
	options   []application.EditorOption
	perms     ports.PermissionModel
	User      domain.Experimenter
	Objects   []domain.ObjectRef
	Published bool
}

// NewPublishCommand creates a new PublishCommand
func NewPublishCommand(store ports.AnnotationStore, perms ports.PermissionModel, user domain.Experimenter, objects []domain.ObjectRef, published bool, opts ...application.EditorOption) *PublishCommand {
	return &PublishCommand{
		store:     store,
		options:   opts,
		perms:     perms,
		User:      user,
		Objects:   objects,
		Published: published,
	}
}

// Validate checks the selection
func (c *PublishCommand) Validate() error {
	return application.ValidateObjects("objects", c.Objects)
}

// Execute runs the publish command
func (c *PublishCommand) Execute(ctx context.Context) (*PublishResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	e, err := openEditor(ctx, c.store, c.perms, c.User, c.Objects, c.options...)
	if err != nil {
		return nil, err
	}
	if c.Published && !permissionsOf(c.perms, e).CanAnnotate() {
		return nil, fmt.Errorf("cannot publish: %w", application.ErrNotPermitted)
	}
	e.SetPublished(c.Published)

	saved, err := e.Save(ctx)
	if err != nil {
		return nil, err
	}

	state := "published"
	if !c.Published {
		state = "unpublished"
	}
	return &PublishResult{
		Save:    saved,
		Message: fmt.Sprintf("Marked %d objects %s", len(c.Objects), state),
	}, nil
}

func permissionsOf(perms ports.PermissionModel, e *application.Editor) domain.Permissions {
	if perms == nil {
		perms = application.StaticPermissions{}
	}
	return perms.ForIndex(e.Index())
}

package commands

import (
	"context"
	"fmt"

	"annotator/internal/application"
	"annotator/internal/domain"
	"annotator/internal/ports"
)

// openEditor validates the objects and loads them into a fresh editor
func openEditor(ctx context.Context, store ports.AnnotationStore, perms ports.PermissionModel, user domain.Experimenter, objects []domain.ObjectRef, opts ...application.EditorOption) (*application.Editor, error) {
	if err := application.ValidateObjects("objects", objects); err != nil {
		return nil, err
	}
	e := application.NewEditor(store, perms, user, opts...)
	if err := e.SetRootObject(ctx, application.SelectionOf(objects)); err != nil {
		return nil, err
	}
	return e, nil
}

// AnnotationSummary describes one annotation of a selection
type AnnotationSummary struct {
	Annotation *domain.Annotation
	// Linked is the number of selected objects carrying the annotation
	Linked     int
	Annotators []domain.Experimenter
}

// ListAnnotationsResult contains the annotations of a selection
type ListAnnotationsResult struct {
	State       domain.LoadState
	Objects     int
	Annotations []AnnotationSummary
	Rating      int
	AvgRating   float64
	RatingCount int
	Published   bool
	Message     string
}

// ListAnnotationsCommand lists the annotations linked to a selection
type ListAnnotationsCommand struct {
	store   ports.AnnotationStore
	options []application.EditorOption
	User    domain.Experimenter
	Objects []domain.ObjectRef
	// Kind restricts the listing; KindUnknown lists every kind but ratings
	Kind domain.Kind
}

// NewListAnnotationsCommand creates a new ListAnnotationsCommand
func NewListAnnotationsCommand(store ports.AnnotationStore, user domain.Experimenter, objects []domain.ObjectRef, kind domain.Kind, opts ...application.EditorOption) *ListAnnotationsCommand {
	return &ListAnnotationsCommand{
		store:   store,
		options: opts,
		User:    user,
		Objects: objects,
		Kind:    kind,
	}
}

// Validate checks the selection
func (c *ListAnnotationsCommand) Validate() error {
	return application.ValidateObjects("objects", c.Objects)
}

// Execute runs the list annotations command
func (c *ListAnnotationsCommand) Execute(ctx context.Context) (*ListAnnotationsResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	e, err := openEditor(ctx, c.store, nil, c.User, c.Objects, c.options...)
	if err != nil {
		return nil, err
	}
	idx := e.Index()

	kinds := []domain.Kind{c.Kind}
	if c.Kind == domain.KindUnknown {
		kinds = domain.Kinds
	}

	result := &ListAnnotationsResult{
		State:     idx.State(),
		Objects:   idx.Selection().Size(),
		Rating:    e.Rating(),
		Published: e.Published(),
	}
	result.AvgRating, result.RatingCount = idx.AverageRating()

	for _, k := range kinds {
		if k == domain.KindRating {
			continue
		}
		for _, a := range idx.AllOfKind(k) {
			if a.Namespace == domain.NamespacePublished {
				continue
			}
			result.Annotations = append(result.Annotations, AnnotationSummary{
				Annotation: a,
				Linked:     idx.LinkCount(a),
				Annotators: idx.Annotators(a),
			})
		}
	}

	result.Message = fmt.Sprintf("%d annotations on %d objects", len(result.Annotations), result.Objects)
	return result, nil
}

// CommonAnnotationsResult contains the annotations shared by every selected object
type CommonAnnotationsResult struct {
	Annotations []*domain.Annotation
	Message     string
}

// CommonAnnotationsCommand computes the annotations of a kind linked to all selected objects
type CommonAnnotationsCommand struct {
	store   ports.AnnotationStore
	options []application.EditorOption
	User    domain.Experimenter
	Objects []domain.ObjectRef
	Kind    domain.Kind
}

// NewCommonAnnotationsCommand creates a new CommonAnnotationsCommand
func NewCommonAnnotationsCommand(store ports.AnnotationStore, user domain.Experimenter, objects []domain.ObjectRef, kind domain.Kind, opts ...application.EditorOption) *CommonAnnotationsCommand {
	return &CommonAnnotationsCommand{
		store:   store,
		options: opts,
		User:    user,
		Objects: objects,
		Kind:    kind,
	}
}

// Validate checks the selection and the kind
func (c *CommonAnnotationsCommand) Validate() error {
	if err := application.ValidateObjects("objects", c.Objects); err != nil {
		return err
	}
	if c.Kind == domain.KindUnknown {
		return &application.ValidationError{
			Field:   "kind",
			Message: "kind is required",
		}
	}
	return nil
}

// Execute runs the common annotations command
func (c *CommonAnnotationsCommand) Execute(ctx context.Context) (*CommonAnnotationsResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	e, err := openEditor(ctx, c.store, nil, c.User, c.Objects, c.options...)
	if err != nil {
		return nil, err
	}

	common := e.Index().Common(c.Kind)
	return &CommonAnnotationsResult{
		Annotations: common,
		Message:     fmt.Sprintf("%d %s annotations common to %d objects", len(common), c.Kind, len(c.Objects)),
	}, nil
}

// SetMode tells how SetAnnotationsCommand changes a listing
type SetMode int

const (
	// SetModeReplace makes the values the exact listing of every object
	SetModeReplace SetMode = iota
	// SetModeAdd links the values to every object
	SetModeAdd
	// SetModeRemove unlinks the values from every object
	SetModeRemove
)

func (m SetMode) String() string {
	switch m {
	case SetModeAdd:
		return "add"
	case SetModeRemove:
		return "remove"
	default:
		return "replace"
	}
}

// ParseSetMode converts a mode name into a SetMode
func ParseSetMode(s string) (SetMode, error) {
	switch s {
	case "", "replace", "set":
		return SetModeReplace, nil
	case "add":
		return SetModeAdd, nil
	case "remove", "rm":
		return SetModeRemove, nil
	}
	return 0, &application.ValidationError{
		Field:   "mode",
		Message: fmt.Sprintf("unknown mode: %s (expected replace, add or remove)", s),
	}
}

// SetAnnotationsResult contains the result of a reconciled save
type SetAnnotationsResult struct {
	Request domain.SaveRequest
	Save    *domain.SaveResult
	Message string
}

// SetAnnotationsCommand edits the listing of one kind across a selection and saves it
type SetAnnotationsCommand struct {
	store   ports.AnnotationStore
	options []application.EditorOption
	perms   ports.PermissionModel
	User    domain.Experimenter
	Objects []domain.ObjectRef
	Kind    domain.Kind
	Values  []string
	Mode    SetMode
}

// NewSetAnnotationsCommand creates a new SetAnnotationsCommand
func NewSetAnnotationsCommand(store ports.AnnotationStore, perms ports.PermissionModel, user domain.Experimenter, objects []domain.ObjectRef, kind domain.Kind, values []string, mode SetMode, opts ...application.EditorOption) *SetAnnotationsCommand {
	return &SetAnnotationsCommand{
		store:   store,
		options: opts,
		perms:   perms,
		User:    user,
		Objects: objects,
		Kind:    kind,
		Values:  values,
		Mode:    mode,
	}
}

// Validate checks the selection, the kind and the values
func (c *SetAnnotationsCommand) Validate() error {
	if err := application.ValidateObjects("objects", c.Objects); err != nil {
		return err
	}
	if err := application.ValidateKind("kind", c.Kind); err != nil {
		return err
	}
	if c.Mode != SetModeReplace && len(c.Values) == 0 {
		return &application.ValidationError{
			Field:   "values",
			Message: fmt.Sprintf("at least one value is required to %s", c.Mode),
		}
	}
	for _, v := range c.Values {
		if _, err := ParseValue(c.Kind, v); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the set annotations command
func (c *SetAnnotationsCommand) Execute(ctx context.Context) (*SetAnnotationsResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	e, err := openEditor(ctx, c.store, c.perms, c.User, c.Objects, c.options...)
	if err != nil {
		return nil, err
	}
	if c.Mode != SetModeRemove && len(c.Values) > 0 && !permissionsOf(c.perms, e).CanAnnotate() {
		return nil, fmt.Errorf("cannot link %s annotations: %w", c.Kind, application.ErrNotPermitted)
	}

	values := c.distinctValues()
	switch c.Mode {
	case SetModeReplace:
		var entries []domain.Entry
		for _, v := range values {
			a, err := c.resolve(ctx, e, v)
			if err != nil {
				return nil, err
			}
			entries = append(entries, domain.Entry{Annotation: a})
		}
		if err := e.Apply(c.Kind, entries); err != nil {
			return nil, err
		}
	case SetModeAdd:
		for _, v := range values {
			a, err := c.resolve(ctx, e, v)
			if err != nil {
				return nil, err
			}
			if err := e.Add(a); err != nil {
				return nil, err
			}
		}
	case SetModeRemove:
		for _, v := range values {
			value, err := ParseValue(c.Kind, v)
			if err != nil {
				return nil, err
			}
			a := findByValue(e.Index().AllOfKind(c.Kind), (&domain.Annotation{Value: value}).DisplayValue())
			if a == nil {
				return nil, fmt.Errorf("%s %q on selection: %w", c.Kind, v, application.ErrNotFound)
			}
			if err := e.Remove(a); err != nil {
				return nil, err
			}
		}
	}

	req, err := e.BuildSave()
	if err != nil {
		return nil, err
	}
	saved, err := e.Save(ctx)
	if err != nil {
		return nil, err
	}

	return &SetAnnotationsResult{
		Request: req,
		Save:    saved,
		Message: fmt.Sprintf("Saved %s on %d objects: %d linked, %d unlinked, %d updated",
			c.Kind, len(c.Objects), saved.Added, saved.Removed, saved.Updated),
	}, nil
}

// resolve reuses an annotation with the same value, first from the selection,
// then from the store; otherwise it creates a transient one
func (c *SetAnnotationsCommand) resolve(ctx context.Context, e *application.Editor, text string) (*domain.Annotation, error) {
	value, err := ParseValue(c.Kind, text)
	if err != nil {
		return nil, err
	}
	display := (&domain.Annotation{Value: value}).DisplayValue()

	if a := findByValue(e.Index().AllOfKind(c.Kind), display); a != nil {
		return a, nil
	}

	stored, err := c.store.ListAnnotations(ctx, c.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s annotations: %w", c.Kind, err)
	}
	if a := findByValue(stored, display); a != nil {
		return a, nil
	}

	return domain.NewAnnotation(value, c.User), nil
}

// distinctValues drops values that display like an earlier one, so "1" and
// "01" name a single long annotation. Values are validated beforehand.
func (c *SetAnnotationsCommand) distinctValues() []string {
	seen := make(map[string]bool, len(c.Values))
	out := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		value, err := ParseValue(c.Kind, v)
		if err != nil {
			continue
		}
		display := (&domain.Annotation{Value: value}).DisplayValue()
		if seen[display] {
			continue
		}
		seen[display] = true
		out = append(out, v)
	}
	return out
}

func findByValue(list []*domain.Annotation, display string) *domain.Annotation {
	for _, a := range list {
		if a.DisplayValue() == display {
			return a
		}
	}
	return nil
}

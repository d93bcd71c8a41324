package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"annotator/internal/domain"
	"annotator/internal/ports"
)

// Events are the callbacks an editor fires. All run synchronously on the
// caller's goroutine; nil callbacks are skipped.
type Events struct {
	OnSelectionChanged func(domain.Selection)
	OnLoaded           func(domain.Selection, domain.LoadState)
	OnSaveRequested    func(domain.SaveRequest)
}

// document is one entry of a listing, bound to the object it was shown for
type document struct {
	object domain.ObjectRef
	entry  domain.Entry
}

// Editor holds the editing state for the active selection: the loaded
// index, the listing of every kind and the pending change set.
// It is not safe for concurrent use.
type Editor struct {
	store  ports.AnnotationStore
	perms  ports.PermissionModel
	user   domain.Experimenter
	events Events
	logger zerolog.Logger

	index    *domain.Index
	pending  domain.PendingChangeSet
	listings map[domain.Kind][]document
	metadata []any

	initialRating    int
	rating           int
	initialPublished bool
	published        bool
}

// EditorOption configures an Editor
type EditorOption func(*Editor)

// WithEvents sets the editor callbacks
func WithEvents(events Events) EditorOption {
	return func(e *Editor) {
		e.events = events
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) EditorOption {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithNamespaceFilter replaces the default namespace denylist
func WithNamespaceFilter(filter *domain.NamespaceFilter) EditorOption {
	return func(e *Editor) {
		e.index = domain.NewIndex(filter, nil)
	}
}

// NewEditor creates an editor acting on behalf of user
func NewEditor(store ports.AnnotationStore, perms ports.PermissionModel, user domain.Experimenter, opts ...EditorOption) *Editor {
	e := &Editor{
		store:  store,
		perms:  perms,
		user:   user,
		logger: zerolog.Nop(),
		index:  domain.NewIndex(domain.MustDefaultNamespaceFilter(), nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.perms == nil {
		e.perms = StaticPermissions{}
	}
	return e
}

// User returns the user the editor acts for
func (e *Editor) User() domain.Experimenter {
	return e.user
}

// Index returns the per-object annotation index
func (e *Editor) Index() *domain.Index {
	return e.index
}

// Selection returns the active selection
func (e *Editor) Selection() domain.Selection {
	return e.index.Selection()
}

// Pending returns the pending change set
func (e *Editor) Pending() domain.PendingChangeSet {
	return e.pending
}

// SetRootObject makes the selection active, drops all editing state and loads
// the structured annotations of the selected objects.
func (e *Editor) SetRootObject(ctx context.Context, selection domain.Selection) error {
	e.index.SetRoot(selection)
	e.clearData()
	if e.events.OnSelectionChanged != nil {
		e.events.OnSelectionChanged(selection)
	}
	if selection.IsEmpty() {
		return ErrNoSelection
	}

	bundles, err := e.store.LoadStructured(ctx, selection.Objects(), e.user)
	if err != nil {
		return fmt.Errorf("failed to load annotations: %w", err)
	}
	if err := e.index.Populate(selection, bundles); err != nil {
		return err
	}
	e.resetListings()

	e.logger.Debug().
		Int("objects", selection.Size()).
		Bool("multi", selection.IsMulti()).
		Str("state", e.index.State().String()).
		Msg("annotations loaded")

	if e.events.OnLoaded != nil {
		e.events.OnLoaded(selection, e.index.State())
	}
	return nil
}

func (e *Editor) clearData() {
	e.pending = 0
	e.listings = make(map[domain.Kind][]document)
	e.metadata = nil
	e.initialRating, e.rating = 0, 0
	e.initialPublished, e.published = false, false
}

// resetListings builds one document per object and annotation from the index
func (e *Editor) resetListings() {
	for _, obj := range e.index.Selection().Objects() {
		b := e.index.Bundle(obj)
		if b == nil {
			continue
		}
		seen := make(map[int64]bool)
		for _, l := range b.Links {
			a := l.Annotation
			kind := a.Kind()
			if kind == domain.KindRating || seen[a.ID] || a.Namespace == domain.NamespacePublished {
				continue
			}
			seen[a.ID] = true
			e.listings[kind] = append(e.listings[kind], document{object: obj, entry: domain.Entry{Annotation: a}})
		}
	}

	if r := e.index.UserRating(e.user); r != nil {
		if v, ok := r.Value.(domain.RatingValue); ok {
			e.initialRating = domain.ClampRating(v.Stars)
		}
	}
	if p := e.index.Published(); p != nil {
		if v, ok := p.Value.(domain.BooleanValue); ok {
			e.initialPublished = v.Value
		}
	}
	e.rating, e.published = e.initialRating, e.initialPublished
}

// Listing returns the documents of a kind as entries
func (e *Editor) Listing(kind domain.Kind) []domain.Entry {
	docs := e.listings[kind]
	out := make([]domain.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.entry)
	}
	return out
}

// Applied returns the distinct annotations of the listing of a kind
func (e *Editor) Applied(kind domain.Kind) []*domain.Annotation {
	var out []*domain.Annotation
	for _, d := range e.listings[kind] {
		if !containsAnnotation(out, d.entry.Annotation) {
			out = append(out, d.entry.Annotation)
		}
	}
	return out
}

// Apply replaces the listing of a kind by the entries, applied to every
// selected object. This is the confirmation of a selection wizard.
func (e *Editor) Apply(kind domain.Kind, entries []domain.Entry) error {
	if err := ValidateKind("kind", kind); err != nil {
		return err
	}
	entries = distinctEntries(kind, entries)
	var docs []document
	for _, obj := range e.index.Selection().Objects() {
		for _, ent := range entries {
			docs = append(docs, document{object: obj, entry: ent})
		}
	}
	e.listings[kind] = docs
	e.pending = e.pending.Mark(kind)
	return nil
}

// Add applies one annotation to every selected object that does not show it yet
func (e *Editor) Add(a *domain.Annotation) error {
	kind := a.Kind()
	if err := ValidateKind("kind", kind); err != nil {
		return err
	}
	for _, obj := range e.index.Selection().Objects() {
		if e.shows(kind, obj, a) {
			continue
		}
		e.listings[kind] = append(e.listings[kind], document{object: obj, entry: domain.Entry{Annotation: a}})
	}
	e.pending = e.pending.Mark(kind)
	return nil
}

// Remove drops an annotation from the listing of every selected object
func (e *Editor) Remove(a *domain.Annotation) error {
	kind := a.Kind()
	if err := ValidateKind("kind", kind); err != nil {
		return err
	}
	docs := e.listings[kind][:0:0]
	for _, d := range e.listings[kind] {
		if !sameAnnotation(d.entry.Annotation, a) {
			docs = append(docs, d)
		}
	}
	e.listings[kind] = docs
	e.pending = e.pending.Mark(kind)
	return nil
}

// MarkModified flags the documents of an annotation whose content was edited
func (e *Editor) MarkModified(a *domain.Annotation) {
	kind := a.Kind()
	for i, d := range e.listings[kind] {
		if sameAnnotation(d.entry.Annotation, a) {
			e.listings[kind][i].entry.Modified = true
			e.listings[kind][i].entry.Annotation = a
		}
	}
	e.pending = e.pending.Mark(kind)
}

// Rating returns the current rating of the user
func (e *Editor) Rating() int {
	return e.rating
}

// SetRating changes the rating of the user; zero removes it
func (e *Editor) SetRating(stars int) error {
	if err := ValidateRating("stars", stars); err != nil {
		return err
	}
	e.rating = stars
	return nil
}

// Published returns the current published flag
func (e *Editor) Published() bool {
	return e.published
}

// SetPublished changes the published flag
func (e *Editor) SetPublished(published bool) {
	e.published = published
}

// AttachMetadata adds an opaque item to the next save request
func (e *Editor) AttachMetadata(item any) {
	e.metadata = append(e.metadata, item)
}

// BuildSave reconciles every dirty kind, the rating and the published flag
func (e *Editor) BuildSave() (domain.SaveRequest, error) {
	req := domain.SaveRequest{Selection: e.index.Selection(), Metadata: e.metadata}
	if e.index.State() == domain.NotLoaded {
		return req, ErrNotLoaded
	}

	perms := e.perms.ForIndex(e.index)
	calc := domain.NewCalculator(e.index, perms)

	for _, kind := range e.pending.DirtyKinds() {
		if kind == domain.KindRating {
			continue
		}
		d, err := calc.Delta(kind, e.Listing(kind), e.pending)
		if err != nil {
			return req, err
		}
		e.logger.Debug().
			Str("kind", kind.String()).
			Int("add", len(d.ToAdd)).
			Int("remove", len(d.ToRemove)).
			Int("update", len(d.ToUpdate)).
			Msg("delta computed")
		req.Merge(d)
	}

	req.Merge(gate(domain.ReconcileRating(e.initialRating, e.rating, e.index.UserRating(e.user), e.user), perms))
	req.Merge(gate(domain.ReconcilePublished(e.initialPublished, e.published, e.index.Published(), e.user), perms))
	return req, nil
}

// Save submits the reconciled request. A save that changes something reloads
// the selection; one that changes nothing only clears the pending set.
func (e *Editor) Save(ctx context.Context) (*domain.SaveResult, error) {
	req, err := e.BuildSave()
	if err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		e.pending = 0
		return &domain.SaveResult{}, nil
	}

	if e.events.OnSaveRequested != nil {
		e.events.OnSaveRequested(req)
	}

	result, err := e.store.Save(ctx, req, e.user)
	if err != nil {
		return nil, &SaveError{Objects: req.Selection.Size(), Reason: err.Error(), Err: err}
	}

	e.logger.Info().
		Str("save", result.ID).
		Int("added", result.Added).
		Int("removed", result.Removed).
		Int("updated", result.Updated).
		Msg("annotations saved")

	if result.Changed() == 0 {
		e.pending = 0
		return result, nil
	}
	if err := e.SetRootObject(ctx, req.Selection); err != nil {
		return result, fmt.Errorf("failed to reload after save: %w", err)
	}
	return result, nil
}

func (e *Editor) shows(kind domain.Kind, obj domain.ObjectRef, a *domain.Annotation) bool {
	for _, d := range e.listings[kind] {
		if d.object == obj && sameAnnotation(d.entry.Annotation, a) {
			return true
		}
	}
	return false
}

// gate drops the parts of a flag or rating delta the permissions forbid
func gate(d domain.Delta, perms domain.Permissions) domain.Delta {
	if !perms.CanAnnotate() {
		d.ToAdd = nil
	}
	kept := d.ToRemove[:0:0]
	for _, a := range d.ToRemove {
		if perms.CanDeleteLink(a) {
			kept = append(kept, a)
		}
	}
	d.ToRemove = kept
	return d
}

func sameAnnotation(a, b *domain.Annotation) bool {
	return domain.SameAnnotation(a, b)
}

// distinctEntries keeps the entries of a kind once per annotation; a
// modified repeat wins over the entry it repeats
func distinctEntries(kind domain.Kind, entries []domain.Entry) []domain.Entry {
	var out []domain.Entry
next:
	for _, ent := range entries {
		if ent.Annotation.Kind() != kind {
			continue
		}
		for i, kept := range out {
			if sameAnnotation(kept.Annotation, ent.Annotation) {
				if ent.Modified {
					out[i] = ent
				}
				continue next
			}
		}
		out = append(out, ent)
	}
	return out
}

func containsAnnotation(list []*domain.Annotation, a *domain.Annotation) bool {
	for _, existing := range list {
		if sameAnnotation(existing, a) {
			return true
		}
	}
	return false
}

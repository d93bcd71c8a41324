package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"annotator/internal/domain"
)

// saveTx groups the statements of one save
type saveTx struct {
	tx *sql.Tx
}

// resolveObject returns the stored form of an object
func (t *saveTx) resolveObject(ctx context.Context, ref domain.ObjectRef) (domain.ObjectRef, error) {
	obj := domain.ObjectRef{Type: ref.Type, ID: ref.ID}
	err := t.tx.QueryRowContext(ctx, `
		SELECT group_id FROM objects WHERE type = ? AND id = ?
	`, ref.Type, ref.ID).Scan(&obj.GroupID)
	if errors.Is(err, sql.ErrNoRows) {
		return obj, fmt.Errorf("object %s: %w", ref, domain.ErrNotFound)
	}
	return obj, err
}

// insertAnnotation stores a new annotation and returns its id
func (t *saveTx) insertAnnotation(ctx context.Context, a *domain.Annotation, owner domain.Experimenter) (int64, error) {
	payload, err := encodePayload(a.Value)
	if err != nil {
		return 0, err
	}
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO annotations (kind, namespace, owner_id, payload)
		VALUES (?, ?, ?, ?)
	`, a.Kind().String(), a.Namespace, owner.ID, payload)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// updateAnnotation rewrites the content of a stored annotation when it
// differs and reports whether it did
func (t *saveTx) updateAnnotation(ctx context.Context, a *domain.Annotation) (bool, error) {
	var namespace, payload string
	err := t.tx.QueryRowContext(ctx, `
		SELECT namespace, payload FROM annotations WHERE id = ?
	`, a.ID).Scan(&namespace, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("annotation %d: %w", a.ID, domain.ErrNotFound)
	}
	if err != nil {
		return false, err
	}

	encoded, err := encodePayload(a.Value)
	if err != nil {
		return false, err
	}
	if namespace == a.Namespace && payload == encoded {
		return false, nil
	}

	_, err = t.tx.ExecContext(ctx, `
		UPDATE annotations SET namespace = ?, payload = ? WHERE id = ?
	`, a.Namespace, encoded, a.ID)
	return err == nil, err
}

// link creates a link unless the object already carries the annotation
func (t *saveTx) link(ctx context.Context, obj domain.ObjectRef, annotationID int64, owner domain.Experimenter) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO links (object_type, object_id, annotation_id, owner_id)
		VALUES (?, ?, ?, ?)
	`, obj.Type, obj.ID, annotationID, owner.ID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// unlink removes the link of the annotation owned by owner
func (t *saveTx) unlink(ctx context.Context, obj domain.ObjectRef, annotationID int64, owner domain.Experimenter) (int, error) {
	res, err := t.tx.ExecContext(ctx, `
		DELETE FROM links
		WHERE object_type = ? AND object_id = ? AND annotation_id = ? AND owner_id = ?
	`, obj.Type, obj.ID, annotationID, owner.ID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// unlinkOtherRatings removes every rating of owner on the object except keep
func (t *saveTx) unlinkOtherRatings(ctx context.Context, obj domain.ObjectRef, keep int64, owner domain.Experimenter) error {
	_, err := t.tx.ExecContext(ctx, `
		DELETE FROM links
		WHERE object_type = ? AND object_id = ? AND owner_id = ? AND annotation_id != ?
		AND annotation_id IN (SELECT id FROM annotations WHERE kind = ?)
	`, obj.Type, obj.ID, owner.ID, keep, domain.KindRating.String())
	return err
}

// record writes the audit row of the save
func (t *saveTx) record(ctx context.Context, result *domain.SaveResult, user domain.Experimenter) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO saves (id, user_id, saved_at, added, removed, updated)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.ID, user.ID, time.Now().Unix(), result.Added, result.Removed, result.Updated)
	return err
}

// Commit commits the transaction
func (t *saveTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *saveTx) Rollback() error {
	return t.tx.Rollback()
}

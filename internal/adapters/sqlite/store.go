// Package sqlite stores objects, annotations and links in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"annotator/internal/domain"
	"annotator/internal/ports"
)

const schemaVersion = "1"

// Store implements ports.AnnotationStore using SQLite
type Store struct {
	db     *sql.DB
	dbPath string
	logger zerolog.Logger
}

// Ensure Store implements AnnotationStore
var _ ports.AnnotationStore = (*Store)(nil)

// Open opens (creating if needed) the database at dbPath
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Connection parameters apply to every pooled connection
	dsn := "file:" + dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA cache_size = -64000;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS objects (
			type TEXT NOT NULL,
			id INTEGER NOT NULL,
			group_id INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (type, id)
		);
		CREATE TABLE IF NOT EXISTS annotations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			namespace TEXT NOT NULL DEFAULT '',
			owner_id INTEGER NOT NULL,
			payload TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS links (
			object_type TEXT NOT NULL,
			object_id INTEGER NOT NULL,
			annotation_id INTEGER NOT NULL REFERENCES annotations(id) ON DELETE CASCADE,
			owner_id INTEGER NOT NULL,
			PRIMARY KEY (object_type, object_id, annotation_id),
			FOREIGN KEY (object_type, object_id) REFERENCES objects(type, id) ON DELETE CASCADE
		);
		CREATE TABLE IF NOT EXISTS saves (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			saved_at INTEGER NOT NULL,
			added INTEGER NOT NULL,
			removed INTEGER NOT NULL,
			updated INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_annotations_kind ON annotations(kind);
		CREATE INDEX IF NOT EXISTS idx_links_annotation ON links(annotation_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}

	return &Store{db: db, dbPath: dbPath, logger: zerolog.Nop()}, nil
}

// SetLogger sets the logger that records committed saves
func (s *Store) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateObject registers an object; registering it twice updates its group
func (s *Store) CreateObject(ctx context.Context, obj domain.ObjectRef) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objects (type, id, group_id) VALUES (?, ?, ?)
		ON CONFLICT (type, id) DO UPDATE SET group_id = excluded.group_id
	`, obj.Type, obj.ID, obj.GroupID)
	return err
}

// ListObjects returns the objects of a type, or all objects when objectType is empty
func (s *Store) ListObjects(ctx context.Context, objectType string) ([]domain.ObjectRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, id, group_id FROM objects
		WHERE ? = '' OR type = lower(?)
		ORDER BY rowid
	`, objectType, objectType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []domain.ObjectRef
	for rows.Next() {
		var o domain.ObjectRef
		if err := rows.Scan(&o.Type, &o.ID, &o.GroupID); err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

// ResolveObjects returns the stored form (with group) of each reference
func (s *Store) ResolveObjects(ctx context.Context, refs []domain.ObjectRef) ([]domain.ObjectRef, error) {
	out := make([]domain.ObjectRef, 0, len(refs))
	for _, r := range refs {
		obj := domain.ObjectRef{Type: r.Type, ID: r.ID}
		err := s.db.QueryRowContext(ctx, `
			SELECT group_id FROM objects WHERE type = ? AND id = ?
		`, r.Type, r.ID).Scan(&obj.GroupID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("object %s: %w", r, domain.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// EnsureExperimenter returns the user with the name, creating it when missing
func (s *Store) EnsureExperimenter(ctx context.Context, name string) (domain.Experimenter, error) {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (name) VALUES (?)`, name); err != nil {
		return domain.Experimenter{}, fmt.Errorf("failed to create user: %w", err)
	}
	u := domain.Experimenter{Name: name}
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE name = ?`, name).Scan(&u.ID); err != nil {
		return domain.Experimenter{}, err
	}
	return u, nil
}

// LoadStructured returns one bundle per object. Each annotation is a single
// instance shared by all bundles of the call.
func (s *Store) LoadStructured(ctx context.Context, objects []domain.ObjectRef, user domain.Experimenter) ([]*domain.StructuredAnnotations, error) {
	resolved, err := s.ResolveObjects(ctx, objects)
	if err != nil {
		return nil, err
	}

	instances := make(map[int64]*domain.Annotation)
	out := make([]*domain.StructuredAnnotations, 0, len(resolved))
	for _, obj := range resolved {
		b := &domain.StructuredAnnotations{Object: obj}
		if err := s.loadLinks(ctx, b, user, instances); err != nil {
			return nil, fmt.Errorf("failed to load links of %s: %w", obj, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) loadLinks(ctx context.Context, b *domain.StructuredAnnotations, user domain.Experimenter, instances map[int64]*domain.Annotation) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.kind, a.namespace, a.payload,
			a.owner_id, COALESCE(ao.name, ''),
			l.owner_id, COALESCE(lo.name, '')
		FROM links l
		JOIN annotations a ON a.id = l.annotation_id
		LEFT JOIN users ao ON ao.id = a.owner_id
		LEFT JOIN users lo ON lo.id = l.owner_id
		WHERE l.object_type = ? AND l.object_id = ?
		ORDER BY l.rowid
	`, b.Object.Type, b.Object.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row       annotationRow
			linkOwner domain.Experimenter
		)
		if err := rows.Scan(&row.id, &row.kind, &row.namespace, &row.payload,
			&row.owner.ID, &row.owner.Name, &linkOwner.ID, &linkOwner.Name); err != nil {
			return err
		}

		a, ok := instances[row.id]
		if !ok {
			a, err = row.annotation()
			if err != nil {
				return err
			}
			instances[row.id] = a
		}

		b.Links = append(b.Links, domain.Link{
			Object:     b.Object,
			Annotation: a,
			Owner:      linkOwner,
			Deletable:  linkOwner.ID == user.ID,
		})
	}
	return rows.Err()
}

// ListAnnotations returns every stored annotation of a kind, by id
func (s *Store) ListAnnotations(ctx context.Context, kind domain.Kind) ([]*domain.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.kind, a.namespace, a.payload, a.owner_id, COALESCE(u.name, '')
		FROM annotations a
		LEFT JOIN users u ON u.id = a.owner_id
		WHERE a.kind = ?
		ORDER BY a.id
	`, kind.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Annotation
	for rows.Next() {
		var row annotationRow
		if err := rows.Scan(&row.id, &row.kind, &row.namespace, &row.payload, &row.owner.ID, &row.owner.Name); err != nil {
			return nil, err
		}
		a, err := row.annotation()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAnnotation returns one annotation
func (s *Store) GetAnnotation(ctx context.Context, id int64) (*domain.Annotation, error) {
	var row annotationRow
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.kind, a.namespace, a.payload, a.owner_id, COALESCE(u.name, '')
		FROM annotations a
		LEFT JOIN users u ON u.id = a.owner_id
		WHERE a.id = ?
	`, id).Scan(&row.id, &row.kind, &row.namespace, &row.payload, &row.owner.ID, &row.owner.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("annotation %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.annotation()
}

// Save applies removals, then content updates, then additions to every
// object of the selection in one transaction. Only links owned by user are
// removed.
func (s *Store) Save(ctx context.Context, req domain.SaveRequest, user domain.Experimenter) (*domain.SaveResult, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	tx := &saveTx{tx: sqlTx}
	defer tx.Rollback()

	objects := make([]domain.ObjectRef, 0, req.Selection.Size())
	for _, ref := range req.Selection.Objects() {
		obj, err := tx.resolveObject(ctx, ref)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}

	result := &domain.SaveResult{ID: uuid.NewString()}

	for _, a := range req.ToRemove {
		if !a.Persisted() {
			continue
		}
		for _, obj := range objects {
			n, err := tx.unlink(ctx, obj, a.ID, user)
			if err != nil {
				return nil, fmt.Errorf("failed to unlink %s from %s: %w", a, obj, err)
			}
			result.Removed += n
		}
	}

	for _, a := range req.ToUpdate {
		if !a.Persisted() {
			continue
		}
		updated, err := tx.updateAnnotation(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("failed to update %s: %w", a, err)
		}
		if updated {
			result.Updated++
		}
	}

	for _, a := range req.ToAdd {
		id := a.ID
		if !a.Persisted() {
			owner := a.Owner
			if owner.ID == 0 {
				owner = user
			}
			id, err = tx.insertAnnotation(ctx, a, owner)
			if err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", a, err)
			}
		} else {
			updated, err := tx.updateAnnotation(ctx, a)
			if err != nil {
				return nil, fmt.Errorf("failed to update %s: %w", a, err)
			}
			if updated {
				result.Updated++
			}
		}

		for _, obj := range objects {
			if a.Kind() == domain.KindRating {
				if err := tx.unlinkOtherRatings(ctx, obj, id, user); err != nil {
					return nil, fmt.Errorf("failed to replace rating of %s: %w", obj, err)
				}
			}
			added, err := tx.link(ctx, obj, id, user)
			if err != nil {
				return nil, fmt.Errorf("failed to link %s to %s: %w", a, obj, err)
			}
			if added {
				result.Added++
			}
		}
	}

	if err := tx.record(ctx, result, user); err != nil {
		return nil, fmt.Errorf("failed to record save: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("save", result.ID).
		Str("user", user.Name).
		Int("objects", len(objects)).
		Int("added", result.Added).
		Int("removed", result.Removed).
		Int("updated", result.Updated).
		Msg("annotations saved")
	return result, nil
}

// annotationRow is the scanned form of an annotations row
type annotationRow struct {
	id        int64
	kind      string
	namespace string
	payload   string
	owner     domain.Experimenter
}

func (r annotationRow) annotation() (*domain.Annotation, error) {
	kind, err := domain.ParseKind(r.kind)
	if err != nil {
		return nil, err
	}
	v, err := decodePayload(kind, r.payload)
	if err != nil {
		return nil, err
	}
	return &domain.Annotation{
		ID:        r.id,
		Namespace: r.namespace,
		Owner:     r.owner,
		Value:     v,
	}, nil
}

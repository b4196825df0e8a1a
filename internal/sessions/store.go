package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"coursemerge/internal/config"
	"coursemerge/internal/course"
	"coursemerge/internal/manifest"
)

// Store persists per-session package records in SQLite. A file lock guards
// the database against concurrent processes; within one process the sql pool
// serializes access.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the session database in the work
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.WorkDir, "sessions.db")
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session db lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("session database %s is in use by another process", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close closes the database and releases the file lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the backing database path.
func (s *Store) Path() string {
	return s.path
}

// manifestPayload carries the structured manifest parts through one JSON
// column instead of a second table; the merge reads them back as a unit.
type manifestPayload struct {
	Organizations []manifest.Organization `json:"organizations,omitempty"`
	Resources     []manifest.Resource     `json:"resources,omitempty"`
}

// Add appends the package to the session, assigning the next position.
func (s *Store) Add(ctx context.Context, sessionID string, pkg *course.Package) error {
	ctx = ensureContext(ctx)
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id required")
	}
	if pkg == nil {
		return fmt.Errorf("package required")
	}

	payload, err := json.Marshal(manifestPayload{
		Organizations: pkg.Organizations,
		Resources:     pkg.Resources,
	})
	if err != nil {
		return fmt.Errorf("encode manifest payload: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
INSERT INTO packages (
    session_id, position, identifier, title, version, description, filename,
    archive_path, manifest_json, content_sample, error_message, created_at, updated_at
) VALUES (
    ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM packages WHERE session_id = ?),
    ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
)`,
		sessionID, sessionID,
		pkg.Identifier, pkg.Title,
		nullableString(pkg.Version), nullableString(pkg.Description), nullableString(pkg.Filename),
		pkg.Path, string(payload), nullableString(pkg.ContentSample), nullableString(pkg.Error),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

const packageColumns = "identifier, title, version, description, filename, archive_path, manifest_json, content_sample, error_message"

func scanPackage(scanner interface{ Scan(dest ...any) error }) (*course.Package, error) {
	var (
		identifier   string
		title        string
		version      sql.NullString
		description  sql.NullString
		filename     sql.NullString
		archivePath  string
		manifestJSON sql.NullString
		sample       sql.NullString
		errorMessage sql.NullString
	)
	if err := scanner.Scan(
		&identifier, &title, &version, &description, &filename,
		&archivePath, &manifestJSON, &sample, &errorMessage,
	); err != nil {
		return nil, err
	}

	pkg := &course.Package{
		Identifier:    identifier,
		Title:         title,
		Version:       version.String,
		Description:   description.String,
		Filename:      filename.String,
		Path:          archivePath,
		ContentSample: sample.String,
		Error:         errorMessage.String,
	}
	if manifestJSON.Valid && manifestJSON.String != "" {
		var payload manifestPayload
		if err := json.Unmarshal([]byte(manifestJSON.String), &payload); err != nil {
			return nil, fmt.Errorf("decode manifest payload for %s: %w", identifier, err)
		}
		pkg.Organizations = payload.Organizations
		pkg.Resources = payload.Resources
	}
	return pkg, nil
}

// ListBySession returns the session's packages in stored order.
func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]*course.Package, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+packageColumns+" FROM packages WHERE session_id = ? ORDER BY position",
		strings.TrimSpace(sessionID))
	if err != nil {
		return nil, fmt.Errorf("query packages: %w", err)
	}
	defer rows.Close()

	var packages []*course.Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	return packages, nil
}

// UpdateDescription stores an enrichment result for one package.
func (s *Store) UpdateDescription(ctx context.Context, sessionID, identifier, description string) error {
	ctx = ensureContext(ctx)
	res, err := s.db.ExecContext(ctx,
		"UPDATE packages SET description = ?, updated_at = ? WHERE session_id = ? AND identifier = ?",
		nullableString(description), time.Now().UTC().Format(time.RFC3339Nano),
		strings.TrimSpace(sessionID), identifier)
	if err != nil {
		return fmt.Errorf("update description: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update description result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("package %s not found in session %s", identifier, sessionID)
	}
	return nil
}

// DeleteSession removes all of the session's package records.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	ctx = ensureContext(ctx)
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM packages WHERE session_id = ?", strings.TrimSpace(sessionID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SessionIDs lists the distinct sessions with stored packages, oldest first.
func (s *Store) SessionIDs(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id FROM packages GROUP BY session_id ORDER BY MIN(id)")
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return ids, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

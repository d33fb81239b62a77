package gallery

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lenscap/internal/api"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; the cache is disposable, so mismatches ask for a resync instead
// of migrating.
const schemaVersion = 1

// ErrSchemaMismatch indicates the cache database was written by a different
// schema version.
var ErrSchemaMismatch = errors.New("gallery schema version mismatch")

// Photo is one cached analyzed file.
type Photo struct {
	RemoteID   string
	FileName   string
	Caption    string
	Tags       []string
	SizeBytes  int64
	UploadedAt time.Time
	Analyzed   bool
}

// Store manages the gallery cache backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
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
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s and run 'lenscap sync')",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Upsert inserts or refreshes one photo keyed by its backend ID.
func (s *Store) Upsert(ctx context.Context, photo Photo) error {
	tags, err := encodeTags(photo.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO photos (remote_id, file_name, caption, tags_json, size_bytes, uploaded_at, analyzed)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(remote_id) DO UPDATE SET
             file_name = excluded.file_name,
             caption = excluded.caption,
             tags_json = excluded.tags_json,
             size_bytes = excluded.size_bytes,
             uploaded_at = excluded.uploaded_at,
             analyzed = excluded.analyzed`,
		photo.RemoteID,
		photo.FileName,
		photo.Caption,
		tags,
		photo.SizeBytes,
		photo.UploadedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(photo.Analyzed),
	)
	if err != nil {
		return fmt.Errorf("upsert photo %s: %w", photo.RemoteID, err)
	}
	return nil
}

// ReplaceAll swaps the entire cache for the given photos in one
// transaction, used when hydrating from a full backend listing.
func (s *Store) ReplaceAll(ctx context.Context, photos []Photo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM photos"); err != nil {
		return fmt.Errorf("clear photos: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO photos (remote_id, file_name, caption, tags_json, size_bytes, uploaded_at, analyzed)
         VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, photo := range photos {
		tags, err := encodeTags(photo.Tags)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			photo.RemoteID,
			photo.FileName,
			photo.Caption,
			tags,
			photo.SizeBytes,
			photo.UploadedAt.UTC().Format(time.RFC3339Nano),
			boolToInt(photo.Analyzed),
		); err != nil {
			return fmt.Errorf("insert photo %s: %w", photo.RemoteID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

// FromAPI converts a backend file into a cache row.
func FromAPI(file api.File) Photo {
	return Photo{
		RemoteID:   file.ID,
		FileName:   file.FileName,
		Caption:    file.Caption,
		Tags:       file.Tags,
		SizeBytes:  file.SizeBytes,
		UploadedAt: file.UploadedAt,
		Analyzed:   file.Analyzed,
	}
}

// Get returns one cached photo by backend ID.
func (s *Store) Get(ctx context.Context, remoteID string) (*Photo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT remote_id, file_name, caption, tags_json, size_bytes, uploaded_at, analyzed
         FROM photos WHERE remote_id = ?`, remoteID)
	photo, err := scanPhoto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("photo %s not in local cache (run 'lenscap sync')", remoteID)
		}
		return nil, err
	}
	return photo, nil
}

// UpdateCaption edits the cached caption and tags for one photo.
func (s *Store) UpdateCaption(ctx context.Context, remoteID, caption string, tags []string) error {
	encoded, err := encodeTags(tags)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE photos SET caption = ?, tags_json = ? WHERE remote_id = ?",
		caption, encoded, remoteID)
	if err != nil {
		return fmt.Errorf("update photo %s: %w", remoteID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("photo %s not in local cache", remoteID)
	}
	return nil
}

// Delete removes the given photos from the cache.
func (s *Store) Delete(ctx context.Context, remoteIDs ...string) error {
	if len(remoteIDs) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(remoteIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(remoteIDs))
	for i, id := range remoteIDs {
		args[i] = id
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM photos WHERE remote_id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("delete photos: %w", err)
	}
	return nil
}

// Stats reports cache totals.
func (s *Store) Stats(ctx context.Context) (total, analyzed int, err error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(analyzed), 0) FROM photos")
	if err := row.Scan(&total, &analyzed); err != nil {
		return 0, 0, fmt.Errorf("gallery stats: %w", err)
	}
	return total, analyzed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (*Photo, error) {
	var photo Photo
	var tagsJSON string
	var uploadedAt string
	var analyzed int
	if err := row.Scan(&photo.RemoteID, &photo.FileName, &photo.Caption, &tagsJSON,
		&photo.SizeBytes, &uploadedAt, &analyzed); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &photo.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", photo.RemoteID, err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("parse uploaded_at for %s: %w", photo.RemoteID, err)
	}
	photo.UploadedAt = parsed
	photo.Analyzed = analyzed != 0
	return &photo, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

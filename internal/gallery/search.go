package gallery

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Sort orders supported by listings.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortName   = "name"
)

// ListOptions control ordering and paging of gallery listings.
type ListOptions struct {
	Sort   string
	Limit  int
	Offset int
}

var sortClauses = map[string]string{
	SortNewest: "uploaded_at DESC, id DESC",
	SortOldest: "uploaded_at ASC, id ASC",
	SortName:   "file_name COLLATE NOCASE ASC, id ASC",
}

func orderClause(sort string) (string, error) {
	if sort == "" {
		sort = SortNewest
	}
	clause, ok := sortClauses[sort]
	if !ok {
		return "", fmt.Errorf("unknown sort order %q (use newest, oldest, or name)", sort)
	}
	return clause, nil
}

// List returns a page of cached photos in the requested order.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Photo, error) {
	order, err := orderClause(opts.Sort)
	if err != nil {
		return nil, err
	}

	query := `SELECT remote_id, file_name, caption, tags_json, size_bytes, uploaded_at, analyzed
        FROM photos ORDER BY ` + order
	args := []any{}
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photos: %w", err)
	}
	return photos, nil
}

// Search filters cached photos by a case-folded substring match against the
// file name, caption, and tags. An empty query is the same as List. Matching
// happens in Go so Unicode folding works the same everywhere SQLite's
// ASCII-only LIKE would not.
func (s *Store) Search(ctx context.Context, query string, opts ListOptions) ([]Photo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, opts)
	}

	all, err := s.List(ctx, ListOptions{Sort: opts.Sort})
	if err != nil {
		return nil, err
	}

	// Caser is stateful, so each search builds its own.
	folder := cases.Fold()
	needle := folder.String(query)
	var matched []Photo
	for _, photo := range all {
		if photoMatches(folder, photo, needle) {
			matched = append(matched, photo)
		}
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func photoMatches(folder cases.Caser, photo Photo, needle string) bool {
	if strings.Contains(folder.String(photo.FileName), needle) {
		return true
	}
	if strings.Contains(folder.String(photo.Caption), needle) {
		return true
	}
	for _, tag := range photo.Tags {
		if strings.Contains(folder.String(tag), needle) {
			return true
		}
	}
	return false
}

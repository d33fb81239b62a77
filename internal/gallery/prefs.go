package gallery

import (
	"fmt"
	"strconv"

	"lenscap/internal/storage"
)

// Preference keys in the shared key-value store.
const (
	keyPageSize  = "gallery.page_size"
	keySortOrder = "gallery.sort_order"
	keyLastQuery = "gallery.last_query"
)

// Prefs persists gallery view preferences across invocations. It sits on
// the same key-value store as the session so one file holds all durable
// client state.
type Prefs struct {
	store           storage.Store
	defaultPageSize int
	defaultSort     string
}

// NewPrefs wraps store with the configured defaults.
func NewPrefs(store storage.Store, defaultPageSize int, defaultSort string) *Prefs {
	return &Prefs{
		store:           store,
		defaultPageSize: defaultPageSize,
		defaultSort:     defaultSort,
	}
}

// PageSize returns the saved page size, or the configured default.
func (p *Prefs) PageSize() (int, error) {
	raw, ok, err := p.store.Get(keyPageSize)
	if err != nil {
		return 0, fmt.Errorf("read page size: %w", err)
	}
	if !ok {
		return p.defaultPageSize, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 {
		return p.defaultPageSize, nil
	}
	return size, nil
}

// SetPageSize saves the page size for future listings.
func (p *Prefs) SetPageSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("page size must be positive, got %d", size)
	}
	if err := p.store.Set(keyPageSize, strconv.Itoa(size)); err != nil {
		return fmt.Errorf("save page size: %w", err)
	}
	return nil
}

// SortOrder returns the saved sort order, or the configured default.
func (p *Prefs) SortOrder() (string, error) {
	raw, ok, err := p.store.Get(keySortOrder)
	if err != nil {
		return "", fmt.Errorf("read sort order: %w", err)
	}
	if !ok {
		return p.defaultSort, nil
	}
	if _, err := orderClause(raw); err != nil {
		return p.defaultSort, nil
	}
	return raw, nil
}

// SetSortOrder saves the sort order for future listings.
func (p *Prefs) SetSortOrder(sort string) error {
	if _, err := orderClause(sort); err != nil {
		return err
	}
	if err := p.store.Set(keySortOrder, sort); err != nil {
		return fmt.Errorf("save sort order: %w", err)
	}
	return nil
}

// LastQuery returns the most recent search query, if any.
func (p *Prefs) LastQuery() (string, error) {
	raw, _, err := p.store.Get(keyLastQuery)
	if err != nil {
		return "", fmt.Errorf("read last query: %w", err)
	}
	return raw, nil
}

// SetLastQuery remembers the search query for the next session. An empty
// query clears the memory.
func (p *Prefs) SetLastQuery(query string) error {
	if query == "" {
		if err := p.store.Delete(keyLastQuery); err != nil {
			return fmt.Errorf("clear last query: %w", err)
		}
		return nil
	}
	if err := p.store.Set(keyLastQuery, query); err != nil {
		return fmt.Errorf("save last query: %w", err)
	}
	return nil
}

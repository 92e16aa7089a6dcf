// Package snapshot persists store slices locally so the dashboard can
// render cached data immediately on startup, before the backend has
// answered. Slices are stored as msgpack blobs with expiration
// timestamps; the auth token lives in a small kv table alongside them.
package snapshot

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Slice names for the persisted store slices
const (
	SliceStrategies    = "strategies"
	SliceSymbols       = "symbols"
	SlicePublished     = "published_strategies"
	SliceSubscriptions = "subscriptions"
	SliceCredentials   = "credentials"
)

// AllSlices lists every persisted slice, for cleanup and inspection
var AllSlices = []string{
	SliceStrategies,
	SliceSymbols,
	SlicePublished,
	SliceSubscriptions,
	SliceCredentials,
}

// validSlices is a set for O(1) slice name validation
var validSlices = func() map[string]bool {
	m := make(map[string]bool, len(AllSlices))
	for _, s := range AllSlices {
		m[s] = true
	}
	return m
}()

// TTL constants per slice. Expired slices are not served on load and
// are removed by the cleanup job.
const (
	TTLStrategies    = 24 * time.Hour     // refreshed on every session anyway
	TTLSymbols       = 24 * time.Hour     // symbol universe changes rarely
	TTLPublished     = 6 * time.Hour      // copy-trade catalogue
	TTLSubscriptions = 24 * time.Hour     // own subscription list
	TTLCredentials   = 7 * 24 * time.Hour // masked display data only
)

// authTokenKey is the kv key the session token is persisted under
const authTokenKey = "AUTH_TOKEN"

// Repository provides snapshot persistence over the snapshot database
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new snapshot repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func validateSlice(name string) error {
	if !validSlices[name] {
		return fmt.Errorf("invalid slice name: %s", name)
	}
	return nil
}

// SaveSlice stores a store slice with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert.
func (r *Repository) SaveSlice(name string, v interface{}, ttl time.Duration) error {
	if err := validateSlice(name); err != nil {
		return err
	}

	blob, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode slice %s: %w", name, err)
	}

	now := time.Now()
	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO store_slices (name, data, saved_at, expires_at) VALUES (?, ?, ?, ?)",
		name, blob, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save slice %s: %w", name, err)
	}

	return nil
}

// LoadSlice decodes a slice into out only if it has not expired.
// Returns (false, nil) when the slice is missing or stale.
func (r *Repository) LoadSlice(name string, out interface{}) (bool, error) {
	if err := validateSlice(name); err != nil {
		return false, err
	}

	var blob []byte
	err := r.db.QueryRow(
		"SELECT data FROM store_slices WHERE name = ? AND expires_at > ?",
		name, time.Now().Unix(),
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load slice %s: %w", name, err)
	}

	if err := msgpack.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to decode slice %s: %w", name, err)
	}

	return true, nil
}

// DeleteSlice removes a persisted slice
func (r *Repository) DeleteSlice(name string) error {
	if err := validateSlice(name); err != nil {
		return err
	}

	if _, err := r.db.Exec("DELETE FROM store_slices WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete slice %s: %w", name, err)
	}

	return nil
}

// DeleteExpired removes all expired slices. Returns the number removed.
func (r *Repository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec(
		"DELETE FROM store_slices WHERE expires_at < ?", time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired slices: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// SaveToken persists the auth token. Implements the session token store.
func (r *Repository) SaveToken(token string) error {
	_, err := r.db.Exec(
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		authTokenKey, token, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save auth token: %w", err)
	}
	return nil
}

// LoadToken returns the persisted auth token, or empty when absent
func (r *Repository) LoadToken() (string, error) {
	var token string
	err := r.db.QueryRow("SELECT value FROM kv WHERE key = ?", authTokenKey).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load auth token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the persisted auth token
func (r *Repository) DeleteToken() error {
	if _, err := r.db.Exec("DELETE FROM kv WHERE key = ?", authTokenKey); err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}
	return nil
}

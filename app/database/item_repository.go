package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chickadee/reader/app/resource"
)

// ItemRepositoryImpl handles database operations for timeline items
type ItemRepositoryImpl struct {
	db *DB
}

var _ ItemRepository = (*ItemRepositoryImpl)(nil)

func NewItemRepository(db *DB) *ItemRepositoryImpl {
	return &ItemRepositoryImpl{db: db}
}

// UpsertItem stores an item under its merge key, replacing any previous
// version. Create and Update both land here.
func (r *ItemRepositoryImpl) UpsertItem(contextURL string, object resource.Object) error {
	data, err := json.Marshal(object)
	if err != nil {
		return fmt.Errorf("failed to marshal object: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO items (key, context_url, object, published_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			context_url = excluded.context_url,
			object = excluded.object,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at
	`, object.Key(), contextURL, data, timeValue(object.Published), timeValue(object.Updated))

	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	return nil
}

func (r *ItemRepositoryImpl) DeleteItem(key string) error {
	_, err := r.db.Exec(`DELETE FROM items WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (r *ItemRepositoryImpl) GetItem(key string) (*resource.Object, error) {
	var data []byte
	err := r.db.QueryRow(`SELECT object FROM items WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	var object resource.Object
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, fmt.Errorf("failed to unmarshal object: %w", err)
	}
	return &object, nil
}

// GetItemsByContext returns every item aggregated from one followed
// collection.
func (r *ItemRepositoryImpl) GetItemsByContext(contextURL string) ([]resource.Object, error) {
	rows, err := r.db.Query(`
		SELECT object FROM items WHERE context_url = ?
	`, contextURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get items by context: %w", err)
	}
	defer rows.Close()

	return scanObjects(rows)
}

// GetTimeline returns the newest items first, excluding items whose
// effective time (published, falling back to updated) is still in the
// future. Items without any timestamp sort to the end.
func (r *ItemRepositoryImpl) GetTimeline(limit int, now time.Time) ([]resource.Object, error) {
	rows, err := r.db.Query(`
		SELECT object FROM items
		WHERE COALESCE(published_at, updated_at, '1970-01-01T00:00:00Z') <= ?
		ORDER BY COALESCE(published_at, updated_at, '1970-01-01T00:00:00Z') DESC, created_at ASC
		LIMIT ?
	`, now.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline: %w", err)
	}
	defer rows.Close()

	return scanObjects(rows)
}

// GetContextURLs returns the distinct collection URLs items were
// aggregated from, including collections no longer followed.
func (r *ItemRepositoryImpl) GetContextURLs() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT context_url FROM items WHERE context_url != ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to get context URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan context URL: %w", err)
		}
		urls = append(urls, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating context URLs: %w", err)
	}

	return urls, nil
}

// GetItemsMissingSummary returns items whose stored object has no
// summary yet, oldest first so the backlog drains in order.
func (r *ItemRepositoryImpl) GetItemsMissingSummary(limit int) ([]resource.Object, error) {
	rows, err := r.db.Query(`
		SELECT object FROM items
		WHERE json_extract(object, '$.summary') IS NULL
		ORDER BY created_at ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items missing summary: %w", err)
	}
	defer rows.Close()

	return scanObjects(rows)
}

func (r *ItemRepositoryImpl) GetItemCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func scanObjects(rows *sql.Rows) ([]resource.Object, error) {
	var objects []resource.Object
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}

		var object resource.Object
		if err := json.Unmarshal(data, &object); err != nil {
			return nil, fmt.Errorf("failed to unmarshal object: %w", err)
		}
		objects = append(objects, object)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return objects, nil
}

// timeValue renders an optional timestamp as a sortable RFC 3339 string
// for storage; NULL stays NULL.
func timeValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

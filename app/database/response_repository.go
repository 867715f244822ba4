package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chickadee/reader/app/fetch"
)

// ResponseRepositoryImpl persists fetched responses, backing the
// fetcher's cache strategies across restarts.
type ResponseRepositoryImpl struct {
	db *DB
}

var _ fetch.Cache = (*ResponseRepositoryImpl)(nil)

func NewResponseRepository(db *DB) *ResponseRepositoryImpl {
	return &ResponseRepositoryImpl{db: db}
}

func (r *ResponseRepositoryImpl) GetResponse(url string) (*fetch.Response, error) {
	var resp fetch.Response
	var fetchedAt string

	// final_url is the effective URL after redirects; that is the URL
	// the extracted object should be resolved against.
	err := r.db.QueryRow(`
		SELECT final_url, status, content_type, body, fetched_at
		FROM responses WHERE url = ?
	`, url).Scan(&resp.URL, &resp.Status, &resp.ContentType, &resp.Body, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached response: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
		resp.FetchedAt = t
	}

	return &resp, nil
}

func (r *ResponseRepositoryImpl) PutResponse(url string, resp *fetch.Response) error {
	_, err := r.db.Exec(`
		INSERT INTO responses (url, final_url, status, content_type, body, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			final_url = excluded.final_url,
			status = excluded.status,
			content_type = excluded.content_type,
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`, url, resp.URL, resp.Status, resp.ContentType, resp.Body,
		resp.FetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

// PruneResponses drops cached responses older than the cutoff.
func (r *ResponseRepositoryImpl) PruneResponses(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM responses WHERE fetched_at < ?
	`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to prune responses: %w", err)
	}
	return result.RowsAffected()
}

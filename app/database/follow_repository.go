package database

import (
	"database/sql"
	"fmt"
	"time"
)

// FollowRepositoryImpl handles database operations for followed collections
type FollowRepositoryImpl struct {
	db *DB
}

var _ FollowRepository = (*FollowRepositoryImpl)(nil)

func NewFollowRepository(db *DB) *FollowRepositoryImpl {
	return &FollowRepositoryImpl{db: db}
}

func (r *FollowRepositoryImpl) GetFollows() ([]Follow, error) {
	rows, err := r.db.Query(`
		SELECT url, added_at, last_refreshed_at FROM follows ORDER BY added_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get follows: %w", err)
	}
	defer rows.Close()

	var follows []Follow
	for rows.Next() {
		var follow Follow
		var refreshedAt sql.NullString
		if err := rows.Scan(&follow.URL, &follow.AddedAt, &refreshedAt); err != nil {
			return nil, fmt.Errorf("failed to scan follow row: %w", err)
		}
		if refreshedAt.Valid {
			if t, err := time.Parse(time.RFC3339, refreshedAt.String); err == nil {
				follow.LastRefreshedAt = &t
			}
		}
		follows = append(follows, follow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating follow rows: %w", err)
	}

	return follows, nil
}

func (r *FollowRepositoryImpl) GetFollowCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM follows`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get follow count: %w", err)
	}
	return count, nil
}

func (r *FollowRepositoryImpl) UpsertFollow(url string) error {
	_, err := r.db.Exec(`
		INSERT INTO follows (url) VALUES (?)
		ON CONFLICT (url) DO NOTHING
	`, url)
	if err != nil {
		return fmt.Errorf("failed to upsert follow: %w", err)
	}
	return nil
}

func (r *FollowRepositoryImpl) DeleteFollow(url string) error {
	_, err := r.db.Exec(`DELETE FROM follows WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}

func (r *FollowRepositoryImpl) UpdateRefreshedAt(url string, refreshedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE follows SET last_refreshed_at = ? WHERE url = ?
	`, refreshedAt.UTC().Format(time.RFC3339), url)
	if err != nil {
		return fmt.Errorf("failed to update refresh time: %w", err)
	}
	return nil
}

// Package cleanup provides a durable, PostgreSQL-backed queue for deferred
// object deletion. Deleting a file commits the metadata change first; the
// storage object is removed afterwards. Enqueuing the key instead of deleting
// inline means a storage outage cannot leave the object orphaned silently:
// the worker retries until the delete succeeds.
package cleanup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Queue is a filehub.CleanupQueue backed by the object_cleanup table.
type Queue struct {
	pool *pgxpool.Pool
}

// NewQueue creates a queue over the given connection pool.
func NewQueue(pool *pgxpool.Pool) *Queue {
	return &Queue{pool: pool}
}

// Enqueue records an object key for deletion by the worker.
func (q *Queue) Enqueue(ctx context.Context, key string) error {
	_, err := q.pool.Exec(ctx,
		`INSERT INTO object_cleanup (object_key) VALUES ($1)`, key)
	if err != nil {
		return fmt.Errorf("failed to enqueue cleanup for %s: %w", key, err)
	}
	return nil
}

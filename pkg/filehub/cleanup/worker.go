package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filehub/filehub/pkg/filehub"
)

const (
	// DefaultPollInterval is how often the worker scans for pending deletes.
	DefaultPollInterval = 30 * time.Second

	// DefaultBatchSize is how many keys the worker claims per scan.
	DefaultBatchSize = 50

	// DefaultMaxAttempts is how many times a delete is retried before the
	// entry is abandoned. Abandoned entries stay in the table for operators.
	DefaultMaxAttempts = 10
)

// Worker drains the object_cleanup table, deleting storage objects whose
// metadata rows were already marked deleted. Multiple workers can run
// concurrently; rows are claimed with FOR UPDATE SKIP LOCKED so each entry
// is processed by exactly one worker at a time.
type Worker struct {
	pool         *pgxpool.Pool
	store        filehub.ObjectStore
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
	maxAttempts  int
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithPollInterval overrides the scan interval.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.pollInterval = d }
}

// WithBatchSize overrides how many entries are claimed per scan.
func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) { w.batchSize = n }
}

// WithMaxAttempts overrides the retry limit per entry.
func WithMaxAttempts(n int) WorkerOption {
	return func(w *Worker) { w.maxAttempts = n }
}

// WithLogger overrides the worker's logger.
func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = logger }
}

// NewWorker creates a cleanup worker over the given pool and object store.
func NewWorker(pool *pgxpool.Pool, store filehub.ObjectStore, opts ...WorkerOption) *Worker {
	w := &Worker{
		pool:         pool,
		store:        store,
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
		batchSize:    DefaultBatchSize,
		maxAttempts:  DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes cleanup entries until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if n, err := w.RunOnce(ctx); err != nil {
			w.logger.Error("cleanup scan failed", "error", err)
		} else if n > 0 {
			w.logger.Info("cleanup scan complete", "processed", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce claims and processes a single batch, returning how many entries
// were resolved (deleted from storage or abandoned).
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, object_key, attempts
		FROM object_cleanup
		WHERE attempts < $1
		ORDER BY enqueued_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, w.maxAttempts, w.batchSize)
	if err != nil {
		return 0, err
	}

	type entry struct {
		id       int64
		key      string
		attempts int
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.key, &e.attempts); err != nil {
			rows.Close()
			return 0, err
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	resolved := 0
	for _, e := range entries {
		err := w.store.DeleteObject(ctx, e.key)
		if err == nil || errors.Is(err, filehub.ErrObjectNotFound) {
			if _, err := tx.Exec(ctx,
				`DELETE FROM object_cleanup WHERE id = $1`, e.id); err != nil {
				return resolved, err
			}
			resolved++
			continue
		}

		w.logger.Warn("object cleanup attempt failed",
			"key", e.key, "attempt", e.attempts+1, "error", err)
		if _, err := tx.Exec(ctx, `
			UPDATE object_cleanup
			SET attempts = attempts + 1, last_error = $2
			WHERE id = $1`, e.id, err.Error()); err != nil {
			return resolved, err
		}
		if e.attempts+1 >= w.maxAttempts {
			w.logger.Error("object cleanup abandoned after max attempts",
				"key", e.key, "attempts", e.attempts+1)
			resolved++
		}
	}

	if err := tx.Commit(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return resolved, err
	}
	return resolved, nil
}

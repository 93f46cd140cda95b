package dataimport

import (
	"context"
	"time"

	domain "github.com/bizadmin/record-import/internal/domain/dataimport"
)

// FileStorage keeps uploaded workbooks. Store returns the URL later passed
// to Fetch by the worker.
type FileStorage interface {
	Store(ctx context.Context, data []byte, contentType, fileName string) (string, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type SpreadsheetReader interface {
	ReadFirstSheet(data []byte) (domain.Sheet, error)
}

type EnqueueOptions struct {
	Attempts int
	Backoff  time.Duration
}

type JobQueue interface {
	Enqueue(ctx context.Context, jobID string, opts EnqueueOptions) error
}

// JobLocker grants exclusive processing of one job. Acquire reports false
// without error when another worker already holds the lock.
type JobLocker interface {
	Acquire(ctx context.Context, jobID string, ttl time.Duration) (JobLease, bool, error)
}

type JobLease interface {
	Refresh(ctx context.Context) error
	Release(ctx context.Context) error
}

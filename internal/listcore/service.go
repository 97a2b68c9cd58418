package listcore

import (
	"context"
	"errors"
)

// Service is the remote collection behind a list.
type Service[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, record T) (T, error)
	Archive(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// BulkOp is a mutation applied to many ids at once.
type BulkOp int

const (
	BulkArchive BulkOp = iota
	BulkRestore
	BulkDelete
)

func (op BulkOp) String() string {
	switch op {
	case BulkArchive:
		return "archive"
	case BulkRestore:
		return "restore"
	case BulkDelete:
		return "delete"
	}
	return "unknown"
}

// BulkService is implemented by services that can apply a bulk operation in
// one request. Services without it, or returning ErrBulkUnsupported for an
// op, get a per-id fan-out.
type BulkService interface {
	Bulk(ctx context.Context, op BulkOp, ids []string) (BulkResult, error)
}

// ErrBulkUnsupported tells the dispatcher to fan out instead.
var ErrBulkUnsupported = errors.New("bulk operation not supported")

// BulkResult summarizes a bulk operation. Success is true only when nothing
// failed.
type BulkResult struct {
	Success      bool
	SuccessCount int
	FailedCount  int
	Succeeded    []string
	Failed       map[string]error
}

// Partial reports a mix of successes and failures.
func (r BulkResult) Partial() bool {
	return r.SuccessCount > 0 && r.FailedCount > 0
}

func newBulkResult(succeeded []string, failed map[string]error) BulkResult {
	return BulkResult{
		Success:      len(failed) == 0,
		SuccessCount: len(succeeded),
		FailedCount:  len(failed),
		Succeeded:    succeeded,
		Failed:       failed,
	}
}

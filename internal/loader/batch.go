package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/seantiz/soundbatch/internal/model"
)

// ErrRejected is matched by every RejectedError.
var ErrRejected = errors.New("no asset in batch loaded")

// RejectedError is the settled error of a batch in which nothing loaded.
type RejectedError struct {
	BatchID string
	Errors  []model.ErrorEntry
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("batch %s rejected: %d asset errors", e.BatchID, len(e.Errors))
}

// Unwrap lets errors.Is(err, ErrRejected) match.
func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

// Batch is the caller's handle on one load call. It is settled exactly once,
// with either a result or a *RejectedError.
type Batch struct {
	id   string
	once sync.Once
	done chan struct{}

	result *model.BatchResult
	err    error
}

func newBatch(id string) *Batch {
	return &Batch{id: id, done: make(chan struct{})}
}

// ID returns the batch id.
func (b *Batch) ID() string {
	return b.id
}

// Done returns a channel closed when the batch settles.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch settles or ctx is done. Cancelling ctx does
// not cancel the batch.
func (b *Batch) Wait(ctx context.Context) (*model.BatchResult, error) {
	select {
	case <-b.done:
		return b.result, b.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settle stores the outcome. Only the first call has any effect; it reports
// whether this call was the one that settled the batch.
func (b *Batch) settle(result *model.BatchResult, err error) bool {
	settled := false
	b.once.Do(func() {
		b.result = result
		b.err = err
		close(b.done)
		settled = true
	})
	return settled
}

package memory

import (
	"context"
	"sync"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
)

// ReleaseQueue はインメモリの座席解放再試行キュー（FIFO）
type ReleaseQueue struct {
	mu    sync.Mutex
	items []showroom.PendingRelease
}

func NewReleaseQueue() *ReleaseQueue {
	return &ReleaseQueue{}
}

func (q *ReleaseQueue) Enqueue(ctx context.Context, r showroom.PendingRelease) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Seats = append([]string(nil), r.Seats...)
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
	return nil
}

func (q *ReleaseQueue) Dequeue(ctx context.Context) (*showroom.PendingRelease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, nil
	}
	r := q.items[0]
	q.items = q.items[1:]
	return &r, nil
}

func (q *ReleaseQueue) Len(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

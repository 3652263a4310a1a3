package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
)

const releaseQueueKey = "seat-releases:pending"

// ReleaseQueue は Redis リストを使った座席解放の再試行キュー
// LPUSH で積み RPOP で取り出すため FIFO になる
type ReleaseQueue struct {
	client *redis.Client
}

func NewReleaseQueue(client *redis.Client) *ReleaseQueue {
	return &ReleaseQueue{client: client}
}

type pendingReleaseDoc struct {
	ID         string    `json:"id"`
	ShowroomID string    `json:"showroom_id"`
	MovieID    string    `json:"movie_id"`
	Start      time.Time `json:"start"`
	Seats      []string  `json:"seats"`
	Reason     string    `json:"reason"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func (q *ReleaseQueue) Enqueue(ctx context.Context, r showroom.PendingRelease) error {
	data, err := json.Marshal(pendingReleaseDoc{
		ID:         r.ID,
		ShowroomID: r.Key.ShowroomID,
		MovieID:    r.Key.MovieID,
		Start:      r.Key.Start.UTC(),
		Seats:      r.Seats,
		Reason:     r.Reason,
		Attempts:   r.Attempts,
		EnqueuedAt: r.EnqueuedAt,
	})
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, releaseQueueKey, data).Err(); err != nil {
		return fmt.Errorf("解放キューへの追加に失敗: %w", err)
	}
	return nil
}

func (q *ReleaseQueue) Dequeue(ctx context.Context) (*showroom.PendingRelease, error) {
	data, err := q.client.RPop(ctx, releaseQueueKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("解放キューの取得に失敗: %w", err)
	}
	var doc pendingReleaseDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("解放キューのデコードに失敗: %w", err)
	}
	return &showroom.PendingRelease{
		ID: doc.ID,
		Key: showroom.Key{
			ShowroomID: doc.ShowroomID,
			MovieID:    doc.MovieID,
			Start:      doc.Start,
		},
		Seats:      doc.Seats,
		Reason:     doc.Reason,
		Attempts:   doc.Attempts,
		EnqueuedAt: doc.EnqueuedAt,
	}, nil
}

func (q *ReleaseQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, releaseQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("解放キューの件数取得に失敗: %w", err)
	}
	return n, nil
}

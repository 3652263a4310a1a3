package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/metrics"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/retry"
)

// SeatAllocator は上映回の座席を予約・解放する
// 上映室ごとのロックと、保存時のバージョン比較の両方で更新の消失を防ぐ
type SeatAllocator struct {
	repo         showroom.Repository
	locker       Locker
	cache        SeatCache
	retrier      *retry.Retrier
	metrics      *metrics.Metrics
	queryTimeout time.Duration
}

type AllocatorOption func(*SeatAllocator)

func WithSeatCache(c SeatCache) AllocatorOption {
	return func(a *SeatAllocator) { a.cache = c }
}

func WithAllocatorMetrics(m *metrics.Metrics) AllocatorOption {
	return func(a *SeatAllocator) { a.metrics = m }
}

func WithAllocatorRetry(cfg retry.Config) AllocatorOption {
	return func(a *SeatAllocator) { a.retrier = retry.New(cfg) }
}

func WithAllocatorQueryTimeout(d time.Duration) AllocatorOption {
	return func(a *SeatAllocator) { a.queryTimeout = d }
}

func NewSeatAllocator(repo showroom.Repository, locker Locker, opts ...AllocatorOption) *SeatAllocator {
	a := &SeatAllocator{
		repo:         repo,
		locker:       locker,
		retrier:      retry.New(retry.DefaultConfig()),
		queryTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Reserve は座席を予約する。1席でも予約済みなら何も書き込まず SeatConflictError を返す
func (a *SeatAllocator) Reserve(ctx context.Context, key showroom.Key, seats []string) (*showroom.Showtime, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := showroom.ValidateSeatLabels(seats); err != nil {
		return nil, err
	}

	var booked showroom.Showtime
	_, err := a.Update(ctx, key.ShowroomID, func(room *showroom.Showroom) error {
		st, err := room.BookSeats(key.MovieID, key.Start, seats)
		booked = st
		return err
	})
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, key)
	return &booked, nil
}

// Release は指定した座席だけを解放する。他のチケットの座席には影響しない
func (a *SeatAllocator) Release(ctx context.Context, key showroom.Key, seats []string) (*showroom.Showtime, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var released showroom.Showtime
	_, err := a.Update(ctx, key.ShowroomID, func(room *showroom.Showroom) error {
		st, err := room.ReleaseSeats(key.MovieID, key.Start, seats)
		released = st
		return err
	})
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, key)
	return &released, nil
}

// Update は上映室のロックを取得した上で 読み込み→fn→保存 を行う
// 保存がバージョン競合した場合は読み込みからやり直す。fn は再試行のたびに呼ばれる
func (a *SeatAllocator) Update(ctx context.Context, showroomID string, fn func(room *showroom.Showroom) error) (*showroom.Showroom, error) {
	started := time.Now()
	unlock, err := a.locker.Lock(ctx, showroomID)
	a.metrics.ObserveLock(time.Since(started), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperror.NewStorageError("showroom.lock", err)
	}
	defer unlock()

	var saved *showroom.Showroom
	err = a.retrier.Do(ctx,
		func(err error) bool { return errors.Is(err, apperror.ErrVersionConflict) },
		func(attempt int, err error) {
			a.metrics.IncCASRetry("showroom")
			logger.Debug("上映室の保存が競合したため再試行します",
				zap.String("showroom_id", showroomID), zap.Int("attempt", attempt))
		},
		func(ctx context.Context) error {
			room, err := a.load(ctx, showroomID)
			if err != nil {
				return err
			}
			if err := fn(room); err != nil {
				return err
			}
			if err := a.save(ctx, room); err != nil {
				return err
			}
			saved = room
			return nil
		})
	if err != nil {
		if errors.Is(err, retry.ErrMaxRetriesExceeded) {
			return nil, apperror.NewStorageError("showroom.save", err)
		}
		return nil, err
	}
	return saved, nil
}

func (a *SeatAllocator) load(ctx context.Context, id string) (*showroom.Showroom, error) {
	ctx, cancel := withQueryTimeout(ctx, a.queryTimeout)
	defer cancel()
	return a.repo.GetByID(ctx, id)
}

func (a *SeatAllocator) save(ctx context.Context, room *showroom.Showroom) error {
	ctx, cancel := withQueryTimeout(ctx, a.queryTimeout)
	defer cancel()
	return a.repo.Save(ctx, room)
}

func (a *SeatAllocator) invalidate(ctx context.Context, key showroom.Key) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Invalidate(ctx, key); err != nil {
		logger.Warn("座席キャッシュの無効化に失敗しました", zap.String("key", key.String()), zap.Error(err))
	}
}

package application

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/logger"
)

// ShowroomService は上映室と上映回の管理を提供する
// 上映回の変更は SeatAllocator と同じロックと楽観的ロックの経路を通る
type ShowroomService struct {
	repo         showroom.Repository
	allocator    *SeatAllocator
	cache        SeatCache
	queryTimeout time.Duration
}

func NewShowroomService(repo showroom.Repository, allocator *SeatAllocator, cache SeatCache) *ShowroomService {
	return &ShowroomService{repo: repo, allocator: allocator, cache: cache, queryTimeout: allocator.queryTimeout}
}

// CreateShowroom は上映室を作成する
func (s *ShowroomService) CreateShowroom(ctx context.Context, id string) (*showroom.Showroom, error) {
	room := showroom.NewShowroom(strings.TrimSpace(id))
	if err := room.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := withQueryTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *ShowroomService) GetShowroom(ctx context.Context, id string) (*showroom.Showroom, error) {
	ctx, cancel := withQueryTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.repo.GetByID(ctx, id)
}

func (s *ShowroomService) ListShowrooms(ctx context.Context) ([]*showroom.Showroom, error) {
	ctx, cancel := withQueryTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.repo.List(ctx)
}

type AddShowtimeInput struct {
	ShowroomID string
	MovieID    string
	Start      time.Time
	RoomID     string
}

// AddShowtime は上映回を追加する。RoomID 未指定時は上映室IDを使う
func (s *ShowroomService) AddShowtime(ctx context.Context, input AddShowtimeInput) (*showroom.Showtime, error) {
	key := showroom.Key{ShowroomID: input.ShowroomID, MovieID: input.MovieID, Start: input.Start}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	var added showroom.Showtime
	_, err := s.allocator.Update(ctx, input.ShowroomID, func(room *showroom.Showroom) error {
		st, err := room.AddShowtime(input.MovieID, input.Start, input.RoomID)
		added = st
		return err
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// RemoveShowtime は上映回を削除する。発行済みチケットは残る
func (s *ShowroomService) RemoveShowtime(ctx context.Context, key showroom.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	_, err := s.allocator.Update(ctx, key.ShowroomID, func(room *showroom.Showroom) error {
		_, err := room.RemoveShowtime(key.MovieID, key.Start)
		return err
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, key)
	return nil
}

// PatchShowtime は指定されたフィールドだけを更新する
func (s *ShowroomService) PatchShowtime(ctx context.Context, key showroom.Key, patch showroom.ShowtimePatch) (*showroom.Showtime, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperror.NewValidationError("patch", "更新する項目がありません")
	}
	var updated showroom.Showtime
	_, err := s.allocator.Update(ctx, key.ShowroomID, func(room *showroom.Showroom) error {
		st, err := room.ApplyShowtimePatch(key.MovieID, key.Start, patch)
		updated = st
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, key)
	return &updated, nil
}

// BookedSeats は上映回の予約済み座席を返す。キャッシュがあれば先に参照する
func (s *ShowroomService) BookedSeats(ctx context.Context, key showroom.Key) ([]string, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if seats, err := s.cache.GetBookedSeats(ctx, key); err == nil {
			return seats, nil
		}
	}

	room, err := s.GetShowroom(ctx, key.ShowroomID)
	if err != nil {
		return nil, err
	}
	st, err := room.Showtime(key.MovieID, key.Start)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetBookedSeats(ctx, key, st.BookedSeats); err != nil {
			logger.Warn("座席キャッシュの保存に失敗しました", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return st.BookedSeats, nil
}

func (s *ShowroomService) invalidate(ctx context.Context, key showroom.Key) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		logger.Warn("座席キャッシュの無効化に失敗しました", zap.String("key", key.String()), zap.Error(err))
	}
}

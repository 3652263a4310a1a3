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

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// SeatCache は上映回ごとの予約済み座席のキャッシュを管理する
type SeatCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSeatCache は新しいSeatCacheインスタンスを作成する
func NewSeatCache(client *redis.Client, ttl time.Duration) *SeatCache {
	return &SeatCache{client: client, ttl: ttl}
}

// GetBookedSeats は予約済み座席をキャッシュから取得する。ミス時は ErrCacheMiss
func (c *SeatCache) GetBookedSeats(ctx context.Context, key showroom.Key) ([]string, error) {
	val, err := c.client.Get(ctx, c.bookedSeatsKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var seats []string
	if err := json.Unmarshal(val, &seats); err != nil {
		return nil, fmt.Errorf("キャッシュのデコードに失敗: %w", err)
	}
	return seats, nil
}

// SetBookedSeats は予約済み座席をキャッシュに保存する
func (c *SeatCache) SetBookedSeats(ctx context.Context, key showroom.Key, seats []string) error {
	if seats == nil {
		seats = []string{}
	}
	data, err := json.Marshal(seats)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.bookedSeatsKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は上映回のキャッシュを無効化する
func (c *SeatCache) Invalidate(ctx context.Context, key showroom.Key) error {
	if err := c.client.Del(ctx, c.bookedSeatsKey(key)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *SeatCache) bookedSeatsKey(key showroom.Key) string {
	return fmt.Sprintf("seats:booked:%s", key.String())
}

package application

import (
	"context"
	"time"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
)

// Locker は上映室単位の排他ロック
// インプロセスの memory.KeyedMutex と Redis の ShowroomLocker が実装する
type Locker interface {
	Lock(ctx context.Context, showroomID string) (unlock func(), err error)
}

// SeatCache は上映回の予約済み座席のキャッシュ。ミス時はエラーを返す
type SeatCache interface {
	GetBookedSeats(ctx context.Context, key showroom.Key) ([]string, error)
	SetBookedSeats(ctx context.Context, key showroom.Key, seats []string) error
	Invalidate(ctx context.Context, key showroom.Key) error
}

// withQueryTimeout はストア呼び出し1回分のタイムアウトを設定する
func withQueryTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

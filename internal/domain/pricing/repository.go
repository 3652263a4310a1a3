package pricing

import "context"

// Repository はチケット価格リポジトリのインターフェース
type Repository interface {
	// Get は種別の価格を取得する。存在しない場合は ErrPriceNotFound
	Get(ctx context.Context, t TicketType) (*TicketTypePrice, error)

	// List は登録済みの価格を種別順で取得する
	List(ctx context.Context) ([]*TicketTypePrice, error)

	// Upsert は価格を登録または更新する
	Upsert(ctx context.Context, p *TicketTypePrice) error
}

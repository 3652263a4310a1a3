package showroom

import (
	"context"
	"time"
)

// Repository は上映室リポジトリのインターフェース
// 上映室はドキュメント単位で読み書きし、部分更新は行わない
type Repository interface {
	// Create は新しい上映室を作成する
	Create(ctx context.Context, room *Showroom) error

	// GetByID はIDから上映室を取得する
	GetByID(ctx context.Context, id string) (*Showroom, error)

	// List は上映室一覧を取得する
	List(ctx context.Context) ([]*Showroom, error)

	// Save は上映室全体を置き換える（楽観的ロック）
	// 保存時の Version が一致しない場合は apperror.ErrVersionConflict を返し、
	// 成功時は room.Version をインクリメントする
	Save(ctx context.Context, room *Showroom) error

	// Delete は上映室を削除する
	Delete(ctx context.Context, id string) error
}

// PendingRelease はチケット削除後に解放できなかった座席の記録
type PendingRelease struct {
	ID         string
	Key        Key
	Seats      []string
	Reason     string
	Attempts   int
	EnqueuedAt time.Time
}

// ReleaseQueue は座席解放の再試行キュー
type ReleaseQueue interface {
	Enqueue(ctx context.Context, r PendingRelease) error
	// Dequeue は先頭の要素を取り出す。空の場合は nil, nil を返す
	Dequeue(ctx context.Context) (*PendingRelease, error)
	Len(ctx context.Context) (int64, error)
}

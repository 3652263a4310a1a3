package user

import "context"

// Repository はユーザーリポジトリのインターフェース
type Repository interface {
	// Create は新しいユーザーを作成する
	Create(ctx context.Context, u *User) error

	// GetByID はIDからユーザーを取得する
	GetByID(ctx context.Context, id string) (*User, error)

	// Save はユーザー全体を置き換える（楽観的ロック）
	// Version が一致しない場合は apperror.ErrVersionConflict を返す
	Save(ctx context.Context, u *User) error
}

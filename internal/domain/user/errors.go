package user

import "errors"

// User ドメインのエラー定義
var (
	ErrUserNotFound        = errors.New("ユーザーが見つかりません")
	ErrUserIDRequired      = errors.New("ユーザーIDは必須です")
	ErrUserAlreadyExists   = errors.New("ユーザーは既に存在します")
	ErrTicketNotFound      = errors.New("チケットが見つかりません")
	ErrPaymentCardNotFound = errors.New("支払いカードが見つかりません")
)

package pricing

import "errors"

var (
	ErrPriceNotFound      = errors.New("チケット種別の価格が見つかりません")
	ErrTicketTypeRequired = errors.New("チケット種別は必須です")
	ErrNegativePrice      = errors.New("価格は0以上である必要があります")
)

package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TicketType はチケット種別
type TicketType string

const (
	TypeAdult  TicketType = "ADULT"
	TypeChild  TicketType = "CHILD"
	TypeSenior TicketType = "SENIOR"
)

// NormalizeType は種別名を大文字に正規化する
func NormalizeType(name string) TicketType {
	return TicketType(strings.ToUpper(strings.TrimSpace(name)))
}

// TicketTypePrice はチケット種別ごとの価格
type TicketTypePrice struct {
	Type      TicketType
	Price     decimal.Decimal
	UpdatedAt time.Time
}

// NewTicketTypePrice は価格を作成する
func NewTicketTypePrice(t TicketType, price decimal.Decimal) (*TicketTypePrice, error) {
	p := &TicketTypePrice{Type: NormalizeType(string(t)), Price: price, UpdatedAt: time.Now().UTC()}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate は価格の検証を行う
func (p *TicketTypePrice) Validate() error {
	if p.Type == "" {
		return ErrTicketTypeRequired
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// DefaultPrices はストアに行がないときに使う既定の価格表
func DefaultPrices() map[TicketType]decimal.Decimal {
	return map[TicketType]decimal.Decimal{
		TypeAdult:  decimal.RequireFromString("12.00"),
		TypeChild:  decimal.RequireFromString("8.00"),
		TypeSenior: decimal.RequireFromString("10.00"),
	}
}

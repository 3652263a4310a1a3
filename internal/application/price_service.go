package application

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/logger"
)

// PriceService はチケット種別ごとの価格を解決する
// 価格は確認表示用の情報であり、予約の成否には影響しない
type PriceService struct {
	repo     pricing.Repository
	defaults map[pricing.TicketType]decimal.Decimal
}

// NewPriceService は PriceService を作成する。repo が nil の場合は既定の価格表だけを使う
func NewPriceService(repo pricing.Repository) *PriceService {
	return &PriceService{repo: repo, defaults: pricing.DefaultPrices()}
}

// PriceOf は種別の単価を返す。不明な種別や取得失敗時は0
func (s *PriceService) PriceOf(ctx context.Context, ticketType string) decimal.Decimal {
	t := pricing.NormalizeType(ticketType)
	if s.repo != nil {
		p, err := s.repo.Get(ctx, t)
		if err == nil {
			return p.Price
		}
		if !errors.Is(err, pricing.ErrPriceNotFound) {
			logger.Warn("価格の取得に失敗しました", zap.String("type", string(t)), zap.Error(err))
			return decimal.Zero
		}
	}
	if d, ok := s.defaults[t]; ok {
		return d
	}
	return decimal.Zero
}

// Subtotal は Σ(枚数 × 単価) を計算する
func (s *PriceService) Subtotal(ctx context.Context, counts map[string]int) decimal.Decimal {
	total := decimal.Zero
	for t, n := range counts {
		if n <= 0 {
			continue
		}
		total = total.Add(s.PriceOf(ctx, t).Mul(decimal.NewFromInt(int64(n))))
	}
	return total
}

// ListPrices は登録済みの価格に、未登録の既定価格を補って返す
func (s *PriceService) ListPrices(ctx context.Context) ([]*pricing.TicketTypePrice, error) {
	byType := make(map[pricing.TicketType]*pricing.TicketTypePrice)
	for t, p := range s.defaults {
		byType[t] = &pricing.TicketTypePrice{Type: t, Price: p}
	}
	if s.repo != nil {
		stored, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range stored {
			byType[p.Type] = p
		}
	}
	out := make([]*pricing.TicketTypePrice, 0, len(byType))
	for _, p := range byType {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

type UpdatePriceInput struct {
	Type  string
	Price decimal.Decimal
}

// UpdatePrice は種別の価格を登録または更新する
func (s *PriceService) UpdatePrice(ctx context.Context, input UpdatePriceInput) (*pricing.TicketTypePrice, error) {
	p, err := pricing.NewTicketTypePrice(pricing.TicketType(input.Type), input.Price)
	if err != nil {
		return nil, apperror.NewValidationError("price", err.Error())
	}
	if s.repo == nil {
		return nil, apperror.NewStorageError("price.upsert", errors.New("価格ストアが設定されていません"))
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/pricing"
)

// PriceRepository はインメモリのチケット価格リポジトリ
type PriceRepository struct {
	mu     sync.RWMutex
	prices map[pricing.TicketType]pricing.TicketTypePrice
}

func NewPriceRepository() *PriceRepository {
	return &PriceRepository{prices: make(map[pricing.TicketType]pricing.TicketTypePrice)}
}

func (r *PriceRepository) Get(ctx context.Context, t pricing.TicketType) (*pricing.TicketTypePrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prices[t]
	if !ok {
		return nil, pricing.ErrPriceNotFound
	}
	return &p, nil
}

func (r *PriceRepository) List(ctx context.Context) ([]*pricing.TicketTypePrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*pricing.TicketTypePrice, 0, len(r.prices))
	for _, p := range r.prices {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (r *PriceRepository) Upsert(ctx context.Context, p *pricing.TicketTypePrice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices[p.Type] = *p
	return nil
}

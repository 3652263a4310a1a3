package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/pricing"
)

type priceRow struct {
	Type      string          `db:"type"`
	Price     decimal.Decimal `db:"price"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r *priceRow) toEntity() *pricing.TicketTypePrice {
	return &pricing.TicketTypePrice{Type: pricing.TicketType(r.Type), Price: r.Price, UpdatedAt: r.UpdatedAt}
}

type PriceRepository struct{ db *sqlx.DB }

func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

func (r *PriceRepository) Get(ctx context.Context, t pricing.TicketType) (*pricing.TicketTypePrice, error) {
	var row priceRow
	if err := r.db.GetContext(ctx, &row, `SELECT type, price, updated_at FROM ticket_prices WHERE type = $1`, string(t)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pricing.ErrPriceNotFound
		}
		return nil, apperror.NewStorageError("price.get", err)
	}
	return row.toEntity(), nil
}

func (r *PriceRepository) List(ctx context.Context) ([]*pricing.TicketTypePrice, error) {
	var rows []priceRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT type, price, updated_at FROM ticket_prices ORDER BY type`); err != nil {
		return nil, apperror.NewStorageError("price.list", err)
	}
	prices := make([]*pricing.TicketTypePrice, len(rows))
	for i := range rows {
		prices[i] = rows[i].toEntity()
	}
	return prices, nil
}

func (r *PriceRepository) Upsert(ctx context.Context, p *pricing.TicketTypePrice) error {
	query := `INSERT INTO ticket_prices (type, price, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (type) DO UPDATE SET price = EXCLUDED.price, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, string(p.Type), p.Price, p.UpdatedAt); err != nil {
		return apperror.NewStorageError("price.upsert", err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
)

type paymentCardDoc struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type ticketDoc struct {
	Number        string          `json:"ticket_number"`
	MovieID       string          `json:"movie_id"`
	MovieTitle    string          `json:"movie_title"`
	ShowroomID    string          `json:"showroom_id"`
	ShowtimeStart time.Time       `json:"showtime"`
	Seats         []string        `json:"seats"`
	TicketCounts  map[string]int  `json:"ticket_counts"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	CreatedAt     time.Time       `json:"created_at"`
	PaymentCard   *paymentCardDoc `json:"payment_card,omitempty"`
}

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	Tickets      []byte    `db:"tickets"`
	PaymentCards []byte    `db:"payment_cards"`
	Version      int64     `db:"version"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func toCardDoc(c *user.PaymentCardSnapshot) *paymentCardDoc {
	if c == nil {
		return nil
	}
	return &paymentCardDoc{ID: c.ID, Brand: c.Brand, Last4: c.Last4, ExpMonth: c.ExpMonth, ExpYear: c.ExpYear}
}

func (d *paymentCardDoc) toEntity() *user.PaymentCardSnapshot {
	if d == nil {
		return nil
	}
	return &user.PaymentCardSnapshot{ID: d.ID, Brand: d.Brand, Last4: d.Last4, ExpMonth: d.ExpMonth, ExpYear: d.ExpYear}
}

func encodeUserDocs(u *user.User) (tickets, cards []byte, err error) {
	tdocs := make([]ticketDoc, len(u.Tickets))
	for i, t := range u.Tickets {
		tdocs[i] = ticketDoc{
			Number:        t.Number,
			MovieID:       t.MovieID,
			MovieTitle:    t.MovieTitle,
			ShowroomID:    t.ShowroomID,
			ShowtimeStart: t.ShowtimeStart.UTC(),
			Seats:         t.Seats,
			TicketCounts:  t.TicketCounts,
			Subtotal:      t.Subtotal,
			CreatedAt:     t.CreatedAt,
			PaymentCard:   toCardDoc(t.PaymentCard),
		}
	}
	cdocs := make([]paymentCardDoc, len(u.PaymentCards))
	for i := range u.PaymentCards {
		cdocs[i] = *toCardDoc(&u.PaymentCards[i])
	}
	if tickets, err = json.Marshal(tdocs); err != nil {
		return nil, nil, err
	}
	if cards, err = json.Marshal(cdocs); err != nil {
		return nil, nil, err
	}
	return tickets, cards, nil
}

func (r *userRow) toEntity() (*user.User, error) {
	var tdocs []ticketDoc
	if len(r.Tickets) > 0 {
		if err := json.Unmarshal(r.Tickets, &tdocs); err != nil {
			return nil, fmt.Errorf("チケットのデコードに失敗: %w", err)
		}
	}
	var cdocs []paymentCardDoc
	if len(r.PaymentCards) > 0 {
		if err := json.Unmarshal(r.PaymentCards, &cdocs); err != nil {
			return nil, fmt.Errorf("支払いカードのデコードに失敗: %w", err)
		}
	}
	u := &user.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Tickets:   make([]user.Ticket, len(tdocs)),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for i, d := range tdocs {
		u.Tickets[i] = user.Ticket{
			Number:        d.Number,
			MovieID:       d.MovieID,
			MovieTitle:    d.MovieTitle,
			ShowroomID:    d.ShowroomID,
			ShowtimeStart: d.ShowtimeStart.UTC(),
			Seats:         d.Seats,
			TicketCounts:  d.TicketCounts,
			Subtotal:      d.Subtotal,
			CreatedAt:     d.CreatedAt,
			PaymentCard:   d.PaymentCard.toEntity(),
		}
	}
	for i := range cdocs {
		u.PaymentCards = append(u.PaymentCards, *cdocs[i].toEntity())
	}
	return u, nil
}

// UserRepository はユーザーとチケットを1行のドキュメントとして保存する
type UserRepository struct{ db *sqlx.DB }

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	tickets, cards, err := encodeUserDocs(u)
	if err != nil {
		return err
	}
	query := `INSERT INTO users (id, email, name, tickets, payment_cards, version, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, 1, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.Name, tickets, cards, u.CreatedAt, u.UpdatedAt); err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.ErrUserAlreadyExists
		}
		return apperror.NewStorageError("user.create", err)
	}
	u.Version = 1
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var row userRow
	query := `SELECT id, email, name, tickets, payment_cards, version, created_at, updated_at FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperror.NewStorageError("user.get", err)
	}
	return row.toEntity()
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	tickets, cards, err := encodeUserDocs(u)
	if err != nil {
		return err
	}
	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET email = $1, name = $2, tickets = $3, payment_cards = $4, version = version + 1, updated_at = $5 WHERE id = $6 AND version = $7`,
			u.Email, u.Name, tickets, cards, u.UpdatedAt, u.ID, u.Version)
		if err != nil {
			return apperror.NewStorageError("user.save", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperror.NewStorageError("user.save", err)
		}
		if n > 0 {
			return nil
		}
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, u.ID); err != nil {
			return apperror.NewStorageError("user.save", err)
		}
		if !exists {
			return user.ErrUserNotFound
		}
		return apperror.ErrVersionConflict
	})
	if err != nil {
		return err
	}
	u.Version++
	return nil
}

package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/clock"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/metrics"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/retry"
)

// TicketLedger はユーザードキュメントに埋め込まれたチケットを管理する
type TicketLedger struct {
	users        user.Repository
	clock        clock.Clock
	retrier      *retry.Retrier
	metrics      *metrics.Metrics
	queryTimeout time.Duration
}

type LedgerOption func(*TicketLedger)

func WithLedgerClock(c clock.Clock) LedgerOption {
	return func(l *TicketLedger) { l.clock = c }
}

func WithLedgerMetrics(m *metrics.Metrics) LedgerOption {
	return func(l *TicketLedger) { l.metrics = m }
}

func WithLedgerRetry(cfg retry.Config) LedgerOption {
	return func(l *TicketLedger) { l.retrier = retry.New(cfg) }
}

func WithLedgerQueryTimeout(d time.Duration) LedgerOption {
	return func(l *TicketLedger) { l.queryTimeout = d }
}

func NewTicketLedger(users user.Repository, opts ...LedgerOption) *TicketLedger {
	l := &TicketLedger{
		users:        users,
		clock:        clock.System{},
		retrier:      retry.New(retry.DefaultConfig()),
		queryTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IssueInput はチケット発行の入力。表示用の値は発行時点のスナップショットになる
type IssueInput struct {
	UserID       string
	Key          showroom.Key
	MovieTitle   string
	Seats        []string
	TicketCounts map[string]int
	Subtotal     decimal.Decimal
	PaymentCard  *user.PaymentCardSnapshot
}

// Issue は新しいチケットを発行し、ユーザーのチケット一覧に追加する
func (l *TicketLedger) Issue(ctx context.Context, input IssueInput) (*user.Ticket, error) {
	ticket := user.Ticket{
		Number:        user.NewTicketNumber(),
		MovieID:       input.Key.MovieID,
		MovieTitle:    input.MovieTitle,
		ShowroomID:    input.Key.ShowroomID,
		ShowtimeStart: input.Key.Start.UTC(),
		Seats:         append([]string(nil), input.Seats...),
		TicketCounts:  copyCounts(input.TicketCounts),
		Subtotal:      input.Subtotal,
		CreatedAt:     l.clock.Now().UTC(),
	}
	if input.PaymentCard != nil {
		card := *input.PaymentCard
		ticket.PaymentCard = &card
	}

	_, err := l.updateUser(ctx, input.UserID, func(u *user.User) error {
		u.AddTicket(ticket.Clone())
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("チケットを発行しました",
		zap.String("user_id", input.UserID),
		zap.String("ticket_number", ticket.Number),
		zap.Strings("seats", ticket.Seats))
	return &ticket, nil
}

// Find はユーザーのチケットを番号で検索する
func (l *TicketLedger) Find(ctx context.Context, userID, number string) (*user.Ticket, error) {
	u, err := l.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.FindTicket(number)
}

// List はユーザーのチケット一覧を返す
func (l *TicketLedger) List(ctx context.Context, userID string) ([]user.Ticket, error) {
	u, err := l.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tickets := make([]user.Ticket, len(u.Tickets))
	for i := range u.Tickets {
		tickets[i] = u.Tickets[i].Clone()
	}
	return tickets, nil
}

// Remove はチケットを削除し、削除したチケットを返す
func (l *TicketLedger) Remove(ctx context.Context, userID, number string) (*user.Ticket, error) {
	ticket, _, err := l.remove(ctx, userID, number)
	return ticket, err
}

// remove は削除したチケットと保存後のユーザーを返す
func (l *TicketLedger) remove(ctx context.Context, userID, number string) (*user.Ticket, *user.User, error) {
	var removed *user.Ticket
	u, err := l.updateUser(ctx, userID, func(u *user.User) error {
		t, err := u.RemoveTicket(number)
		removed = t
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return removed, u, nil
}

func (l *TicketLedger) getUser(ctx context.Context, userID string) (*user.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.NewValidationError("user_id", "必須です")
	}
	ctx, cancel := withQueryTimeout(ctx, l.queryTimeout)
	defer cancel()
	return l.users.GetByID(ctx, userID)
}

// updateUser は 読み込み→fn→保存 をバージョン競合時に再試行する
func (l *TicketLedger) updateUser(ctx context.Context, userID string, fn func(u *user.User) error) (*user.User, error) {
	var saved *user.User
	err := l.retrier.Do(ctx,
		func(err error) bool { return errors.Is(err, apperror.ErrVersionConflict) },
		func(attempt int, err error) {
			l.metrics.IncCASRetry("user")
			logger.Debug("ユーザーの保存が競合したため再試行します",
				zap.String("user_id", userID), zap.Int("attempt", attempt))
		},
		func(ctx context.Context) error {
			u, err := l.getUser(ctx, userID)
			if err != nil {
				return err
			}
			if err := fn(u); err != nil {
				return err
			}
			saveCtx, cancel := withQueryTimeout(ctx, l.queryTimeout)
			defer cancel()
			if err := l.users.Save(saveCtx, u); err != nil {
				return err
			}
			saved = u
			return nil
		})
	if err != nil {
		if errors.Is(err, retry.ErrMaxRetriesExceeded) {
			return nil, apperror.NewStorageError("user.save", err)
		}
		return nil, err
	}
	return saved, nil
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

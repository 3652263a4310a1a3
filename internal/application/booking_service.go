package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/notification"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/clock"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/metrics"
)

// MaxReleaseAttempts を超えた解放待ちは破棄してエラーログに残す
const MaxReleaseAttempts = 10

const notifyTimeout = 5 * time.Second

// BookingService は座席予約とチケット返却を提供する
type BookingService struct {
	allocator    *SeatAllocator
	ledger       *TicketLedger
	users        user.Repository
	prices       *PriceService
	notifier     notification.Notifier
	releases     showroom.ReleaseQueue
	clock        clock.Clock
	metrics      *metrics.Metrics
	queryTimeout time.Duration
}

type BookingOption func(*BookingService)

func WithNotifier(n notification.Notifier) BookingOption {
	return func(s *BookingService) { s.notifier = n }
}

func WithReleaseQueue(q showroom.ReleaseQueue) BookingOption {
	return func(s *BookingService) { s.releases = q }
}

func WithClock(c clock.Clock) BookingOption {
	return func(s *BookingService) { s.clock = c }
}

func WithBookingMetrics(m *metrics.Metrics) BookingOption {
	return func(s *BookingService) { s.metrics = m }
}

func WithBookingQueryTimeout(d time.Duration) BookingOption {
	return func(s *BookingService) { s.queryTimeout = d }
}

func NewBookingService(allocator *SeatAllocator, ledger *TicketLedger, users user.Repository, prices *PriceService, opts ...BookingOption) *BookingService {
	s := &BookingService{
		allocator:    allocator,
		ledger:       ledger,
		users:        users,
		prices:       prices,
		clock:        clock.System{},
		queryTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookingRequest は座席予約の入力
type BookingRequest struct {
	UserID        string
	Key           showroom.Key
	Seats         []string
	TicketCounts  map[string]int
	PaymentCardID string
	MovieTitle    string
}

func (r *BookingRequest) normalize() (map[string]int, error) {
	if strings.TrimSpace(r.UserID) == "" {
		return nil, apperror.NewValidationError("user_id", "必須です")
	}
	if err := r.Key.Validate(); err != nil {
		return nil, err
	}
	if err := showroom.ValidateSeatLabels(r.Seats); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(r.TicketCounts))
	for name, n := range r.TicketCounts {
		if n < 0 {
			return nil, apperror.NewValidationError("ticket_counts", name+" の枚数は0以上である必要があります")
		}
		t := string(pricing.NormalizeType(name))
		if t == "" {
			return nil, apperror.NewValidationError("ticket_counts", "チケット種別が空です")
		}
		counts[t] += n
	}
	return counts, nil
}

// BookSeats は座席を予約してチケットを発行する
// 座席予約→チケット発行の順に進め、発行に失敗した場合は予約した座席を解放する
func (s *BookingService) BookSeats(ctx context.Context, req BookingRequest) (*user.Ticket, error) {
	counts, err := req.normalize()
	if err != nil {
		s.metrics.ObserveBooking(metrics.BookingInvalid)
		return nil, err
	}

	u, err := s.getUser(ctx, req.UserID)
	if err != nil {
		s.metrics.ObserveBooking(bookingStatus(err))
		return nil, err
	}
	var card *user.PaymentCardSnapshot
	if req.PaymentCardID != "" {
		card, err = u.FindPaymentCard(req.PaymentCardID)
		if err != nil {
			s.metrics.ObserveBooking(metrics.BookingInvalid)
			return nil, apperror.NewValidationError("payment_card_id", "登録されていない支払いカードです")
		}
	}
	subtotal := s.prices.Subtotal(ctx, counts)

	saga := newBookingSaga(uuid.NewString())
	log := logger.FromContext(ctx).With(
		zap.String("saga_id", saga.id),
		zap.String("user_id", req.UserID),
		zap.String("showroom_id", req.Key.ShowroomID),
		zap.String("movie_id", req.Key.MovieID),
		zap.Time("start", req.Key.Start),
	)

	if _, err := s.allocator.Reserve(ctx, req.Key, req.Seats); err != nil {
		saga.advance(SagaFailed)
		s.metrics.ObserveBooking(bookingStatus(err))
		log.Info("座席の予約に失敗しました", zap.Error(err))
		return nil, err
	}
	saga.advance(SagaSeatsReserved)

	ticket, err := s.ledger.Issue(ctx, IssueInput{
		UserID:       req.UserID,
		Key:          req.Key,
		MovieTitle:   req.MovieTitle,
		Seats:        req.Seats,
		TicketCounts: counts,
		Subtotal:     subtotal,
		PaymentCard:  card,
	})
	if err != nil {
		return nil, s.compensate(ctx, saga, log, req, err)
	}
	saga.advance(SagaTicketIssued)
	saga.advance(SagaCompleted)
	s.metrics.ObserveBooking(metrics.BookingSuccess)
	log.Info("予約が完了しました", zap.String("ticket_number", ticket.Number))

	s.notifyAsync(ctx, u.Email, notification.SubjectBookingConfirmed,
		fmt.Sprintf("チケット %s: 座席 %s, 小計 %s", ticket.Number, strings.Join(ticket.Seats, ", "), ticket.Subtotal.StringFixed(2)))
	return ticket, nil
}

// compensate はチケット発行に失敗した予約の座席を解放する
func (s *BookingService) compensate(ctx context.Context, saga *bookingSaga, log *zap.Logger, req BookingRequest, issueErr error) error {
	saga.advance(SagaCompensating)

	// 呼び出し元がキャンセルしても解放は試みる
	releaseCtx := context.WithoutCancel(ctx)
	_, releaseErr := s.allocator.Release(releaseCtx, req.Key, req.Seats)
	if releaseErr == nil || isInventoryGone(releaseErr) {
		saga.advance(SagaCompensated)
		s.metrics.ObserveBooking(metrics.BookingFailed)
		log.Warn("チケット発行に失敗したため座席を解放しました", zap.Error(issueErr))
		return &BookingFailedError{Cause: issueErr}
	}

	saga.advance(SagaCompensationFailed)
	s.metrics.ObserveBooking(metrics.BookingCompensationFailed)
	log.Error("チケット発行と座席解放の両方に失敗しました",
		zap.Strings("seats", req.Seats),
		zap.NamedError("issue_error", issueErr),
		zap.NamedError("release_error", releaseErr))
	s.enqueueRelease(releaseCtx, req.Key, req.Seats, "compensation_failed")
	return &CompensationError{IssueErr: issueErr, ReleaseErr: releaseErr}
}

// ReturnResult はチケット返却の結果
type ReturnResult struct {
	Ticket           *user.Ticket
	RefundEligible   bool
	MinutesUntilShow int64
	// ReleaseSkipped は上映室または上映回が既に存在せず、座席解放を省略したことを表す
	ReleaseSkipped bool
	// ReleasePending は座席解放に失敗し、再試行キューに積んだことを表す
	ReleasePending bool
}

// ReturnTicket はチケットを返却する。返金可否にかかわらず返却は常に行われる
// チケット削除後の座席解放の失敗は呼び出し元には返さない
func (s *BookingService) ReturnTicket(ctx context.Context, userID, number string) (*ReturnResult, error) {
	ticket, u, err := s.ledger.remove(ctx, userID, number)
	if err != nil {
		return nil, err
	}

	decision := user.EvaluateRefund(ticket.ShowtimeStart, s.clock.Now())
	result := &ReturnResult{
		Ticket:           ticket,
		RefundEligible:   decision.Eligible,
		MinutesUntilShow: decision.MinutesUntilShow,
	}
	log := logger.FromContext(ctx).With(
		zap.String("user_id", userID),
		zap.String("ticket_number", number),
		zap.Bool("refund_eligible", decision.Eligible),
		zap.Int64("minutes_until_show", decision.MinutesUntilShow),
	)

	// チケットは既に削除済みのため、以降はキャンセルの影響を受けない
	postCtx := context.WithoutCancel(ctx)
	key := showroom.Key{ShowroomID: ticket.ShowroomID, MovieID: ticket.MovieID, Start: ticket.ShowtimeStart}
	if _, err := s.allocator.Release(postCtx, key, ticket.Seats); err != nil {
		if isInventoryGone(err) {
			result.ReleaseSkipped = true
			log.Warn("上映回が見つからないため座席解放を省略しました", zap.Error(err))
		} else {
			result.ReleasePending = true
			log.Error("座席解放に失敗したため再試行キューに積みます", zap.Error(err))
			s.enqueueRelease(postCtx, key, ticket.Seats, err.Error())
		}
	}

	s.metrics.ObserveReturn(decision.Eligible)
	log.Info("チケットを返却しました")

	subject := notification.SubjectTicketCancelled
	if decision.Eligible {
		subject = notification.SubjectTicketRefunded
	}
	s.notifyAsync(ctx, u.Email, subject,
		fmt.Sprintf("チケット %s を返却しました（上映開始まで %d 分）", number, decision.MinutesUntilShow))
	return result, nil
}

// ListTickets はユーザーのチケット一覧を返す
func (s *BookingService) ListTickets(ctx context.Context, userID string) ([]user.Ticket, error) {
	return s.ledger.List(ctx, userID)
}

// GetTicket はユーザーのチケットを返す
func (s *BookingService) GetTicket(ctx context.Context, userID, number string) (*user.Ticket, error) {
	return s.ledger.Find(ctx, userID, number)
}

// ReconcileReleases は解放待ちの座席を最大 limit 件処理し、解決した件数を返す
// 上映回が既に存在しないものは破棄し、それ以外の失敗は試行回数を増やして積み直す
func (s *BookingService) ReconcileReleases(ctx context.Context, limit int) (int, error) {
	if s.releases == nil {
		return 0, nil
	}
	pending, err := s.releases.Len(ctx)
	if err != nil {
		return 0, err
	}
	if int64(limit) > pending {
		limit = int(pending)
	}

	resolved := 0
	for i := 0; i < limit; i++ {
		item, err := s.releases.Dequeue(ctx)
		if err != nil {
			return resolved, err
		}
		if item == nil {
			break
		}
		log := logger.With(zap.String("release_id", item.ID), zap.String("key", item.Key.String()), zap.Strings("seats", item.Seats))

		_, err = s.allocator.Release(ctx, item.Key, item.Seats)
		switch {
		case err == nil:
			resolved++
			log.Info("保留中の座席を解放しました", zap.Int("attempts", item.Attempts+1))
		case isInventoryGone(err):
			resolved++
			log.Warn("上映回が存在しないため保留中の解放を破棄しました")
		default:
			item.Attempts++
			if item.Attempts >= MaxReleaseAttempts {
				log.Error("座席解放の再試行上限に達したため破棄しました", zap.Int("attempts", item.Attempts), zap.Error(err))
				continue
			}
			item.Reason = err.Error()
			if qerr := s.releases.Enqueue(ctx, *item); qerr != nil {
				log.Error("座席解放の再登録に失敗しました", zap.Error(qerr))
				return resolved, qerr
			}
		}
	}
	s.refreshPendingGauge(ctx)
	return resolved, nil
}

func (s *BookingService) enqueueRelease(ctx context.Context, key showroom.Key, seats []string, reason string) {
	if s.releases == nil {
		logger.Error("解放キューが未設定のため座席が予約されたまま残ります",
			zap.String("key", key.String()), zap.Strings("seats", seats))
		return
	}
	err := s.releases.Enqueue(ctx, showroom.PendingRelease{
		ID:         uuid.NewString(),
		Key:        key,
		Seats:      append([]string(nil), seats...),
		Reason:     reason,
		EnqueuedAt: s.clock.Now(),
	})
	if err != nil {
		logger.Error("解放キューへの登録に失敗しました",
			zap.String("key", key.String()), zap.Strings("seats", seats), zap.Error(err))
		return
	}
	s.refreshPendingGauge(ctx)
}

func (s *BookingService) refreshPendingGauge(ctx context.Context) {
	if s.metrics == nil || s.releases == nil {
		return
	}
	if n, err := s.releases.Len(ctx); err == nil {
		s.metrics.SetPendingReleases(n)
	}
}

// notifyAsync は通知を非同期に送る。失敗はログに残すだけで呼び出し元には返さない
func (s *BookingService) notifyAsync(ctx context.Context, address, subject, body string) {
	if s.notifier == nil || address == "" {
		return
	}
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(nctx, address, subject, body); err != nil {
			logger.Warn("通知の送信に失敗しました", zap.String("subject", subject), zap.Error(err))
		}
	}()
}

func (s *BookingService) getUser(ctx context.Context, id string) (*user.User, error) {
	ctx, cancel := withQueryTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.users.GetByID(ctx, id)
}

// isInventoryGone は上映室または上映回が既に存在しないかを返す
func isInventoryGone(err error) bool {
	return errors.Is(err, showroom.ErrShowroomNotFound) || errors.Is(err, showroom.ErrShowtimeNotFound)
}

func bookingStatus(err error) string {
	switch {
	case errors.Is(err, showroom.ErrSeatsAlreadyBooked):
		return metrics.BookingConflict
	case isInventoryGone(err), errors.Is(err, user.ErrUserNotFound):
		return metrics.BookingNotFound
	case errors.Is(err, apperror.ErrValidation):
		return metrics.BookingInvalid
	default:
		return metrics.BookingFailed
	}
}

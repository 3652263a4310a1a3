package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/cinema-ticket-booking/internal/api"
	"github.com/sanosuguru/cinema-ticket-booking/internal/application"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
)

var showStart = time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)

func sampleTicket() *user.Ticket {
	return &user.Ticket{
		Number:        "ticket-123",
		MovieID:       "movie-1",
		MovieTitle:    "Metropolis",
		ShowroomID:    "room-1",
		ShowtimeStart: showStart,
		Seats:         []string{"A1", "A2"},
		TicketCounts:  map[string]int{"ADULT": 2},
		Subtotal:      decimal.NewFromInt(24),
		CreatedAt:     showStart.Add(-3 * time.Hour),
		PaymentCard:   &user.PaymentCardSnapshot{ID: "card-1", Brand: "VISA", Last4: "4242", ExpMonth: 12, ExpYear: 2030},
	}
}

const bookingBody = `{
	"showroom_id": "room-1",
	"movie_id": "movie-1",
	"movie_title": "Metropolis",
	"start": "2026-10-16T18:00:00Z",
	"seats": ["A1", "A2"],
	"ticket_counts": {"adult": 2},
	"payment_card_id": "card-1"
}`

func TestBookingHandler_Create(t *testing.T) {
	t.Run("正常に予約してチケットを返す", func(t *testing.T) {
		r := newTestRouter(nil)
		r.bookings.On("BookSeats", mock.Anything, mock.MatchedBy(func(req application.BookingRequest) bool {
			return req.UserID == "user-1" &&
				req.Key.ShowroomID == "room-1" &&
				req.Key.Start.Equal(showStart) &&
				req.TicketCounts["adult"] == 2 &&
				req.PaymentCardID == "card-1"
		})).Return(sampleTicket(), nil)

		rec := r.do(http.MethodPost, "/api/v1/bookings", bookingBody, "user-1")

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp TicketResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ticket-123", resp.Number)
		assert.Equal(t, "24.00", resp.Subtotal)
		require.NotNil(t, resp.PaymentCard)
		assert.Equal(t, "4242", resp.PaymentCard.Last4)
		r.bookings.AssertExpectations(t)
	})

	t.Run("予約済みの座席は409で競合座席を返す", func(t *testing.T) {
		r := newTestRouter(nil)
		r.bookings.On("BookSeats", mock.Anything, mock.Anything).
			Return(nil, &showroom.SeatConflictError{Seats: []string{"A2"}})

		rec := r.do(http.MethodPost, "/api/v1/bookings", bookingBody, "user-1")

		require.Equal(t, http.StatusConflict, rec.Code)
		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []string{"A2"}, resp.Seats)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("ユーザーIDがない場合401", func(t *testing.T) {
		r := newTestRouter(nil)
		rec := r.do(http.MethodPost, "/api/v1/bookings", bookingBody, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		r.bookings.AssertNotCalled(t, "BookSeats", mock.Anything, mock.Anything)
	})

	t.Run("不正なJSONは400", func(t *testing.T) {
		r := newTestRouter(nil)
		rec := r.do(http.MethodPost, "/api/v1/bookings", "invalid", "user-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("座席が空の場合は400", func(t *testing.T) {
		r := newTestRouter(nil)
		body := `{"showroom_id":"room-1","movie_id":"movie-1","start":"2026-10-16T18:00:00Z","seats":[]}`
		rec := r.do(http.MethodPost, "/api/v1/bookings", body, "user-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "seats")
	})

	t.Run("上映回が存在しない場合404", func(t *testing.T) {
		r := newTestRouter(nil)
		r.bookings.On("BookSeats", mock.Anything, mock.Anything).Return(nil, showroom.ErrShowtimeNotFound)
		rec := r.do(http.MethodPost, "/api/v1/bookings", bookingBody, "user-1")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("サービスのバリデーションエラーは400", func(t *testing.T) {
		r := newTestRouter(nil)
		r.bookings.On("BookSeats", mock.Anything, mock.Anything).
			Return(nil, apperror.NewValidationError("seats", "座席が重複しています"))
		rec := r.do(http.MethodPost, "/api/v1/bookings", bookingBody, "user-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("補償に失敗した場合は500で内部情報を返さない", func(t *testing.T) {
		r := newTestRouter(nil)
		r.bookings.On("BookSeats", mock.Anything, mock.Anything).
			Return(nil, &application.CompensationError{IssueErr: errors.New("db down"), ReleaseErr: errors.New("db down")})
		rec := r.do(http.MethodPost, "/api/v1/bookings", bookingBody, "user-1")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}

func TestTicketHandler(t *testing.T) {
	t.Run("チケット一覧を取得できる", func(t *testing.T) {
		r := newTestRouter(nil)
		r.bookings.On("ListTickets", mock.Anything, "user-1").Return([]user.Ticket{*sampleTicket()}, nil)

		rec := r.do(http.MethodGet, "/api/v1/tickets", "", "user-1")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp []TicketResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, []string{"A1", "A2"}, resp[0].Seats)
	})

	t.Run("チケットを番号で取得できる", func(t *testing.T) {
		r := newTestRouter(nil)
		r.bookings.On("GetTicket", mock.Anything, "user-1", "ticket-123").Return(sampleTicket(), nil)

		rec := r.do(http.MethodGet, "/api/v1/tickets/ticket-123", "", "user-1")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("存在しないチケットは404", func(t *testing.T) {
		r := newTestRouter(nil)
		r.bookings.On("GetTicket", mock.Anything, "user-1", "nope").Return(nil, user.ErrTicketNotFound)

		rec := r.do(http.MethodGet, "/api/v1/tickets/nope", "", "user-1")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("返却すると返金可否を返す", func(t *testing.T) {
		r := newTestRouter(nil)
		r.bookings.On("ReturnTicket", mock.Anything, "user-1", "ticket-123").Return(&application.ReturnResult{
			Ticket:           sampleTicket(),
			RefundEligible:   false,
			MinutesUntilShow: 30,
		}, nil)

		rec := r.do(http.MethodDelete, "/api/v1/tickets/ticket-123", "", "user-1")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ReturnTicketResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.RefundEligible)
		assert.Equal(t, int64(30), resp.MinutesUntilShow)
		assert.Equal(t, "ticket-123", resp.Ticket.Number)
	})

	t.Run("返却済みのチケットは404", func(t *testing.T) {
		r := newTestRouter(nil)
		r.bookings.On("ReturnTicket", mock.Anything, "user-1", "ticket-123").Return(nil, user.ErrTicketNotFound)

		rec := r.do(http.MethodDelete, "/api/v1/tickets/ticket-123", "", "user-1")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ユーザーIDがない場合401", func(t *testing.T) {
		r := newTestRouter(nil)
		rec := r.do(http.MethodGet, "/api/v1/tickets", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

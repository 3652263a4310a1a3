package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
)

// HeaderUserID は認証済みユーザーのIDを運ぶヘッダー
const HeaderUserID = "X-User-ID"

func userIDFrom(c echo.Context) (string, error) {
	userID := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	return userID, nil
}

// showtimeKeyFromQuery は ?movie_id=&start= から上映回のキーを組み立てる
func showtimeKeyFromQuery(c echo.Context) (showroom.Key, error) {
	key := showroom.Key{ShowroomID: c.Param("id"), MovieID: c.QueryParam("movie_id")}
	raw := c.QueryParam("start")
	if raw == "" {
		return key, apperror.NewValidationError("start", "必須です")
	}
	start, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return key, apperror.NewValidationError("start", "RFC3339 形式で指定してください")
	}
	key.Start = start
	return key, key.Validate()
}

type PaymentCardResponse struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type TicketResponse struct {
	Number        string               `json:"number" example:"3f2b8c1e-6a0d-4a59-9d43-1c7a2f0e5b11"`
	MovieID       string               `json:"movie_id" example:"movie-1"`
	MovieTitle    string               `json:"movie_title,omitempty" example:"Metropolis"`
	ShowroomID    string               `json:"showroom_id" example:"room-1"`
	ShowtimeStart time.Time            `json:"showtime_start"`
	Seats         []string             `json:"seats" example:"A1,A2"`
	TicketCounts  map[string]int       `json:"ticket_counts"`
	Subtotal      string               `json:"subtotal" example:"24.00"`
	CreatedAt     time.Time            `json:"created_at"`
	PaymentCard   *PaymentCardResponse `json:"payment_card,omitempty"`
}

func toTicketResponse(t *user.Ticket) TicketResponse {
	resp := TicketResponse{
		Number:        t.Number,
		MovieID:       t.MovieID,
		MovieTitle:    t.MovieTitle,
		ShowroomID:    t.ShowroomID,
		ShowtimeStart: t.ShowtimeStart,
		Seats:         t.Seats,
		TicketCounts:  t.TicketCounts,
		Subtotal:      t.Subtotal.StringFixed(2),
		CreatedAt:     t.CreatedAt,
	}
	if t.PaymentCard != nil {
		resp.PaymentCard = &PaymentCardResponse{
			ID:       t.PaymentCard.ID,
			Brand:    t.PaymentCard.Brand,
			Last4:    t.PaymentCard.Last4,
			ExpMonth: t.PaymentCard.ExpMonth,
			ExpYear:  t.PaymentCard.ExpYear,
		}
	}
	return resp
}

type ShowtimeResponse struct {
	MovieID     string    `json:"movie_id"`
	Start       time.Time `json:"start"`
	RoomID      string    `json:"room_id"`
	BookedSeats []string  `json:"booked_seats"`
}

func toShowtimeResponse(st *showroom.Showtime) ShowtimeResponse {
	seats := st.BookedSeats
	if seats == nil {
		seats = []string{}
	}
	return ShowtimeResponse{MovieID: st.MovieID, Start: st.Start, RoomID: st.RoomID, BookedSeats: seats}
}

type ShowroomResponse struct {
	ID        string             `json:"id"`
	Showtimes []ShowtimeResponse `json:"showtimes"`
	Version   int64              `json:"version"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func toShowroomResponse(r *showroom.Showroom) ShowroomResponse {
	showtimes := make([]ShowtimeResponse, len(r.Showtimes))
	for i := range r.Showtimes {
		showtimes[i] = toShowtimeResponse(&r.Showtimes[i])
	}
	return ShowroomResponse{ID: r.ID, Showtimes: showtimes, Version: r.Version, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

type PriceResponse struct {
	Type      string     `json:"type" example:"ADULT"`
	Price     string     `json:"price" example:"12.00"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toPriceResponse(p *pricing.TicketTypePrice) PriceResponse {
	resp := PriceResponse{Type: string(p.Type), Price: p.Price.StringFixed(2)}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

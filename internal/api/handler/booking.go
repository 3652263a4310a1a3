package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/cinema-ticket-booking/internal/application"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type CreateBookingRequest struct {
	ShowroomID    string         `json:"showroom_id" validate:"required" example:"room-1"`
	MovieID       string         `json:"movie_id" validate:"required" example:"movie-1"`
	MovieTitle    string         `json:"movie_title" example:"Metropolis"`
	Start         time.Time      `json:"start" example:"2026-10-16T18:00:00Z"`
	Seats         []string       `json:"seats" validate:"required,min=1,dive,required" example:"A1,A2"`
	TicketCounts  map[string]int `json:"ticket_counts" validate:"omitempty,dive,gte=0"`
	PaymentCardID string         `json:"payment_card_id" example:"card-1"`
}

// Create godoc
// @Summary 座席を予約
// @Description 上映回の座席を予約してチケットを発行します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} TicketResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "座席が既に予約済み"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ticket, err := h.service.BookSeats(c.Request().Context(), application.BookingRequest{
		UserID:        userID,
		Key:           showroom.Key{ShowroomID: req.ShowroomID, MovieID: req.MovieID, Start: req.Start},
		Seats:         req.Seats,
		TicketCounts:  req.TicketCounts,
		PaymentCardID: req.PaymentCardID,
		MovieTitle:    req.MovieTitle,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTicketResponse(ticket))
}

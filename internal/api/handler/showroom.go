package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/cinema-ticket-booking/internal/application"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
)

type ShowroomHandler struct {
	service ShowroomServiceInterface
}

func NewShowroomHandler(s ShowroomServiceInterface) *ShowroomHandler {
	return &ShowroomHandler{service: s}
}

type CreateShowroomRequest struct {
	ID string `json:"id" validate:"required,max=64" example:"room-1"`
}

type AddShowtimeRequest struct {
	MovieID string    `json:"movie_id" validate:"required" example:"movie-1"`
	Start   time.Time `json:"start" example:"2026-10-16T18:00:00Z"`
	RoomID  string    `json:"room_id" example:"room-1-imax"`
}

type BookedSeatsResponse struct {
	ShowroomID  string    `json:"showroom_id"`
	MovieID     string    `json:"movie_id"`
	Start       time.Time `json:"start"`
	BookedSeats []string  `json:"booked_seats"`
}

// Create godoc
// @Summary 上映室を作成
// @Tags showrooms
// @Accept json
// @Produce json
// @Param request body CreateShowroomRequest true "上映室"
// @Success 201 {object} ShowroomResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /showrooms [post]
func (h *ShowroomHandler) Create(c echo.Context) error {
	var req CreateShowroomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	room, err := h.service.CreateShowroom(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toShowroomResponse(room))
}

// List godoc
// @Summary 上映室一覧を取得
// @Tags showrooms
// @Produce json
// @Success 200 {array} ShowroomResponse
// @Router /showrooms [get]
func (h *ShowroomHandler) List(c echo.Context) error {
	rooms, err := h.service.ListShowrooms(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]ShowroomResponse, len(rooms))
	for i, r := range rooms {
		resp[i] = toShowroomResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 上映室を取得
// @Tags showrooms
// @Produce json
// @Param id path string true "上映室ID"
// @Success 200 {object} ShowroomResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /showrooms/{id} [get]
func (h *ShowroomHandler) GetByID(c echo.Context) error {
	room, err := h.service.GetShowroom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShowroomResponse(room))
}

// AddShowtime godoc
// @Summary 上映回を追加
// @Tags showrooms
// @Accept json
// @Produce json
// @Param id path string true "上映室ID"
// @Param request body AddShowtimeRequest true "上映回"
// @Success 201 {object} ShowtimeResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /showrooms/{id}/showtimes [post]
func (h *ShowroomHandler) AddShowtime(c echo.Context) error {
	var req AddShowtimeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	st, err := h.service.AddShowtime(c.Request().Context(), application.AddShowtimeInput{
		ShowroomID: c.Param("id"),
		MovieID:    req.MovieID,
		Start:      req.Start,
		RoomID:     req.RoomID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toShowtimeResponse(st))
}

// PatchShowtime godoc
// @Summary 上映回を部分更新
// @Description 指定したフィールドだけを更新します。room_id に null を指定すると上映室IDに戻ります
// @Tags showrooms
// @Accept json
// @Produce json
// @Param id path string true "上映室ID"
// @Param movie_id query string true "映画ID"
// @Param start query string true "開始時刻 (RFC3339)"
// @Success 200 {object} ShowtimeResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "予約済みの座席がある"
// @Router /showrooms/{id}/showtimes [patch]
func (h *ShowroomHandler) PatchShowtime(c echo.Context) error {
	key, err := showtimeKeyFromQuery(c)
	if err != nil {
		return err
	}
	var patch showroom.ShowtimePatch
	if err := c.Echo().JSONSerializer.Deserialize(c, &patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	st, err := h.service.PatchShowtime(c.Request().Context(), key, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toShowtimeResponse(st))
}

// RemoveShowtime godoc
// @Summary 上映回を削除
// @Tags showrooms
// @Param id path string true "上映室ID"
// @Param movie_id query string true "映画ID"
// @Param start query string true "開始時刻 (RFC3339)"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Router /showrooms/{id}/showtimes [delete]
func (h *ShowroomHandler) RemoveShowtime(c echo.Context) error {
	key, err := showtimeKeyFromQuery(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveShowtime(c.Request().Context(), key); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// BookedSeats godoc
// @Summary 予約済み座席を取得
// @Tags showrooms
// @Produce json
// @Param id path string true "上映室ID"
// @Param movie_id query string true "映画ID"
// @Param start query string true "開始時刻 (RFC3339)"
// @Success 200 {object} BookedSeatsResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /showrooms/{id}/showtimes/seats [get]
func (h *ShowroomHandler) BookedSeats(c echo.Context) error {
	key, err := showtimeKeyFromQuery(c)
	if err != nil {
		return err
	}
	seats, err := h.service.BookedSeats(c.Request().Context(), key)
	if err != nil {
		return err
	}
	if seats == nil {
		seats = []string{}
	}
	return c.JSON(http.StatusOK, BookedSeatsResponse{
		ShowroomID:  key.ShowroomID,
		MovieID:     key.MovieID,
		Start:       key.Start.UTC(),
		BookedSeats: seats,
	})
}

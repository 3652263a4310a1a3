package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/cinema-ticket-booking/internal/application"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
)

type PriceHandler struct {
	service PriceServiceInterface
}

func NewPriceHandler(s PriceServiceInterface) *PriceHandler {
	return &PriceHandler{service: s}
}

type UpdatePriceRequest struct {
	Price string `json:"price" validate:"required,numeric" example:"12.50"`
}

// List godoc
// @Summary チケット価格一覧を取得
// @Tags ticket-prices
// @Produce json
// @Success 200 {array} PriceResponse
// @Router /ticket-prices [get]
func (h *PriceHandler) List(c echo.Context) error {
	prices, err := h.service.ListPrices(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]PriceResponse, len(prices))
	for i, p := range prices {
		resp[i] = toPriceResponse(p)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary チケット価格を登録・更新
// @Tags ticket-prices
// @Accept json
// @Produce json
// @Param type path string true "チケット種別"
// @Param request body UpdatePriceRequest true "価格"
// @Success 200 {object} PriceResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /ticket-prices/{type} [put]
func (h *PriceHandler) Update(c echo.Context) error {
	var req UpdatePriceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return apperror.NewValidationError("price", "数値で指定してください")
	}
	p, err := h.service.UpdatePrice(c.Request().Context(), application.UpdatePriceInput{
		Type:  c.Param("type"),
		Price: price,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPriceResponse(p))
}

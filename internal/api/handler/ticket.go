package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type TicketHandler struct {
	service BookingServiceInterface
}

func NewTicketHandler(s BookingServiceInterface) *TicketHandler {
	return &TicketHandler{service: s}
}

type ReturnTicketResponse struct {
	Ticket           TicketResponse `json:"ticket"`
	RefundEligible   bool           `json:"refund_eligible"`
	MinutesUntilShow int64          `json:"minutes_until_show"`
	ReleaseSkipped   bool           `json:"release_skipped,omitempty"`
	ReleasePending   bool           `json:"release_pending,omitempty"`
}

// List godoc
// @Summary チケット一覧を取得
// @Tags tickets
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {array} TicketResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /tickets [get]
func (h *TicketHandler) List(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	resp := make([]TicketResponse, len(tickets))
	for i := range tickets {
		resp[i] = toTicketResponse(&tickets[i])
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByNumber godoc
// @Summary チケットを取得
// @Tags tickets
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param number path string true "チケット番号"
// @Success 200 {object} TicketResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /tickets/{number} [get]
func (h *TicketHandler) GetByNumber(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.Request().Context(), userID, c.Param("number"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTicketResponse(ticket))
}

// Return godoc
// @Summary チケットを返却
// @Description チケットを返却して座席を解放します。上映開始60分前までなら返金対象です
// @Tags tickets
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param number path string true "チケット番号"
// @Success 200 {object} ReturnTicketResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /tickets/{number} [delete]
func (h *TicketHandler) Return(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return err
	}
	result, err := h.service.ReturnTicket(c.Request().Context(), userID, c.Param("number"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ReturnTicketResponse{
		Ticket:           toTicketResponse(result.Ticket),
		RefundEligible:   result.RefundEligible,
		MinutesUntilShow: result.MinutesUntilShow,
		ReleaseSkipped:   result.ReleaseSkipped,
		ReleasePending:   result.ReleasePending,
	})
}

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/cinema-ticket-booking/internal/application"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    int      `json:"code,omitempty"`
	Details string   `json:"details,omitempty"`
	Seats   []string `json:"seats,omitempty"`
}

// StatusFor はドメインエラーを HTTP ステータスに変換する
func StatusFor(err error) int {
	var compErr *application.CompensationError
	var failedErr *application.BookingFailedError
	switch {
	case errors.As(err, &compErr):
		return http.StatusInternalServerError
	case errors.As(err, &failedErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, showroom.ErrShowroomNotFound),
		errors.Is(err, showroom.ErrShowtimeNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, user.ErrTicketNotFound),
		errors.Is(err, pricing.ErrPriceNotFound):
		return http.StatusNotFound
	case errors.Is(err, showroom.ErrSeatsAlreadyBooked),
		errors.Is(err, showroom.ErrShowroomAlreadyExists),
		errors.Is(err, showroom.ErrShowtimeAlreadyExists),
		errors.Is(err, showroom.ErrShowtimeHasBookings),
		errors.Is(err, user.ErrUserAlreadyExists),
		errors.Is(err, apperror.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, apperror.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// ハンドラーが返したドメインエラーはここで一括してステータスに変換する
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := ErrorResponse{}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		resp.Code = he.Code
		if m, ok := he.Message.(string); ok {
			resp.Error = m
		} else {
			resp.Error = http.StatusText(he.Code)
		}
	} else {
		resp.Code = StatusFor(err)
		resp.Error = err.Error()
		var conflict *showroom.SeatConflictError
		if errors.As(err, &conflict) {
			resp.Seats = conflict.Seats
		}
	}

	// 5xx は内部情報を返さずログに残す
	if resp.Code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", resp.Code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
		resp.Error = http.StatusText(resp.Code)
	}

	if err := c.JSON(resp.Code, resp); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

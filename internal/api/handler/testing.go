package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/cinema-ticket-booking/internal/api"
)

// NewTestEcho はテスト用のEchoインスタンスを作成する
// エラーハンドラーは本番と同じものを使う
func NewTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	return e
}

package handler

import (
	"github.com/labstack/echo/v4"
)

// Handlers はルーティングに登録するハンドラーの集合
type Handlers struct {
	Booking  *BookingHandler
	Ticket   *TicketHandler
	Showroom *ShowroomHandler
	Price    *PriceHandler
	Health   *HealthHandler
}

// RegisterRoutes は /health と /api/v1 配下のルートを登録する
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/health", h.Health.Check)

	v1 := e.Group("/api/v1")
	v1.POST("/bookings", h.Booking.Create)

	v1.GET("/tickets", h.Ticket.List)
	v1.GET("/tickets/:number", h.Ticket.GetByNumber)
	v1.DELETE("/tickets/:number", h.Ticket.Return)

	v1.GET("/showrooms", h.Showroom.List)
	v1.POST("/showrooms", h.Showroom.Create)
	v1.GET("/showrooms/:id", h.Showroom.GetByID)
	v1.POST("/showrooms/:id/showtimes", h.Showroom.AddShowtime)
	v1.PATCH("/showrooms/:id/showtimes", h.Showroom.PatchShowtime)
	v1.DELETE("/showrooms/:id/showtimes", h.Showroom.RemoveShowtime)
	v1.GET("/showrooms/:id/showtimes/seats", h.Showroom.BookedSeats)

	v1.GET("/ticket-prices", h.Price.List)
	v1.PUT("/ticket-prices/:type", h.Price.Update)
}

package handler

import (
	"context"

	"github.com/sanosuguru/cinema-ticket-booking/internal/application"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
)

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	BookSeats(ctx context.Context, req application.BookingRequest) (*user.Ticket, error)
	ReturnTicket(ctx context.Context, userID, number string) (*application.ReturnResult, error)
	ListTickets(ctx context.Context, userID string) ([]user.Ticket, error)
	GetTicket(ctx context.Context, userID, number string) (*user.Ticket, error)
}

// ShowroomServiceInterface は上映室サービスのインターフェース
type ShowroomServiceInterface interface {
	CreateShowroom(ctx context.Context, id string) (*showroom.Showroom, error)
	GetShowroom(ctx context.Context, id string) (*showroom.Showroom, error)
	ListShowrooms(ctx context.Context) ([]*showroom.Showroom, error)
	AddShowtime(ctx context.Context, input application.AddShowtimeInput) (*showroom.Showtime, error)
	RemoveShowtime(ctx context.Context, key showroom.Key) error
	PatchShowtime(ctx context.Context, key showroom.Key, patch showroom.ShowtimePatch) (*showroom.Showtime, error)
	BookedSeats(ctx context.Context, key showroom.Key) ([]string, error)
}

// PriceServiceInterface は価格サービスのインターフェース
type PriceServiceInterface interface {
	ListPrices(ctx context.Context) ([]*pricing.TicketTypePrice, error)
	UpdatePrice(ctx context.Context, input application.UpdatePriceInput) (*pricing.TicketTypePrice, error)
}

package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/cinema-ticket-booking/internal/application"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
)

// MockBookingService はBookingServiceInterfaceのモック
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) BookSeats(ctx context.Context, req application.BookingRequest) (*user.Ticket, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Ticket), args.Error(1)
}

func (m *MockBookingService) ReturnTicket(ctx context.Context, userID, number string) (*application.ReturnResult, error) {
	args := m.Called(ctx, userID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.ReturnResult), args.Error(1)
}

func (m *MockBookingService) ListTickets(ctx context.Context, userID string) ([]user.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.Ticket), args.Error(1)
}

func (m *MockBookingService) GetTicket(ctx context.Context, userID, number string) (*user.Ticket, error) {
	args := m.Called(ctx, userID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Ticket), args.Error(1)
}

// MockShowroomService はShowroomServiceInterfaceのモック
type MockShowroomService struct {
	mock.Mock
}

func (m *MockShowroomService) CreateShowroom(ctx context.Context, id string) (*showroom.Showroom, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*showroom.Showroom), args.Error(1)
}

func (m *MockShowroomService) GetShowroom(ctx context.Context, id string) (*showroom.Showroom, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*showroom.Showroom), args.Error(1)
}

func (m *MockShowroomService) ListShowrooms(ctx context.Context) ([]*showroom.Showroom, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*showroom.Showroom), args.Error(1)
}

func (m *MockShowroomService) AddShowtime(ctx context.Context, input application.AddShowtimeInput) (*showroom.Showtime, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*showroom.Showtime), args.Error(1)
}

func (m *MockShowroomService) RemoveShowtime(ctx context.Context, key showroom.Key) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockShowroomService) PatchShowtime(ctx context.Context, key showroom.Key, patch showroom.ShowtimePatch) (*showroom.Showtime, error) {
	args := m.Called(ctx, key, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*showroom.Showtime), args.Error(1)
}

func (m *MockShowroomService) BookedSeats(ctx context.Context, key showroom.Key) ([]string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockPriceService はPriceServiceInterfaceのモック
type MockPriceService struct {
	mock.Mock
}

func (m *MockPriceService) ListPrices(ctx context.Context) ([]*pricing.TicketTypePrice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pricing.TicketTypePrice), args.Error(1)
}

func (m *MockPriceService) UpdatePrice(ctx context.Context, input application.UpdatePriceInput) (*pricing.TicketTypePrice, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.TicketTypePrice), args.Error(1)
}

type testRouter struct {
	echo      *echo.Echo
	bookings  *MockBookingService
	showrooms *MockShowroomService
	prices    *MockPriceService
}

// newTestRouter は本番と同じルートとエラーハンドラーでモックを配線する
func newTestRouter(checks map[string]HealthCheck) *testRouter {
	r := &testRouter{
		echo:      NewTestEcho(),
		bookings:  new(MockBookingService),
		showrooms: new(MockShowroomService),
		prices:    new(MockPriceService),
	}
	RegisterRoutes(r.echo, Handlers{
		Booking:  NewBookingHandler(r.bookings),
		Ticket:   NewTicketHandler(r.bookings),
		Showroom: NewShowroomHandler(r.showrooms),
		Price:    NewPriceHandler(r.prices),
		Health:   NewHealthHandler(checks),
	})
	return r
}

func (r *testRouter) do(method, path, body, userID string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}
	rec := httptest.NewRecorder()
	r.echo.ServeHTTP(rec, req)
	return rec
}

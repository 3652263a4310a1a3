package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
	"github.com/sanosuguru/cinema-ticket-booking/internal/infrastructure/memory"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/clock"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/retry"
)

var testNow = time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)

// テスト用に待ち時間を短くした再試行設定
var fastRetry = retry.Config{MaxAttempts: 5, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Multiplier: 2}

type testEnv struct {
	rooms     *memory.ShowroomRepository
	users     *memory.UserRepository
	prices    *memory.PriceRepository
	releases  *memory.ReleaseQueue
	allocator *SeatAllocator
	ledger    *TicketLedger
	booking   *BookingService
	showrooms *ShowroomService
	notifier  *fakeNotifier
}

type envOptions struct {
	rooms showroom.Repository
	users user.Repository
	now   time.Time
}

type envOption func(*envOptions)

func withRoomRepo(r showroom.Repository) envOption {
	return func(o *envOptions) { o.rooms = r }
}

func withUserRepo(r user.Repository) envOption {
	return func(o *envOptions) { o.users = r }
}

func withNow(t time.Time) envOption {
	return func(o *envOptions) { o.now = t }
}

func setupTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		rooms:    memory.NewShowroomRepository(),
		users:    memory.NewUserRepository(),
		prices:   memory.NewPriceRepository(),
		releases: memory.NewReleaseQueue(),
		notifier: newFakeNotifier(),
	}
	o := &envOptions{rooms: env.rooms, users: env.users, now: testNow}
	for _, opt := range opts {
		opt(o)
	}
	clk := clock.Fixed{T: o.now}

	env.allocator = NewSeatAllocator(o.rooms, memory.NewKeyedMutex(), WithAllocatorRetry(fastRetry))
	env.ledger = NewTicketLedger(o.users, WithLedgerClock(clk), WithLedgerRetry(fastRetry))
	env.booking = NewBookingService(env.allocator, env.ledger, o.users, NewPriceService(env.prices),
		WithNotifier(env.notifier),
		WithReleaseQueue(env.releases),
		WithClock(clk),
	)
	env.showrooms = NewShowroomService(o.rooms, env.allocator, nil)
	return env
}

// seedShowtime は上映室と上映回を作成し、上映回のキーを返す
func (e *testEnv) seedShowtime(t *testing.T, roomID, movieID string, start time.Time) showroom.Key {
	t.Helper()
	ctx := context.Background()
	if _, err := e.rooms.GetByID(ctx, roomID); errors.Is(err, showroom.ErrShowroomNotFound) {
		_, err := e.showrooms.CreateShowroom(ctx, roomID)
		require.NoError(t, err)
	}
	_, err := e.showrooms.AddShowtime(ctx, AddShowtimeInput{ShowroomID: roomID, MovieID: movieID, Start: start})
	require.NoError(t, err)
	return showroom.Key{ShowroomID: roomID, MovieID: movieID, Start: start}
}

func (e *testEnv) seedUser(t *testing.T, id string) *user.User {
	t.Helper()
	u := user.NewUser(id, id+"@example.com", id)
	u.PaymentCards = []user.PaymentCardSnapshot{{ID: "card-1", Brand: "VISA", Last4: "4242", ExpMonth: 12, ExpYear: 2030}}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) bookedSeats(t *testing.T, key showroom.Key) []string {
	t.Helper()
	room, err := e.rooms.GetByID(context.Background(), key.ShowroomID)
	require.NoError(t, err)
	st, err := room.Showtime(key.MovieID, key.Start)
	require.NoError(t, err)
	return st.BookedSeats
}

// === Fakes ===

type sentNotification struct {
	Address string
	Subject string
	Body    string
}

// fakeNotifier は送信された通知をチャネルに流す
type fakeNotifier struct {
	sent chan sentNotification
	err  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan sentNotification, 64)}
}

func (n *fakeNotifier) Notify(ctx context.Context, address, subject, body string) error {
	n.sent <- sentNotification{Address: address, Subject: subject, Body: body}
	return n.err
}

func (n *fakeNotifier) wait(t *testing.T) sentNotification {
	t.Helper()
	select {
	case msg := <-n.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("通知が送信されませんでした")
		return sentNotification{}
	}
}

// flakyShowroomRepo は failFrom 回目以降の Save を失敗させる
type flakyShowroomRepo struct {
	*memory.ShowroomRepository
	mu       sync.Mutex
	saves    int
	failFrom int
	saveErr  error
}

func (r *flakyShowroomRepo) Save(ctx context.Context, room *showroom.Showroom) error {
	r.mu.Lock()
	r.saves++
	fail := r.failFrom > 0 && r.saves >= r.failFrom
	r.mu.Unlock()
	if fail {
		return r.saveErr
	}
	return r.ShowroomRepository.Save(ctx, room)
}

func (r *flakyShowroomRepo) heal() {
	r.mu.Lock()
	r.failFrom = 0
	r.mu.Unlock()
}

// conflictingShowroomRepo は最初の conflicts 回の Save をバージョン競合にする
type conflictingShowroomRepo struct {
	*memory.ShowroomRepository
	conflicts int32
	calls     atomic.Int32
}

func (r *conflictingShowroomRepo) Save(ctx context.Context, room *showroom.Showroom) error {
	if r.calls.Add(1) <= r.conflicts {
		// 他の書き込みが先に保存したことを再現する
		current, err := r.ShowroomRepository.GetByID(ctx, room.ID)
		if err != nil {
			return err
		}
		if err := r.ShowroomRepository.Save(ctx, current); err != nil {
			return err
		}
	}
	return r.ShowroomRepository.Save(ctx, room)
}

// MockUserRepository implements user.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User).Clone(), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

// MockLocker implements Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Lock(ctx context.Context, showroomID string) (func(), error) {
	args := m.Called(ctx, showroomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/sanosuguru/cinema-ticket-booking/internal/api"
	"github.com/sanosuguru/cinema-ticket-booking/internal/api/handler"
	"github.com/sanosuguru/cinema-ticket-booking/internal/api/middleware"
	"github.com/sanosuguru/cinema-ticket-booking/internal/application"
	"github.com/sanosuguru/cinema-ticket-booking/internal/config"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/notification"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
	"github.com/sanosuguru/cinema-ticket-booking/internal/infrastructure/memory"
	mongoinfra "github.com/sanosuguru/cinema-ticket-booking/internal/infrastructure/mongo"
	"github.com/sanosuguru/cinema-ticket-booking/internal/infrastructure/notify"
	"github.com/sanosuguru/cinema-ticket-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/cinema-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/metrics"
	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/retry"
	"github.com/sanosuguru/cinema-ticket-booking/internal/worker"
)

// stores はストレージドライバごとのリポジトリ一式
type stores struct {
	rooms   showroom.Repository
	users   user.Repository
	prices  pricing.Repository
	checks  map[string]handler.HealthCheck
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func main() {
	// .env は任意
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Set(logger.NewLogger(cfg.App.Env, cfg.App.LogLevel))
	defer func() { _ = logger.Sync() }()

	m := metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("ストレージ初期化エラー", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer st.close()

	// ロック・キャッシュ・解放キュー
	var (
		locker   application.Locker = memory.NewKeyedMutex()
		cache    application.SeatCache
		releases showroom.ReleaseQueue = memory.NewReleaseQueue()
	)
	if cfg.Redis.Enabled() {
		rc := redisinfra.NewClient(&cfg.Redis)
		if err := redisinfra.Ping(ctx, rc); err != nil {
			logger.Fatal("Redis初期化エラー", zap.Error(err))
		}
		st.closers = append(st.closers, func() { _ = rc.Close() })
		st.checks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, rc) }

		locker = redisinfra.NewShowroomLocker(redisinfra.NewLockManager(rc),
			cfg.Booking.LockTTL, cfg.Booking.LockRetries, cfg.Booking.LockRetryDelay)
		cache = redisinfra.NewSeatCache(rc, cfg.Redis.SeatTTL)
		releases = redisinfra.NewReleaseQueue(rc)
		logger.Info("Redisを使用します", zap.String("addr", cfg.Redis.Addr()))
	} else {
		logger.Warn("Redis未設定のためプロセス内ロックを使用します（単一インスタンス専用）")
	}

	notifier := newNotifier(cfg, st)

	// サービス初期化
	casRetry := retry.Config{
		MaxAttempts:     cfg.Booking.CASMaxAttempts,
		InitialInterval: cfg.Booking.CASInitialDelay,
		MaxInterval:     cfg.Booking.CASMaxDelay,
		Multiplier:      2.0,
	}
	allocatorOpts := []application.AllocatorOption{
		application.WithAllocatorRetry(casRetry),
		application.WithAllocatorMetrics(m),
		application.WithAllocatorQueryTimeout(cfg.Booking.QueryTimeout),
	}
	if cache != nil {
		allocatorOpts = append(allocatorOpts, application.WithSeatCache(cache))
	}
	allocator := application.NewSeatAllocator(st.rooms, locker, allocatorOpts...)
	ledger := application.NewTicketLedger(st.users,
		application.WithLedgerRetry(casRetry),
		application.WithLedgerMetrics(m),
		application.WithLedgerQueryTimeout(cfg.Booking.QueryTimeout),
	)
	priceService := application.NewPriceService(st.prices)
	showroomService := application.NewShowroomService(st.rooms, allocator, cache)
	bookingService := application.NewBookingService(allocator, ledger, st.users, priceService,
		application.WithNotifier(notifier),
		application.WithReleaseQueue(releases),
		application.WithBookingMetrics(m),
		application.WithBookingQueryTimeout(cfg.Booking.QueryTimeout),
	)

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	middleware.SetupMiddleware(e, m)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(middleware.LoadMetricsConfig()))

	handler.RegisterRoutes(e, handler.Handlers{
		Booking:  handler.NewBookingHandler(bookingService),
		Ticket:   handler.NewTicketHandler(bookingService),
		Showroom: handler.NewShowroomHandler(showroomService),
		Price:    handler.NewPriceHandler(priceService),
		Health:   handler.NewHealthHandler(st.checks),
	})

	// 解放待ちの座席を定期的に再処理する
	reconciler := worker.NewSeatReleaseReconciler(bookingService, cfg.Worker.ReconcileInterval, cfg.Worker.ReconcileBatchSize)
	go reconciler.Start(ctx)

	// サーバー起動
	go func() {
		logger.Info("サーバー起動", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	<-ctx.Done()
	logger.Info("サーバーをシャットダウンしています...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}
	reconciler.Stop()

	logger.Info("サーバーが正常にシャットダウンしました")
}

// openStores は STORAGE_DRIVER に応じてリポジトリを組み立てる
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{checks: map[string]handler.HealthCheck{}}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
			_ = db.Close()
			return nil, err
		}
		st.rooms = postgres.NewShowroomRepository(db)
		st.users = postgres.NewUserRepository(db)
		st.prices = postgres.NewPriceRepository(db)
		st.checks["database"] = func(ctx context.Context) error { return postgres.Ping(ctx, db) }
		st.closers = append(st.closers, func() { _ = db.Close() })

	case config.DriverMongo:
		client, db, err := mongoinfra.Connect(ctx, &cfg.Mongo)
		if err != nil {
			return nil, err
		}
		st.rooms = mongoinfra.NewShowroomRepository(db)
		st.users = mongoinfra.NewUserRepository(db)
		st.prices = mongoinfra.NewPriceRepository(db)
		st.checks["database"] = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		st.closers = append(st.closers, func() { _ = client.Disconnect(context.Background()) })

	case config.DriverMemory:
		st.rooms = memory.NewShowroomRepository()
		st.users = memory.NewUserRepository()
		st.prices = memory.NewPriceRepository()
		logger.Warn("インメモリストレージを使用します。再起動でデータは失われます")

	default:
		return nil, errors.New("未対応のストレージドライバ: " + cfg.Storage.Driver)
	}
	return st, nil
}

func newNotifier(cfg *config.Config, st *stores) notification.Notifier {
	if cfg.AMQP.URL == "" {
		return notify.NewLogNotifier(logger.Get())
	}
	n := notify.NewAMQPNotifier(cfg.AMQP.URL, cfg.AMQP.Queue)
	st.closers = append(st.closers, func() { _ = n.Close() })
	logger.Info("通知をRabbitMQへ発行します", zap.String("queue", cfg.AMQP.Queue))
	return n
}

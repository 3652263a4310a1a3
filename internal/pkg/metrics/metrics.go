package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 予約結果のラベル値
const (
	BookingSuccess            = "success"
	BookingConflict           = "conflict"
	BookingNotFound           = "not_found"
	BookingInvalid            = "invalid"
	BookingFailed             = "failed"
	BookingCompensationFailed = "compensation_failed"
)

// Metrics はアプリケーションのメトリクスを管理する
// nil の *Metrics に対する記録メソッドは何もしない
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 座席予約の総数（status）
	BookingsTotal *prometheus.CounterVec

	// チケット返却の総数（refund: true/false）
	TicketReturnsTotal *prometheus.CounterVec

	// 上映室ロックの取得時間（status: success/failed）
	SeatLockDuration *prometheus.HistogramVec

	// 楽観的ロック競合による再試行回数（aggregate: showroom/user）
	CASRetriesTotal *prometheus.CounterVec

	// 解放待ちの座席解放件数
	PendingSeatReleases prometheus.Gauge
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of seat booking attempts by outcome",
			},
			[]string{"status"},
		),
		TicketReturnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_returns_total",
				Help: "Total number of returned tickets by refund eligibility",
			},
			[]string{"refund"},
		),
		SeatLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seat_lock_duration_seconds",
				Help:    "Time spent acquiring the per-showroom lock",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"status"},
		),
		CASRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cas_retries_total",
				Help: "Total number of retries caused by version conflicts",
			},
			[]string{"aggregate"},
		),
		PendingSeatReleases: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pending_seat_releases",
				Help: "Number of seat releases waiting for reconciliation",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.TicketReturnsTotal,
		m.SeatLockDuration,
		m.CASRetriesTotal,
		m.PendingSeatReleases,
	)

	return m
}

func (m *Metrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveReturn(refundEligible bool) {
	if m == nil {
		return
	}
	m.TicketReturnsTotal.WithLabelValues(strconv.FormatBool(refundEligible)).Inc()
}

func (m *Metrics) ObserveLock(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.SeatLockDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (m *Metrics) IncCASRetry(aggregate string) {
	if m == nil {
		return
	}
	m.CASRetriesTotal.WithLabelValues(aggregate).Inc()
}

func (m *Metrics) SetPendingReleases(n int64) {
	if m == nil {
		return
	}
	m.PendingSeatReleases.Set(float64(n))
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}

// Package retry は指数バックオフ付きの再試行を提供する
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrMaxRetriesExceeded = errors.New("再試行回数の上限に達しました")

// Config は再試行の設定
type Config struct {
	// MaxAttempts は初回を含む最大試行回数
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultConfig は 10ms, 20ms, 40ms, 80ms と待って最大5回試行する設定を返す
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
		Multiplier:      2.0,
	}
}

// Retrier は再試行ロジックを実行する
type Retrier struct {
	cfg Config
}

// New は Retrier を作成する。ゼロ値の項目には既定値を使う
func New(cfg Config) *Retrier {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = def.Multiplier
	}
	return &Retrier{cfg: cfg}
}

// Config は適用済みの設定を返す
func (r *Retrier) Config() Config {
	return r.cfg
}

// Do は op を実行し、retryIf が true を返すエラーの間だけ再試行する
// onRetry は待機前に呼ばれる（nil 可）。上限に達した場合は ErrMaxRetriesExceeded と
// 最後のエラーの両方を errors.Is で判定できるエラーを返す
func (r *Retrier) Do(ctx context.Context, retryIf func(error) bool, onRetry func(attempt int, err error), op func(ctx context.Context) error) error {
	interval := r.cfg.InitialInterval
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryIf(lastErr) {
			return lastErr
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, lastErr)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * r.cfg.Multiplier)
		if interval > r.cfg.MaxInterval {
			interval = r.cfg.MaxInterval
		}
	}
	return fmt.Errorf("%w (%d回): %w", ErrMaxRetriesExceeded, r.cfg.MaxAttempts, lastErr)
}

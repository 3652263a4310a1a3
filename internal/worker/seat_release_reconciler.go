package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/logger"
)

// ReleaseReconciler は保留中の座席解放を再処理するインターフェース
type ReleaseReconciler interface {
	ReconcileReleases(ctx context.Context, limit int) (int, error)
}

// SeatReleaseReconciler は解放待ちキューを定期的に処理するワーカー
type SeatReleaseReconciler struct {
	reconciler ReleaseReconciler
	interval   time.Duration
	batchSize  int
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// NewSeatReleaseReconciler は新しいワーカーを作成
func NewSeatReleaseReconciler(r ReleaseReconciler, interval time.Duration, batchSize int) *SeatReleaseReconciler {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SeatReleaseReconciler{
		reconciler: r,
		interval:   interval,
		batchSize:  batchSize,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start はワーカーを開始する。ctx のキャンセルか Stop で戻る
func (w *SeatReleaseReconciler) Start(ctx context.Context) {
	logger.Info("座席解放リコンサイラー開始",
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	// 起動直後に前回の残りを処理する
	w.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("座席解放リコンサイラー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("座席解放リコンサイラー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

// Stop はワーカーを停止し、実行中の処理の終了を待つ
func (w *SeatReleaseReconciler) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *SeatReleaseReconciler) reconcile(ctx context.Context) {
	log := logger.Get()

	count, err := w.reconciler.ReconcileReleases(ctx, w.batchSize)
	if err != nil {
		log.Error("保留中の座席解放の処理に失敗", zap.Int("resolved", count), zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("保留中の座席解放を処理", zap.Int("count", count))
	} else {
		log.Debug("保留中の座席解放なし")
	}
}

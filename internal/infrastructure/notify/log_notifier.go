package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier は通知内容をログに出すだけの実装。AMQP 未設定時に使う
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notifier")}
}

func (n *LogNotifier) Notify(_ context.Context, address, subject, body string) error {
	n.log.Info("通知",
		zap.String("address", address),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// Package notify は notification.Notifier の実装を提供する
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/logger"
)

// Message はキューに流す通知メッセージ。メール配信側がこれを消費する
type Message struct {
	Address string    `json:"address"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// AMQPNotifier は通知を RabbitMQ の永続キューへ発行する
// 接続は初回発行時に確立し、切断されていれば次回発行時に張り直す
type AMQPNotifier struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPNotifier(url, queue string) *AMQPNotifier {
	return &AMQPNotifier{url: url, queue: queue}
}

// Notify は通知メッセージを永続メッセージとして発行する
func (n *AMQPNotifier) Notify(ctx context.Context, address, subject, body string) error {
	payload, err := json.Marshal(Message{
		Address: address,
		Subject: subject,
		Body:    body,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	ch, err := n.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	if err != nil {
		n.reset()
		return fmt.Errorf("通知の発行に失敗: %w", err)
	}
	return nil
}

// channel は有効なチャネルを返す。呼び出し側で n.mu を保持すること
func (n *AMQPNotifier) channel() (*amqp.Channel, error) {
	if n.conn != nil && !n.conn.IsClosed() && n.ch != nil && !n.ch.IsClosed() {
		return n.ch, nil
	}
	n.reset()

	conn, err := amqp.Dial(n.url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("チャネル作成に失敗: %w", err)
	}
	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("キュー宣言に失敗: %w", err)
	}
	logger.Info("RabbitMQに接続しました", zap.String("queue", n.queue))
	n.conn, n.ch = conn, ch
	return ch, nil
}

func (n *AMQPNotifier) reset() {
	if n.ch != nil {
		_ = n.ch.Close()
		n.ch = nil
	}
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}

// Close は接続を閉じる
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reset()
	return nil
}

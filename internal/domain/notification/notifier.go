package notification

import "context"

// Notifier はユーザーへの通知を送る外部コラボレーター
// 配送方式（メール等）の詳細は実装側に委ねる
type Notifier interface {
	Notify(ctx context.Context, address, subject, body string) error
}

// 通知件名
const (
	SubjectBookingConfirmed = "Booking Confirmed"
	SubjectTicketRefunded   = "Ticket Refunded"
	SubjectTicketCancelled  = "Ticket Cancelled"
)

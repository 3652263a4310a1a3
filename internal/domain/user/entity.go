package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentCardSnapshot は支払いカードの表示用スナップショット
// カード番号などの機密情報は保持しない
type PaymentCardSnapshot struct {
	ID       string
	Brand    string
	Last4    string
	ExpMonth int
	ExpYear  int
}

// Ticket はユーザーが所有する確定済みの座席予約
// 発行後は不変で、返却時にユーザーのチケット一覧から削除される
type Ticket struct {
	Number        string
	MovieID       string
	MovieTitle    string
	ShowroomID    string
	ShowtimeStart time.Time
	Seats         []string
	TicketCounts  map[string]int
	Subtotal      decimal.Decimal
	CreatedAt     time.Time
	PaymentCard   *PaymentCardSnapshot
}

// NewTicketNumber はランダムな128bitのチケット番号を生成する
func NewTicketNumber() string {
	return uuid.New().String()
}

// Clone はディープコピーを返す
func (t Ticket) Clone() Ticket {
	c := t
	c.Seats = append([]string(nil), t.Seats...)
	if t.TicketCounts != nil {
		c.TicketCounts = make(map[string]int, len(t.TicketCounts))
		for k, v := range t.TicketCounts {
			c.TicketCounts[k] = v
		}
	}
	if t.PaymentCard != nil {
		card := *t.PaymentCard
		c.PaymentCard = &card
	}
	return c
}

// User はチケットを保持するユーザードキュメント
type User struct {
	ID           string
	Email        string
	Name         string
	Tickets      []Ticket
	PaymentCards []PaymentCardSnapshot
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64 // 楽観的ロック用
}

// NewUser は新しいユーザーを作成する
func NewUser(id, email, name string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        id,
		Email:     email,
		Name:      name,
		Tickets:   []Ticket{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate はユーザーの検証を行う
func (u *User) Validate() error {
	if u.ID == "" {
		return ErrUserIDRequired
	}
	return nil
}

// Clone はディープコピーを返す
func (u *User) Clone() *User {
	c := *u
	c.Tickets = make([]Ticket, len(u.Tickets))
	for i := range u.Tickets {
		c.Tickets[i] = u.Tickets[i].Clone()
	}
	c.PaymentCards = append([]PaymentCardSnapshot(nil), u.PaymentCards...)
	return &c
}

// AddTicket はチケットを追加する
func (u *User) AddTicket(t Ticket) {
	u.Tickets = append(u.Tickets, t)
	u.UpdatedAt = time.Now().UTC()
}

// FindTicket はチケット番号からチケットを検索する
func (u *User) FindTicket(number string) (*Ticket, error) {
	for i := range u.Tickets {
		if u.Tickets[i].Number == number {
			t := u.Tickets[i].Clone()
			return &t, nil
		}
	}
	return nil, ErrTicketNotFound
}

// RemoveTicket はチケットを削除し、削除したチケットを返す
func (u *User) RemoveTicket(number string) (*Ticket, error) {
	for i := range u.Tickets {
		if u.Tickets[i].Number == number {
			removed := u.Tickets[i]
			u.Tickets = append(u.Tickets[:i], u.Tickets[i+1:]...)
			u.UpdatedAt = time.Now().UTC()
			return &removed, nil
		}
	}
	return nil, ErrTicketNotFound
}

// FindPaymentCard は登録済みの支払いカードを検索する
func (u *User) FindPaymentCard(id string) (*PaymentCardSnapshot, error) {
	for i := range u.PaymentCards {
		if u.PaymentCards[i].ID == id {
			card := u.PaymentCards[i]
			return &card, nil
		}
	}
	return nil, ErrPaymentCardNotFound
}

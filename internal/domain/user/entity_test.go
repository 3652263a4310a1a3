package user

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRefund(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		start       time.Time
		wantMinutes int64
		wantRefund  bool
	}{
		{name: "ちょうど60分前は返金対象", start: now.Add(60 * time.Minute), wantMinutes: 60, wantRefund: true},
		{name: "59分前は返金対象外", start: now.Add(59 * time.Minute), wantMinutes: 59, wantRefund: false},
		{name: "59分59秒前は切り捨てで59分", start: now.Add(59*time.Minute + 59*time.Second), wantMinutes: 59, wantRefund: false},
		{name: "30分前", start: now.Add(30 * time.Minute), wantMinutes: 30, wantRefund: false},
		{name: "1日前", start: now.Add(24 * time.Hour), wantMinutes: 1440, wantRefund: true},
		{name: "上映開始後は負の値", start: now.Add(-90 * time.Minute), wantMinutes: -90, wantRefund: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluateRefund(tt.start, now)
			assert.Equal(t, tt.wantMinutes, d.MinutesUntilShow)
			assert.Equal(t, tt.wantRefund, d.Eligible)
		})
	}
}

func TestUser_Tickets(t *testing.T) {
	u := NewUser("user-1", "a@example.com", "Alice")
	u.AddTicket(Ticket{Number: "t-1", Seats: []string{"A1"}})
	u.AddTicket(Ticket{Number: "t-2", Seats: []string{"A2"}})

	t.Run("チケット検索", func(t *testing.T) {
		tk, err := u.FindTicket("t-2")
		require.NoError(t, err)
		assert.Equal(t, []string{"A2"}, tk.Seats)

		_, err = u.FindTicket("missing")
		assert.ErrorIs(t, err, ErrTicketNotFound)
	})

	t.Run("チケット削除", func(t *testing.T) {
		removed, err := u.RemoveTicket("t-1")
		require.NoError(t, err)
		assert.Equal(t, "t-1", removed.Number)
		assert.Len(t, u.Tickets, 1)

		_, err = u.RemoveTicket("t-1")
		assert.ErrorIs(t, err, ErrTicketNotFound)
	})
}

func TestUser_Clone(t *testing.T) {
	u := NewUser("user-1", "", "")
	u.AddTicket(Ticket{Number: "t-1", Seats: []string{"A1"}, TicketCounts: map[string]int{"ADULT": 1}})

	c := u.Clone()
	c.Tickets[0].Seats[0] = "Z9"
	c.Tickets[0].TicketCounts["ADULT"] = 5
	assert.Equal(t, "A1", u.Tickets[0].Seats[0])
	assert.Equal(t, 1, u.Tickets[0].TicketCounts["ADULT"])
}

func TestUser_FindPaymentCard(t *testing.T) {
	u := NewUser("user-1", "", "")
	u.PaymentCards = []PaymentCardSnapshot{{ID: "card-1", Brand: "VISA", Last4: "4242"}}

	card, err := u.FindPaymentCard("card-1")
	require.NoError(t, err)
	assert.Equal(t, "4242", card.Last4)

	_, err = u.FindPaymentCard("card-2")
	assert.ErrorIs(t, err, ErrPaymentCardNotFound)
}

func TestNewTicketNumber(t *testing.T) {
	a := NewTicketNumber()
	b := NewTicketNumber()
	assert.NotEqual(t, a, b)
	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestUser_Validate(t *testing.T) {
	assert.NoError(t, NewUser("u", "", "").Validate())
	assert.ErrorIs(t, NewUser("", "", "").Validate(), ErrUserIDRequired)
}

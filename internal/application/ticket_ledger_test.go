package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/showroom"
	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/user"
)

func TestTicketLedger(t *testing.T) {
	ctx := context.Background()
	key := showroom.Key{ShowroomID: "room-1", MovieID: "movie-1", Start: testNow.Add(time.Hour)}

	t.Run("発行したチケットを検索して削除できる", func(t *testing.T) {
		env := setupTestEnv(t)
		env.seedUser(t, "user-1")

		counts := map[string]int{"ADULT": 1}
		ticket, err := env.ledger.Issue(ctx, IssueInput{
			UserID:       "user-1",
			Key:          key,
			Seats:        []string{"A1"},
			TicketCounts: counts,
			Subtotal:     decimal.NewFromInt(12),
		})
		require.NoError(t, err)

		// 入力の変更は発行済みチケットに影響しない
		counts["ADULT"] = 5

		found, err := env.ledger.Find(ctx, "user-1", ticket.Number)
		require.NoError(t, err)
		assert.Equal(t, 1, found.TicketCounts["ADULT"])
		assert.Equal(t, key.Start, found.ShowtimeStart)

		removed, err := env.ledger.Remove(ctx, "user-1", ticket.Number)
		require.NoError(t, err)
		assert.Equal(t, ticket.Number, removed.Number)

		_, err = env.ledger.Find(ctx, "user-1", ticket.Number)
		assert.ErrorIs(t, err, user.ErrTicketNotFound)
	})

	t.Run("チケットは発行順に並ぶ", func(t *testing.T) {
		env := setupTestEnv(t)
		env.seedUser(t, "user-1")

		var numbers []string
		for _, seat := range []string{"A1", "A2", "A3"} {
			ticket, err := env.ledger.Issue(ctx, IssueInput{UserID: "user-1", Key: key, Seats: []string{seat}})
			require.NoError(t, err)
			numbers = append(numbers, ticket.Number)
		}

		tickets, err := env.ledger.List(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, tickets, 3)
		for i, tk := range tickets {
			assert.Equal(t, numbers[i], tk.Number)
		}
	})

	t.Run("ユーザーIDが空の場合はバリデーションエラー", func(t *testing.T) {
		env := setupTestEnv(t)
		_, err := env.ledger.List(ctx, " ")
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("存在しないユーザー", func(t *testing.T) {
		env := setupTestEnv(t)
		_, err := env.ledger.Issue(ctx, IssueInput{UserID: "ghost", Key: key, Seats: []string{"A1"}})
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

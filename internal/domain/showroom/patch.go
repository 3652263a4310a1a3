package showroom

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
)

// Optional は部分更新のフィールド。未指定と null 指定を区別する
type Optional[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Some は値ありの Optional を作成する
func Some[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: v}
}

// Null は null 指定の Optional を作成する
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// ShowtimePatch は上映回の部分更新。フィールドごとに適用される
type ShowtimePatch struct {
	Start  Optional[time.Time] `json:"start"`
	RoomID Optional[string]    `json:"room_id"`
}

// IsEmpty は更新対象が一つもないかを返す
func (p ShowtimePatch) IsEmpty() bool {
	return !p.Start.Present && !p.RoomID.Present
}

// ApplyShowtimePatch は上映室内の上映回にパッチを適用する
func (r *Showroom) ApplyShowtimePatch(movieID string, start time.Time, p ShowtimePatch) (Showtime, error) {
	i, err := r.FindShowtime(movieID, start)
	if err != nil {
		return Showtime{}, err
	}
	st := r.Showtimes[i]

	if p.Start.Present {
		if p.Start.Null || p.Start.Value.IsZero() {
			return Showtime{}, apperror.NewValidationError("start", "null にはできません")
		}
		next := p.Start.Value.UTC()
		if !next.Equal(st.Start) {
			if len(st.BookedSeats) > 0 {
				return Showtime{}, ErrShowtimeHasBookings
			}
			if _, err := r.FindShowtime(st.MovieID, next); err == nil {
				return Showtime{}, ErrShowtimeAlreadyExists
			}
			st.Start = next
		}
	}

	if p.RoomID.Present {
		if p.RoomID.Null || p.RoomID.Value == "" {
			st.RoomID = r.ID
		} else {
			st.RoomID = p.RoomID.Value
		}
	}

	r.Showtimes[i] = st
	r.touch()
	return st.clone(), nil
}

package showroom

import (
	"time"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
)

// Key は上映室と上映回を特定する参照
type Key struct {
	ShowroomID string
	MovieID    string
	Start      time.Time
}

// Validate は参照の形式を検証する
func (k Key) Validate() error {
	if k.ShowroomID == "" {
		return apperror.NewValidationError("showroom_id", "必須です")
	}
	if k.MovieID == "" {
		return apperror.NewValidationError("movie_id", "必須です")
	}
	if k.Start.IsZero() {
		return apperror.NewValidationError("start", "必須です")
	}
	return nil
}

// String はキャッシュキーなどに使う正規化された表現を返す
func (k Key) String() string {
	return k.ShowroomID + "|" + k.MovieID + "|" + k.Start.UTC().Format(time.RFC3339Nano)
}

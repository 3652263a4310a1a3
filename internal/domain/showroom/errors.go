package showroom

import (
	"errors"
	"strings"
)

// Showroom ドメインのエラー定義
var (
	ErrShowroomNotFound      = errors.New("上映室が見つかりません")
	ErrShowroomAlreadyExists = errors.New("上映室は既に存在します")
	ErrShowtimeNotFound      = errors.New("上映回が見つかりません")
	ErrShowtimeAlreadyExists = errors.New("同じ作品・開始時刻の上映回が既に存在します")
	ErrShowtimeHasBookings   = errors.New("予約済みの座席がある上映回の開始時刻は変更できません")
	ErrSeatsAlreadyBooked    = errors.New("座席は既に予約されています")
)

// SeatConflictError は予約済み座席との衝突を表す。衝突した座席ラベルを保持する
type SeatConflictError struct {
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return ErrSeatsAlreadyBooked.Error() + ": " + strings.Join(e.Seats, ", ")
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatsAlreadyBooked
}

package clock

import "time"

// Clock は現在時刻を提供する
type Clock interface {
	Now() time.Time
}

// System は実時間を返す Clock
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed はテスト用に固定時刻を返す Clock
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}

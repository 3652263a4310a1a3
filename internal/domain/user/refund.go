package user

import "time"

// RefundCutoffMinutes 以上前の返却は返金対象
const RefundCutoffMinutes = 60

// RefundDecision は返却時の返金判定
type RefundDecision struct {
	Eligible         bool
	MinutesUntilShow int64
}

// EvaluateRefund は上映開始までの残り分数から返金可否を判定する
// 残り時間は分単位で0方向に切り捨てる。開始後は負の値になる
func EvaluateRefund(showStart, now time.Time) RefundDecision {
	minutes := int64(showStart.Sub(now) / time.Minute)
	return RefundDecision{
		Eligible:         minutes >= RefundCutoffMinutes,
		MinutesUntilShow: minutes,
	}
}

package application

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/cinema-ticket-booking/internal/pkg/logger"
)

// SagaState は予約サガの状態
type SagaState string

const (
	SagaPending            SagaState = "pending"
	SagaSeatsReserved      SagaState = "seats_reserved"
	SagaTicketIssued       SagaState = "ticket_issued"
	SagaCompleted          SagaState = "completed"
	SagaFailed             SagaState = "failed"
	SagaCompensating       SagaState = "compensating"
	SagaCompensated        SagaState = "compensated"
	SagaCompensationFailed SagaState = "compensation_failed"
)

var sagaTransitions = map[SagaState][]SagaState{
	SagaPending:       {SagaSeatsReserved, SagaFailed},
	SagaSeatsReserved: {SagaTicketIssued, SagaCompensating},
	SagaTicketIssued:  {SagaCompleted},
	SagaCompensating:  {SagaCompensated, SagaCompensationFailed},
}

// IsTerminal は終端状態かを返す
func (s SagaState) IsTerminal() bool {
	_, ok := sagaTransitions[s]
	return !ok
}

// bookingSaga は 座席予約→チケット発行→(失敗時)座席解放 の進行を記録する
// 座席とチケットは別ドキュメントのため、この順序で整合性を保つ
type bookingSaga struct {
	id      string
	state   SagaState
	history []SagaState
}

func newBookingSaga(id string) *bookingSaga {
	return &bookingSaga{id: id, state: SagaPending, history: []SagaState{SagaPending}}
}

func (s *bookingSaga) transition(to SagaState) error {
	for _, allowed := range sagaTransitions[s.state] {
		if allowed == to {
			logger.Debug("予約サガの状態遷移",
				zap.String("saga_id", s.id),
				zap.String("from", string(s.state)),
				zap.String("to", string(to)))
			s.state = to
			s.history = append(s.history, to)
			return nil
		}
	}
	return fmt.Errorf("予約サガの不正な状態遷移: %s -> %s", s.state, to)
}

// advance は遷移に失敗した場合にログを残す
func (s *bookingSaga) advance(to SagaState) {
	if err := s.transition(to); err != nil {
		logger.Error("予約サガの状態遷移に失敗しました", zap.String("saga_id", s.id), zap.Error(err))
	}
}

// BookingFailedError はチケット発行に失敗し、座席の解放は完了したことを表す
type BookingFailedError struct {
	Cause error
}

func (e *BookingFailedError) Error() string {
	return fmt.Sprintf("予約に失敗しました（座席は解放済み）: %v", e.Cause)
}

func (e *BookingFailedError) Unwrap() error {
	return e.Cause
}

// CompensationError はチケット発行と座席解放の両方に失敗したことを表す
// 座席が予約されたまま残るため、運用での照合が必要になる
type CompensationError struct {
	IssueErr   error
	ReleaseErr error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("予約に失敗し座席の解放にも失敗しました: issue=%v, release=%v", e.IssueErr, e.ReleaseErr)
}

func (e *CompensationError) Unwrap() []error {
	return []error{e.IssueErr, e.ReleaseErr}
}

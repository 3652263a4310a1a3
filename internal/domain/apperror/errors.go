// Package apperror は各ドメインで共通に使うエラー分類を定義する
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("入力値が不正です")
	ErrStorage         = errors.New("ストレージ操作に失敗しました")
	ErrVersionConflict = errors.New("楽観的ロックの競合が発生しました")
)

// ValidationError は入力検証エラー
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError は永続化層の失敗を表す。一時的な障害の可能性がある
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage.Error(), e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

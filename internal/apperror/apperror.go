package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
)

type AppError struct {
	Err     error             // 哨兵错误，用于 errors.Is
	Message string            // 对外消息
	Fields  map[string]string // 字段级错误（仅校验错误）
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Err }

func Unauthenticated(message string) *AppError {
	if message == "" {
		message = "authentication credentials were not provided"
	}
	return &AppError{Err: ErrUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "you do not have permission to perform this action"
	}
	return &AppError{Err: ErrForbidden, Message: message}
}

// NotFound 不区分“不存在”和“不可见”
func NotFound(resource string, id uint) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

func NotFoundBy(resource, key, value string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with %s %s", resource, key, value),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// Malformed 请求体无法解析
func Malformed(message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message}
}

func Invalid(fields map[string]string) *AppError {
	return &AppError{Err: ErrValidation, Message: "invalid input", Fields: fields}
}

func Conflict(resource string, id uint) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %d", resource, id),
	}
}

// FieldsOf 取出校验错误的字段明细
func FieldsOf(err error) map[string]string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

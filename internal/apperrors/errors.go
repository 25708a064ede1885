// Package apperrors описывает типизированные ошибки приложения.
// Сообщение ошибки всегда возвращается клиенту без изменений, тип и код
// попадают в extensions ответа GraphQL.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrorType - категория ошибки.
type ErrorType string

const (
	TypeValidation   ErrorType = "VALIDATION"
	TypeBusinessRule ErrorType = "BUSINESS_RULE"
	TypeNotFound     ErrorType = "NOT_FOUND"
	TypeConflict     ErrorType = "CONFLICT"
	TypeUnauthorized ErrorType = "UNAUTHORIZED"
	TypeForbidden    ErrorType = "FORBIDDEN"
	TypeInternal     ErrorType = "INTERNAL"
)

// Коды ошибок валидации.
const (
	CodeArgumentNotProvided = "ARGUMENT_NOT_PROVIDED"
	CodeArgumentOutOfRange  = "ARGUMENT_OUT_OF_RANGE"
	CodeArgumentInvalid     = "ARGUMENT_INVALID"
	CodePostconditionFailed = "POSTCONDITION_FAILED"
)

// AppError - ошибка приложения с типом и машинно-читаемым кодом.
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error возвращает исходное сообщение без префиксов.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap возвращает первопричину.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по типу и коду, чтобы работал errors.Is с эталонами.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Extensions используется graphql-go для заполнения поля extensions.
func (e *AppError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"type": string(e.Type),
	}
	if e.Code != "" {
		ext["code"] = e.Code
	} else {
		ext["code"] = string(e.Type)
	}
	for k, v := range e.Details {
		ext[k] = v
	}
	return ext
}

// WithDetail добавляет деталь, видимую клиенту.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause сохраняет первопричину.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func newError(t ErrorType, code, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message}
}

// === Validation ===

func NewArgumentNotProvided(message string) *AppError {
	return newError(TypeValidation, CodeArgumentNotProvided, message)
}

func NewArgumentOutOfRange(message string) *AppError {
	return newError(TypeValidation, CodeArgumentOutOfRange, message)
}

func NewArgumentInvalid(message string) *AppError {
	return newError(TypeValidation, CodeArgumentInvalid, message)
}

// === Other kinds ===

func NewBusinessRuleError(code, message string) *AppError {
	return newError(TypeBusinessRule, code, message)
}

func NewNotFoundError(message string) *AppError {
	return newError(TypeNotFound, "", message)
}

func NewNotFoundf(format string, args ...interface{}) *AppError {
	return NewNotFoundError(fmt.Sprintf(format, args...))
}

func NewConflictError(code, message string) *AppError {
	return newError(TypeConflict, code, message)
}

func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(TypeUnauthorized, "", message)
}

func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return newError(TypeForbidden, "", message)
}

func NewInternalError(message string) *AppError {
	return newError(TypeInternal, "", message)
}

// NewPostconditionFailed - запись прошла успешно, но повторное чтение ничего не вернуло.
func NewPostconditionFailed(message string) *AppError {
	return newError(TypeInternal, CodePostconditionFailed, message)
}

// === Helpers ===

// GetAppError извлекает AppError из цепочки ошибок.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType проверяет тип ошибки.
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// HasCode проверяет код ошибки.
func HasCode(err error, code string) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

func IsValidation(err error) bool   { return IsType(err, TypeValidation) }
func IsNotFound(err error) bool     { return IsType(err, TypeNotFound) }
func IsConflict(err error) bool     { return IsType(err, TypeConflict) }
func IsForbidden(err error) bool    { return IsType(err, TypeForbidden) }
func IsUnauthorized(err error) bool { return IsType(err, TypeUnauthorized) }
func IsInternal(err error) bool     { return IsType(err, TypeInternal) }

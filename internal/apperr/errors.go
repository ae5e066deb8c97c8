// Package apperr: общая таксономия ошибок сервиса и её отображение в HTTP.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindTypeCoercion
	KindSchemaExecution
	KindUnauthenticated // нет токена / токен невалиден
	KindForbidden       // токен есть, но прав нет или операция запрещена
	KindIntegrity       // каталог в несогласованном состоянии
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindTypeCoercion:
		return "type_coercion"
	case KindSchemaExecution:
		return "schema_execution"
	case KindUnauthenticated, KindForbidden:
		return "authorization"
	case KindIntegrity:
		return "integrity"
	default:
		return "internal"
	}
}

// Error: ошибка с классом и полезной нагрузкой для конверта {"error_msg","values"}.
type Error struct {
	Kind   Kind
	Msg    string
	Values any
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// WithValues возвращает копию ошибки с прикреплёнными значениями.
func (e *Error) WithValues(v any) *Error {
	cp := *e
	cp.Values = v
	return &cp
}

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func TypeCoercion(format string, args ...any) *Error {
	return newf(KindTypeCoercion, format, args...)
}

func Unauthenticated(format string, args ...any) *Error {
	return newf(KindUnauthenticated, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

func Integrity(format string, args ...any) *Error {
	return newf(KindIntegrity, format, args...)
}

// SchemaExecution оборачивает отказ хранилища, сохраняя исходную ошибку.
func SchemaExecution(err error, values any, format string, args ...any) *Error {
	e := newf(KindSchemaExecution, format, args...)
	e.Err = err
	e.Values = values
	return e
}

// KindOf возвращает класс ошибки; 0 для «обычных» ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func Is(err error, k Kind) bool { return KindOf(err) == k }

// Status: HTTP-код для ошибки.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindTypeCoercion:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Envelope: единый формат ответа об ошибке.
type Envelope struct {
	ErrorMsg string `json:"error_msg"`
	Values   any    `json:"values"`
}

// ToEnvelope строит конверт. Для внутренних ошибок текст не раскрывается.
func ToEnvelope(err error) Envelope {
	var e *Error
	if errors.As(err, &e) {
		msg := e.Msg
		if e.Kind == KindSchemaExecution && e.Err != nil {
			msg = e.Error()
		}
		return Envelope{ErrorMsg: msg, Values: e.Values}
	}
	return Envelope{ErrorMsg: "internal error", Values: nil}
}

// Package apperr описывает классификацию ошибок, видимых клиенту API.
package apperr

import (
	"errors"
	"fmt"
)

// Kind определяет класс ошибки.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindBusinessRule
	KindConflict
)

// String возвращает стабильное имя класса ошибки для ответа клиенту.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization_error"
	case KindBusinessRule:
		return "business_rule_error"
	case KindConflict:
		return "conflict"
	default:
		return "server_error"
	}
}

// Error описывает ошибку с классом и сообщением для клиента.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать ошибки по классу через errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Эталонные значения для проверки класса через errors.Is.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrBusinessRule  = &Error{Kind: KindBusinessRule}
	ErrConflict      = &Error{Kind: KindConflict}
)

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation создаёт ошибку некорректного ввода.
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// NotFound создаёт ошибку отсутствующей или удалённой сущности.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// Authorization создаёт ошибку нарушения прав доступа.
func Authorization(format string, args ...any) *Error {
	return newf(KindAuthorization, format, args...)
}

// BusinessRule создаёт ошибку нарушения бизнес-правила.
func BusinessRule(format string, args ...any) *Error {
	return newf(KindBusinessRule, format, args...)
}

// Conflict создаёт ошибку конфликта уникальности.
func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// Server оборачивает внутреннюю ошибку инфраструктуры.
func Server(err error) *Error {
	return &Error{Kind: KindServer, Message: "internal server error", Err: err}
}

// KindOf возвращает класс ошибки; неклассифицированные ошибки считаются серверными.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

// MessageOf возвращает сообщение, безопасное для передачи клиенту.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindServer {
		return e.Message
	}
	return "internal server error"
}

package call

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory категории ошибок для классификации
type ErrorCategory string

const (
	// Нарушение политики: операция не разрешена в текущем состоянии вызовов
	ErrorCategoryPolicy ErrorCategory = "POLICY"
	// Запись не найдена (неверный callId, нет записи по номеру)
	ErrorCategoryNotFound ErrorCategory = "NOT_FOUND"
	// Локальная зависимость не инициализирована
	ErrorCategoryDependency ErrorCategory = "DEPENDENCY"
	// Некорректный аргумент (пустой или слишком длинный номер и т.п.)
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	// Недопустимый переход конечного автомата состояний
	ErrorCategoryState ErrorCategory = "STATE"
	// Ошибка упаковки записи при передаче через границу процесса
	ErrorCategorySerialization ErrorCategory = "SERIALIZATION"
)

// String возвращает строковое представление категории ошибки
func (ec ErrorCategory) String() string {
	return string(ec)
}

// Коды ошибок, возвращаемые наверх по цепочке вызовов.
// Исключения через границы компонентов не проходят.
const (
	CodeInvalidCallID        = "CALL_ERR_INVALID_CALLID"
	CodeCallNotFound         = "CALL_ERR_CALL_NOT_FOUND"
	CodeStateMismatch        = "CALL_ERR_CALL_STATE_MISMATCH_OPERATION"
	CodeIllegalTransition    = "CALL_ERR_ILLEGAL_STATE_TRANSITION"
	CodeNotNewState          = "CALL_ERR_NOT_NEW_STATE"
	CodePhoneNumberEmpty     = "CALL_ERR_PHONE_NUMBER_EMPTY"
	CodeNumberOutOfRange     = "CALL_ERR_NUMBER_OUT_OF_RANGE"
	CodeInvalidSlotID        = "CALL_ERR_INVALID_SLOT_ID"
	CodeDialAlreadyPending   = "CALL_ERR_DIAL_IS_BUSY"
	CodeConferenceNotAllowed = "CALL_ERR_CONFERENCE_NOT_ALLOWED"
	CodeConferenceLimit      = "CALL_ERR_CONFERENCE_CALL_EXCEED_LIMIT"
	CodeNotConferenceMember  = "CALL_ERR_CALL_IS_NOT_IN_CONFERENCE"
	CodeLocalPtrNull         = "CALL_ERR_LOCAL_DEPENDENCY_UNAVAILABLE"
	CodeNotifyFailed         = "CALL_ERR_CALLSTATE_NOTIFY_FAILED"
	CodeTypeUnexpected       = "CALL_ERR_EVENT_TYPE_UNEXPECTED"
	CodeCopyFailed           = "CALL_ERR_RECORD_COPY_FAILED"
	CodeUnsupportedDialScene = "CALL_ERR_UNSUPPORTED_DIAL_SCENE"
)

// CallError структурированная ошибка с контекстом
type CallError struct {
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Category ErrorCategory `json:"category"`

	// Контекст ошибки
	CallID    int          `json:"call_id,omitempty"`
	Number    string       `json:"number,omitempty"`
	State     TelCallState `json:"state,omitempty"`
	Timestamp time.Time    `json:"timestamp"`

	// Исходная ошибка
	Cause error `json:"cause,omitempty"`
}

// Error реализует интерфейс error
func (e *CallError) Error() string {
	if e.CallID > 0 {
		return fmt.Sprintf("[%s:%s] %s (callId: %d)", e.Category, e.Code, e.Message, e.CallID)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap позволяет использовать errors.Is и errors.As
func (e *CallError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы работали sentinel-проверки
func (e *CallError) Is(target error) bool {
	var ce *CallError
	if errors.As(target, &ce) {
		return e.Code == ce.Code
	}
	return false
}

// WithCallID добавляет идентификатор вызова к контексту ошибки
func (e *CallError) WithCallID(id int) *CallError {
	e.CallID = id
	return e
}

// WithCause добавляет исходную ошибку
func (e *CallError) WithCause(cause error) *CallError {
	e.Cause = cause
	return e
}

func newError(category ErrorCategory, code, format string, args ...interface{}) *CallError {
	return &CallError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Category:  category,
		Timestamp: time.Now(),
	}
}

// NewPolicyError ошибка нарушения политики
func NewPolicyError(code, format string, args ...interface{}) *CallError {
	return newError(ErrorCategoryPolicy, code, format, args...)
}

// NewNotFoundError запись вызова не найдена
func NewNotFoundError(code, format string, args ...interface{}) *CallError {
	return newError(ErrorCategoryNotFound, code, format, args...)
}

// NewDependencyError локальная зависимость недоступна
func NewDependencyError(format string, args ...interface{}) *CallError {
	return newError(ErrorCategoryDependency, CodeLocalPtrNull, format, args...)
}

// NewValidationError некорректный аргумент
func NewValidationError(code, format string, args ...interface{}) *CallError {
	return newError(ErrorCategoryValidation, code, format, args...)
}

// NewStateError недопустимый переход состояния
func NewStateError(code, format string, args ...interface{}) *CallError {
	return newError(ErrorCategoryState, code, format, args...)
}

// NewSerializationError ошибка упаковки записи
func NewSerializationError(format string, args ...interface{}) *CallError {
	return newError(ErrorCategorySerialization, CodeCopyFailed, format, args...)
}

// HasCode проверяет, что ошибка несет указанный код
func HasCode(err error, code string) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsCategory проверяет категорию ошибки
func IsCategory(err error, category ErrorCategory) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Category == category
	}
	return false
}

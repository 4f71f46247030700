package domain

import (
	"errors"
	"fmt"
)

// Базовые ошибки слоя данных. Репозитории и use case оборачивают их
// через %w, вызывающие проверяют errors.Is
var (
	// ErrNotFound сущность не существует или принадлежит другому пользователю
	ErrNotFound = errors.New("not found")

	// ErrConflict нарушение уникальности при вставке
	ErrConflict = errors.New("conflict")

	// ErrStorageUnavailable пул исчерпан или БД недоступна.
	// Возвращается после отката транзакции, без повторных попыток
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrExternalService отказ внешнего сервиса (астро-API или AI-провайдер)
	ErrExternalService = errors.New("external service failure")
)

// ValidationError некорректное или неизвестное поле в запросе на изменение.
// Возвращается до открытия транзакции, частичная запись невозможна
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: field %q: %s", e.Field, e.Reason)
}

// IsValidationError проверяет, что ошибка является ошибкой валидации
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// BusinessError отказ операции, уже залогированный ниже по стеку.
// Транспортный слой отдаёт по ней статус без повторного логирования
type BusinessError struct {
	Err error
}

func (e *BusinessError) Error() string {
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func WrapBusinessError(err error) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Err: err}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

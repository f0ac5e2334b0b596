package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет токена).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда ID участника не совпадает с закрепленным за делом
	// или роль пользователя не допускает действие.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState используется, когда действие недопустимо в текущем статусе дела.
	ErrInvalidState = errors.New("action not allowed in current case status")

	// ErrInvalidChoice используется, когда выбранное значение не входит в допустимый набор
	// (ложная улика не из списка кандидатов, подозреваемый не из дела).
	ErrInvalidChoice = errors.New("choice is not among allowed values")

	// ErrConflict используется для конфликтов состояния: проигранная гонка переходов
	// или повторный запрос дела, которое уже в работе.
	ErrConflict = errors.New("resource state conflict")
)

// Is проксирует errors.Is, чтобы пакеты с алиасом apperrors не импортировали оба пакета.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

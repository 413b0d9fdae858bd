package models

import "errors"

// Ошибки уровня домена. Обработчики сопоставляют их с HTTP-статусами.
var (
	// ErrValidation - некорректный запрос, состояние не создавалось
	ErrValidation = errors.New("validation failed")

	// ErrUnknownCrisis - кризис не существует или решение уже в конечном состоянии
	ErrUnknownCrisis = errors.New("unknown or expired crisis")
)

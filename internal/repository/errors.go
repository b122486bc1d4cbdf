package repository

import "errors"

// Ошибки слоя хранения
var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicate   = errors.New("record already exists")
	ErrInvalidData = errors.New("invalid data")
)

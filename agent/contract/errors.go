package contract

import "errors"

var (
	ErrModelInvoke    = errors.New("model invoke failed")
	ErrPromptMissing  = errors.New("required prompt is missing")
	ErrValidation     = errors.New("validation failed")
	ErrInvalidMessage = errors.New("message is empty")
	ErrDispatch       = errors.New("tool dispatch failed")
)

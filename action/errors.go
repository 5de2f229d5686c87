package action

import "errors"

var (
	ErrInvalidDescriptor = errors.New("action: invalid descriptor")
	ErrUnknownType       = errors.New("action: unknown action type")
	ErrUnknownLogic      = errors.New("action: unknown action logic")
	ErrUnknownActivity   = errors.New("action: unknown gameplay activity")
)

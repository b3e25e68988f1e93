package domain

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnknownKind    = errors.New("unknown reward kind")
)

package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrStreamExhausted = errors.New("order stream exhausted")
	ErrEmptyBook       = errors.New("clear against empty book")
	ErrBadRecord       = errors.New("malformed history record")
)

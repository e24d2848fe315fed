package errors

import "errors"

var (
	ErrEmptyWord     = errors.New("word must not be empty")
	ErrEmptyTopic    = errors.New("topic must not be empty")
	ErrInvalidCursor = errors.New("cursor must be an integer")
	ErrInvalidLimit  = errors.New("limit must be an integer")
	ErrPersistence   = errors.New("word persistence failed")
)

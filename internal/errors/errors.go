package errors

import "errors"

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrLineNotFound    = errors.New("variation line not found")
	ErrMoveNotFound    = errors.New("move number not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidEncoding = errors.New("record is not valid UTF-8 or Shift-JIS")
	ErrInvalidCommand  = errors.New("invalid navigation command")
	ErrEmptyRecord     = errors.New("record has no moves, header or board")
)

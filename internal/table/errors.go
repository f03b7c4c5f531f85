package table

import "errors"

var (
	ErrUnknownColumn     = errors.New("unknown column")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrUnknownRow        = errors.New("unknown row")
	ErrActionUnavailable = errors.New("action not available for this row")
	ErrActionDisabled    = errors.New("action disabled for this row")
	ErrDraftClosed       = errors.New("column draft already closed")
	ErrNoDraft           = errors.New("no column draft open")
)

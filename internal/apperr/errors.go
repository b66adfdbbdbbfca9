package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrOutOfScope = errors.New("document out of scope")
	ErrBadKind    = errors.New("unknown event kind")
)

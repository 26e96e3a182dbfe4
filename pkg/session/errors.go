package session

import "github.com/pkg/errors"

var (
	ErrSessionNotFound  = errors.New("session does not exist")
	ErrHandlerRequired  = errors.New("session save path is set but save handler is not")
	ErrSavePathRequired = errors.New("session save handler requires a save path")
	ErrUnknownHandler   = errors.New("unknown session save handler")
	ErrBadSavePath      = errors.New("bad session save path")
)

package engine

import "errors"

var (
	ErrInvalidConfig       = errors.New("invalid duel configuration")
	ErrNotFound            = errors.New("room not found")
	ErrAlreadyStarted      = errors.New("duel already started")
	ErrFull                = errors.New("duel already has two players")
	ErrSelfJoin            = errors.New("cannot join your own duel")
	ErrNotActive           = errors.New("duel is not active")
	ErrUnknownPlayer       = errors.New("player is not part of this duel")
	ErrDuplicateSubmission = errors.New("answer already submitted for this round")
)

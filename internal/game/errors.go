package game

import "errors"

// Code is a machine-readable error class.
type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeResourceExhausted Code = "RESOURCE_EXHAUSTED"
	CodeInvalid           Code = "INVALID"
)

// Error is a classified engine error. Reason names the specific failure.
type Error struct {
	Code    Code
	Reason  string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrSessionNotFound = &Error{Code: CodeNotFound, Reason: "SESSION_NOT_FOUND", Message: "session not found"}
	ErrRoundNotFound   = &Error{Code: CodeNotFound, Reason: "ROUND_NOT_FOUND", Message: "round not found"}
	ErrPlayerNotFound  = &Error{Code: CodeNotFound, Reason: "PLAYER_NOT_FOUND", Message: "player not in session"}

	ErrSessionFinished       = &Error{Code: CodeConflict, Reason: "SESSION_FINISHED", Message: "session finished"}
	ErrAlreadyFinished       = &Error{Code: CodeConflict, Reason: "ALREADY_FINISHED", Message: "session already finished"}
	ErrSessionCancelled      = &Error{Code: CodeConflict, Reason: "SESSION_CANCELLED", Message: "session cancelled"}
	ErrSessionNotStarted     = &Error{Code: CodeConflict, Reason: "SESSION_NOT_STARTED", Message: "session not started"}
	ErrSessionAlreadyStarted = &Error{Code: CodeConflict, Reason: "SESSION_ALREADY_STARTED", Message: "session already started"}
	ErrRoundMismatch         = &Error{Code: CodeConflict, Reason: "ROUND_MISMATCH", Message: "guess does not target the current round"}
	ErrDuplicateGuess        = &Error{Code: CodeConflict, Reason: "DUPLICATE_GUESS", Message: "round already played by this player"}
	ErrSessionFull           = &Error{Code: CodeConflict, Reason: "SESSION_FULL", Message: "session full"}
	ErrNotHost               = &Error{Code: CodeConflict, Reason: "NOT_HOST", Message: "only the host can do that"}

	ErrEmptyCatalog        = &Error{Code: CodeResourceExhausted, Reason: "EMPTY_CATALOG", Message: "song catalog is empty"}
	ErrInsufficientCatalog = &Error{Code: CodeResourceExhausted, Reason: "INSUFFICIENT_CATALOG", Message: "not enough songs in catalog"}

	ErrInvalidRoundCount   = &Error{Code: CodeInvalid, Reason: "INVALID_ROUND_COUNT", Message: "invalid round count"}
	ErrInvalidReactionTime = &Error{Code: CodeInvalid, Reason: "INVALID_REACTION_TIME", Message: "reaction time must not be negative"}
	ErrInvalidPlayer       = &Error{Code: CodeInvalid, Reason: "INVALID_PLAYER", Message: "player id is required"}
	ErrInvalidSong         = &Error{Code: CodeInvalid, Reason: "INVALID_SONG", Message: "guessed song id is required"}
)

// CodeOf classifies err. Unclassified errors are CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// ReasonOf returns the specific failure name, or "" for unclassified errors.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

package game

import (
	"context"
	"time"
)

// Store persists sessions. Implementations must make AdvanceRound a
// compare-and-swap on the observed current round, and must reject
// RecordGuess once the session is no longer running.
type Store interface {
	// CreateSession stores the session, its rounds and the host atomically.
	CreateSession(ctx context.Context, session Session, rounds []Round, host Player) error
	GetSession(ctx context.Context, sessionID string) (Session, error)
	GetRound(ctx context.Context, sessionID string, number int) (Round, error)
	ListRounds(ctx context.Context, sessionID string) ([]Round, error)

	// AddPlayer joins a player unless the session is terminal or at
	// capacity. A player that already joined is returned with created=false.
	AddPlayer(ctx context.Context, player Player, capacity int) (Player, bool, error)
	GetPlayer(ctx context.Context, sessionID, playerID string) (Player, error)
	ListPlayers(ctx context.Context, sessionID string) ([]Player, error)
	SetReady(ctx context.Context, sessionID, playerID string, ready bool) (Player, error)

	// RecordGuess appends the guess and adds positive points to the player's
	// score in one step.
	RecordGuess(ctx context.Context, guess Guess) (Guess, error)
	CountGuesses(ctx context.Context, sessionID string, roundNumber int) (int, error)
	ListGuesses(ctx context.Context, sessionID string) ([]Guess, error)

	// AdvanceRound resolves round observed and moves the pointer forward
	// only if the session is running and still on that round. The returned
	// session is the state after the attempt.
	AdvanceRound(ctx context.Context, sessionID string, observed int, resolution Resolution, at time.Time) (Session, bool, error)

	// Transition moves the session to status to when it is currently in one
	// of from.
	Transition(ctx context.Context, sessionID string, from []Status, to Status, at time.Time) (Session, bool, error)
}

// playable reports why a session cannot accept guesses, or nil.
func playable(session Session) error {
	switch session.Status {
	case StatusCancelled:
		return ErrSessionCancelled
	case StatusFinished:
		return ErrSessionFinished
	case StatusPending:
		return ErrSessionNotStarted
	}
	if session.Finished {
		return ErrSessionFinished
	}
	return nil
}

func statusIn(status Status, set []Status) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}

package server

import (
	"context"
	"log"
	"sync"
	"time"

	"beat-chaser/internal/game"
)

// roundTimers arms one timer per running session. A round-start event for a
// later round replaces the session's timer; game-over clears it.
type roundTimers struct {
	mu       sync.Mutex
	duration time.Duration
	expire   func(sessionID string, roundNumber int)
	timers   map[string]roundTimer
}

type roundTimer struct {
	round int
	timer *time.Timer
}

func newRoundTimers(duration time.Duration, expire func(sessionID string, roundNumber int)) *roundTimers {
	return &roundTimers{
		duration: duration,
		expire:   expire,
		timers:   make(map[string]roundTimer),
	}
}

func (r *roundTimers) Publish(topic, eventType string, payload any) error {
	sessionID, ok := game.SessionIDFromTopic(topic)
	if !ok {
		return nil
	}
	switch eventType {
	case game.EventRoundStarted:
		if started, ok := payload.(game.RoundStarted); ok {
			r.schedule(sessionID, started.RoundNumber)
		}
	case game.EventGameOver:
		r.cancel(sessionID)
	}
	return nil
}

func (r *roundTimers) schedule(sessionID string, roundNumber int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Events for one session can arrive out of order.
	if existing, ok := r.timers[sessionID]; ok {
		if existing.round >= roundNumber {
			return
		}
		existing.timer.Stop()
	}
	r.timers[sessionID] = roundTimer{
		round: roundNumber,
		timer: time.AfterFunc(r.duration, func() {
			r.expire(sessionID, roundNumber)
		}),
	}
}

func (r *roundTimers) Round(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers[sessionID].round
}

func (r *roundTimers) cancel(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.timers[sessionID]; ok {
		existing.timer.Stop()
		delete(r.timers, sessionID)
	}
}

func (r *roundTimers) Pending(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[sessionID]
	return ok
}

func (r *roundTimers) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.timers {
		existing.timer.Stop()
		delete(r.timers, id)
	}
}

func (s *Server) expireRound(sessionID string, roundNumber int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	applied, err := s.engine.ExpireRound(ctx, sessionID, roundNumber)
	if err != nil {
		log.Printf("round expiry failed session_id=%s round=%d error=%v", sessionID, roundNumber, err)
		return
	}
	if !applied {
		log.Printf("round expiry skipped session_id=%s round=%d reason=already_resolved", sessionID, roundNumber)
	}
}

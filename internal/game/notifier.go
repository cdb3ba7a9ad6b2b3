package game

import (
	"errors"
	"strings"
	"time"
)

const (
	EventRoundStarted  = "round-start"
	EventGuessResolved = "guess"
	EventGameOver      = "game-over"
)

const (
	GameOverCompleted = "completed"
	GameOverEnded     = "ended"
	GameOverCancelled = "cancelled"
)

const (
	topicPrefix = "session-"
	topicSuffix = "/events"
)

type RoundStarted struct {
	SessionID   string `json:"session_id"`
	RoundNumber int    `json:"round_number"`
	TotalRounds int    `json:"total_rounds"`
}

type GuessResolved struct {
	SessionID     string `json:"session_id"`
	PlayerID      string `json:"player_id"`
	Correct       bool   `json:"correct"`
	Skipped       bool   `json:"skipped,omitempty"`
	Points        int    `json:"points"`
	RoundNumber   int    `json:"round_number"`
	TotalRounds   int    `json:"total_rounds"`
	RoundAdvanced bool   `json:"round_advanced"`
}

type GameOver struct {
	SessionID   string    `json:"session_id"`
	TotalRounds int       `json:"total_rounds"`
	EndTime     time.Time `json:"end_time"`
	Reason      string    `json:"reason"`
}

// Notifier fans an event out to subscribers of a topic. Delivery is best
// effort: the engine logs a returned error and carries on.
type Notifier interface {
	Publish(topic, eventType string, payload any) error
}

type NotifierFunc func(topic, eventType string, payload any) error

func (f NotifierFunc) Publish(topic, eventType string, payload any) error {
	return f(topic, eventType, payload)
}

// Notifiers publishes to every member, even when an earlier one fails.
type Notifiers []Notifier

func (n Notifiers) Publish(topic, eventType string, payload any) error {
	var errs []error
	for _, notifier := range n {
		if notifier == nil {
			continue
		}
		if err := notifier.Publish(topic, eventType, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func Topic(sessionID string) string {
	return topicPrefix + sessionID + topicSuffix
}

func SessionIDFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, topicPrefix)
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, topicSuffix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

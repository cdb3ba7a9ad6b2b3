package server

import (
	"encoding/json"
	"net/http"
	"time"

	"beat-chaser/internal/db"
	"beat-chaser/internal/game"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 500
)

// eventJournal appends every published event to the events table.
type eventJournal struct {
	db *gorm.DB
}

func newEventJournal(conn *gorm.DB) *eventJournal {
	return &eventJournal{db: conn}
}

func (j *eventJournal) Publish(topic, eventType string, payload any) error {
	sessionID, ok := game.SessionIDFromTopic(topic)
	if !ok {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		SessionID:   sessionID,
		RoundNumber: eventRoundNumber(payload),
		Type:        eventType,
		Payload:     datatypes.JSON(data),
		CreatedAt:   time.Now().UTC(),
	}
	return j.db.Create(&event).Error
}

func eventRoundNumber(payload any) *int {
	var round int
	switch event := payload.(type) {
	case game.RoundStarted:
		round = event.RoundNumber
	case game.GuessResolved:
		round = event.RoundNumber
	default:
		return nil
	}
	return &round
}

type eventView struct {
	ID          uint            `json:"id"`
	Type        string          `json:"type"`
	RoundNumber *int            `json:"round_number,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

type eventsQuery struct {
	Limit   int  `form:"limit" binding:"omitempty,gte=1,lte=500"`
	AfterID uint `form:"after_id"`
}

var eventsQueryMessages = bindMessages{
	"Limit": {"gte": "limit must be between 1 and 500", "lte": "limit must be between 1 and 500"},
}

func (s *Server) handleListEvents(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	var query eventsQuery
	if !bindQuery(c, &query, eventsQueryMessages) {
		return
	}
	if s.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event journal requires a database", "code": "UNAVAILABLE"})
		return
	}
	if _, err := s.store.GetSession(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	var records []db.Event
	if err := s.db.WithContext(c.Request.Context()).
		Where("session_id = ? AND id > ?", sessionID, query.AfterID).
		Order("id asc").
		Limit(limit).
		Find(&records).Error; err != nil {
		writeError(c, err)
		return
	}
	events := make([]eventView, 0, len(records))
	for _, record := range records {
		events = append(events, eventView{
			ID:          record.ID,
			Type:        record.Type,
			RoundNumber: record.RoundNumber,
			Payload:     json.RawMessage(record.Payload),
			CreatedAt:   record.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

package server

import (
	"net/http"

	"beat-chaser/internal/game"

	"github.com/gin-gonic/gin"
)

type createSessionRequest struct {
	CreatorID  string `json:"creator_id" binding:"required,player"`
	Rounds     *int   `json:"rounds" binding:"omitempty,gte=1"`
	MaxPlayers int    `json:"max_players" binding:"gte=0"`
}

type playerRequest struct {
	PlayerID string `json:"player_id" binding:"required,player"`
}

type readyRequest struct {
	PlayerID string `json:"player_id" binding:"required,player"`
	Ready    bool   `json:"ready"`
}

type guessRequest struct {
	PlayerID       string `json:"player_id" binding:"required,player"`
	RoundNumber    int    `json:"round_number" binding:"required,gte=1"`
	GuessedSongID  string `json:"guessed_song_id" binding:"required,song"`
	ReactionTimeMs *int   `json:"reaction_time_ms"`
}

type skipRequest struct {
	PlayerID    string `json:"player_id" binding:"omitempty,player"`
	RoundNumber int    `json:"round_number" binding:"gte=0"`
}

var playerMessages = bindMessages{
	"PlayerID": {
		"required": "player_id is required",
		"player":   "player_id must be 1-64 characters of letters, digits, - _ . : @",
	},
}

var createMessages = bindMessages{
	"CreatorID": {
		"required": "creator_id is required",
		"player":   "creator_id must be 1-64 characters of letters, digits, - _ . : @",
	},
	"Rounds":     {"gte": "rounds must be at least 1"},
	"MaxPlayers": {"gte": "max_players must not be negative"},
}

var guessMessages = bindMessages{
	"PlayerID":      playerMessages["PlayerID"],
	"RoundNumber":   {"required": "round_number is required", "gte": "round_number must be positive"},
	"GuessedSongID": {"required": "guessed_song_id is required", "song": "guessed_song_id is invalid"},
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if !bindJSON(c, &req, createMessages, "invalid session request") {
		return
	}
	rounds := s.cfg.DefaultRounds
	if req.Rounds != nil {
		rounds = *req.Rounds
	}
	created, err := s.engine.CreateSession(c.Request.Context(), game.CreateSessionRequest{
		CreatorID:   req.CreatorID,
		TotalRounds: rounds,
		MaxPlayers:  req.MaxPlayers,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id":   created.SessionID,
		"total_rounds": created.TotalRounds,
		"created_at":   created.CreatedAt,
	})
}

func (s *Server) handleGetSession(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	snapshot, err := s.engine.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSnapshotView(snapshot))
}

func (s *Server) handleJoinSession(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	var req playerRequest
	if !bindJSON(c, &req, playerMessages, "invalid join request") {
		return
	}
	player, err := s.engine.JoinSession(c.Request.Context(), sessionID, req.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPlayerView(player))
}

func (s *Server) handleSetReady(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	var req readyRequest
	if !bindJSON(c, &req, playerMessages, "invalid ready request") {
		return
	}
	player, err := s.engine.SetReady(c.Request.Context(), sessionID, req.PlayerID, req.Ready)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPlayerView(player))
}

func (s *Server) handleStartSession(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	var req playerRequest
	if !bindJSON(c, &req, playerMessages, "invalid start request") {
		return
	}
	session, err := s.engine.StartSession(c.Request.Context(), sessionID, req.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(session))
}

func (s *Server) handleSubmitGuess(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	var req guessRequest
	if !bindJSON(c, &req, guessMessages, "invalid guess") {
		return
	}
	result, err := s.engine.SubmitGuess(c.Request.Context(), game.GuessRequest{
		SessionID:      sessionID,
		PlayerID:       req.PlayerID,
		RoundNumber:    req.RoundNumber,
		GuessedSongID:  req.GuessedSongID,
		ReactionTimeMs: req.ReactionTimeMs,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"correct":                result.Correct,
		"points":                 result.Points,
		"round_number":           result.RoundNumber,
		"round_advanced":         result.RoundAdvanced,
		"round_already_resolved": result.RoundAlreadyResolved,
		"game_over":              result.GameOver,
		"current_round":          result.CurrentRound,
		"total_rounds":           result.TotalRounds,
	})
}

func (s *Server) handleSkipRound(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	var req skipRequest
	if !bindOptionalJSON(c, &req, playerMessages, "invalid skip request") {
		return
	}
	result, err := s.engine.SkipRound(c.Request.Context(), game.SkipRequest{
		SessionID:   sessionID,
		PlayerID:    req.PlayerID,
		RoundNumber: req.RoundNumber,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"points":                 result.Points,
		"round_number":           result.RoundNumber,
		"round_advanced":         result.RoundAdvanced,
		"round_already_resolved": result.RoundAlreadyResolved,
		"game_over":              result.GameOver,
		"current_round":          result.CurrentRound,
		"total_rounds":           result.TotalRounds,
	})
}

func (s *Server) handleEndSession(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	result, err := s.engine.EndSession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":   result.SessionID,
		"finished":     result.Finished,
		"total_rounds": result.TotalRounds,
		"end_time":     result.EndTime,
	})
}

func (s *Server) handleCancelSession(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	session, err := s.engine.CancelSession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(session))
}

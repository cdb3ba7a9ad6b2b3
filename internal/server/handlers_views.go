package server

import (
	"context"

	"beat-chaser/internal/db"
	"beat-chaser/internal/game"
	"beat-chaser/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleScoreboard(c *gin.Context) {
	sessionID, ok := bindSession(c)
	if !ok {
		return
	}
	snapshot, err := s.engine.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	templ.Handler(web.ScoreboardPage(s.scoreboardData(c.Request.Context(), snapshot))).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) scoreboardData(ctx context.Context, snapshot game.Snapshot) web.Scoreboard {
	session := snapshot.Session
	data := web.Scoreboard{
		SessionID:    session.ID,
		Status:       string(session.Status),
		CurrentRound: session.CurrentRound,
		TotalRounds:  session.TotalRounds,
		StartedAt:    web.FormatTime(session.StartTime),
		EndedAt:      web.FormatTime(session.EndTime),
	}
	for i, player := range snapshot.Players {
		data.Players = append(data.Players, web.ScoreboardRow{
			Rank:     i + 1,
			PlayerID: player.PlayerID,
			Score:    player.Score,
			IsHost:   player.IsHost,
			IsReady:  player.IsReady,
		})
	}
	titles := s.songTitles(ctx, snapshot.Rounds)
	for _, round := range snapshot.Rounds {
		data.Rounds = append(data.Rounds, web.ScoreboardRound{
			Number:     round.Number,
			SongTitle:  titles[round.SongID],
			Resolution: string(round.Resolution),
		})
	}
	return data
}

// songTitles resolves titles for revealed rounds only.
func (s *Server) songTitles(ctx context.Context, rounds []game.Round) map[string]string {
	ids := make([]string, 0, len(rounds))
	for _, round := range rounds {
		if round.SongID != "" {
			ids = append(ids, round.SongID)
		}
	}
	titles := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return titles
	}
	if s.db != nil {
		var songs []db.Song
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&songs).Error; err == nil {
			for _, song := range songs {
				titles[song.ID] = song.Title + " - " + song.Artist
			}
		}
		return titles
	}
	if s.catalog != nil {
		for _, id := range ids {
			if song, ok := s.catalog.Lookup(id); ok {
				titles[id] = song.Title + " - " + song.Artist
			}
		}
	}
	return titles
}

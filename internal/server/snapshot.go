package server

import (
	"time"

	"beat-chaser/internal/game"
)

type sessionView struct {
	ID           string     `json:"session_id"`
	CreatorID    string     `json:"creator_id"`
	Status       string     `json:"status"`
	TotalRounds  int        `json:"total_rounds"`
	CurrentRound int        `json:"current_round"`
	Finished     bool       `json:"finished"`
	MaxPlayers   int        `json:"max_players"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type roundView struct {
	Number     int        `json:"round_number"`
	SongID     string     `json:"song_id,omitempty"`
	Resolution string     `json:"resolution"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

type playerView struct {
	SessionID string    `json:"session_id"`
	PlayerID  string    `json:"player_id"`
	Score     int       `json:"score"`
	IsHost    bool      `json:"is_host"`
	IsReady   bool      `json:"is_ready"`
	JoinedAt  time.Time `json:"joined_at"`
}

type snapshotView struct {
	Session sessionView  `json:"session"`
	Rounds  []roundView  `json:"rounds"`
	Players []playerView `json:"players"`
}

func newSessionView(session game.Session) sessionView {
	return sessionView{
		ID:           session.ID,
		CreatorID:    session.CreatorID,
		Status:       string(session.Status),
		TotalRounds:  session.TotalRounds,
		CurrentRound: session.CurrentRound,
		Finished:     session.Finished,
		MaxPlayers:   session.MaxPlayers,
		StartTime:    session.StartTime,
		EndTime:      session.EndTime,
		CreatedAt:    session.CreatedAt,
	}
}

func newPlayerView(player game.Player) playerView {
	return playerView{
		SessionID: player.SessionID,
		PlayerID:  player.PlayerID,
		Score:     player.Score,
		IsHost:    player.IsHost,
		IsReady:   player.IsReady,
		JoinedAt:  player.JoinedAt,
	}
}

func newSnapshotView(snapshot game.Snapshot) snapshotView {
	view := snapshotView{
		Session: newSessionView(snapshot.Session),
		Rounds:  make([]roundView, 0, len(snapshot.Rounds)),
		Players: make([]playerView, 0, len(snapshot.Players)),
	}
	for _, round := range snapshot.Rounds {
		view.Rounds = append(view.Rounds, roundView{
			Number:     round.Number,
			SongID:     round.SongID,
			Resolution: string(round.Resolution),
			ResolvedAt: round.ResolvedAt,
		})
	}
	for _, player := range snapshot.Players {
		view.Players = append(view.Players, newPlayerView(player))
	}
	return view
}

package web

type ScoreboardRow struct {
	Rank     int
	PlayerID string
	Score    int
	IsHost   bool
	IsReady  bool
}

type ScoreboardRound struct {
	Number     int
	SongTitle  string
	Resolution string
}

type Scoreboard struct {
	SessionID    string
	Status       string
	CurrentRound int
	TotalRounds  int
	StartedAt    string
	EndedAt      string
	Players      []ScoreboardRow
	Rounds       []ScoreboardRound
}

package game

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Resolution records how a round was closed.
type Resolution string

const (
	ResolutionPending Resolution = "pending"
	ResolutionGuessed Resolution = "guessed"
	ResolutionMissed  Resolution = "missed"
	ResolutionSkipped Resolution = "skipped"
	ResolutionExpired Resolution = "expired"
)

// Session is the authoritative record of a game. CurrentRound is 1-indexed;
// TotalRounds+1 means every round has been resolved.
type Session struct {
	ID           string
	CreatorID    string
	Status       Status
	TotalRounds  int
	CurrentRound int
	Finished     bool
	MaxPlayers   int
	StartTime    *time.Time
	EndTime      *time.Time
	CreatedAt    time.Time
}

type Round struct {
	SessionID  string
	Number     int
	SongID     string
	Resolution Resolution
	ResolvedAt *time.Time
}

func (r Round) Resolved() bool {
	return r.Resolution != "" && r.Resolution != ResolutionPending
}

// Guess is append-only. Skips are stored as guesses with Skipped set.
type Guess struct {
	ID             uint
	SessionID      string
	RoundNumber    int
	PlayerID       string
	GuessedSongID  string
	Correct        bool
	Skipped        bool
	ReactionTimeMs *int
	PointsAwarded  int
	CreatedAt      time.Time
}

type Player struct {
	SessionID string
	PlayerID  string
	Score     int
	IsHost    bool
	IsReady   bool
	JoinedAt  time.Time
}

type Song struct {
	ID       string
	Title    string
	Artist   string
	Genre    string
	AudioURL string
}

type SessionCreated struct {
	SessionID   string
	TotalRounds int
	CreatedAt   time.Time
}

type GuessResult struct {
	Correct     bool
	Points      int
	RoundNumber int
	// RoundAdvanced is set for the one caller whose guess closed the round.
	RoundAdvanced bool
	// RoundAlreadyResolved is set when this guess would have closed the round
	// but another participant closed it first.
	RoundAlreadyResolved bool
	GameOver             bool
	CurrentRound         int
	TotalRounds          int
}

type SkipResult struct {
	RoundNumber          int
	Points               int
	RoundAdvanced        bool
	RoundAlreadyResolved bool
	GameOver             bool
	CurrentRound         int
	TotalRounds          int
}

type EndResult struct {
	SessionID   string
	Finished    bool
	TotalRounds int
	EndTime     time.Time
}

type Snapshot struct {
	Session Session
	Rounds  []Round
	Players []Player
}

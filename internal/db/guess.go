package db

import "time"

type Guess struct {
	ID             uint      `gorm:"primaryKey"`
	SessionID      string    `gorm:"size:36;not null;index;uniqueIndex:idx_guesses_session_round_player"`
	RoundID        uint      `gorm:"index;not null"`
	RoundNumber    int       `gorm:"not null;uniqueIndex:idx_guesses_session_round_player"`
	PlayerID       string    `gorm:"size:64;not null;uniqueIndex:idx_guesses_session_round_player"`
	GuessedSongID  string    `gorm:"size:64"`
	Correct        bool      `gorm:"not null;default:false"`
	Skipped        bool      `gorm:"not null;default:false"`
	ReactionTimeMs *int
	PointsAwarded  int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"not null"`
}

package db

import "time"

type Round struct {
	ID         uint      `gorm:"primaryKey"`
	SessionID  string    `gorm:"size:36;not null;index;uniqueIndex:idx_rounds_session_number;uniqueIndex:idx_rounds_session_song"`
	Number     int       `gorm:"not null;uniqueIndex:idx_rounds_session_number"`
	SongID     string    `gorm:"size:64;not null;uniqueIndex:idx_rounds_session_song"`
	Resolution string    `gorm:"size:16;not null"`
	ResolvedAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	Guesses    []Guess
}

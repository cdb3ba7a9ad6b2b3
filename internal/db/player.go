package db

import "time"

type Player struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID string    `gorm:"size:36;not null;index;uniqueIndex:idx_players_session_player"`
	PlayerID  string    `gorm:"size:64;not null;uniqueIndex:idx_players_session_player"`
	Score     int       `gorm:"not null;default:0"`
	IsHost    bool      `gorm:"not null;default:false"`
	IsReady   bool      `gorm:"not null;default:false"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

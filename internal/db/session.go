package db

import "time"

type Session struct {
	ID           string     `gorm:"primaryKey;size:36"`
	CreatorID    string     `gorm:"size:64;not null;index"`
	Status       string     `gorm:"size:16;not null;index"`
	TotalRounds  int        `gorm:"not null"`
	CurrentRound int        `gorm:"not null;default:1"`
	Finished     bool       `gorm:"not null;default:false"`
	MaxPlayers   int        `gorm:"not null;default:0"`
	StartTime    *time.Time
	EndTime      *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	Rounds       []Round   `gorm:"constraint:OnDelete:CASCADE"`
	Players      []Player  `gorm:"constraint:OnDelete:CASCADE"`
	Guesses      []Guess   `gorm:"constraint:OnDelete:CASCADE"`
	Events       []Event   `gorm:"constraint:OnDelete:CASCADE"`
}

package db

import "time"

type Song struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Title     string    `gorm:"size:200;not null;index:idx_songs_meta,priority:1"`
	Artist    string    `gorm:"size:200;not null;index:idx_songs_meta,priority:2"`
	Genre     string    `gorm:"size:64"`
	AudioURL  string    `gorm:"size:512;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

package db

import (
	"encoding/csv"
	"errors"
	"os"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type songRecord struct {
	ID       string
	Title    string
	Artist   string
	Genre    string
	AudioURL string
}

// LoadSongCatalog reads songs from a CSV (id,title,artist,genre,audio_url with a
// header row) and upserts them into the songs table.
func LoadSongCatalog(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, errors.New("db connection is nil")
	}
	records, err := ReadSongCatalog(path)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, record := range records {
		entry := Song{
			ID:       record.ID,
			Title:    record.Title,
			Artist:   record.Artist,
			Genre:    record.Genre,
			AudioURL: record.AudioURL,
		}
		err := conn.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "artist", "genre", "audio_url", "updated_at"}),
		}).Create(&entry).Error
		if err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// ReadSongCatalog parses the catalog CSV, skipping the header and incomplete rows.
func ReadSongCatalog(path string) ([]Song, error) {
	records, err := readSongs(path)
	if err != nil {
		return nil, err
	}
	songs := make([]Song, 0, len(records))
	for _, record := range records {
		songs = append(songs, Song{
			ID:       record.ID,
			Title:    record.Title,
			Artist:   record.Artist,
			Genre:    record.Genre,
			AudioURL: record.AudioURL,
		})
	}
	return songs, nil
}

func readSongs(path string) ([]songRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var records []songRecord
	seen := make(map[string]struct{})
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 5 {
			continue
		}
		record := songRecord{
			ID:       strings.TrimSpace(row[0]),
			Title:    strings.TrimSpace(row[1]),
			Artist:   strings.TrimSpace(row[2]),
			Genre:    strings.TrimSpace(row[3]),
			AudioURL: strings.TrimSpace(row[4]),
		}
		if record.ID == "" || record.Title == "" || record.Artist == "" || record.AudioURL == "" {
			continue
		}
		if _, dup := seen[record.ID]; dup {
			continue
		}
		seen[record.ID] = struct{}{}
		records = append(records, record)
	}
	return records, nil
}

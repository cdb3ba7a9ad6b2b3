package main

import (
	"flag"
	"log"

	"beat-chaser/internal/config"
	"beat-chaser/internal/db"
)

func main() {
	filePath := flag.String("file", "songs.csv", "path to songs csv (id,title,artist,genre,audio_url)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	conn, err := db.Open(cfg.DatabaseURL, cfg.LogSQL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if db.IsSQLite(conn) {
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
	}

	count, err := db.LoadSongCatalog(conn, *filePath)
	if err != nil {
		log.Fatalf("failed to load songs: %v", err)
	}
	log.Printf("loaded %d songs", count)
}

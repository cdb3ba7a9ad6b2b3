package server

import (
	"log"
	"net/http"

	"beat-chaser/internal/config"
	"beat-chaser/internal/db"
	"beat-chaser/internal/game"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	engine  *game.Engine
	store   game.Store
	catalog *game.StaticCatalog
	db      *gorm.DB
	cfg     config.Config
	ws      *wsHub
	journal *eventJournal
	timers  *roundTimers
}

// New wires the engine to the database when conn is set, otherwise to an
// in-memory store seeded from cfg.SongCatalogPath.
func New(conn *gorm.DB, cfg config.Config) *Server {
	if conn != nil {
		return NewWithStore(game.NewGormStore(conn), game.NewSQLSongPool(conn), conn, cfg)
	}
	return NewWithStore(game.NewMemoryStore(), game.NewStaticCatalog(loadCatalog(cfg.SongCatalogPath)), nil, cfg)
}

func NewWithStore(store game.Store, songs game.SongPool, conn *gorm.DB, cfg config.Config) *Server {
	registerValidators()
	s := &Server{
		store: store,
		db:    conn,
		cfg:   cfg,
		ws:    newWSHub(),
	}
	if catalog, ok := songs.(*game.StaticCatalog); ok {
		s.catalog = catalog
	}
	notifiers := game.Notifiers{s.ws}
	if conn != nil {
		s.journal = newEventJournal(conn)
		notifiers = append(notifiers, s.journal)
	}
	if duration := cfg.RoundDuration(); duration > 0 {
		s.timers = newRoundTimers(duration, s.expireRound)
		notifiers = append(notifiers, s.timers)
	}
	s.engine = game.NewEngine(store, songs, notifiers, game.Settings{
		MaxRounds:      cfg.MaxRounds,
		MaxPlayers:     cfg.MaxPlayers,
		CatalogTimeout: cfg.CatalogTimeout(),
	})
	return s
}

func (s *Server) Engine() *game.Engine {
	return s.engine
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/sessions")
	api.POST("", s.handleCreateSession)
	api.GET("/:id", s.handleGetSession)
	api.POST("/:id/join", s.handleJoinSession)
	api.POST("/:id/ready", s.handleSetReady)
	api.POST("/:id/start", s.handleStartSession)
	api.POST("/:id/guesses", s.handleSubmitGuess)
	api.POST("/:id/skip", s.handleSkipRound)
	api.POST("/:id/end", s.handleEndSession)
	api.POST("/:id/cancel", s.handleCancelSession)
	api.GET("/:id/events", s.handleListEvents)

	router.GET("/ws/sessions/:id", s.handleWebsocket)
	router.GET("/sessions/:id/scoreboard", s.handleScoreboard)
	return router
}

// Close stops pending round timers and disconnects websocket subscribers.
func (s *Server) Close() {
	if s.timers != nil {
		s.timers.StopAll()
	}
	s.ws.CloseAll()
}

func loadCatalog(path string) []game.Song {
	if path == "" {
		return nil
	}
	records, err := db.ReadSongCatalog(path)
	if err != nil {
		log.Printf("song catalog load failed path=%s error=%v", path, err)
		return nil
	}
	songs := make([]game.Song, 0, len(records))
	for _, record := range records {
		songs = append(songs, game.SongFromRecord(record))
	}
	log.Printf("song catalog loaded path=%s songs=%d", path, len(songs))
	return songs
}

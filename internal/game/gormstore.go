package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"beat-chaser/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GormStore persists sessions through gorm. Round advance and guess
// recording are conditional updates so concurrent servers sharing one
// database observe a single winner.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

func (s *GormStore) CreateSession(ctx context.Context, session Session, rounds []Round, host Player) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := db.Session{
			ID:           session.ID,
			CreatorID:    session.CreatorID,
			Status:       string(session.Status),
			TotalRounds:  session.TotalRounds,
			CurrentRound: session.CurrentRound,
			Finished:     session.Finished,
			MaxPlayers:   session.MaxPlayers,
			StartTime:    session.StartTime,
			EndTime:      session.EndTime,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.CreatedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		roundRecords := make([]db.Round, 0, len(rounds))
		for _, round := range rounds {
			roundRecords = append(roundRecords, db.Round{
				SessionID:  session.ID,
				Number:     round.Number,
				SongID:     round.SongID,
				Resolution: string(ResolutionPending),
				CreatedAt:  session.CreatedAt,
				UpdatedAt:  session.CreatedAt,
			})
		}
		if len(roundRecords) > 0 {
			if err := tx.Create(&roundRecords).Error; err != nil {
				return fmt.Errorf("create rounds: %w", err)
			}
		}
		hostRecord := db.Player{
			SessionID: session.ID,
			PlayerID:  host.PlayerID,
			IsHost:    host.IsHost,
			IsReady:   host.IsReady,
			JoinedAt:  host.JoinedAt,
		}
		if err := tx.Create(&hostRecord).Error; err != nil {
			return fmt.Errorf("create host: %w", err)
		}
		return nil
	})
}

func (s *GormStore) GetSession(ctx context.Context, sessionID string) (Session, error) {
	var record db.Session
	if err := s.db.WithContext(ctx).First(&record, "id = ?", sessionID).Error; err != nil {
		return Session{}, notFound(err, ErrSessionNotFound)
	}
	return toSession(record), nil
}

func (s *GormStore) GetRound(ctx context.Context, sessionID string, number int) (Round, error) {
	var record db.Round
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND number = ?", sessionID, number).
		First(&record).Error
	if err != nil {
		return Round{}, notFound(err, ErrRoundNotFound)
	}
	return toRound(record), nil
}

func (s *GormStore) ListRounds(ctx context.Context, sessionID string) ([]Round, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	var records []db.Round
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("number asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	rounds := make([]Round, 0, len(records))
	for _, record := range records {
		rounds = append(rounds, toRound(record))
	}
	return rounds, nil
}

func (s *GormStore) AddPlayer(ctx context.Context, player Player, capacity int) (Player, bool, error) {
	created := false
	var result Player
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSession(tx, player.SessionID, []Status{StatusPending, StatusRunning}, player.JoinedAt); err != nil {
			if errors.Is(err, errSessionState) {
				return ErrAlreadyFinished
			}
			return err
		}
		var existing db.Player
		err := tx.Where("session_id = ? AND player_id = ?", player.SessionID, player.PlayerID).
			Take(&existing).Error
		if err == nil {
			result = toPlayer(existing)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if capacity > 0 {
			var count int64
			if err := tx.Model(&db.Player{}).
				Where("session_id = ?", player.SessionID).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(capacity) {
				return ErrSessionFull
			}
		}
		record := db.Player{
			SessionID: player.SessionID,
			PlayerID:  player.PlayerID,
			IsHost:    player.IsHost,
			IsReady:   player.IsReady,
			JoinedAt:  player.JoinedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		result = toPlayer(record)
		created = true
		return nil
	})
	if err != nil && isUniqueViolation(err) {
		existing, lookupErr := s.GetPlayer(ctx, player.SessionID, player.PlayerID)
		if lookupErr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return Player{}, false, err
	}
	return result, created, nil
}

func (s *GormStore) GetPlayer(ctx context.Context, sessionID, playerID string) (Player, error) {
	var record db.Player
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND player_id = ?", sessionID, playerID).
		Take(&record).Error
	if err != nil {
		return Player{}, notFound(err, ErrPlayerNotFound)
	}
	return toPlayer(record), nil
}

func (s *GormStore) ListPlayers(ctx context.Context, sessionID string) ([]Player, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	var records []db.Player
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	players := make([]Player, 0, len(records))
	for _, record := range records {
		players = append(players, toPlayer(record))
	}
	return players, nil
}

func (s *GormStore) SetReady(ctx context.Context, sessionID, playerID string, ready bool) (Player, error) {
	var result Player
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSession(tx, sessionID, []Status{StatusPending, StatusRunning}, time.Now().UTC()); err != nil {
			if errors.Is(err, errSessionState) {
				return ErrAlreadyFinished
			}
			return err
		}
		res := tx.Model(&db.Player{}).
			Where("session_id = ? AND player_id = ?", sessionID, playerID).
			Update("is_ready", ready)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPlayerNotFound
		}
		var record db.Player
		if err := tx.Where("session_id = ? AND player_id = ?", sessionID, playerID).Take(&record).Error; err != nil {
			return err
		}
		result = toPlayer(record)
		return nil
	})
	return result, err
}

func (s *GormStore) RecordGuess(ctx context.Context, guess Guess) (Guess, error) {
	var saved Guess
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSession(tx, guess.SessionID, []Status{StatusRunning}, guess.CreatedAt); err != nil {
			if errors.Is(err, errSessionState) {
				var current db.Session
				if lookupErr := tx.First(&current, "id = ?", guess.SessionID).Error; lookupErr != nil {
					return notFound(lookupErr, ErrSessionNotFound)
				}
				if stateErr := playable(toSession(current)); stateErr != nil {
					return stateErr
				}
				return ErrSessionNotStarted
			}
			return err
		}
		var round db.Round
		if err := tx.Where("session_id = ? AND number = ?", guess.SessionID, guess.RoundNumber).
			First(&round).Error; err != nil {
			return notFound(err, ErrRoundNotFound)
		}
		var existing int64
		if err := tx.Model(&db.Guess{}).
			Where("session_id = ? AND round_number = ? AND player_id = ?", guess.SessionID, guess.RoundNumber, guess.PlayerID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateGuess
		}
		record := db.Guess{
			SessionID:      guess.SessionID,
			RoundID:        round.ID,
			RoundNumber:    guess.RoundNumber,
			PlayerID:       guess.PlayerID,
			GuessedSongID:  guess.GuessedSongID,
			Correct:        guess.Correct,
			Skipped:        guess.Skipped,
			ReactionTimeMs: guess.ReactionTimeMs,
			PointsAwarded:  guess.PointsAwarded,
			CreatedAt:      guess.CreatedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateGuess
			}
			return err
		}
		if guess.PointsAwarded > 0 {
			res := tx.Model(&db.Player{}).
				Where("session_id = ? AND player_id = ?", guess.SessionID, guess.PlayerID).
				Update("score", gorm.Expr("score + ?", guess.PointsAwarded))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrPlayerNotFound
			}
		}
		saved = toGuess(record)
		return nil
	})
	if err != nil {
		return Guess{}, err
	}
	return saved, nil
}

func (s *GormStore) CountGuesses(ctx context.Context, sessionID string, roundNumber int) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.Guess{}).
		Where("session_id = ? AND round_number = ?", sessionID, roundNumber).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *GormStore) ListGuesses(ctx context.Context, sessionID string) ([]Guess, error) {
	var records []db.Guess
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	guesses := make([]Guess, 0, len(records))
	for _, record := range records {
		guesses = append(guesses, toGuess(record))
	}
	return guesses, nil
}

func (s *GormStore) AdvanceRound(ctx context.Context, sessionID string, observed int, resolution Resolution, at time.Time) (Session, bool, error) {
	applied := false
	var updated db.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.Session{}).
			Where("id = ? AND current_round = ? AND status = ?", sessionID, observed, string(StatusRunning)).
			Updates(map[string]any{
				"current_round": gorm.Expr("current_round + 1"),
				"updated_at":    at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			applied = true
			if err := tx.Model(&db.Round{}).
				Where("session_id = ? AND number = ?", sessionID, observed).
				Updates(map[string]any{
					"resolution":  string(resolution),
					"resolved_at": at,
					"updated_at":  at,
				}).Error; err != nil {
				return err
			}
			if err := tx.Model(&db.Session{}).
				Where("id = ? AND current_round > total_rounds", sessionID).
				Updates(map[string]any{
					"status":   string(StatusFinished),
					"finished": true,
					"end_time": at,
				}).Error; err != nil {
				return err
			}
		}
		return tx.First(&updated, "id = ?", sessionID).Error
	})
	if err != nil {
		return Session{}, false, notFound(err, ErrSessionNotFound)
	}
	return toSession(updated), applied, nil
}

func (s *GormStore) Transition(ctx context.Context, sessionID string, from []Status, to Status, at time.Time) (Session, bool, error) {
	applied := false
	var updated db.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":     string(to),
			"updated_at": at,
		}
		switch to {
		case StatusRunning:
			updates["start_time"] = at
		case StatusFinished:
			updates["finished"] = true
			updates["end_time"] = at
		case StatusCancelled:
			updates["end_time"] = at
		}
		res := tx.Model(&db.Session{}).
			Where("id = ? AND status IN ?", sessionID, statusStrings(from)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		applied = res.RowsAffected == 1
		return tx.First(&updated, "id = ?", sessionID).Error
	})
	if err != nil {
		return Session{}, false, notFound(err, ErrSessionNotFound)
	}
	return toSession(updated), applied, nil
}

var errSessionState = errors.New("session not in expected state")

// lockSession touches the session row when its status is in allowed. In
// Postgres the row stays locked until the surrounding transaction ends.
func lockSession(tx *gorm.DB, sessionID string, allowed []Status, at time.Time) error {
	res := tx.Model(&db.Session{}).
		Where("id = ? AND status IN ?", sessionID, statusStrings(allowed)).
		Update("updated_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	var count int64
	if err := tx.Model(&db.Session{}).Where("id = ?", sessionID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrSessionNotFound
	}
	return errSessionState
}

func statusStrings(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toSession(record db.Session) Session {
	return Session{
		ID:           record.ID,
		CreatorID:    record.CreatorID,
		Status:       Status(record.Status),
		TotalRounds:  record.TotalRounds,
		CurrentRound: record.CurrentRound,
		Finished:     record.Finished,
		MaxPlayers:   record.MaxPlayers,
		StartTime:    record.StartTime,
		EndTime:      record.EndTime,
		CreatedAt:    record.CreatedAt,
	}
}

func toRound(record db.Round) Round {
	return Round{
		SessionID:  record.SessionID,
		Number:     record.Number,
		SongID:     record.SongID,
		Resolution: Resolution(record.Resolution),
		ResolvedAt: record.ResolvedAt,
	}
}

func toPlayer(record db.Player) Player {
	return Player{
		SessionID: record.SessionID,
		PlayerID:  record.PlayerID,
		Score:     record.Score,
		IsHost:    record.IsHost,
		IsReady:   record.IsReady,
		JoinedAt:  record.JoinedAt,
	}
}

func toGuess(record db.Guess) Guess {
	return Guess{
		ID:             record.ID,
		SessionID:      record.SessionID,
		RoundNumber:    record.RoundNumber,
		PlayerID:       record.PlayerID,
		GuessedSongID:  record.GuessedSongID,
		Correct:        record.Correct,
		Skipped:        record.Skipped,
		ReactionTimeMs: record.ReactionTimeMs,
		PointsAwarded:  record.PointsAwarded,
		CreatedAt:      record.CreatedAt,
	}
}

// SQLSongPool samples songs from the songs table.
type SQLSongPool struct {
	db *gorm.DB
}

func NewSQLSongPool(conn *gorm.DB) *SQLSongPool {
	return &SQLSongPool{db: conn}
}

func (p *SQLSongPool) SampleSongs(ctx context.Context, n int) ([]Song, error) {
	if n <= 0 {
		return nil, nil
	}
	var records []db.Song
	if err := p.db.WithContext(ctx).
		Order("RANDOM()").
		Limit(n).
		Find(&records).Error; err != nil {
		return nil, err
	}
	songs := make([]Song, 0, len(records))
	for _, record := range records {
		songs = append(songs, SongFromRecord(record))
	}
	return songs, nil
}

func SongFromRecord(record db.Song) Song {
	return Song{
		ID:       record.ID,
		Title:    record.Title,
		Artist:   record.Artist,
		Genre:    record.Genre,
		AudioURL: record.AudioURL,
	}
}

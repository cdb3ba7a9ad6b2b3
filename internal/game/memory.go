package game

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. All methods serialize on one mutex.
type MemoryStore struct {
	mu          sync.Mutex
	nextGuessID uint
	sessions    map[string]*memorySession
}

type memorySession struct {
	session Session
	rounds  []Round
	players []Player
	guesses []Guess
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextGuessID: 1,
		sessions:    make(map[string]*memorySession),
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, session Session, rounds []Round, host Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return errors.New("session already exists")
	}
	record := &memorySession{
		session: session,
		rounds:  append([]Round(nil), rounds...),
		players: []Player{host},
	}
	sort.Slice(record.rounds, func(i, j int) bool {
		return record.rounds[i].Number < record.rounds[j].Number
	})
	s.sessions[session.ID] = record
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return record.session, nil
}

func (s *MemoryStore) GetRound(_ context.Context, sessionID string, number int) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return Round{}, ErrSessionNotFound
	}
	round := record.round(number)
	if round == nil {
		return Round{}, ErrRoundNotFound
	}
	return *round, nil
}

func (s *MemoryStore) ListRounds(_ context.Context, sessionID string) ([]Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return append([]Round(nil), record.rounds...), nil
}

func (s *MemoryStore) AddPlayer(_ context.Context, player Player, capacity int) (Player, bool, error) {
	created := false
	var result Player
	err := s.update(player.SessionID, func(record *memorySession) error {
		if record.session.Status.Terminal() {
			return ErrAlreadyFinished
		}
		if existing := record.player(player.PlayerID); existing != nil {
			result = *existing
			return nil
		}
		if capacity > 0 && len(record.players) >= capacity {
			return ErrSessionFull
		}
		record.players = append(record.players, player)
		result = player
		created = true
		return nil
	})
	return result, created, err
}

func (s *MemoryStore) GetPlayer(_ context.Context, sessionID, playerID string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return Player{}, ErrSessionNotFound
	}
	player := record.player(playerID)
	if player == nil {
		return Player{}, ErrPlayerNotFound
	}
	return *player, nil
}

func (s *MemoryStore) ListPlayers(_ context.Context, sessionID string) ([]Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return append([]Player(nil), record.players...), nil
}

func (s *MemoryStore) SetReady(_ context.Context, sessionID, playerID string, ready bool) (Player, error) {
	var result Player
	err := s.update(sessionID, func(record *memorySession) error {
		if record.session.Status.Terminal() {
			return ErrAlreadyFinished
		}
		player := record.player(playerID)
		if player == nil {
			return ErrPlayerNotFound
		}
		player.IsReady = ready
		result = *player
		return nil
	})
	return result, err
}

func (s *MemoryStore) RecordGuess(_ context.Context, guess Guess) (Guess, error) {
	err := s.update(guess.SessionID, func(record *memorySession) error {
		if err := playable(record.session); err != nil {
			return err
		}
		if record.round(guess.RoundNumber) == nil {
			return ErrRoundNotFound
		}
		for _, existing := range record.guesses {
			if existing.RoundNumber == guess.RoundNumber && existing.PlayerID == guess.PlayerID {
				return ErrDuplicateGuess
			}
		}
		player := record.player(guess.PlayerID)
		if player == nil {
			return ErrPlayerNotFound
		}
		guess.ID = s.nextGuessID
		s.nextGuessID++
		record.guesses = append(record.guesses, guess)
		if guess.PointsAwarded > 0 {
			player.Score += guess.PointsAwarded
		}
		return nil
	})
	if err != nil {
		return Guess{}, err
	}
	return guess, nil
}

func (s *MemoryStore) CountGuesses(_ context.Context, sessionID string, roundNumber int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return 0, ErrSessionNotFound
	}
	count := 0
	for _, guess := range record.guesses {
		if guess.RoundNumber == roundNumber {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListGuesses(_ context.Context, sessionID string) ([]Guess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return append([]Guess(nil), record.guesses...), nil
}

func (s *MemoryStore) AdvanceRound(_ context.Context, sessionID string, observed int, resolution Resolution, at time.Time) (Session, bool, error) {
	applied := false
	var result Session
	err := s.update(sessionID, func(record *memorySession) error {
		result = record.session
		if record.session.Status != StatusRunning || record.session.CurrentRound != observed {
			return nil
		}
		if round := record.round(observed); round != nil {
			resolvedAt := at
			round.Resolution = resolution
			round.ResolvedAt = &resolvedAt
		}
		record.session.CurrentRound++
		if record.session.CurrentRound > record.session.TotalRounds {
			endTime := at
			record.session.Status = StatusFinished
			record.session.Finished = true
			record.session.EndTime = &endTime
		}
		applied = true
		result = record.session
		return nil
	})
	return result, applied, err
}

func (s *MemoryStore) Transition(_ context.Context, sessionID string, from []Status, to Status, at time.Time) (Session, bool, error) {
	applied := false
	var result Session
	err := s.update(sessionID, func(record *memorySession) error {
		result = record.session
		if !statusIn(record.session.Status, from) {
			return nil
		}
		stamp := at
		record.session.Status = to
		switch to {
		case StatusRunning:
			record.session.StartTime = &stamp
		case StatusFinished:
			record.session.Finished = true
			record.session.EndTime = &stamp
		case StatusCancelled:
			record.session.EndTime = &stamp
		}
		applied = true
		result = record.session
		return nil
	})
	return result, applied, err
}

func (s *MemoryStore) update(sessionID string, apply func(record *memorySession) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	return apply(record)
}

func (r *memorySession) round(number int) *Round {
	for i := range r.rounds {
		if r.rounds[i].Number == number {
			return &r.rounds[i]
		}
	}
	return nil
}

func (r *memorySession) player(playerID string) *Player {
	for i := range r.players {
		if r.players[i].PlayerID == playerID {
			return &r.players[i]
		}
	}
	return nil
}

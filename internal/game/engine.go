package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Settings struct {
	MaxRounds      int
	MaxPlayers     int
	CatalogTimeout time.Duration
}

// Engine runs sessions: round sequencing, guess admission and scoring, the
// single round advance per round, and event publication.
type Engine struct {
	store    Store
	songs    SongPool
	notifier Notifier
	settings Settings
	now      func() time.Time
	newID    func() string
}

func NewEngine(store Store, songs SongPool, notifier Notifier, settings Settings) *Engine {
	if notifier == nil {
		notifier = Notifiers(nil)
	}
	return &Engine{
		store:    store,
		songs:    songs,
		notifier: notifier,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

type CreateSessionRequest struct {
	CreatorID   string
	TotalRounds int
	MaxPlayers  int
}

type GuessRequest struct {
	SessionID      string
	PlayerID       string
	RoundNumber    int
	GuessedSongID  string
	ReactionTimeMs *int
}

// SkipRequest skips the current round. PlayerID defaults to the session
// creator; a non-zero RoundNumber must match the current round.
type SkipRequest struct {
	SessionID   string
	PlayerID    string
	RoundNumber int
}

func (e *Engine) CreateSession(ctx context.Context, req CreateSessionRequest) (SessionCreated, error) {
	creatorID := strings.TrimSpace(req.CreatorID)
	if creatorID == "" {
		return SessionCreated{}, ErrInvalidPlayer
	}
	total := req.TotalRounds
	if total < 1 || (e.settings.MaxRounds > 0 && total > e.settings.MaxRounds) {
		return SessionCreated{}, fmt.Errorf("%w: %d", ErrInvalidRoundCount, total)
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers <= 0 || (e.settings.MaxPlayers > 0 && maxPlayers > e.settings.MaxPlayers) {
		maxPlayers = e.settings.MaxPlayers
	}

	sessionID := e.newID()
	sampleCtx := ctx
	cancel := func() {}
	if e.settings.CatalogTimeout > 0 {
		sampleCtx, cancel = context.WithTimeout(ctx, e.settings.CatalogTimeout)
	}
	rounds, err := BuildRounds(sampleCtx, e.songs, sessionID, total)
	cancel()
	if err != nil {
		log.Printf("session create failed creator_id=%s rounds=%d error=%v", creatorID, total, err)
		return SessionCreated{}, err
	}

	now := e.now()
	session := Session{
		ID:           sessionID,
		CreatorID:    creatorID,
		Status:       StatusPending,
		TotalRounds:  total,
		CurrentRound: 1,
		MaxPlayers:   maxPlayers,
		CreatedAt:    now,
	}
	host := Player{
		SessionID: sessionID,
		PlayerID:  creatorID,
		IsHost:    true,
		JoinedAt:  now,
	}
	if err := e.store.CreateSession(ctx, session, rounds, host); err != nil {
		log.Printf("session persist failed session_id=%s error=%v", sessionID, err)
		return SessionCreated{}, err
	}
	log.Printf("session created session_id=%s creator_id=%s rounds=%d max_players=%d", sessionID, creatorID, total, maxPlayers)
	return SessionCreated{SessionID: sessionID, TotalRounds: total, CreatedAt: now}, nil
}

func (e *Engine) JoinSession(ctx context.Context, sessionID, playerID string) (Player, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return Player{}, ErrInvalidPlayer
	}
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return Player{}, err
	}
	if session.Status.Terminal() {
		return Player{}, ErrAlreadyFinished
	}
	player, created, err := e.store.AddPlayer(ctx, Player{
		SessionID: sessionID,
		PlayerID:  playerID,
		JoinedAt:  e.now(),
	}, session.MaxPlayers)
	if err != nil {
		return Player{}, err
	}
	if created {
		log.Printf("player joined session_id=%s player_id=%s", sessionID, playerID)
	}
	return player, nil
}

func (e *Engine) SetReady(ctx context.Context, sessionID, playerID string, ready bool) (Player, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return Player{}, ErrInvalidPlayer
	}
	return e.store.SetReady(ctx, sessionID, playerID, ready)
}

// StartSession opens round 1. Only the session creator may start it.
func (e *Engine) StartSession(ctx context.Context, sessionID, playerID string) (Session, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return Session{}, ErrInvalidPlayer
	}
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if session.CreatorID != playerID {
		return Session{}, ErrNotHost
	}
	updated, applied, err := e.store.Transition(ctx, sessionID, []Status{StatusPending}, StatusRunning, e.now())
	if err != nil {
		return Session{}, err
	}
	if !applied {
		switch updated.Status {
		case StatusRunning:
			return Session{}, ErrSessionAlreadyStarted
		case StatusCancelled:
			return Session{}, ErrSessionCancelled
		default:
			return Session{}, ErrSessionFinished
		}
	}
	log.Printf("session started session_id=%s rounds=%d", sessionID, updated.TotalRounds)
	e.publishRound(updated)
	return updated, nil
}

// SubmitGuess scores a guess against the current round. A correct guess
// resolves the round; an incorrect one resolves it once every joined
// player has played it. When two guesses race to resolve the same round
// only one advances it; the other reports RoundAlreadyResolved.
func (e *Engine) SubmitGuess(ctx context.Context, req GuessRequest) (GuessResult, error) {
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		return GuessResult{}, ErrInvalidPlayer
	}
	if strings.TrimSpace(req.GuessedSongID) == "" {
		return GuessResult{}, ErrInvalidSong
	}
	if req.ReactionTimeMs != nil && *req.ReactionTimeMs < 0 {
		return GuessResult{}, ErrInvalidReactionTime
	}
	session, err := e.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return GuessResult{}, err
	}
	if err := playable(session); err != nil {
		return GuessResult{}, err
	}
	if _, err := e.store.GetPlayer(ctx, session.ID, playerID); err != nil {
		return GuessResult{}, err
	}
	if req.RoundNumber != session.CurrentRound {
		return GuessResult{}, fmt.Errorf("%w: round %d is active, got %d", ErrRoundMismatch, session.CurrentRound, req.RoundNumber)
	}
	round, err := e.store.GetRound(ctx, session.ID, session.CurrentRound)
	if err != nil {
		return GuessResult{}, err
	}

	correct := IsCorrect(req.GuessedSongID, round)
	points := Points(correct, req.ReactionTimeMs)
	now := e.now()
	if _, err := e.store.RecordGuess(ctx, Guess{
		SessionID:      session.ID,
		RoundNumber:    round.Number,
		PlayerID:       playerID,
		GuessedSongID:  req.GuessedSongID,
		Correct:        correct,
		ReactionTimeMs: req.ReactionTimeMs,
		PointsAwarded:  points,
		CreatedAt:      now,
	}); err != nil {
		return GuessResult{}, err
	}

	result := GuessResult{
		Correct:      correct,
		Points:       points,
		RoundNumber:  round.Number,
		CurrentRound: session.CurrentRound,
		TotalRounds:  session.TotalRounds,
	}
	resolves := correct
	if !correct {
		resolves = e.everyoneGuessed(ctx, session.ID, round.Number)
	}
	var advanced *Session
	if resolves {
		resolution := ResolutionGuessed
		if !correct {
			resolution = ResolutionMissed
		}
		updated, applied, err := e.store.AdvanceRound(ctx, session.ID, round.Number, resolution, now)
		if err != nil {
			return GuessResult{}, fmt.Errorf("advance round: %w", err)
		}
		result.RoundAdvanced = applied
		result.RoundAlreadyResolved = !applied
		result.CurrentRound = updated.CurrentRound
		result.GameOver = updated.Finished
		if applied {
			advanced = &updated
		}
	}
	log.Printf("guess recorded session_id=%s player_id=%s round=%d correct=%t points=%d advanced=%t", session.ID, playerID, round.Number, correct, points, result.RoundAdvanced)

	e.publish(session.ID, EventGuessResolved, GuessResolved{
		SessionID:     session.ID,
		PlayerID:      playerID,
		Correct:       correct,
		Points:        points,
		RoundNumber:   round.Number,
		TotalRounds:   session.TotalRounds,
		RoundAdvanced: result.RoundAdvanced,
	})
	if advanced != nil {
		e.publishAdvance(*advanced, GameOverCompleted)
	}
	return result, nil
}

// SkipRound records a skip penalty on the current round and resolves it.
// A player who already played the round gets no second record.
func (e *Engine) SkipRound(ctx context.Context, req SkipRequest) (SkipResult, error) {
	session, err := e.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return SkipResult{}, err
	}
	if err := playable(session); err != nil {
		return SkipResult{}, err
	}
	playerID := strings.TrimSpace(req.PlayerID)
	if playerID == "" {
		playerID = session.CreatorID
	}
	if _, err := e.store.GetPlayer(ctx, session.ID, playerID); err != nil {
		return SkipResult{}, err
	}
	if req.RoundNumber != 0 && req.RoundNumber != session.CurrentRound {
		return SkipResult{}, fmt.Errorf("%w: round %d is active, got %d", ErrRoundMismatch, session.CurrentRound, req.RoundNumber)
	}

	now := e.now()
	roundNumber := session.CurrentRound
	points := SkipPoints
	if _, err := e.store.RecordGuess(ctx, Guess{
		SessionID:     session.ID,
		RoundNumber:   roundNumber,
		PlayerID:      playerID,
		Skipped:       true,
		PointsAwarded: SkipPoints,
		CreatedAt:     now,
	}); err != nil {
		if !errors.Is(err, ErrDuplicateGuess) {
			return SkipResult{}, err
		}
		// The player already has a record for this round; the skip still closes it.
		points = 0
	}
	updated, applied, err := e.store.AdvanceRound(ctx, session.ID, roundNumber, ResolutionSkipped, now)
	if err != nil {
		return SkipResult{}, fmt.Errorf("advance round: %w", err)
	}
	result := SkipResult{
		RoundNumber:          roundNumber,
		Points:               points,
		RoundAdvanced:        applied,
		RoundAlreadyResolved: !applied,
		GameOver:             updated.Finished,
		CurrentRound:         updated.CurrentRound,
		TotalRounds:          updated.TotalRounds,
	}
	log.Printf("round skipped session_id=%s player_id=%s round=%d advanced=%t", session.ID, playerID, roundNumber, applied)

	e.publish(session.ID, EventGuessResolved, GuessResolved{
		SessionID:     session.ID,
		PlayerID:      playerID,
		Skipped:       true,
		Points:        points,
		RoundNumber:   roundNumber,
		TotalRounds:   session.TotalRounds,
		RoundAdvanced: applied,
	})
	if applied {
		e.publishAdvance(updated, GameOverCompleted)
	}
	return result, nil
}

// ExpireRound closes roundNumber when its time runs out. It is a no-op when
// the round has already been resolved or the session is not running.
func (e *Engine) ExpireRound(ctx context.Context, sessionID string, roundNumber int) (bool, error) {
	updated, applied, err := e.store.AdvanceRound(ctx, sessionID, roundNumber, ResolutionExpired, e.now())
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}
	log.Printf("round expired session_id=%s round=%d", sessionID, roundNumber)
	e.publishAdvance(updated, GameOverCompleted)
	return true, nil
}

// EndSession finishes the session. Ending a finished session returns the
// recorded result unchanged.
func (e *Engine) EndSession(ctx context.Context, sessionID string) (EndResult, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return EndResult{}, err
	}
	if session.Finished {
		return endResult(session), nil
	}
	if session.Status == StatusCancelled {
		return EndResult{}, ErrSessionCancelled
	}
	updated, applied, err := e.store.Transition(ctx, sessionID, []Status{StatusPending, StatusRunning}, StatusFinished, e.now())
	if err != nil {
		return EndResult{}, err
	}
	if !applied {
		if updated.Finished {
			return endResult(updated), nil
		}
		return EndResult{}, ErrSessionCancelled
	}
	log.Printf("session ended session_id=%s round=%d total_rounds=%d", sessionID, updated.CurrentRound, updated.TotalRounds)
	e.publishAdvance(updated, GameOverEnded)
	return endResult(updated), nil
}

// CancelSession abandons the session. Later guesses are rejected.
func (e *Engine) CancelSession(ctx context.Context, sessionID string) (Session, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	switch {
	case session.Status == StatusCancelled:
		return session, nil
	case session.Finished:
		return Session{}, ErrSessionFinished
	}
	updated, applied, err := e.store.Transition(ctx, sessionID, []Status{StatusPending, StatusRunning}, StatusCancelled, e.now())
	if err != nil {
		return Session{}, err
	}
	if !applied {
		if updated.Status == StatusCancelled {
			return updated, nil
		}
		return Session{}, ErrSessionFinished
	}
	log.Printf("session cancelled session_id=%s round=%d", sessionID, updated.CurrentRound)
	e.publishAdvance(updated, GameOverCancelled)
	return updated, nil
}

// Snapshot returns the session with its rounds and a leaderboard. Song ids
// of unresolved rounds are withheld.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	rounds, err := e.store.ListRounds(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	for i := range rounds {
		if !rounds[i].Resolved() {
			rounds[i].SongID = ""
		}
	}
	players, err := e.store.ListPlayers(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})
	return Snapshot{Session: session, Rounds: rounds, Players: players}, nil
}

func (e *Engine) everyoneGuessed(ctx context.Context, sessionID string, roundNumber int) bool {
	players, err := e.store.ListPlayers(ctx, sessionID)
	if err != nil {
		log.Printf("list players failed session_id=%s error=%v", sessionID, err)
		return false
	}
	count, err := e.store.CountGuesses(ctx, sessionID, roundNumber)
	if err != nil {
		log.Printf("count guesses failed session_id=%s round=%d error=%v", sessionID, roundNumber, err)
		return false
	}
	return count >= len(players)
}

// publishAdvance announces the state reached after a round advance or a
// status change: the next round, or the end of the game.
func (e *Engine) publishAdvance(session Session, reason string) {
	if session.Status.Terminal() {
		e.publish(session.ID, EventGameOver, GameOver{
			SessionID:   session.ID,
			TotalRounds: session.TotalRounds,
			EndTime:     endTime(session),
			Reason:      reason,
		})
		return
	}
	e.publishRound(session)
}

func (e *Engine) publishRound(session Session) {
	e.publish(session.ID, EventRoundStarted, RoundStarted{
		SessionID:   session.ID,
		RoundNumber: session.CurrentRound,
		TotalRounds: session.TotalRounds,
	})
}

func (e *Engine) publish(sessionID, eventType string, payload any) {
	if err := e.notifier.Publish(Topic(sessionID), eventType, payload); err != nil {
		log.Printf("notify failed session_id=%s event=%s error=%v", sessionID, eventType, err)
	}
}

func endResult(session Session) EndResult {
	return EndResult{
		SessionID:   session.ID,
		Finished:    session.Finished,
		TotalRounds: session.TotalRounds,
		EndTime:     endTime(session),
	}
}

func endTime(session Session) time.Time {
	if session.EndTime == nil {
		return time.Time{}
	}
	return *session.EndTime
}

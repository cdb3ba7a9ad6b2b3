package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"beat-chaser/internal/config"
	"beat-chaser/internal/db"
	"beat-chaser/internal/game"
)

func TestCreateSession(t *testing.T) {
	_, ts := newMemoryServer(t, 5)

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{"creator_id": "ada"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	assertString(t, body["session_id"])
	assertString(t, body["created_at"])
	if body["total_rounds"].(float64) != 3 {
		t.Fatalf("expected default 3 rounds, got %v", body["total_rounds"])
	}
}

func TestCreateSessionValidation(t *testing.T) {
	_, ts := newMemoryServer(t, 5)

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{"rounds": 2})
	assertErrorCode(t, resp, http.StatusBadRequest, "INVALID_REQUEST")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{"creator_id": "bad id!"})
	assertErrorCode(t, resp, http.StatusBadRequest, "INVALID_REQUEST")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{"creator_id": "ada", "rounds": 0})
	assertErrorCode(t, resp, http.StatusBadRequest, "INVALID_REQUEST")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{"creator_id": "ada", "rounds": 21})
	assertErrorCode(t, resp, http.StatusBadRequest, "INVALID_ROUND_COUNT")
}

func TestCreateSessionCatalogErrors(t *testing.T) {
	_, ts := newMemoryServer(t, 2)
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{"creator_id": "ada", "rounds": 3})
	assertErrorCode(t, resp, http.StatusUnprocessableEntity, "INSUFFICIENT_CATALOG")

	srv := New(nil, config.Default())
	empty := httptest.NewServer(srv.Handler())
	t.Cleanup(empty.Close)
	resp = doRequest(t, empty, http.MethodPost, "/api/sessions", map[string]any{"creator_id": "ada", "rounds": 1})
	assertErrorCode(t, resp, http.StatusUnprocessableEntity, "EMPTY_CATALOG")
}

func TestGetSessionNotFound(t *testing.T) {
	_, ts := newMemoryServer(t, 3)
	resp := doRequest(t, ts, http.MethodGet, "/api/sessions/missing", nil)
	assertErrorCode(t, resp, http.StatusNotFound, "SESSION_NOT_FOUND")
}

func TestSessionFlow(t *testing.T) {
	srv, ts := newMemoryServer(t, 6)
	sessionID := createSession(t, ts, "ada", 2)
	joinPlayer(t, ts, sessionID, "bob")

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/guesses", map[string]any{
		"player_id": "ada", "round_number": 1, "guessed_song_id": "song-1",
	})
	assertErrorCode(t, resp, http.StatusConflict, "SESSION_NOT_STARTED")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/start", map[string]string{"player_id": "bob"})
	assertErrorCode(t, resp, http.StatusConflict, "NOT_HOST")

	startSession(t, ts, sessionID, "ada")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/guesses", map[string]any{
		"player_id":        "ada",
		"round_number":     1,
		"guessed_song_id":  roundSong(t, srv, sessionID, 1),
		"reaction_time_ms": 2000,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["correct"] != true || body["points"].(float64) != 15 || body["round_advanced"] != true {
		t.Fatalf("unexpected guess response %#v", body)
	}
	if body["current_round"].(float64) != 2 || body["game_over"] != false {
		t.Fatalf("unexpected progression %#v", body)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/guesses", map[string]any{
		"player_id": "bob", "round_number": 1, "guessed_song_id": "song-1",
	})
	assertErrorCode(t, resp, http.StatusConflict, "ROUND_MISMATCH")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/skip", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body = decodeBody(t, resp)
	if body["game_over"] != true || body["points"].(float64) != game.SkipPoints || body["current_round"].(float64) != 3 {
		t.Fatalf("unexpected skip response %#v", body)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/"+sessionID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body = decodeBody(t, resp)
	session := body["session"].(map[string]any)
	if session["finished"] != true || session["status"] != "finished" {
		t.Fatalf("unexpected session %#v", session)
	}
	players := body["players"].([]any)
	leader := players[0].(map[string]any)
	if leader["player_id"] != "ada" || leader["score"].(float64) != 15 {
		t.Fatalf("unexpected leader %#v", leader)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/guesses", map[string]any{
		"player_id": "bob", "round_number": 3, "guessed_song_id": "song-1",
	})
	assertErrorCode(t, resp, http.StatusConflict, "SESSION_FINISHED")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/end", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	first := decodeBody(t, resp)
	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/end", nil)
	second := decodeBody(t, resp)
	if first["end_time"] != second["end_time"] || first["finished"] != true {
		t.Fatalf("expected idempotent end, got %#v and %#v", first, second)
	}
}

func TestGuessValidation(t *testing.T) {
	_, ts := newMemoryServer(t, 3)
	sessionID := createSession(t, ts, "ada", 1)
	startSession(t, ts, sessionID, "ada")

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/guesses", map[string]any{
		"player_id": "ada", "round_number": 1, "guessed_song_id": "song-1", "reaction_time_ms": -5,
	})
	assertErrorCode(t, resp, http.StatusBadRequest, "INVALID_REACTION_TIME")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/guesses", map[string]any{
		"player_id": "ada", "guessed_song_id": "song-1",
	})
	assertErrorCode(t, resp, http.StatusBadRequest, "INVALID_REQUEST")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/guesses", map[string]any{
		"player_id": "zed", "round_number": 1, "guessed_song_id": "song-1",
	})
	assertErrorCode(t, resp, http.StatusNotFound, "PLAYER_NOT_FOUND")
}

func TestJoinAndReady(t *testing.T) {
	_, ts := newMemoryServer(t, 3)
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{"creator_id": "ada", "rounds": 1, "max_players": 2})
	sessionID := decodeBody(t, resp)["session_id"].(string)

	joinPlayer(t, ts, sessionID, "bob")
	joinPlayer(t, ts, sessionID, "bob")
	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/join", map[string]string{"player_id": "cy"})
	assertErrorCode(t, resp, http.StatusConflict, "SESSION_FULL")

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/ready", map[string]any{"player_id": "bob", "ready": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["is_ready"] != true {
		t.Fatalf("expected ready player, got %#v", body)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/missing/join", map[string]string{"player_id": "bob"})
	assertErrorCode(t, resp, http.StatusNotFound, "SESSION_NOT_FOUND")
}

func TestCancelSession(t *testing.T) {
	_, ts := newMemoryServer(t, 3)
	sessionID := createSession(t, ts, "ada", 2)
	startSession(t, ts, sessionID, "ada")

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/cancel", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["status"] != "cancelled" {
		t.Fatalf("expected cancelled status, got %#v", body)
	}
	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/skip", map[string]any{"player_id": "ada"})
	assertErrorCode(t, resp, http.StatusConflict, "SESSION_CANCELLED")
	resp = doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/end", nil)
	assertErrorCode(t, resp, http.StatusConflict, "SESSION_CANCELLED")
}

func TestScoreboardView(t *testing.T) {
	srv, ts := newMemoryServer(t, 3)
	sessionID := createSession(t, ts, "ada", 2)
	startSession(t, ts, sessionID, "ada")
	song := roundSong(t, srv, sessionID, 1)
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/guesses", map[string]any{
		"player_id": "ada", "round_number": 1, "guessed_song_id": song,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, "/sessions/"+sessionID+"/scoreboard", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	html := string(data)
	number := strings.TrimPrefix(song, "song-")
	if !strings.Contains(html, "Title "+number+" - Artist "+number) {
		t.Fatalf("expected resolved song title in scoreboard")
	}
	if !strings.Contains(html, "Round 2 of 2") {
		t.Fatalf("expected round label in scoreboard")
	}

	resp = doRequest(t, ts, http.MethodGet, "/sessions/missing/scoreboard", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestEventsRequireDatabase(t *testing.T) {
	_, ts := newMemoryServer(t, 3)
	sessionID := createSession(t, ts, "ada", 1)
	resp := doRequest(t, ts, http.MethodGet, "/api/sessions/"+sessionID+"/events", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, resp.StatusCode)
	}
}

func TestEventJournalWithSQLite(t *testing.T) {
	cfg := config.Default()
	conn, err := db.Open("sqlite:"+t.TempDir()+"/server.sqlite3", false)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.LoadSongCatalog(conn, writeTestCatalog(t, 4)); err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	srv := New(conn, cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	sessionID := createSession(t, ts, "ada", 1)
	startSession(t, ts, sessionID, "ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/guesses", map[string]any{
		"player_id": "ada", "round_number": 1, "guessed_song_id": roundSong(t, srv, sessionID, 1),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/"+sessionID+"/events", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	events := decodeBody(t, resp)["events"].([]any)
	types := make([]string, 0, len(events))
	for _, raw := range events {
		types = append(types, raw.(map[string]any)["type"].(string))
	}
	want := []string{game.EventRoundStarted, game.EventGuessResolved, game.EventGameOver}
	if fmt.Sprint(types) != fmt.Sprint(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	last := events[len(events)-1].(map[string]any)["payload"].(map[string]any)
	if last["reason"] != game.GameOverCompleted {
		t.Fatalf("unexpected game over payload %#v", last)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/"+sessionID+"/events?limit=1000", nil)
	assertErrorCode(t, resp, http.StatusBadRequest, "INVALID_REQUEST")
}

func TestRoundTimerExpiresRound(t *testing.T) {
	cfg := testConfig(t, 3)
	cfg.RoundDurationSeconds = 1
	srv := New(nil, cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	sessionID := createSession(t, ts, "ada", 2)
	startSession(t, ts, sessionID, "ada")
	if !srv.timers.Pending(sessionID) {
		t.Fatal("expected round timer to be armed")
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := doRequest(t, ts, http.MethodGet, "/api/sessions/"+sessionID, nil)
		session := decodeBody(t, resp)["session"].(map[string]any)
		if session["current_round"].(float64) >= 2 {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("expected round 1 to expire")
}

func TestRoundTimersCancelOnGameOver(t *testing.T) {
	fired := make(chan int, 1)
	timers := newRoundTimers(time.Hour, func(_ string, round int) { fired <- round })
	_ = timers.Publish(game.Topic("s1"), game.EventRoundStarted, game.RoundStarted{SessionID: "s1", RoundNumber: 1})
	if !timers.Pending("s1") {
		t.Fatal("expected pending timer")
	}
	_ = timers.Publish(game.Topic("s1"), game.EventGameOver, game.GameOver{SessionID: "s1"})
	if timers.Pending("s1") {
		t.Fatal("expected timer to be cleared")
	}

	quick := newRoundTimers(10*time.Millisecond, func(_ string, round int) { fired <- round })
	_ = quick.Publish(game.Topic("s2"), game.EventRoundStarted, game.RoundStarted{SessionID: "s2", RoundNumber: 3})
	select {
	case round := <-fired:
		if round != 3 {
			t.Fatalf("expected round 3 expiry, got %d", round)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected timer to fire")
	}
}

func TestStatusForError(t *testing.T) {
	cases := map[error]int{
		game.ErrSessionNotFound:                        http.StatusNotFound,
		game.ErrRoundMismatch:                          http.StatusConflict,
		fmt.Errorf("%w: need 3", game.ErrEmptyCatalog): http.StatusUnprocessableEntity,
		game.ErrInvalidReactionTime:                    http.StatusBadRequest,
		errors.New("database is on fire"):              http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusForError(err); got != want {
			t.Fatalf("%v: expected %d, got %d", err, want, got)
		}
	}
}

func TestRoundTimersKeepLatestRound(t *testing.T) {
	fired := make(chan int, 2)
	timers := newRoundTimers(20*time.Millisecond, func(_ string, round int) { fired <- round })
	t.Cleanup(timers.StopAll)

	_ = timers.Publish(game.Topic("s1"), game.EventRoundStarted, game.RoundStarted{SessionID: "s1", RoundNumber: 3})
	_ = timers.Publish(game.Topic("s1"), game.EventRoundStarted, game.RoundStarted{SessionID: "s1", RoundNumber: 2})
	if got := timers.Round("s1"); got != 3 {
		t.Fatalf("expected timer for round 3, got %d", got)
	}
	select {
	case round := <-fired:
		if round != 3 {
			t.Fatalf("expected round 3 to expire, got %d", round)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected timer to fire")
	}
	select {
	case round := <-fired:
		t.Fatalf("unexpected second expiry for round %d", round)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBindErrorMessages(t *testing.T) {
	_, ts := newMemoryServer(t, 3)

	cases := []struct {
		name    string
		path    string
		payload any
		want    string
	}{
		{"wrong type", "/api/sessions", map[string]any{"creator_id": "ada", "rounds": "three"}, "rounds has the wrong type"},
		{"zero rounds", "/api/sessions", map[string]any{"creator_id": "ada", "rounds": 0}, "rounds must be at least 1"},
		{"missing creator", "/api/sessions", map[string]any{}, "creator_id is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, ts, http.MethodPost, tc.path, tc.payload)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
			}
			body := decodeBody(t, resp)
			if body["code"] != "INVALID_REQUEST" || body["error"] != tc.want {
				t.Fatalf("unexpected body %#v", body)
			}
		})
	}
}

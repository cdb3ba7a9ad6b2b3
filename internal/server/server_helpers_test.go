package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"beat-chaser/internal/config"
)

func writeTestCatalog(t *testing.T, songs int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,title,artist,genre,audio_url\n")
	for i := 1; i <= songs; i++ {
		fmt.Fprintf(&b, "song-%d,Title %d,Artist %d,pop,https://cdn.example.com/%d.mp3\n", i, i, i, i)
	}
	path := filepath.Join(t.TempDir(), "songs.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func testConfig(t *testing.T, songs int) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SongCatalogPath = writeTestCatalog(t, songs)
	return cfg
}

func newMemoryServer(t *testing.T, songs int) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(nil, testConfig(t, songs))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func createSession(t *testing.T, ts *httptest.Server, creator string, rounds int) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", map[string]any{
		"creator_id": creator,
		"rounds":     rounds,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["session_id"].(string)
}

func joinPlayer(t *testing.T, ts *httptest.Server, sessionID, playerID string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/join", map[string]string{
		"player_id": playerID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	resp.Body.Close()
}

func startSession(t *testing.T, ts *httptest.Server, sessionID, playerID string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions/"+sessionID+"/start", map[string]string{
		"player_id": playerID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	resp.Body.Close()
}

func roundSong(t *testing.T, srv *Server, sessionID string, number int) string {
	t.Helper()
	round, err := srv.store.GetRound(context.Background(), sessionID, number)
	if err != nil {
		t.Fatalf("get round: %v", err)
	}
	return round.SongID
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func assertString(t *testing.T, value any) {
	t.Helper()
	if _, ok := value.(string); !ok {
		t.Fatalf("expected string, got %T", value)
	}
}

func assertErrorCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["code"] != code {
		t.Fatalf("expected code %s, got %v", code, body["code"])
	}
	assertString(t, body["error"])
}

package web

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestScoreboardPageEscapesAndRanks(t *testing.T) {
	var buf bytes.Buffer
	err := ScoreboardPage(Scoreboard{
		SessionID:    "s1",
		Status:       "running",
		CurrentRound: 2,
		TotalRounds:  3,
		StartedAt:    "-",
		EndedAt:      "-",
		Players: []ScoreboardRow{
			{Rank: 1, PlayerID: "<ada>", Score: 15, IsHost: true},
			{Rank: 2, PlayerID: "bob", Score: 0},
		},
		Rounds: []ScoreboardRound{
			{Number: 1, SongTitle: "Song One", Resolution: "guessed"},
			{Number: 2, Resolution: "pending"},
		},
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"Round 2 of 3", "&lt;ada&gt;", "Song One", "???", `data-round="2"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output", want)
		}
	}
	if strings.Contains(html, "<ada>") {
		t.Fatal("expected player id to be escaped")
	}
}

func TestScoreboardFinishedLabel(t *testing.T) {
	if got := roundLabel(4, 3); got != "Finished after 3 rounds" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := FormatTime(nil); got != "-" {
		t.Fatalf("unexpected time %q", got)
	}
}

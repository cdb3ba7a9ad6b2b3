package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

func ScoreboardPage(data Scoreboard) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Beat Chaser scoreboard</title>
  </head>
  <body>
    <main class="shell">
      <header>
        <h1>Scoreboard</h1>
        <p class="session" data-session="`)
		b.WriteString(esc(data.SessionID))
		b.WriteString(`">`)
		b.WriteString(esc(roundLabel(data.CurrentRound, data.TotalRounds)))
		b.WriteString(` &middot; <span class="status">`)
		b.WriteString(esc(data.Status))
		b.WriteString(`</span></p>
        <p class="times">Started `)
		b.WriteString(esc(data.StartedAt))
		b.WriteString(` &middot; Ended `)
		b.WriteString(esc(data.EndedAt))
		b.WriteString(`</p>
      </header>
      <table class="players">
        <thead><tr><th>#</th><th>Player</th><th>Score</th></tr></thead>
        <tbody>
`)
		if len(data.Players) == 0 {
			b.WriteString(`          <tr><td colspan="3">No players yet.</td></tr>
`)
		}
		for _, row := range data.Players {
			b.WriteString(`          <tr><td>`)
			b.WriteString(itoa(row.Rank))
			b.WriteString(`</td><td>`)
			b.WriteString(esc(row.PlayerID))
			if row.IsHost {
				b.WriteString(` <span class="badge">host</span>`)
			}
			if row.IsReady {
				b.WriteString(` <span class="badge">ready</span>`)
			}
			b.WriteString(`</td><td>`)
			b.WriteString(itoa(row.Score))
			b.WriteString("</td></tr>\n")
		}
		b.WriteString(`        </tbody>
      </table>
      <ol class="rounds">
`)
		for _, round := range data.Rounds {
			b.WriteString(`        <li data-round="`)
			b.WriteString(itoa(round.Number))
			b.WriteString(`">`)
			if round.SongTitle != "" {
				b.WriteString(esc(round.SongTitle))
			} else {
				b.WriteString("???")
			}
			b.WriteString(` <span class="resolution">`)
			b.WriteString(esc(round.Resolution))
			b.WriteString("</span></li>\n")
		}
		b.WriteString(`      </ol>
    </main>
  </body>
</html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

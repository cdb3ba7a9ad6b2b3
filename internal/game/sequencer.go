package game

import (
	"context"
	"fmt"
)

// BuildRounds samples count songs and numbers them 1..count in sample order.
// The catalog must yield count distinct songs.
func BuildRounds(ctx context.Context, pool SongPool, sessionID string, count int) ([]Round, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRoundCount, count)
	}
	songs, err := pool.SampleSongs(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("sample songs: %w", err)
	}
	distinct := make([]Song, 0, len(songs))
	seen := make(map[string]struct{}, len(songs))
	for _, song := range songs {
		if song.ID == "" {
			continue
		}
		if _, dup := seen[song.ID]; dup {
			continue
		}
		seen[song.ID] = struct{}{}
		distinct = append(distinct, song)
	}
	if len(distinct) == 0 {
		return nil, ErrEmptyCatalog
	}
	if len(distinct) < count {
		return nil, fmt.Errorf("%w: found %d songs, need %d", ErrInsufficientCatalog, len(distinct), count)
	}
	rounds := make([]Round, 0, count)
	for i, song := range distinct[:count] {
		rounds = append(rounds, Round{
			SessionID:  sessionID,
			Number:     i + 1,
			SongID:     song.ID,
			Resolution: ResolutionPending,
		})
	}
	return rounds, nil
}

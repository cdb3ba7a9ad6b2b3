package game

import (
	"context"
	"math/rand"
	"sync"
)

// SongPool samples songs without replacement. Fewer than n songs are
// returned when the catalog is smaller than n.
type SongPool interface {
	SampleSongs(ctx context.Context, n int) ([]Song, error)
}

// StaticCatalog is an in-memory SongPool.
type StaticCatalog struct {
	mu    sync.RWMutex
	songs []Song
}

func NewStaticCatalog(songs []Song) *StaticCatalog {
	c := &StaticCatalog{}
	c.Add(songs...)
	return c
}

func (c *StaticCatalog) Add(songs ...Song) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.songs = append(c.songs, songs...)
}

func (c *StaticCatalog) Lookup(id string) (Song, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, song := range c.songs {
		if song.ID == id {
			return song, true
		}
	}
	return Song{}, false
}

func (c *StaticCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.songs)
}

func (c *StaticCatalog) SampleSongs(ctx context.Context, n int) ([]Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	c.mu.RLock()
	order := rand.Perm(len(c.songs))
	if n > len(order) {
		n = len(order)
	}
	sample := make([]Song, 0, n)
	for _, idx := range order[:n] {
		sample = append(sample, c.songs[idx])
	}
	c.mu.RUnlock()
	return sample, nil
}

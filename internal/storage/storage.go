package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/minesweeper-client/pkg/minesweeper"
)

// Package storage keeps the last snapshot seen for each game.

// Store caches game snapshots by id.
type Store interface {
	Close() error
	SaveGame(game minesweeper.Game) error
	Game(id int) (minesweeper.Game, bool, error)
	Games() ([]minesweeper.Game, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	GameTTL         time.Duration
	CleanupInterval time.Duration
}

const (
	defaultGameTTL         = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.GameTTL <= 0 {
		opts.GameTTL = defaultGameTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                             { return nil }
func (noopStore) SaveGame(minesweeper.Game) error          { return nil }
func (noopStore) Game(int) (minesweeper.Game, bool, error) { return minesweeper.Game{}, false, nil }
func (noopStore) Games() ([]minesweeper.Game, error)       { return nil, nil }

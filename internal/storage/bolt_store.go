package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/minesweeper-client/pkg/minesweeper"
	bolt "go.etcd.io/bbolt"
)

const (
	gameBucket       = "games"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB. Values are an 8-byte big-endian
// unix expiry followed by the JSON snapshot.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	gameTTL         time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(gameBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		gameTTL:         opts.GameTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SaveGame stores the snapshot, replacing any previous one for the same id.
func (b *boltStore) SaveGame(game minesweeper.Game) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game %d: %w", game.ID, err)
	}
	value := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(value, uint64(now.Add(b.gameTTL).Unix()))
	value = append(value, payload...)

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket missing")
		}
		return bucket.Put(gameKey(game.ID), value)
	})
}

// Game returns the cached snapshot for id. Expired entries are removed and reported as missing.
func (b *boltStore) Game(id int) (minesweeper.Game, bool, error) {
	if b == nil || b.db == nil {
		return minesweeper.Game{}, false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return minesweeper.Game{}, false, err
	}

	var (
		game  minesweeper.Game
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket missing")
		}

		key := gameKey(id)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		g, ok := decodeEntry(value, now)
		if !ok {
			return bucket.Delete(key)
		}
		game, found = g, true
		return nil
	})
	return game, found, err
}

// Games returns every live snapshot ordered by id.
func (b *boltStore) Games() ([]minesweeper.Game, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	var games []minesweeper.Game
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket missing")
		}
		return bucket.ForEach(func(_, v []byte) error {
			if g, ok := decodeEntry(v, now); ok {
				games = append(games, g)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

// maybeCleanupExpired removes expired snapshots on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(gameBucket))
		if bucket == nil {
			return fmt.Errorf("game bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func gameKey(id int) []byte {
	return []byte(strconv.Itoa(id))
}

// decodeEntry returns the snapshot when the entry is well formed and not expired.
func decodeEntry(value []byte, now time.Time) (minesweeper.Game, bool) {
	expiry, ok := decodeExpiry(value)
	if !ok || !expiry.After(now) {
		return minesweeper.Game{}, false
	}
	var game minesweeper.Game
	if err := json.Unmarshal(value[expiryValueBytes:], &game); err != nil {
		return minesweeper.Game{}, false
	}
	return game, true
}

// decodeExpiry decodes the expiry time from the head of the stored value.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}

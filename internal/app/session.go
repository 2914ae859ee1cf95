package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/minesweeper-client/internal/config"
	"github.com/samvad-hq/minesweeper-client/internal/logger"
	"github.com/samvad-hq/minesweeper-client/internal/storage"
	"github.com/samvad-hq/minesweeper-client/pkg/minesweeper"
	"github.com/samvad-hq/minesweeper-client/pkg/publishers"
)

// Session wraps the API client with the local snapshot cache and event publishers.
// Every successful game operation records the returned snapshot and publishes an event;
// cache and publish failures are logged, never returned.
type Session struct {
	client *minesweeper.Client
	store  storage.Store
	fanout *publishers.Fanout
	log    logger.Logger
}

// NewSession builds a session runtime from config.
func NewSession(ctx context.Context, cfg *config.Config, log logger.Logger) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := minesweeper.NewClient(minesweeper.ClientConfig{
		BaseURL: cfg.APIBaseURL,
		Credentials: minesweeper.Credentials{
			User:     cfg.APIUser,
			Password: cfg.APIPassword,
		},
		Timeout: cfg.HTTPTimeout,
		Logger:  log,
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		GameTTL:         cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.DebugObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"game_ttl_seconds":         int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return NewSessionWith(client, store, fanout, log), nil
}

// NewSessionWith assembles a session from already built parts. store and fanout may be nil.
func NewSessionWith(client *minesweeper.Client, store storage.Store, fanout *publishers.Fanout, log logger.Logger) *Session {
	if log == nil {
		log = logger.NopLogger{}
	}
	if store == nil {
		store, _ = storage.NewStore("none", "", storage.Options{})
	}
	return &Session{client: client, store: store, fanout: fanout, log: log}
}

// buildFanout loads publishers from path; an empty path disables publishing.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()

	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.DebugObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Client exposes the underlying API client.
func (s *Session) Client() *minesweeper.Client { return s.client }

// SetCredentials replaces the credentials used by subsequent calls.
func (s *Session) SetCredentials(creds minesweeper.Credentials) {
	s.client.SetCredentials(creds)
}

// ListGames lists games and refreshes the cache with every snapshot.
func (s *Session) ListGames(ctx context.Context) ([]minesweeper.Game, error) {
	games, err := s.client.ListGames(ctx)
	if err != nil {
		return nil, s.failed("list_games", err)
	}
	for _, g := range games {
		s.remember(g)
	}
	return games, nil
}

// GetGame fetches one game and refreshes its cached snapshot.
func (s *Session) GetGame(ctx context.Context, id int) (*minesweeper.Game, error) {
	game, err := s.client.GetGame(ctx, id)
	if err != nil {
		return nil, s.failed("get_game", err)
	}
	s.remember(*game)
	return game, nil
}

// CreateGame starts a new game.
func (s *Session) CreateGame(ctx context.Context, settings minesweeper.Settings) (*minesweeper.Game, error) {
	game, err := s.client.CreateGame(ctx, settings)
	return s.mutated(ctx, publishers.OpCreateGame, game, err)
}

// PauseResume pauses or resumes a game.
func (s *Session) PauseResume(ctx context.Context, id int, action minesweeper.Action) (*minesweeper.Game, error) {
	game, err := s.client.PauseResume(ctx, id, action)
	return s.mutated(ctx, publishers.OpPauseResume, game, err)
}

// SetFlag flags one square.
func (s *Session) SetFlag(ctx context.Context, id, column, row int, flagType string) (*minesweeper.Game, error) {
	game, err := s.client.SetFlag(ctx, id, column, row, flagType)
	return s.mutated(ctx, publishers.OpSetFlag, game, err)
}

// Reveal opens one square.
func (s *Session) Reveal(ctx context.Context, id, column, row int) (*minesweeper.Game, error) {
	game, err := s.client.Reveal(ctx, id, column, row)
	return s.mutated(ctx, publishers.OpReveal, game, err)
}

// CreateUser registers an account. The Game-shaped answer is published but not cached.
func (s *Session) CreateUser(ctx context.Context, account minesweeper.UserAccount) (*minesweeper.Game, error) {
	game, err := s.client.CreateUser(ctx, account)
	if err != nil {
		return nil, s.failed(publishers.OpCreateUser, err)
	}
	s.publish(ctx, publishers.OpCreateUser, *game)
	return game, nil
}

// CachedGame returns the last snapshot seen for id without contacting the server.
func (s *Session) CachedGame(id int) (minesweeper.Game, bool, error) {
	return s.store.Game(id)
}

// CachedGames returns every cached snapshot ordered by id.
func (s *Session) CachedGames() ([]minesweeper.Game, error) {
	return s.store.Games()
}

// Close releases the cache and publishers.
func (s *Session) Close() error {
	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	if err := s.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Session) mutated(ctx context.Context, op string, game *minesweeper.Game, err error) (*minesweeper.Game, error) {
	if err != nil {
		return nil, s.failed(op, err)
	}
	s.remember(*game)
	s.publish(ctx, op, *game)
	return game, nil
}

func (s *Session) remember(game minesweeper.Game) {
	if err := s.store.SaveGame(game); err != nil {
		s.log.ErrorObj("cache game snapshot failed", "storage_error", map[string]any{
			"game_id": game.ID,
			"error":   err.Error(),
		})
	}
}

func (s *Session) publish(ctx context.Context, op string, game minesweeper.Game) {
	if s.fanout.Size() == 0 {
		return
	}
	evt := publishers.NewEvent(op, s.client.Credentials().User, game)
	delivered, err := s.fanout.Publish(ctx, evt)
	if err != nil {
		s.log.ErrorObj("game event publish failed", "publish_error", map[string]any{
			"operation": op,
			"game_id":   game.ID,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	s.log.DebugObj("game event published", "publish_result", map[string]any{
		"operation": op,
		"game_id":   game.ID,
		"delivered": delivered,
	})
}

func (s *Session) failed(op string, err error) error {
	s.log.InfoObj("game operation failed", "operation_error", map[string]any{
		"operation": op,
		"kind":      minesweeper.KindOf(err).String(),
		"error":     err.Error(),
	})
	return err
}

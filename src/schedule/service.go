package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apimgr/prospects/src/cache"
	"github.com/apimgr/prospects/src/logging"
	"github.com/apimgr/prospects/src/model"
	"github.com/apimgr/prospects/src/resolve"
)

// Store persists the merged schedule between restarts.
type Store interface {
	ReplaceGames(ctx context.Context, games []model.Game) error
	ListGames(ctx context.Context) ([]model.Game, error)
}

// Snapshot is an immutable view of the merged schedule and the catalogs
// built from it. Resolvers receive catalogs from here and never mutate them.
type Snapshot struct {
	Games       []model.Game
	Teams       []resolve.TeamItem
	Prospects   []resolve.ProspectItem
	Providers   []string
	RefreshedAt time.Time
}

// ServiceConfig holds refresh behavior.
type ServiceConfig struct {
	FetchTimeout time.Duration
}

// Service owns the current snapshot and refreshes it from providers.
type Service struct {
	mu       sync.RWMutex
	cfg      ServiceConfig
	registry *Registry
	resolver *resolve.Resolver
	store    Store
	cache    cache.Cache
	log      *logging.ServerLogger
	snapshot *Snapshot
}

// NewService creates a schedule service. store, cache, and log may be nil.
func NewService(cfg ServiceConfig, registry *Registry, resolver *resolve.Resolver, store Store, c cache.Cache, log *logging.ServerLogger) *Service {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 60 * time.Second
	}
	return &Service{
		cfg:      cfg,
		registry: registry,
		resolver: resolver,
		store:    store,
		cache:    c,
		log:      log,
	}
}

// Refresh fetches all enabled providers concurrently, merges their games,
// rebuilds catalogs, and swaps in the new snapshot. A provider failure skips
// that provider; Refresh fails only when no provider is available.
func (s *Service) Refresh(ctx context.Context) error {
	providers := s.registry.Enabled()
	if len(providers) == 0 {
		return model.ErrNoProviders
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	type fetchResult struct {
		name  string
		games []model.Game
		err   error
	}

	resultsChan := make(chan fetchResult, len(providers))
	var wg sync.WaitGroup

	for _, p := range providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			games, err := p.Fetch(fetchCtx)
			resultsChan <- fetchResult{name: p.Name(), games: games, err: err}
		}(p)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	byProvider := make(map[string][]model.Game)
	for result := range resultsChan {
		if result.err != nil {
			s.logWarn("provider fetch failed", map[string]interface{}{
				"provider": result.name,
				"error":    result.err.Error(),
			})
			continue
		}
		byProvider[result.name] = result.games
	}

	// Merge in registration order so results are deterministic regardless of
	// which fetch finished first.
	var games []model.Game
	var used []string
	for _, p := range providers {
		fetched, ok := byProvider[p.Name()]
		if !ok {
			continue
		}
		games = mergeGames(games, fetched)
		used = append(used, p.Name())
	}
	if len(used) == 0 {
		return fmt.Errorf("all providers failed: %w", model.ErrProviderUnavailable)
	}

	snap := s.buildSnapshot(games, used)

	if s.store != nil {
		if err := s.store.ReplaceGames(ctx, games); err != nil {
			s.logWarn("failed to persist schedule", map[string]interface{}{"error": err.Error()})
		}
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, "suggest:")
		s.cache.Invalidate(ctx, "schedule:")
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logInfo("schedule refreshed", map[string]interface{}{
		"games":     len(games),
		"teams":     len(snap.Teams),
		"prospects": len(snap.Prospects),
		"providers": len(used),
	})
	return nil
}

// mergeGames folds fetched games into the merged list. The first game seen
// for a (date, home, away) key owns the slot; later games only fill a
// missing tipoff time, venue, or player lists. Dates and opponents of an
// owned slot never change.
func mergeGames(merged, fetched []model.Game) []model.Game {
	index := make(map[string]int, len(merged))
	for i, g := range merged {
		index[g.Key()] = i
	}

	for _, g := range fetched {
		pos, ok := index[g.Key()]
		if !ok {
			index[g.Key()] = len(merged)
			merged = append(merged, g)
			continue
		}

		slot := &merged[pos]
		if slot.Tipoff == "" && g.Tipoff != "" {
			slot.Tipoff = g.Tipoff
		}
		if slot.Venue == "" && g.Venue != "" {
			slot.Venue = g.Venue
		}
		if len(slot.Players) == 0 && len(g.Players) > 0 {
			slot.Players = g.Players
		}
		if len(slot.HomePlayers) == 0 && len(g.HomePlayers) > 0 {
			slot.HomePlayers = g.HomePlayers
		}
		if len(slot.AwayPlayers) == 0 && len(g.AwayPlayers) > 0 {
			slot.AwayPlayers = g.AwayPlayers
		}
	}
	return merged
}

func (s *Service) buildSnapshot(games []model.Game, providers []string) *Snapshot {
	return &Snapshot{
		Games:       games,
		Teams:       s.resolver.BuildTeamCatalog(games),
		Prospects:   s.resolver.BuildProspectCatalog(games),
		Providers:   providers,
		RefreshedAt: time.Now(),
	}
}

// LoadFromStore warms the snapshot from the persisted schedule, so searches
// work before the first refresh completes.
func (s *Service) LoadFromStore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		return nil
	}

	snap := s.buildSnapshot(games, nil)
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logInfo("schedule loaded from database", map[string]interface{}{"games": len(games)})
	return nil
}

// Snapshot returns the current snapshot, or ErrNoSnapshot before the first
// refresh or load.
func (s *Service) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, model.ErrNoSnapshot
	}
	return s.snapshot, nil
}

// GamesForTeam returns the games where the given canon key plays, in
// snapshot order.
func (s *Service) GamesForTeam(canon string) ([]model.Game, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	var out []model.Game
	for _, g := range snap.Games {
		if g.HomeCanon == canon || g.AwayCanon == canon {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Service) logInfo(msg string, fields map[string]interface{}) {
	if s.log != nil {
		s.log.Info(msg, fields)
	}
}

func (s *Service) logWarn(msg string, fields map[string]interface{}) {
	if s.log != nil {
		s.log.Warn(msg, fields)
	}
}

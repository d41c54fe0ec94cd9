package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/apimgr/prospects/src/cache"
	"github.com/apimgr/prospects/src/model"
	"github.com/apimgr/prospects/src/resolve"
)

// stubProvider is a scripted provider for service tests.
type stubProvider struct {
	name    string
	games   []model.Game
	err     error
	delay   time.Duration
	enabled bool
}

func (p *stubProvider) Name() string    { return p.name }
func (p *stubProvider) League() string  { return "NCAA" }
func (p *stubProvider) IsEnabled() bool { return p.enabled }

func (p *stubProvider) Fetch(ctx context.Context) ([]model.Game, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.games, p.err
}

// memStore keeps the persisted schedule in memory.
type memStore struct {
	games []model.Game
}

func (s *memStore) ReplaceGames(ctx context.Context, games []model.Game) error {
	s.games = append([]model.Game(nil), games...)
	return nil
}

func (s *memStore) ListGames(ctx context.Context) ([]model.Game, error) {
	return s.games, nil
}

func game(date time.Time, home, away, tipoff string) model.Game {
	g := model.Game{
		League:    "NCAA",
		Date:      date,
		Tipoff:    tipoff,
		HomeTeam:  home,
		AwayTeam:  away,
		HomeCanon: resolve.Plain(home),
		AwayCanon: resolve.Plain(away),
	}
	g.ID = g.Key()
	return g
}

func newTestService(t *testing.T, store Store, c cache.Cache, providers ...Provider) *Service {
	t.Helper()
	registry := NewRegistry()
	for _, p := range providers {
		registry.Register(p)
	}
	return NewService(ServiceConfig{FetchTimeout: 2 * time.Second}, registry, resolve.New(resolve.Options{}), store, c, nil)
}

func TestRefreshNoProviders(t *testing.T) {
	s := newTestService(t, nil, nil)
	if err := s.Refresh(context.Background()); err != model.ErrNoProviders {
		t.Errorf("Refresh() error = %v, want ErrNoProviders", err)
	}
}

func TestSnapshotBeforeRefresh(t *testing.T) {
	s := newTestService(t, nil, nil, &stubProvider{name: "a", enabled: true})
	if _, err := s.Snapshot(); err != model.ErrNoSnapshot {
		t.Errorf("Snapshot() error = %v, want ErrNoSnapshot", err)
	}
}

func TestRefreshMergeFirstProviderWinsSlot(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	primary := &stubProvider{
		name:    "primary",
		enabled: true,
		// Slow fetch: registration order must still decide merge priority.
		delay: 50 * time.Millisecond,
		games: []model.Game{game(day, "Kansas", "Duke", "")},
	}
	secondary := &stubProvider{
		name:    "secondary",
		enabled: true,
		games: []model.Game{
			func() model.Game {
				g := game(day, "Kansas", "Duke", "7:00 PM ET")
				g.Venue = "Allen Fieldhouse"
				g.HomePlayers = []model.Player{{Name: "Darryn Peterson", Canon: "darrynpeterson", Rank: 1}}
				return g
			}(),
			game(day.AddDate(0, 0, 1), "Gonzaga", "Baylor", "9:00 PM ET"),
		},
	}

	s := newTestService(t, nil, nil, primary, secondary)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Games) != 2 {
		t.Fatalf("merged %d games, want 2", len(snap.Games))
	}

	kansas := snap.Games[0]
	if kansas.HomeCanon != "kansas" {
		t.Errorf("first game = %s, want primary provider's kansas game first", kansas.HomeCanon)
	}
	// The secondary provider fills what the slot owner left empty.
	if kansas.Tipoff != "7:00 PM ET" {
		t.Errorf("Tipoff = %q, want filled from secondary", kansas.Tipoff)
	}
	if kansas.Venue != "Allen Fieldhouse" {
		t.Errorf("Venue = %q, want filled from secondary", kansas.Venue)
	}
	if len(kansas.HomePlayers) != 1 {
		t.Errorf("HomePlayers = %+v, want filled from secondary", kansas.HomePlayers)
	}

	if len(snap.Providers) != 2 {
		t.Errorf("Providers = %v, want both recorded", snap.Providers)
	}
}

func TestRefreshMergeKeepsSlotTipoff(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	first := &stubProvider{name: "a", enabled: true,
		games: []model.Game{game(day, "Kansas", "Duke", "6:00 PM ET")}}
	second := &stubProvider{name: "b", enabled: true,
		games: []model.Game{game(day, "Kansas", "Duke", "9:00 PM ET")}}

	s := newTestService(t, nil, nil, first, second)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	snap, _ := s.Snapshot()
	if snap.Games[0].Tipoff != "6:00 PM ET" {
		t.Errorf("Tipoff = %q, want slot owner's 6:00 PM ET kept", snap.Games[0].Tipoff)
	}
}

func TestRefreshSkipsFailingProvider(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	bad := &stubProvider{name: "bad", enabled: true, err: errors.New("boom")}
	good := &stubProvider{name: "good", enabled: true,
		games: []model.Game{game(day, "Kansas", "Duke", "")}}

	s := newTestService(t, nil, nil, bad, good)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	snap, _ := s.Snapshot()
	if len(snap.Games) != 1 {
		t.Errorf("merged %d games, want 1 from the healthy provider", len(snap.Games))
	}
	if len(snap.Providers) != 1 || snap.Providers[0] != "good" {
		t.Errorf("Providers = %v, want [good]", snap.Providers)
	}
}

func TestRefreshAllProvidersFail(t *testing.T) {
	bad := &stubProvider{name: "bad", enabled: true, err: errors.New("boom")}
	s := newTestService(t, nil, nil, bad)

	err := s.Refresh(context.Background())
	if !errors.Is(err, model.ErrProviderUnavailable) {
		t.Errorf("Refresh() error = %v, want ErrProviderUnavailable", err)
	}
}

func TestRefreshIgnoresDisabledProviders(t *testing.T) {
	disabled := &stubProvider{name: "off", enabled: false,
		games: []model.Game{game(time.Now(), "Kansas", "Duke", "")}}
	s := newTestService(t, nil, nil, disabled)

	if err := s.Refresh(context.Background()); err != model.ErrNoProviders {
		t.Errorf("Refresh() error = %v, want ErrNoProviders", err)
	}
}

func TestRefreshBuildsCatalogs(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	g := game(day, "Kansas", "Duke", "")
	g.Players = []model.Player{{Name: "AJ Dybantsa", Canon: "ajdybantsa", Rank: 2}}
	p := &stubProvider{name: "a", enabled: true, games: []model.Game{g}}

	s := newTestService(t, nil, nil, p)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	snap, _ := s.Snapshot()
	if len(snap.Teams) != 2 {
		t.Errorf("Teams = %d, want 2", len(snap.Teams))
	}
	if len(snap.Prospects) != 1 || snap.Prospects[0].Canon != "ajdybantsa" {
		t.Errorf("Prospects = %+v, want Dybantsa", snap.Prospects)
	}
}

func TestRefreshPersistsAndInvalidates(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	store := &memStore{}
	c := cache.NewMemory(100, time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "suggest:kan", []byte("stale"), time.Minute)
	c.Set(ctx, "other:key", []byte("kept"), time.Minute)

	p := &stubProvider{name: "a", enabled: true,
		games: []model.Game{game(day, "Kansas", "Duke", "")}}
	s := newTestService(t, store, c, p)

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if len(store.games) != 1 {
		t.Errorf("store has %d games, want 1", len(store.games))
	}
	if _, err := c.Get(ctx, "suggest:kan"); err != cache.ErrMiss {
		t.Error("suggest cache should be invalidated on refresh")
	}
	if _, err := c.Get(ctx, "other:key"); err != nil {
		t.Errorf("unrelated cache key should survive, got %v", err)
	}
}

func TestLoadFromStore(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	store := &memStore{games: []model.Game{game(day, "Kansas", "Duke", "7:00 PM ET")}}

	s := newTestService(t, store, nil)
	if err := s.LoadFromStore(context.Background()); err != nil {
		t.Fatalf("LoadFromStore() error = %v", err)
	}

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(snap.Games) != 1 || len(snap.Teams) != 2 {
		t.Errorf("snapshot = %d games / %d teams, want 1 / 2", len(snap.Games), len(snap.Teams))
	}
}

func TestGamesForTeam(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	p := &stubProvider{name: "a", enabled: true, games: []model.Game{
		game(day, "Kansas", "Duke", ""),
		game(day.AddDate(0, 0, 1), "Gonzaga", "Kansas", ""),
		game(day.AddDate(0, 0, 2), "Baylor", "Duke", ""),
	}}

	s := newTestService(t, nil, nil, p)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	games, err := s.GamesForTeam("kansas")
	if err != nil {
		t.Fatalf("GamesForTeam() error = %v", err)
	}
	if len(games) != 2 {
		t.Errorf("GamesForTeam(kansas) = %d games, want 2", len(games))
	}
}

func TestRegistryReplaceAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{name: "a", enabled: true})
	r.Register(&stubProvider{name: "b", enabled: false})
	r.Register(&stubProvider{name: "a", enabled: false}) // replaces in place

	if len(r.All()) != 2 {
		t.Errorf("All() = %d providers, want 2", len(r.All()))
	}
	if len(r.Enabled()) != 0 {
		t.Errorf("Enabled() = %d, want 0 after replacement", len(r.Enabled()))
	}

	if _, err := r.Get("a"); err != nil {
		t.Errorf("Get(a) error = %v", err)
	}
	if _, err := r.Get("missing"); err != model.ErrProviderNotFound {
		t.Errorf("Get(missing) error = %v, want ErrProviderNotFound", err)
	}
}

package providers

import (
	"context"
	"time"

	"github.com/apimgr/prospects/src/config"
	"github.com/apimgr/prospects/src/model"
	"github.com/apimgr/prospects/src/resolve"
)

// Fixture serves a small static schedule for development and tests.
type Fixture struct {
	name    string
	league  string
	enabled bool
	games   []model.Game
}

// NewFixture creates a fixture provider with the built-in sample schedule.
func NewFixture(cfg config.ProviderConfig) *Fixture {
	league := cfg.League
	if league == "" {
		league = "NCAA"
	}
	return &Fixture{
		name:    cfg.Name,
		league:  league,
		enabled: cfg.IsEnabled(),
		games:   sampleGames(league),
	}
}

// NewFixtureWithGames creates a fixture provider serving the given games.
func NewFixtureWithGames(name, league string, games []model.Game) *Fixture {
	return &Fixture{name: name, league: league, enabled: true, games: games}
}

// Name returns the provider name.
func (p *Fixture) Name() string { return p.name }

// League returns the league label.
func (p *Fixture) League() string { return p.league }

// IsEnabled reports whether the provider is enabled.
func (p *Fixture) IsEnabled() bool { return p.enabled }

// Fetch returns copies of the static games.
func (p *Fixture) Fetch(ctx context.Context) ([]model.Game, error) {
	out := make([]model.Game, len(p.games))
	copy(out, p.games)
	return out, nil
}

func sampleGames(league string) []model.Game {
	mk := func(date time.Time, home, away, tipoff string, players ...model.Player) model.Game {
		g := model.Game{
			League:    league,
			Date:      date,
			Tipoff:    tipoff,
			HomeTeam:  home,
			AwayTeam:  away,
			HomeCanon: resolve.Plain(home),
			AwayCanon: resolve.Plain(away),
			Players:   players,
		}
		g.ID = g.Key()
		return g
	}

	season := time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)
	return []model.Game{
		mk(season, "Kansas", "North Carolina", "7:00 PM ET",
			model.Player{Name: "Darryn Peterson", Canon: "darrynpeterson", Rank: 1, Team: "Kansas"}),
		mk(season.AddDate(0, 0, 1), "BYU", "Duke", "9:30 PM ET",
			model.Player{Name: "AJ Dybantsa", Canon: "ajdybantsa", Rank: 2, Team: "BYU"}),
		mk(season.AddDate(0, 0, 2), "Gonzaga", "Baylor", ""),
	}
}

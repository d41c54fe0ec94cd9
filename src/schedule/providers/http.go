// Package providers contains the schedule provider implementations.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/apimgr/prospects/src/common/version"
	"github.com/apimgr/prospects/src/config"
	"github.com/apimgr/prospects/src/model"
	"github.com/apimgr/prospects/src/resolve"
	"github.com/apimgr/prospects/src/schedule"
)

// defaultTimezone is the display timezone for tipoff times.
const defaultTimezone = "America/New_York"

// wirePlayer is the provider feed shape for a prospect.
type wirePlayer struct {
	Name string `json:"name"`
	Rank int    `json:"rank,omitempty"`
	Team string `json:"team,omitempty"`
}

// wireGame is the provider feed shape for a game. Tipoff may arrive either
// as a preformatted display string or as an RFC 3339 UTC instant.
type wireGame struct {
	Date        string       `json:"date"` // 2006-01-02
	Tipoff      string       `json:"tipoff,omitempty"`
	TipoffUTC   string       `json:"tipoff_utc,omitempty"`
	Venue       string       `json:"venue,omitempty"`
	HomeTeam    string       `json:"home_team"`
	AwayTeam    string       `json:"away_team"`
	Players     []wirePlayer `json:"players,omitempty"`
	HomePlayers []wirePlayer `json:"home_players,omitempty"`
	AwayPlayers []wirePlayer `json:"away_players,omitempty"`
}

// HTTP fetches a JSON schedule feed.
type HTTP struct {
	name     string
	league   string
	url      string
	enabled  bool
	location *time.Location
	client   *http.Client
}

// NewHTTP creates an HTTP provider from config.
func NewHTTP(cfg config.ProviderConfig) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("provider %s: URL is required", cfg.Name)
	}

	tz := cfg.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("provider %s: bad timezone %q: %w", cfg.Name, tz, err)
	}

	return &HTTP{
		name:     cfg.Name,
		league:   cfg.League,
		url:      cfg.URL,
		enabled:  cfg.IsEnabled(),
		location: loc,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Name returns the provider name.
func (p *HTTP) Name() string { return p.name }

// League returns the league label.
func (p *HTTP) League() string { return p.league }

// IsEnabled reports whether the provider is enabled.
func (p *HTTP) IsEnabled() bool { return p.enabled }

// Fetch retrieves and decodes the feed.
func (p *HTTP) Fetch(ctx context.Context) ([]model.Game, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider %s returned status %d", p.name, resp.StatusCode)
	}

	var feed struct {
		Games []wireGame `json:"games"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("provider %s: bad payload: %w", p.name, err)
	}

	games := make([]model.Game, 0, len(feed.Games))
	for _, wg := range feed.Games {
		g, err := p.convert(wg)
		if err != nil {
			// One malformed game should not sink the whole feed.
			continue
		}
		games = append(games, g)
	}
	return games, nil
}

// convert maps a feed game onto the domain model, computing canon keys and
// the display tipoff time.
func (p *HTTP) convert(wg wireGame) (model.Game, error) {
	date, err := time.Parse("2006-01-02", wg.Date)
	if err != nil {
		return model.Game{}, fmt.Errorf("bad date %q: %w", wg.Date, err)
	}
	if wg.HomeTeam == "" || wg.AwayTeam == "" {
		return model.Game{}, fmt.Errorf("missing team names")
	}

	tipoff := wg.Tipoff
	if tipoff == "" && wg.TipoffUTC != "" {
		if instant, err := time.Parse(time.RFC3339, wg.TipoffUTC); err == nil {
			tipoff = FormatTipoff(instant, p.location)
		}
	}

	g := model.Game{
		League:      p.league,
		Date:        date,
		Tipoff:      tipoff,
		Venue:       wg.Venue,
		HomeTeam:    wg.HomeTeam,
		AwayTeam:    wg.AwayTeam,
		HomeCanon:   resolve.Plain(wg.HomeTeam),
		AwayCanon:   resolve.Plain(wg.AwayTeam),
		Players:     convertPlayers(wg.Players),
		HomePlayers: convertPlayers(wg.HomePlayers),
		AwayPlayers: convertPlayers(wg.AwayPlayers),
	}
	g.ID = g.Key()
	return g, nil
}

func convertPlayers(in []wirePlayer) []model.Player {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Player, 0, len(in))
	for _, wp := range in {
		if wp.Name == "" {
			continue
		}
		out = append(out, model.Player{
			Name:  wp.Name,
			Canon: resolve.Plain(wp.Name),
			Rank:  wp.Rank,
			Team:  wp.Team,
		})
	}
	return out
}

// FormatTipoff renders a UTC instant as the Eastern-style display time used
// throughout the UI, e.g. "7:30 PM ET".
func FormatTipoff(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("3:04 PM") + " ET"
}

// New builds a provider from config. URLs with the fixture:// scheme get the
// static fixture provider; everything else is fetched over HTTP.
func New(cfg config.ProviderConfig) (schedule.Provider, error) {
	if len(cfg.URL) >= 10 && cfg.URL[:10] == "fixture://" {
		return NewFixture(cfg), nil
	}
	return NewHTTP(cfg)
}

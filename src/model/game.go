// Package model defines core data structures and errors shared across
// the schedule, resolution, and server layers.
package model

import "time"

// Player represents a tracked prospect as reported by a schedule provider.
type Player struct {
	Name  string `json:"name"`            // display name, preserved verbatim
	Canon string `json:"canon"`           // normalized alphanumeric identity key
	Rank  int    `json:"rank,omitempty"`  // national rank, 0 = unranked
	Team  string `json:"team,omitempty"`  // team display label the player belongs to
}

// Ranked reports whether the player carries a rank.
func (p Player) Ranked() bool {
	return p.Rank > 0
}

// Game represents a single scheduled game as merged from providers.
type Game struct {
	ID     string    `json:"id"`
	League string    `json:"league"`
	Date   time.Time `json:"date"`
	Tipoff string    `json:"tipoff,omitempty"` // display time in ET, e.g. "7:30 PM ET"
	Venue  string    `json:"venue,omitempty"`

	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeCanon string `json:"home_canon"`
	AwayCanon string `json:"away_canon"`

	// Prospect lists. Players holds prospects associated with the game as a
	// whole (e.g. from a rankings feed), HomePlayers/AwayPlayers the per-side
	// rosters a provider attributed to each team.
	Players     []Player `json:"players,omitempty"`
	HomePlayers []Player `json:"home_players,omitempty"`
	AwayPlayers []Player `json:"away_players,omitempty"`
}

// Key returns the merge identity of a game: same date, same teams.
func (g Game) Key() string {
	return g.Date.Format("2006-01-02") + "|" + g.HomeCanon + "|" + g.AwayCanon
}

// AllPlayers returns every player record attached to the game, in
// general/home/away order. The slice is freshly allocated.
func (g Game) AllPlayers() []Player {
	out := make([]Player, 0, len(g.Players)+len(g.HomePlayers)+len(g.AwayPlayers))
	out = append(out, g.Players...)
	out = append(out, g.HomePlayers...)
	out = append(out, g.AwayPlayers...)
	return out
}

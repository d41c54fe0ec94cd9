package resolve

import "github.com/apimgr/prospects/src/model"

// TeamItem is a searchable catalog entry for a team.
type TeamItem struct {
	Canon  string   `json:"canon"`
	Label  string   `json:"label"`
	Tokens []string `json:"-"`
}

// ProspectItem is a searchable catalog entry for a tracked player.
type ProspectItem struct {
	Canon  string   `json:"canon"`
	Label  string   `json:"label"`
	Tokens []string `json:"-"`
	Rank   int      `json:"rank,omitempty"` // 0 = unranked; lower is better
}

// BuildTeamCatalog scans every game's home and away names and produces one
// deduplicated item per distinct canon key. The first label seen for a key
// wins; later spellings of the same team are ignored. Items keep insertion
// order so rebuilds from identical data iterate identically.
func (r *Resolver) BuildTeamCatalog(games []model.Game) []TeamItem {
	seen := make(map[string]bool)
	items := make([]TeamItem, 0, len(games)*2)

	add := func(label, canon string) {
		if label == "" {
			return
		}
		if canon == "" {
			canon = Plain(label)
		}
		if canon == "" || seen[canon] {
			return
		}
		seen[canon] = true
		items = append(items, TeamItem{
			Canon:  canon,
			Label:  label,
			Tokens: r.tokenizer.Tokenize(label),
		})
	}

	for _, g := range games {
		add(g.HomeTeam, g.HomeCanon)
		add(g.AwayTeam, g.AwayCanon)
	}
	return items
}

// BuildProspectCatalog scans every game's player lists and produces one item
// per distinct canon key. For a repeated player the entry with the lowest
// rank wins; an unranked entry never displaces a ranked one, and when neither
// occurrence has a rank the first seen is kept. The winning label replaces
// the stored one in place, so item order is still first-occurrence order.
func (r *Resolver) BuildProspectCatalog(games []model.Game) []ProspectItem {
	index := make(map[string]int)
	items := make([]ProspectItem, 0, len(games))

	add := func(p model.Player) {
		if p.Name == "" {
			return
		}
		canon := p.Canon
		if canon == "" {
			canon = Plain(p.Name)
		}
		if canon == "" {
			return
		}
		if i, ok := index[canon]; ok {
			current := &items[i]
			if p.Ranked() && (current.Rank == 0 || p.Rank < current.Rank) {
				current.Label = p.Name
				current.Tokens = r.tokenizer.Tokenize(p.Name)
				current.Rank = p.Rank
			}
			return
		}
		index[canon] = len(items)
		items = append(items, ProspectItem{
			Canon:  canon,
			Label:  p.Name,
			Tokens: r.tokenizer.Tokenize(p.Name),
			Rank:   p.Rank,
		})
	}

	for _, g := range games {
		for _, p := range g.AllPlayers() {
			add(p)
		}
	}
	return items
}

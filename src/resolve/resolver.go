package resolve

import (
	"sort"
	"strings"
)

// ExclusionPair removes candidates containing Excludes whenever the resolved
// target refers to Token. This guards against known token-level collisions in
// real schedule data; the shipped pair stops "kansas" queries from surfacing
// Arkansas entries.
type ExclusionPair struct {
	Token    string `yaml:"token" json:"token"`
	Excludes string `yaml:"excludes" json:"excludes"`
}

var defaultExclusions = []ExclusionPair{
	{Token: "kansas", Excludes: "arkansas"},
}

// Options configures a Resolver. Zero values select the built-in stopwords,
// aliases, and exclusion pairs.
type Options struct {
	Stopwords  []string
	Aliases    map[string]string // custom alias layer, shortcut -> canonical name
	Exclusions []ExclusionPair   // replaces the built-in pairs when non-nil
}

// Resolver matches free-text queries against catalogs. It holds only static
// configuration, never a catalog, so a single instance is safe for
// concurrent use across requests and snapshots.
type Resolver struct {
	tokenizer  *Tokenizer
	aliases    *AliasTable
	exclusions []ExclusionPair
}

// New creates a resolver from options.
func New(opts Options) *Resolver {
	r := &Resolver{
		tokenizer:  NewTokenizer(opts.Stopwords),
		aliases:    NewAliasTable(),
		exclusions: opts.Exclusions,
	}
	if len(opts.Aliases) > 0 {
		r.aliases.SetCustom(opts.Aliases)
	}
	if r.exclusions == nil {
		r.exclusions = defaultExclusions
	}
	return r
}

// Tokenize exposes the resolver's tokenizer so callers share one canonical
// token decomposition.
func (r *Resolver) Tokenize(label string) []string {
	return r.tokenizer.Tokenize(label)
}

// Aliases returns the resolver's alias table.
func (r *Resolver) Aliases() *AliasTable {
	return r.aliases
}

// candidate is the internal ranking view of a matched catalog entry.
type candidate struct {
	index  int // position in the input catalog
	tokens []string
	label  string
	rank   int // 0 = unranked; teams always 0
	exact  bool
}

// compareFunc orders two candidates: negative means a ranks before b. The
// ranking comparator is an explicit ordered chain of these, composed with
// short-circuit, so tie-break priority stays auditable.
type compareFunc func(a, b candidate) int

// byExactness ranks full-token-set matches above prefix-only matches.
func byExactness(a, b candidate) int {
	if a.exact == b.exact {
		return 0
	}
	if a.exact {
		return -1
	}
	return 1
}

// byEqualTokenCount ranks candidates whose token count equals the target's
// above the rest. Applies only when both candidates matched exactly.
func byEqualTokenCount(targetLen int) compareFunc {
	return func(a, b candidate) int {
		if !a.exact || !b.exact {
			return 0
		}
		aEq := len(a.tokens) == targetLen
		bEq := len(b.tokens) == targetLen
		if aEq == bEq {
			return 0
		}
		if aEq {
			return -1
		}
		return 1
	}
}

// byRank ranks a lower (better) rank first; unranked sorts after any rank.
func byRank(a, b candidate) int {
	if a.rank == b.rank {
		return 0
	}
	if a.rank == 0 {
		return 1
	}
	if b.rank == 0 {
		return -1
	}
	return a.rank - b.rank
}

// byTokenDistance ranks the candidate whose token count is closest to the
// target's first.
func byTokenDistance(targetLen int) compareFunc {
	return func(a, b candidate) int {
		da := len(a.tokens) - targetLen
		if da < 0 {
			da = -da
		}
		db := len(b.tokens) - targetLen
		if db < 0 {
			db = -db
		}
		return da - db
	}
}

// byLabel is the final lexicographic tie-break.
func byLabel(a, b candidate) int {
	return strings.Compare(a.label, b.label)
}

// ResolveTeams returns the catalog teams matching query, best first. A blank
// query or one that reduces to zero tokens yields an empty result; so does a
// query nothing matches. Neither is an error.
func (r *Resolver) ResolveTeams(query string, catalog []TeamItem) []TeamItem {
	cands := r.resolve(query, len(catalog), func(i int) candidate {
		return candidate{index: i, tokens: catalog[i].Tokens, label: catalog[i].Label}
	}, true)

	out := make([]TeamItem, len(cands))
	for i, c := range cands {
		out[i] = catalog[c.index]
	}
	return out
}

// ResolveProspects returns the catalog prospects matching query, best first.
// Prospect queries never consult the alias table; shortcuts are a team
// concept.
func (r *Resolver) ResolveProspects(query string, catalog []ProspectItem) []ProspectItem {
	cands := r.resolve(query, len(catalog), func(i int) candidate {
		return candidate{index: i, tokens: catalog[i].Tokens, label: catalog[i].Label, rank: catalog[i].Rank}
	}, false)

	out := make([]ProspectItem, len(cands))
	for i, c := range cands {
		out[i] = catalog[c.index]
	}
	return out
}

// resolve runs the shared matching/ranking algorithm over a catalog exposed
// through an accessor. Teams and prospects differ only in alias handling and
// one comparator.
func (r *Resolver) resolve(query string, size int, at func(int) candidate, team bool) []candidate {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var target []string
	aliasPath := false
	if team {
		if name, ok := r.aliases.Lookup(Plain(query)); ok {
			target = r.tokenizer.Tokenize(name)
			aliasPath = true
		}
	}
	if !aliasPath {
		target = r.tokenizer.Tokenize(query)
	}
	if len(target) == 0 {
		return nil
	}

	// Subset pass. On the alias path this is the only pass; on the token
	// path a prefix pass is the fallback for partial-word queries.
	matched := make([]candidate, 0, 8)
	for i := 0; i < size; i++ {
		c := at(i)
		if containsAll(c.tokens, target) {
			c.exact = true
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 && !aliasPath {
		for i := 0; i < size; i++ {
			c := at(i)
			if prefixAll(c.tokens, target) {
				matched = append(matched, c)
			}
		}
	}

	matched = r.applyExclusions(matched, target, aliasPath)

	chain := []compareFunc{byExactness}
	if team {
		chain = append(chain, byEqualTokenCount(len(target)))
	} else {
		chain = append(chain, byRank)
	}
	chain = append(chain, byTokenDistance(len(target)), byLabel)

	sort.SliceStable(matched, func(i, j int) bool {
		for _, cmp := range chain {
			if d := cmp(matched[i], matched[j]); d != 0 {
				return d < 0
			}
		}
		return false
	})
	return matched
}

// applyExclusions drops candidates that carry a token a triggered exclusion
// pair forbids. On the alias path a pair triggers only on an exact target
// token; on the token path any target token that prefixes the pair's token
// triggers it ("kans" must not surface Arkansas either).
func (r *Resolver) applyExclusions(cands []candidate, target []string, aliasPath bool) []candidate {
	var banned []string
	for _, pair := range r.exclusions {
		for _, t := range target {
			if aliasPath && t == pair.Token || !aliasPath && strings.HasPrefix(pair.Token, t) {
				banned = append(banned, pair.Excludes)
				break
			}
		}
	}
	if len(banned) == 0 {
		return cands
	}

	kept := cands[:0]
	for _, c := range cands {
		drop := false
		for _, tok := range banned {
			if hasToken(c.tokens, tok) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, c)
		}
	}
	return kept
}

// containsAll reports whether every want token is a member of tokens.
func containsAll(tokens, want []string) bool {
	for _, w := range want {
		if !hasToken(tokens, w) {
			return false
		}
	}
	return true
}

// prefixAll reports whether every want token is a string prefix of at least
// one token.
func prefixAll(tokens, want []string) bool {
	for _, w := range want {
		found := false
		for _, tok := range tokens {
			if strings.HasPrefix(tok, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasToken(tokens []string, want string) bool {
	for _, tok := range tokens {
		if tok == want {
			return true
		}
	}
	return false
}

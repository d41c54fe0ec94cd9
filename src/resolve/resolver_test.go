package resolve

import (
	"testing"

	"github.com/apimgr/prospects/src/model"
)

func teamCatalog(r *Resolver, labels ...string) []TeamItem {
	items := make([]TeamItem, 0, len(labels))
	for _, label := range labels {
		items = append(items, TeamItem{
			Canon:  Plain(label),
			Label:  label,
			Tokens: r.Tokenize(label),
		})
	}
	return items
}

func prospectCatalog(r *Resolver, entries map[string]int) []ProspectItem {
	items := make([]ProspectItem, 0, len(entries))
	for label, rank := range entries {
		items = append(items, ProspectItem{
			Canon:  Plain(label),
			Label:  label,
			Tokens: r.Tokenize(label),
			Rank:   rank,
		})
	}
	return items
}

func labelsOf(teams []TeamItem) []string {
	out := make([]string, len(teams))
	for i, item := range teams {
		out[i] = item.Label
	}
	return out
}

func TestResolveTeamsBlankQuery(t *testing.T) {
	r := New(Options{})
	catalog := teamCatalog(r, "Kansas Jayhawks", "Duke")

	for _, q := range []string{"", "   ", "\t"} {
		if got := r.ResolveTeams(q, catalog); len(got) != 0 {
			t.Errorf("ResolveTeams(%q) = %v, want empty", q, got)
		}
	}
}

func TestResolveTeamsStopwordOnlyQuery(t *testing.T) {
	r := New(Options{})
	catalog := teamCatalog(r, "Kansas Jayhawks")

	if got := r.ResolveTeams("university of", catalog); len(got) != 0 {
		t.Errorf("ResolveTeams(%q) = %v, want empty", "university of", got)
	}
}

func TestResolveTeamsExactSubset(t *testing.T) {
	r := New(Options{})
	catalog := teamCatalog(r, "Kansas Jayhawks", "Kansas State", "Duke")

	got := r.ResolveTeams("jayhawks", catalog)
	if len(got) != 1 || got[0].Label != "Kansas Jayhawks" {
		t.Errorf("ResolveTeams(%q) = %v, want [Kansas Jayhawks]", "jayhawks", labelsOf(got))
	}
}

func TestResolveTeamsKansasExcludesArkansas(t *testing.T) {
	r := New(Options{})
	catalog := teamCatalog(r, "Arkansas Razorbacks", "Kansas Jayhawks")

	tests := []string{"kansas", "Kansas", "kans", "KU", "Kansas University"}
	for _, q := range tests {
		got := r.ResolveTeams(q, catalog)
		if len(got) != 1 {
			t.Errorf("ResolveTeams(%q) = %v, want exactly the Kansas entry", q, labelsOf(got))
			continue
		}
		if got[0].Label != "Kansas Jayhawks" {
			t.Errorf("ResolveTeams(%q)[0] = %q, want %q", q, got[0].Label, "Kansas Jayhawks")
		}
	}
}

func TestResolveTeamsAliasAndTokenPathsAgree(t *testing.T) {
	r := New(Options{})
	catalog := teamCatalog(r, "Arkansas Razorbacks", "Kansas Jayhawks", "Duke")

	// "Kansas University" hits the alias table exactly ("kansasuniversity");
	// raw tokens would reduce to ["kansas"] after stopword removal. Both
	// paths must settle on the same candidate set.
	viaAlias := r.ResolveTeams("Kansas University", catalog)
	viaTokens := r.ResolveTeams("kansas", catalog)

	if len(viaAlias) != len(viaTokens) {
		t.Fatalf("alias path returned %v, token path %v", labelsOf(viaAlias), labelsOf(viaTokens))
	}
	for i := range viaAlias {
		if viaAlias[i].Canon != viaTokens[i].Canon {
			t.Errorf("candidate %d differs: alias %q, token %q", i, viaAlias[i].Label, viaTokens[i].Label)
		}
	}
}

func TestResolveTeamsAliasSubsetSemantics(t *testing.T) {
	r := New(Options{})
	catalog := teamCatalog(r, "North Carolina Tar Heels", "North Carolina State", "South Carolina")

	got := r.ResolveTeams("UNC", catalog)
	if len(got) != 2 {
		t.Fatalf("ResolveTeams(UNC) = %v, want both North Carolina entries", labelsOf(got))
	}
	for _, item := range got {
		if !hasToken(item.Tokens, "north") {
			t.Errorf("unexpected candidate %q for alias UNC", item.Label)
		}
	}
}

func TestResolveTeamsEqualTokenCountOutranksSuperset(t *testing.T) {
	r := New(Options{})
	catalog := teamCatalog(r, "Kansas State Wildcats", "Kansas State")

	got := r.ResolveTeams("kansas state", catalog)
	if len(got) != 2 {
		t.Fatalf("ResolveTeams(%q) = %v, want 2 matches", "kansas state", labelsOf(got))
	}
	if got[0].Label != "Kansas State" {
		t.Errorf("top match = %q, want exact-count %q", got[0].Label, "Kansas State")
	}
}

func TestResolveTeamsPrefixFallback(t *testing.T) {
	r := New(Options{})
	catalog := teamCatalog(r, "Gonzaga Bulldogs", "Georgetown Hoyas")

	got := r.ResolveTeams("gonz", catalog)
	if len(got) != 1 || got[0].Label != "Gonzaga Bulldogs" {
		t.Errorf("ResolveTeams(%q) = %v, want [Gonzaga Bulldogs]", "gonz", labelsOf(got))
	}
}

func TestResolveTeamsNoMatch(t *testing.T) {
	r := New(Options{})
	catalog := teamCatalog(r, "Kansas Jayhawks", "Duke")

	if got := r.ResolveTeams("zzzz", catalog); len(got) != 0 {
		t.Errorf("ResolveTeams(%q) = %v, want empty", "zzzz", labelsOf(got))
	}
}

func TestResolveTeamsLexicographicTieBreak(t *testing.T) {
	r := New(Options{})
	catalog := teamCatalog(r, "Carolina Blue", "Carolina Amber")

	got := r.ResolveTeams("carolina", catalog)
	if len(got) != 2 {
		t.Fatalf("ResolveTeams(%q) = %v, want 2 matches", "carolina", labelsOf(got))
	}
	if got[0].Label != "Carolina Amber" || got[1].Label != "Carolina Blue" {
		t.Errorf("order = %v, want lexicographic [Carolina Amber, Carolina Blue]", labelsOf(got))
	}
}

func TestResolveTeamsCustomAlias(t *testing.T) {
	r := New(Options{Aliases: map[string]string{"Joventut": "Joventut Badalona"}})
	catalog := teamCatalog(r, "Joventut Badalona", "Valencia Basket")

	got := r.ResolveTeams("joventut", catalog)
	if len(got) != 1 || got[0].Label != "Joventut Badalona" {
		t.Errorf("ResolveTeams(%q) = %v, want [Joventut Badalona]", "joventut", labelsOf(got))
	}
}

func TestResolveTeamsCustomExclusions(t *testing.T) {
	r := New(Options{Exclusions: []ExclusionPair{{Token: "city", Excludes: "kansas"}}})
	catalog := teamCatalog(r, "Kansas City", "Oklahoma City")

	// Both entries carry the "city" token; the configured pair drops the
	// candidate that also carries "kansas".
	got := r.ResolveTeams("city", catalog)
	if len(got) != 1 || got[0].Label != "Oklahoma City" {
		t.Errorf("ResolveTeams(%q) = %v, want [Oklahoma City]", "city", labelsOf(got))
	}
}

func TestResolveProspectsPrefixMatch(t *testing.T) {
	r := New(Options{})
	catalog := prospectCatalog(r, map[string]int{
		"Dybantsa, AJ":     1,
		"Peterson, Darryn": 2,
	})

	got := r.ResolveProspects("dyb", catalog)
	if len(got) != 1 || got[0].Label != "Dybantsa, AJ" {
		t.Errorf("ResolveProspects(%q) = %v, want [Dybantsa, AJ]", "dyb", got)
	}
}

func TestResolveProspectsRankOrdering(t *testing.T) {
	r := New(Options{})
	catalog := []ProspectItem{
		{Canon: "smitha", Label: "Smith, Aaron", Tokens: []string{"smith", "aaron"}, Rank: 50},
		{Canon: "smithb", Label: "Smith, Ben", Tokens: []string{"smith", "ben"}, Rank: 5},
		{Canon: "smithc", Label: "Smith, Carl", Tokens: []string{"smith", "carl"}},
	}

	got := r.ResolveProspects("smith", catalog)
	if len(got) != 3 {
		t.Fatalf("ResolveProspects(%q) returned %d matches, want 3", "smith", len(got))
	}
	if got[0].Rank != 5 || got[1].Rank != 50 || got[2].Rank != 0 {
		t.Errorf("rank order = [%d %d %d], want [5 50 0] (unranked last)", got[0].Rank, got[1].Rank, got[2].Rank)
	}
}

func TestResolveProspectsBlankQuery(t *testing.T) {
	r := New(Options{})
	catalog := prospectCatalog(r, map[string]int{"Dybantsa, AJ": 1})

	if got := r.ResolveProspects("   ", catalog); len(got) != 0 {
		t.Errorf("ResolveProspects(blank) = %v, want empty", got)
	}
}

func TestResolveProspectsIgnoresAliases(t *testing.T) {
	r := New(Options{})
	catalog := prospectCatalog(r, map[string]int{"Kunkel, Bryce": 10})

	// "ku" is a team alias for Kansas; on the prospect path it is a plain
	// prefix query.
	got := r.ResolveProspects("ku", catalog)
	if len(got) != 1 || got[0].Label != "Kunkel, Bryce" {
		t.Errorf("ResolveProspects(%q) = %v, want [Kunkel, Bryce]", "ku", got)
	}
}

func TestResolveProspectsExclusionOnTokenPath(t *testing.T) {
	r := New(Options{})
	catalog := prospectCatalog(r, map[string]int{
		"Kansas, Mo":   0,
		"Arkansas, Al": 0,
	})

	got := r.ResolveProspects("kansas", catalog)
	if len(got) != 1 || got[0].Label != "Kansas, Mo" {
		t.Errorf("ResolveProspects(%q) = %v, want [Kansas, Mo]", "kansas", got)
	}
}

func TestResolverEmptyCatalog(t *testing.T) {
	r := New(Options{})

	if got := r.ResolveTeams("kansas", nil); len(got) != 0 {
		t.Errorf("ResolveTeams on nil catalog = %v, want empty", got)
	}
	if got := r.ResolveProspects("dyb", nil); len(got) != 0 {
		t.Errorf("ResolveProspects on nil catalog = %v, want empty", got)
	}
}

func TestResolverStatelessAcrossSnapshots(t *testing.T) {
	r := New(Options{})

	first := teamCatalog(r, "Kansas Jayhawks")
	second := teamCatalog(r, "Duke")

	if got := r.ResolveTeams("kansas", first); len(got) != 1 {
		t.Fatalf("first snapshot: got %v", labelsOf(got))
	}
	if got := r.ResolveTeams("kansas", second); len(got) != 0 {
		t.Errorf("second snapshot: got %v, want empty (no state retained)", labelsOf(got))
	}
}

func TestEndToEndCatalogResolve(t *testing.T) {
	r := New(Options{})
	games := []model.Game{
		{
			HomeTeam: "Kansas Jayhawks", HomeCanon: "kansasjayhawks",
			AwayTeam: "Arkansas Razorbacks", AwayCanon: "arkansasrazorbacks",
			Players: []model.Player{{Name: "Dybantsa, AJ", Rank: 1}},
		},
	}

	teams := r.BuildTeamCatalog(games)
	if got := r.ResolveTeams("KU", teams); len(got) != 1 || got[0].Label != "Kansas Jayhawks" {
		t.Errorf("ResolveTeams(KU) = %v, want [Kansas Jayhawks]", labelsOf(got))
	}

	prospects := r.BuildProspectCatalog(games)
	if got := r.ResolveProspects("dybantsa", prospects); len(got) != 1 {
		t.Errorf("ResolveProspects(dybantsa) = %v, want 1 match", got)
	}
}

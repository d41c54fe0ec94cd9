package resolve

import (
	"testing"
	"time"

	"github.com/apimgr/prospects/src/model"
)

func day(d int) time.Time {
	return time.Date(2025, time.November, d, 0, 0, 0, 0, time.UTC)
}

func testGames() []model.Game {
	return []model.Game{
		{
			Date:      day(1),
			HomeTeam:  "Kansas Jayhawks",
			HomeCanon: "kansasjayhawks",
			AwayTeam:  "Arkansas Razorbacks",
			AwayCanon: "arkansasrazorbacks",
			Players: []model.Player{
				{Name: "Dybantsa, AJ", Rank: 1},
				{Name: "Peterson, Darryn", Rank: 2},
			},
		},
		{
			Date:      day(2),
			HomeTeam:  "St. John's",
			HomeCanon: "stjohns",
			AwayTeam:  "Kansas Jayhawks",
			AwayCanon: "kansasjayhawks",
			HomePlayers: []model.Player{
				{Name: "Peterson, Darryn", Rank: 5},
			},
		},
		{
			Date:      day(3),
			HomeTeam:  "North Carolina",
			HomeCanon: "northcarolina",
			AwayTeam:  "Duke",
			AwayCanon: "duke",
			AwayPlayers: []model.Player{
				{Name: "Cameron Boozer"},
			},
		},
	}
}

func TestBuildTeamCatalogDeduplicates(t *testing.T) {
	r := New(Options{})

	catalog := r.BuildTeamCatalog(testGames())
	if len(catalog) != 5 {
		t.Fatalf("len(catalog) = %d, want 5", len(catalog))
	}

	// First occurrence order: Kansas, Arkansas, St. John's, North Carolina, Duke.
	wantLabels := []string{"Kansas Jayhawks", "Arkansas Razorbacks", "St. John's", "North Carolina", "Duke"}
	for i, want := range wantLabels {
		if catalog[i].Label != want {
			t.Errorf("catalog[%d].Label = %q, want %q", i, catalog[i].Label, want)
		}
	}
}

func TestBuildTeamCatalogFirstLabelWins(t *testing.T) {
	r := New(Options{})

	games := []model.Game{
		{Date: day(1), HomeTeam: "UConn Huskies", HomeCanon: "uconn", AwayTeam: "Duke", AwayCanon: "duke"},
		{Date: day(2), HomeTeam: "Connecticut Huskies", HomeCanon: "uconn", AwayTeam: "Baylor", AwayCanon: "baylor"},
	}

	catalog := r.BuildTeamCatalog(games)
	if len(catalog) != 3 {
		t.Fatalf("len(catalog) = %d, want 3", len(catalog))
	}
	if catalog[0].Label != "UConn Huskies" {
		t.Errorf("Label = %q, want first-seen %q", catalog[0].Label, "UConn Huskies")
	}
}

func TestBuildTeamCatalogSkipsMissingNames(t *testing.T) {
	r := New(Options{})

	games := []model.Game{
		{Date: day(1), HomeTeam: "", AwayTeam: "Duke", AwayCanon: "duke"},
		{Date: day(2), HomeTeam: "---", AwayTeam: "Baylor", AwayCanon: "baylor"},
	}

	catalog := r.BuildTeamCatalog(games)
	if len(catalog) != 2 {
		t.Fatalf("len(catalog) = %d, want 2", len(catalog))
	}
}

func TestBuildTeamCatalogComputesMissingCanon(t *testing.T) {
	r := New(Options{})

	games := []model.Game{
		{Date: day(1), HomeTeam: "St. John's", AwayTeam: "Duke", AwayCanon: "duke"},
	}

	catalog := r.BuildTeamCatalog(games)
	if catalog[0].Canon != "stjohns" {
		t.Errorf("Canon = %q, want %q", catalog[0].Canon, "stjohns")
	}
}

func TestBuildProspectCatalogBestRankWins(t *testing.T) {
	r := New(Options{})

	catalog := r.BuildProspectCatalog(testGames())
	if len(catalog) != 3 {
		t.Fatalf("len(catalog) = %d, want 3", len(catalog))
	}

	var darryn *ProspectItem
	for i := range catalog {
		if catalog[i].Canon == "petersondarryn" {
			darryn = &catalog[i]
		}
	}
	if darryn == nil {
		t.Fatal("Peterson entry missing from catalog")
	}
	if darryn.Rank != 2 {
		t.Errorf("Rank = %d, want 2 (lowest rank wins)", darryn.Rank)
	}
}

func TestBuildProspectCatalogRankedBeatsUnranked(t *testing.T) {
	r := New(Options{})

	games := []model.Game{
		{Date: day(1), HomeTeam: "A", HomeCanon: "a", AwayTeam: "B", AwayCanon: "b",
			Players: []model.Player{{Name: "Boozer, Cameron"}}},
		{Date: day(2), HomeTeam: "A", HomeCanon: "a", AwayTeam: "C", AwayCanon: "c",
			Players: []model.Player{{Name: "Boozer, Cameron", Rank: 3}}},
	}

	catalog := r.BuildProspectCatalog(games)
	if len(catalog) != 1 {
		t.Fatalf("len(catalog) = %d, want 1", len(catalog))
	}
	if catalog[0].Rank != 3 {
		t.Errorf("Rank = %d, want 3 (ranked occurrence wins)", catalog[0].Rank)
	}
}

func TestBuildProspectCatalogFirstSeenWhenUnranked(t *testing.T) {
	r := New(Options{})

	games := []model.Game{
		{Date: day(1), Players: []model.Player{{Name: "Smith, John"}}},
		{Date: day(2), Players: []model.Player{{Name: "SMITH, JOHN"}}},
	}

	catalog := r.BuildProspectCatalog(games)
	if len(catalog) != 1 {
		t.Fatalf("len(catalog) = %d, want 1", len(catalog))
	}
	if catalog[0].Label != "Smith, John" {
		t.Errorf("Label = %q, want first-seen %q", catalog[0].Label, "Smith, John")
	}
}

func TestCatalogZeroTokenEntryStoredButUnmatchable(t *testing.T) {
	r := New(Options{})

	games := []model.Game{
		{Date: day(1), HomeTeam: "University of", AwayTeam: "Duke", AwayCanon: "duke"},
	}

	catalog := r.BuildTeamCatalog(games)
	if len(catalog) != 2 {
		t.Fatalf("len(catalog) = %d, want 2 (all-stopword label still stored)", len(catalog))
	}

	if got := r.ResolveTeams("university", catalog); len(got) != 0 {
		t.Errorf("ResolveTeams(%q) = %v, want no matches", "university", got)
	}
}

package resolve

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  Kansas  ", "kansas"},
		{"Dončić", "doncic"},
		{"Sergio De Larrea", "sergio de larrea"},
		{"ASVEL Basket", "asvel basket"},
		{"Göttingen", "gottingen"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Kansas", "kansas"},
		{"St. John's", "stjohns"},
		{"Texas A&M", "texasam"},
		{"Ole Miss", "olemiss"},
		{"Dončić, Luka", "doncicluka"},
		{"---", ""},
	}

	for _, tt := range tests {
		if got := Plain(tt.in); got != tt.want {
			t.Errorf("Plain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tok := NewTokenizer(nil)

	tests := []struct {
		label string
		want  []string
	}{
		{"St. John's University", []string{"st", "johns"}},
		{"Saint Mary's College", []string{"st", "mary", "s"}},
		{"Texas A & M", []string{"texas", "am"}},
		{"Texas A&M", []string{"texas", "am"}},
		{"Texas A and M", []string{"texas", "am"}},
		{"University of Kansas", []string{"kansas"}},
		{"Kansas Jayhawks", []string{"kansas", "jayhawks"}},
		{"North Carolina", []string{"north", "carolina"}},
		{"Duke Mens Basketball", []string{"duke"}},
		{"Dybantsa, AJ", []string{"dybantsa", "aj"}},
		{"The University of the South", []string{"south"}},
		{"New Orleans Saints", []string{"new", "orleans", "saints"}},
		{"", nil},
		{"University of", nil},
		{"---", nil},
	}

	for _, tt := range tests {
		if got := tok.Tokenize(tt.label); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestTokenizeKeepsDuplicates(t *testing.T) {
	tok := NewTokenizer(nil)

	got := tok.Tokenize("Walla Walla")
	want := []string{"walla", "walla"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(%q) = %v, want %v", "Walla Walla", got, want)
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	tok := NewTokenizer(nil)

	labels := []string{
		"St. John's University",
		"Saint Mary's College",
		"Texas A & M",
		"Kansas Jayhawks",
		"Dybantsa, AJ",
		"Université de Montréal",
		"New Orleans Saints",
	}

	for _, label := range labels {
		first := tok.Tokenize(label)
		second := tok.Tokenize(strings.Join(first, " "))
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Tokenize not idempotent for %q: first %v, second %v", label, first, second)
		}
	}
}

func TestTokenizeCustomStopwords(t *testing.T) {
	tok := NewTokenizer([]string{"fc", "club"})

	got := tok.Tokenize("Valencia Basket Club")
	want := []string{"valencia", "basket"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

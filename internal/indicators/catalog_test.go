package indicators

import (
	"testing"

	"github.com/datalabmx/inegimcp/internal/geo"
)

func TestCategoriesCoverCuratedCodes(t *testing.T) {
	seen := make(map[string]bool)
	for _, cat := range Categories {
		for _, code := range cat.Codes {
			if _, ok := CuratedByCode(code); !ok {
				t.Errorf("category %q lists unknown code %s", cat.Name, code)
			}
			if seen[code] {
				t.Errorf("code %s appears in two categories", code)
			}
			seen[code] = true
		}
	}
	for _, ref := range Curated {
		if !seen[ref.Code] {
			t.Errorf("curated %s (%s) belongs to no category", ref.Code, ref.Name)
		}
	}
}

func TestCuratedEntriesComplete(t *testing.T) {
	for _, ref := range Curated {
		if ref.Name == "" || ref.Unit == "" || ref.Periodicity == "" {
			t.Errorf("curated %s missing fields: %+v", ref.Code, ref)
		}
		if len(ref.Coverage) == 0 {
			t.Errorf("curated %s has no coverage", ref.Code)
		}
		if !ref.CoversLevel(geo.National) {
			t.Errorf("curated %s does not cover national", ref.Code)
		}
	}
}

func TestCuratedMatches(t *testing.T) {
	if matches := curatedMatches("vivienda"); len(matches) == 0 {
		t.Errorf("no matches for vivienda")
	}
	if matches := curatedMatches("zzzqqq"); len(matches) != 0 {
		t.Errorf("unexpected matches: %v", matches)
	}
}

func TestPeriodicityFromFreq(t *testing.T) {
	cases := map[string]Periodicity{
		"9": Quarterly,
		"6": Monthly,
		"8": Annual,
		"":  Annual,
	}
	for freq, want := range cases {
		if got := periodicityFromFreq(freq); got != want {
			t.Errorf("periodicityFromFreq(%q) = %q want %q", freq, got, want)
		}
	}
}

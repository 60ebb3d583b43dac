package mercadolibre

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"carscan/scraper"
	"carscan/utils"
)

// fixtureBrowser serves embedded sample cards to whichever strategy script
// matches its container selector; everything else yields zero cards.
type fixtureBrowser struct {
	containerHint string
	cards         []scraper.Card
	err           error
	calls         []string
}

func (f *fixtureBrowser) ExtractCards(_ context.Context, _, script string) ([]scraper.Card, error) {
	f.calls = append(f.calls, script)
	if f.err != nil {
		return nil, f.err
	}
	if strings.Contains(script, f.containerHint) {
		return f.cards, nil
	}
	return nil, nil
}

func loadFixture(t *testing.T) []scraper.Card {
	t.Helper()
	data, err := os.ReadFile("testdata/search_cards.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var cards []scraper.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return cards
}

func newTestScraper(browser scraper.Browser, maxResults int) *Scraper {
	polite := scraper.NewPoliteness(time.Millisecond, time.Millisecond)
	return New(browser, polite, maxResults, utils.NewLogger())
}

func TestSearchURL(t *testing.T) {
	got := SearchURL("Toyota Corolla 2015")
	want := "https://carros.mercadolibre.com.co/toyota-corolla-2015_NoIndex_True"
	if got != want {
		t.Errorf("SearchURL: got %q, want %q", got, want)
	}
}

func TestFetchExtractsFields(t *testing.T) {
	browser := &fixtureBrowser{containerHint: "ui-search-layout__item", cards: loadFixture(t)}
	s := newTestScraper(browser, 20)

	raw, err := s.Fetch(context.Background(), "toyota corolla", "Medellín")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// 5 fixture cards: one has no link, one is a duplicate URL.
	if len(raw) != 3 {
		t.Fatalf("expected 3 raw listings, got %d", len(raw))
	}

	first := raw[0]
	if first.Source != "MercadoLibre" {
		t.Errorf("Source: got %q", first.Source)
	}
	if first.Title != "Toyota Corolla 2015 XEI" {
		t.Errorf("Title: got %q", first.Title)
	}
	if first.YearText != "2015" {
		t.Errorf("YearText: got %q, want 2015", first.YearText)
	}
	if first.MileageText != "120000 km" {
		t.Errorf("MileageText: got %q, want \"120000 km\"", first.MileageText)
	}
	if first.PriceText != "35.000.000" {
		t.Errorf("PriceText: got %q", first.PriceText)
	}
}

func TestFetchFallsBackToSecondStrategy(t *testing.T) {
	// Cards only answer to the poly-card selector family.
	browser := &fixtureBrowser{containerHint: "poly-card", cards: loadFixture(t)}
	s := newTestScraper(browser, 20)

	raw, err := s.Fetch(context.Background(), "mazda 3", "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(raw) != 3 {
		t.Errorf("fallback strategy should still yield 3 listings, got %d", len(raw))
	}
	if len(browser.calls) != 2 {
		t.Errorf("expected both strategies to be attempted, got %d calls", len(browser.calls))
	}
}

func TestFetchCapsResults(t *testing.T) {
	browser := &fixtureBrowser{containerHint: "ui-search-layout__item", cards: loadFixture(t)}
	s := newTestScraper(browser, 1)

	raw, err := s.Fetch(context.Background(), "carro", "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(raw) != 1 {
		t.Errorf("expected cap of 1 listing, got %d", len(raw))
	}
}

func TestFetchBlockedYieldsEmpty(t *testing.T) {
	browser := &fixtureBrowser{err: scraper.ErrBlocked}
	s := newTestScraper(browser, 20)

	raw, err := s.Fetch(context.Background(), "carro", "")
	if err != nil {
		t.Fatalf("a blocked source must yield empty, not an error: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("expected empty result, got %d", len(raw))
	}
}

func TestFetchNoContainersYieldsEmpty(t *testing.T) {
	browser := &fixtureBrowser{containerHint: "nothing-matches"}
	s := newTestScraper(browser, 20)

	raw, err := s.Fetch(context.Background(), "moto", "")
	if err != nil {
		t.Fatalf("Fetch should not fail on zero containers: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("expected empty result, got %d", len(raw))
	}
}

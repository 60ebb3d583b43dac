// Package scraper defines the contract every marketplace adapter satisfies and
// the shared plumbing (politeness pacing, selector-strategy chains, browser
// engine) the adapters are composed from.
package scraper

import (
	"context"
	"errors"
	"strconv"
	"time"

	"carscan/extract"
	"carscan/models"
	"carscan/utils"
)

// ErrBlocked indicates the source refused the request (403/429 or similar).
// Adapters surface it so the orchestrator can record the condition; it is
// never a search-level failure.
var ErrBlocked = errors.New("source blocked request")

// Adapter is one marketplace-specific extraction implementation. Fetch returns
// raw listings for a query; blocked responses, timeouts and zero matched
// containers yield an empty slice, not a panic.
type Adapter interface {
	Source() string
	Fetch(ctx context.Context, query, cityHint string) ([]*models.RawListing, error)
}

// Card is the unparsed listing card a selector strategy pulls out of a results
// page. Field names match the object shape the strategy scripts evaluate to.
type Card struct {
	Title      string `json:"title"`
	Price      string `json:"price"`
	Location   string `json:"location"`
	Attributes string `json:"attributes"`
	URL        string `json:"url"`
}

// Strategy is one tagged attempt in a selector-fallback chain.
type Strategy struct {
	Name   string
	Script string
}

// Browser abstracts the page-rendering engine so adapters can run against
// fixture documents in tests. ExtractCards loads the page and evaluates the
// strategy script, which must yield an array of Card objects.
type Browser interface {
	ExtractCards(ctx context.Context, pageURL, script string) ([]Card, error)
}

// Base bundles the behavior shared by every adapter: politeness pacing, the
// strategy-chain walk and the per-call result cap. Adapters hold a Base and
// add only source-specific targeting.
type Base struct {
	source     string
	browser    Browser
	polite     *Politeness
	maxResults int
	logger     *utils.Logger
}

// NewBase wires the shared adapter plumbing for one source.
func NewBase(source string, browser Browser, polite *Politeness, maxResults int, logger *utils.Logger) *Base {
	if maxResults <= 0 {
		maxResults = 20
	}
	return &Base{
		source:     source,
		browser:    browser,
		polite:     polite,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Source returns the marketplace identity.
func (b *Base) Source() string { return b.source }

// RunChain walks the strategy chain in order and returns the first non-empty
// card set, capped at the per-source result limit. A politeness wait precedes
// every page fetch.
func (b *Base) RunChain(ctx context.Context, pageURL string, chain []Strategy) ([]Card, error) {
	for _, st := range chain {
		if err := b.polite.Wait(ctx); err != nil {
			return nil, err
		}

		cards, err := b.browser.ExtractCards(ctx, pageURL, st.Script)
		if err != nil {
			if errors.Is(err, ErrBlocked) {
				return nil, err
			}
			b.logger.Warn("[%s] strategy %q failed: %v", b.source, st.Name, err)
			continue
		}

		if len(cards) == 0 {
			b.logger.Debug("[%s] strategy %q matched 0 containers, trying next", b.source, st.Name)
			continue
		}

		b.logger.Debug("[%s] strategy %q matched %d cards", b.source, st.Name, len(cards))
		if len(cards) > b.maxResults {
			cards = cards[:b.maxResults]
		}
		return cards, nil
	}

	return nil, nil
}

// ToRawListings converts cards into RawListings, skipping any card without a
// usable link and any URL already seen within this fetch. Year and mileage are
// pre-extracted from the card text so the normalizer sees resolved fields.
func (b *Base) ToRawListings(cards []Card, seen *utils.URLSet) []*models.RawListing {
	now := time.Now()
	out := make([]*models.RawListing, 0, len(cards))

	for _, c := range cards {
		if c.URL == "" {
			b.logger.Debug("[%s] skipping card without link: %s", b.source, c.Title)
			continue
		}
		if seen != nil && !seen.Add(c.URL) {
			continue
		}

		raw := &models.RawListing{
			Source:    b.source,
			Title:     c.Title,
			PriceText: c.Price,
			Location:  c.Location,
			URL:       c.URL,
			ScrapedAt: now,
		}

		combined := c.Title + " " + c.Attributes
		if year := extract.ExtractYear(combined); year != nil {
			raw.YearText = strconv.Itoa(*year)
		}
		if km := extract.ExtractMileage(combined); km != nil {
			raw.MileageText = strconv.Itoa(*km) + " km"
		}

		out = append(out, raw)
	}

	return out
}

// Package mercadolibre scrapes vehicle listings from MercadoLibre Colombia.
package mercadolibre

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"carscan/models"
	"carscan/scraper"
	"carscan/utils"
)

const (
	baseURL = "https://carros.mercadolibre.com.co"
	source  = "MercadoLibre"
)

// Scraper is the MercadoLibre source adapter. All shared behavior lives in
// scraper.Base; this type only knows how to target the site.
type Scraper struct {
	*scraper.Base
	chain  []scraper.Strategy
	logger *utils.Logger
}

// New creates a ready-to-use MercadoLibre adapter.
func New(browser scraper.Browser, polite *scraper.Politeness, maxResults int, logger *utils.Logger) *Scraper {
	return &Scraper{
		Base:   scraper.NewBase(source, browser, polite, maxResults, logger),
		chain:  strategies(maxResults),
		logger: logger,
	}
}

// Fetch runs the selector-strategy chain against the search results page for
// query and converts the matched cards into raw listings. A blocked response
// comes back as zero listings with the condition logged.
func (s *Scraper) Fetch(ctx context.Context, query, cityHint string) ([]*models.RawListing, error) {
	searchURL := SearchURL(query)
	s.logger.Info("[mercadolibre] Fetching %s", searchURL)

	cards, err := s.RunChain(ctx, searchURL, s.chain)
	if err != nil {
		if errors.Is(err, scraper.ErrBlocked) {
			s.logger.Warn("[mercadolibre] Request blocked, returning empty result")
			return nil, nil
		}
		return nil, fmt.Errorf("mercadolibre: %w", err)
	}

	raw := s.ToRawListings(cards, utils.NewURLSet())
	s.logger.Info("[mercadolibre] Extracted %d raw listings", len(raw))
	return raw, nil
}

// SearchURL builds the dash-slugged search target MercadoLibre expects.
func SearchURL(query string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(query), "-"))
	return baseURL + "/" + url.PathEscape(slug) + "_NoIndex_True"
}

// strategies is the ordered selector-fallback chain. MercadoLibre has been
// migrating result pages from the ui-search markup to poly-card, so both
// families are tried.
func strategies(limit int) []scraper.Strategy {
	return []scraper.Strategy{
		{Name: "ui-search", Script: cardScript(limit,
			".ui-search-layout__item, .ui-search-result",
			"h2.ui-search-item__title, .ui-search-item__title",
			".andes-money-amount__fraction, .price-tag-fraction",
			"a.ui-search-link, a.ui-search-item__group__element",
			".ui-search-item__group--location, .ui-search-item__location",
			".ui-search-item__group--attributes, .ui-search-item__subtitle",
		)},
		{Name: "poly-card", Script: cardScript(limit,
			".poly-card",
			".poly-component__title",
			".poly-price__current .andes-money-amount__fraction, .andes-money-amount__fraction",
			"a.poly-component__link, a[href*='/MCO']",
			".poly-component__location",
			".poly-attributes-list",
		)},
	}
}

// cardScript renders the in-page extraction function for one selector family.
func cardScript(limit int, container, title, price, link, location, attributes string) string {
	return fmt.Sprintf(`
		(function() {
			var items = [];
			var cards = document.querySelectorAll(%q);
			for (var i = 0; i < cards.length && items.length < %d; i++) {
				var card = cards[i];
				var titleEl = card.querySelector(%q);
				var priceEl = card.querySelector(%q);
				var linkEl  = card.querySelector(%q);
				var locEl   = card.querySelector(%q);
				var attrEl  = card.querySelector(%q);
				items.push({
					title:      titleEl ? titleEl.innerText.trim() : '',
					price:      priceEl ? priceEl.innerText.trim() : '',
					location:   locEl ? locEl.innerText.trim() : '',
					attributes: attrEl ? attrEl.innerText.trim() : '',
					url:        (linkEl && linkEl.href) ? linkEl.href : ''
				});
			}
			return items;
		})()
	`, container, limit, title, price, link, location, attributes)
}

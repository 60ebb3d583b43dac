// Package tucarro scrapes vehicle listings from TuCarro, MercadoLibre's
// vehicle marketplace in Colombia. TuCarro aggressively blocks plain HTTP
// clients, so the adapter depends on the shared browser engine and treats a
// blocked response as an ordinary empty-result condition.
package tucarro

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
	baseURL = "https://vehiculos.tucarro.com.co"
	source  = "TuCarro"
)

// Scraper is the TuCarro source adapter.
type Scraper struct {
	*scraper.Base
	chain  []scraper.Strategy
	logger *utils.Logger
}

// New creates a ready-to-use TuCarro adapter.
func New(browser scraper.Browser, polite *scraper.Politeness, maxResults int, logger *utils.Logger) *Scraper {
	return &Scraper{
		Base:   scraper.NewBase(source, browser, polite, maxResults, logger),
		chain:  strategies(maxResults),
		logger: logger,
	}
}

// Fetch runs the selector-strategy chain against the TuCarro search page.
// A blocked response comes back as zero listings with the condition logged.
func (s *Scraper) Fetch(ctx context.Context, query, cityHint string) ([]*models.RawListing, error) {
	searchURL := SearchURL(query)
	s.logger.Info("[tucarro] Fetching %s", searchURL)

	cards, err := s.RunChain(ctx, searchURL, s.chain)
	if err != nil {
		if errors.Is(err, scraper.ErrBlocked) {
			s.logger.Warn("[tucarro] Request blocked, returning empty result")
			return nil, nil
		}
		return nil, fmt.Errorf("tucarro: %w", err)
	}

	raw := s.ToRawListings(cards, utils.NewURLSet())
	s.logger.Info("[tucarro] Extracted %d raw listings", len(raw))
	return raw, nil
}

// SearchURL builds the dash-slugged search target TuCarro expects.
func SearchURL(query string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(query), "-"))
	return baseURL + "/" + url.PathEscape(slug)
}

// strategies is the ordered selector-fallback chain. TuCarro shares the
// ui-search markup family with MercadoLibre; the bare MCO-link chain is the
// last resort when neither card structure matches.
func strategies(limit int) []scraper.Strategy {
	return []scraper.Strategy{
		{Name: "ui-search", Script: cardScript(limit,
			".ui-search-layout__item, .ui-search-result",
			"h2.ui-search-item__title, .ui-search-item__title, a.ui-search-link h2",
			".andes-money-amount__fraction, .price-tag-fraction, .ui-search-price__second-line .andes-money-amount__fraction",
			"a.ui-search-link, a.ui-search-item__group__element",
			".ui-search-item__group--location, .ui-search-item__location",
			".ui-search-item__group--attributes, .ui-search-item__subtitle",
		)},
		{Name: "poly-card", Script: cardScript(limit,
			".poly-card, .ui-search-result__content-wrapper",
			".poly-component__title, h2.poly-box",
			".poly-price__current .andes-money-amount__fraction, .andes-money-amount__fraction",
			"a.poly-component__link, a[href*='/MCO']",
			".poly-component__location",
			".poly-attributes-list",
		)},
		{Name: "mco-links", Script: linkScript(limit)},
	}
}

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

// linkScript derives cards from bare listing links when no card container
// matches at all; titles and prices are pulled from the surrounding text.
func linkScript(limit int) string {
	return fmt.Sprintf(`
		(function() {
			var items = [];
			var seen = {};
			var links = document.querySelectorAll('a[href*="/MCO"]');
			for (var i = 0; i < links.length && items.length < %d; i++) {
				var link = links[i];
				if (!link.href || seen[link.href]) continue;
				seen[link.href] = true;
				var cardDiv = link.closest('[role="group"]') || link.closest('li') || link.closest('div');
				var text = cardDiv ? cardDiv.innerText : link.innerText;
				var lines = text.split('\n').map(function(l){ return l.trim(); }).filter(Boolean);
				items.push({
					title:      lines[0] || '',
					price:      lines.find(function(l){ return l.indexOf('$') >= 0; }) || '',
					location:   lines[lines.length - 1] || '',
					attributes: lines.slice(1).join(' '),
					url:        link.href
				});
			}
			return items;
		})()
	`, limit)
}

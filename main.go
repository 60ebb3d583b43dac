package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"carscan/api"
	"carscan/config"
	"carscan/geo"
	"carscan/models"
	"carscan/normalize"
	"carscan/orchestrate"
	"carscan/scraper"
	"carscan/scraper/mercadolibre"
	"carscan/scraper/tucarro"
	"carscan/search"
	"carscan/storage"
	"carscan/utils"
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP API instead of a one-shot search")
	query := flag.String("query", "", "vehicle search query, e.g. \"mazda 3\"")
	city := flag.String("city", "", "city hint for location resolution")
	lat := flag.Float64("lat", math.NaN(), "origin latitude for distance filtering")
	lon := flag.Float64("lon", math.NaN(), "origin longitude for distance filtering")
	radius := flag.Float64("radius", 0, "max distance in km from the origin (0 = config default)")
	byDistance := flag.Bool("by-distance", false, "sort results by distance instead of score")
	debug := flag.Bool("debug", false, "emit per-card debug logging")
	flag.Parse()

	logger := utils.NewLogger()
	logger.SetDebug(*debug)
	cfg := config.Load()

	logger.Info("=== CarScan vehicle search engine starting ===")
	logger.Info("Config — sources concurrency: %d | results/source: %d | delay: %d-%dms | timeout: %ds",
		cfg.MaxConcurrentSources, cfg.MaxResultsPerSource, cfg.DelayMinMs, cfg.DelayMaxMs, cfg.SearchTimeoutSec)

	registry, err := geo.LoadRegistry()
	if err != nil {
		logger.Error("Failed to load city registry: %v", err)
		os.Exit(1)
	}

	browser := scraper.NewChromeBrowser(cfg.ChromeBin, cfg.MaxRetries, logger)
	defer browser.Close()

	polite := scraper.NewPoliteness(
		time.Duration(cfg.DelayMinMs)*time.Millisecond,
		time.Duration(cfg.DelayMaxMs)*time.Millisecond,
	)

	adapters := []scraper.Adapter{
		mercadolibre.New(browser, polite, cfg.MaxResultsPerSource, logger),
		tucarro.New(browser, polite, cfg.MaxResultsPerSource, logger),
	}

	timeout := time.Duration(cfg.SearchTimeoutSec) * time.Second
	orch := orchestrate.New(adapters, cfg.MaxConcurrentSources, timeout, logger)
	normalizer := normalize.New(registry, logger)

	var store storage.ListingStore
	pg, err := storage.NewPostgresStore(cfg.DSN())
	if err != nil {
		logger.Warn("PostgreSQL unavailable, searches will not be persisted: %v", err)
	} else {
		store = pg
		defer pg.Close()
	}

	var cache search.Cache
	if cfg.RedisAddr != "" {
		redisCache := search.NewRedisCache(cfg.RedisAddr, time.Duration(cfg.CacheTTLSec)*time.Second, logger)
		defer redisCache.Close()
		cache = redisCache
	}

	var fetcher search.Fetcher = orch
	if !*serve && cfg.CSVOutputPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			logger.Warn("Failed to create CSV audit writer: %v", err)
		} else {
			defer csvWriter.Close()
			fetcher = &auditingFetcher{inner: orch, writer: csvWriter, logger: logger}
		}
	}

	svc := search.New(fetcher, normalizer, store, cache, cfg.DefaultRadiusKm, logger)

	if *serve {
		runServer(svc, registry, cfg, timeout, logger)
		return
	}

	runOnce(svc, registry, cfg, timeout, logger, cliRequest{
		query:      *query,
		city:       *city,
		lat:        *lat,
		lon:        *lon,
		radius:     *radius,
		byDistance: *byDistance,
	})
}

func runServer(svc *search.Service, registry *geo.Registry, cfg *config.Config, timeout time.Duration, logger *utils.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	server := api.NewServer(svc, registry, timeout+10*time.Second, logger)
	if err := server.Run(ctx, cfg.APIBindAddr); err != nil {
		logger.Error("API server failed: %v", err)
		os.Exit(1)
	}
}

type cliRequest struct {
	query      string
	city       string
	lat        float64
	lon        float64
	radius     float64
	byDistance bool
}

func runOnce(svc *search.Service, registry *geo.Registry, cfg *config.Config, timeout time.Duration, logger *utils.Logger, req cliRequest) {
	if strings.TrimSpace(req.query) == "" {
		logger.Error("No query given. Usage: carscan -query \"mazda 3\" [-city Medellín] [-lat ... -lon ...] [-radius 30]")
		os.Exit(1)
	}

	criteria := models.SearchCriteria{
		Query:        req.query,
		CityHint:     req.city,
		DistanceSort: req.byDistance,
	}
	switch {
	case !math.IsNaN(req.lat) && !math.IsNaN(req.lon):
		criteria.Origin = &models.Coordinates{Latitude: req.lat, Longitude: req.lon}
	case req.city != "":
		criteria.Origin = registry.Centroid(req.city)
	}
	if req.radius > 0 {
		criteria.RadiusKm = &req.radius
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout+10*time.Second)
	defer cancel()

	result, err := svc.Search(ctx, criteria)
	if err != nil {
		logger.Error("Search failed: %v", err)
		os.Exit(1)
	}

	printResult(result)

	fmt.Printf("  Done. Raw CSV → %s\n\n", cfg.CSVOutputPath)
}

// auditingFetcher tees every raw listing from a fan-out into the CSV audit
// trail before handing the batch on.
type auditingFetcher struct {
	inner  search.Fetcher
	writer storage.RawListingWriter
	logger *utils.Logger
}

func (a *auditingFetcher) Run(ctx context.Context, query, cityHint string) *orchestrate.Result {
	result := a.inner.Run(ctx, query, cityHint)
	if len(result.Raw) > 0 {
		if err := a.writer.WriteRaw(result.Raw); err != nil {
			a.logger.Warn("CSV audit write failed: %v", err)
		}
	}
	return result
}

func printResult(r *models.SearchResult) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🚗 CARSCAN SEARCH RESULTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Search\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Query          : \033[1m%s\033[0m\n", r.Query)
	fmt.Printf("  Ranked listings: \033[1m%d\033[0m\n", len(r.Listings))
	fmt.Printf("  Dropped        : %d without price, %d duplicates", r.DroppedNoPrice, r.DroppedDupes)
	if r.SkippedNoCoords > 0 {
		fmt.Printf(", %d without coordinates", r.SkippedNoCoords)
	}
	fmt.Println()
	if r.TimedOut {
		fmt.Printf("  \033[1;31mPartial results: the search hit its global timeout\033[0m\n")
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Sources\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, src := range r.Sources {
		if src.Failed {
			fmt.Printf("  %-14s: \033[1;31mfailed\033[0m (%s)\n", src.Source, src.Err)
			continue
		}
		fmt.Printf("  %-14s: \033[1;32m%d listings\033[0m\n", src.Source, src.Listings)
	}
	fmt.Println()

	if len(r.Listings) == 0 {
		fmt.Printf("  No listings matched the search.\n\n")
		return
	}

	fmt.Printf("\033[1;33m  Top Offers\033[0m\n")
	fmt.Printf("  %s\n", thin)
	limit := len(r.Listings)
	if limit > 10 {
		limit = 10
	}
	for i, l := range r.Listings[:limit] {
		fmt.Printf("  %2d. \033[1m%s\033[0m\n", i+1, l.Title)
		fmt.Printf("      \033[1;32m$%.0f COP\033[0m", l.Price)
		if l.Year != nil {
			fmt.Printf(" | %d", *l.Year)
		}
		if l.Mileage != nil {
			fmt.Printf(" | %d km", *l.Mileage)
		}
		fmt.Printf(" | %s", l.City)
		if l.DistanceKm != nil {
			fmt.Printf(" | %.1f km away", *l.DistanceKm)
		}
		fmt.Println()
		fmt.Printf("      %s\n", l.URL)
	}
	fmt.Println()
}

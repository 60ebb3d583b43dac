// Package orchestrate fans one search out across every registered source
// adapter, isolating per-source failures so a partial result is the normal
// outcome rather than an error.
package orchestrate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carscan/models"
	"carscan/scraper"
	"carscan/utils"
)

// Orchestrator runs registered adapters concurrently, bounded by a
// concurrency limit, and merges their output in registration order.
type Orchestrator struct {
	adapters       []scraper.Adapter
	maxConcurrency int
	timeout        time.Duration
	logger         *utils.Logger
}

// Result is the merged outcome of one fan-out.
type Result struct {
	Raw      []*models.RawListing
	Sources  []models.SourceReport
	TimedOut bool
}

// New creates an Orchestrator over the given adapters. Registration order is
// the deterministic tie-break order used everywhere downstream.
func New(adapters []scraper.Adapter, maxConcurrency int, timeout time.Duration, logger *utils.Logger) *Orchestrator {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Orchestrator{
		adapters:       adapters,
		maxConcurrency: maxConcurrency,
		timeout:        timeout,
		logger:         logger,
	}
}

// Run dispatches one fetch per adapter and collects until every adapter
// finishes or the global timeout elapses. A failing or still-running adapter
// contributes zero listings; it never aborts the batch. The merged slice
// preserves per-adapter order and concatenates adapters in registration order.
func (o *Orchestrator) Run(ctx context.Context, query, cityHint string) *Result {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	type outcome struct {
		raw  []*models.RawListing
		err  error
		done bool
	}
	outcomes := make([]outcome, len(o.adapters))
	var mu sync.Mutex

	record := func(i int, oc outcome) {
		mu.Lock()
		outcomes[i] = oc
		mu.Unlock()
	}

	pool := utils.NewWorkerPool(o.maxConcurrency, 0)
	finished := make(chan struct{})

	for i, a := range o.adapters {
		i, a := i, a
		pool.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					record(i, outcome{err: fmt.Errorf("adapter panicked: %v", r), done: true})
					o.logger.Error("[orchestrate] %s panicked: %v", a.Source(), r)
				}
			}()

			raw, err := a.Fetch(ctx, query, cityHint)
			record(i, outcome{raw: raw, err: err, done: true})
		})
	}

	go func() {
		pool.Wait()
		close(finished)
	}()

	timedOut := false
	select {
	case <-finished:
	case <-ctx.Done():
		timedOut = true
		o.logger.Warn("[orchestrate] search timed out after %v, keeping partial results", o.timeout)
		// Adapters observe ctx and unwind; grant a short grace period so
		// their final outcomes land before the merge.
		select {
		case <-finished:
		case <-time.After(2 * time.Second):
		}
	}

	res := &Result{TimedOut: timedOut}
	mu.Lock()
	defer mu.Unlock()
	for i, a := range o.adapters {
		oc := outcomes[i]
		report := models.SourceReport{Source: a.Source()}

		switch {
		case !oc.done:
			report.Failed = true
			report.Err = "timed out"
		case oc.err != nil:
			report.Failed = true
			report.Err = oc.err.Error()
			o.logger.Warn("[orchestrate] %s failed: %v", a.Source(), oc.err)
		default:
			report.Listings = len(oc.raw)
			res.Raw = append(res.Raw, oc.raw...)
		}

		res.Sources = append(res.Sources, report)
	}

	o.logger.Info("[orchestrate] merged %d raw listings from %d sources", len(res.Raw), len(o.adapters))
	return res
}

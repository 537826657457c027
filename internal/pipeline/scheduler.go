package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/bookfill/internal/match"
	"github.com/lehigh-university-libraries/bookfill/internal/merge"
	"github.com/lehigh-university-libraries/bookfill/internal/providers"
)

// DefaultGrace bounds how long cancellation waits for in-flight items before
// abandoning them.
const DefaultGrace = 10 * time.Second

// Scheduler partitions items into batches and runs each item's full pipeline
// (all provider lookups, match, merge) under a bounded worker count.
type Scheduler struct {
	// Providers in declared priority order; the order also fixes merge
	// precedence.
	Providers    []providers.Provider
	TargetFields []string
	Threshold    float64
	Concurrency  int
	BatchSize    int
	BatchPause   time.Duration
	Grace        time.Duration
}

// Run processes items and delivers one Outcome per item on the returned
// channel, in completion order. Batches run sequentially; items within a
// batch run concurrently. When ctx is cancelled, no new items start,
// in-flight items get Grace to finish, and everything else resolves to a
// failed outcome with the cancelled kind.
func (s *Scheduler) Run(ctx context.Context, items []QueryItem) <-chan Outcome {
	out := make(chan Outcome, len(items))

	go func() {
		defer close(out)

		batchSize := s.BatchSize
		if batchSize < 1 {
			batchSize = len(items)
		}

		for start := 0; start < len(items); start += batchSize {
			end := start + batchSize
			if end > len(items) {
				end = len(items)
			}
			batch := items[start:end]

			if ctx.Err() != nil {
				for _, item := range items[start:] {
					out <- cancelledOutcome(item, ctx.Err())
				}
				return
			}

			slog.Info("Processing batch",
				"batch", start/batchSize+1,
				"batches", (len(items)+batchSize-1)/batchSize,
				"items", len(batch))

			s.runBatch(ctx, batch, out)

			if end < len(items) && s.BatchPause > 0 {
				timer := time.NewTimer(s.BatchPause)
				select {
				case <-ctx.Done():
					timer.Stop()
				case <-timer.C:
				}
			}
		}
	}()

	return out
}

// runBatch dispatches one batch under the concurrency cap and forwards every
// outcome to out before returning. Batch N+1 never starts until this
// returns, so all of batch N's outcomes are recorded first.
func (s *Scheduler) runBatch(ctx context.Context, batch []QueryItem, out chan<- Outcome) {
	concurrency := s.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	// Buffered to the batch size so abandoned workers can still deposit
	// their result and exit instead of leaking.
	results := make(chan Outcome, len(batch))
	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, item := range batch {
		if ctx.Err() != nil {
			results <- cancelledOutcome(item, ctx.Err())
			continue
		}

		wg.Add(1)
		go func(item QueryItem) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				results <- cancelledOutcome(item, ctx.Err())
				return
			}
			results <- s.processItem(ctx, item)
		}(item)
	}

	received := make(map[int]bool, len(batch))
	var graceExpired <-chan time.Time
	cancelled := ctx.Done()

	for len(received) < len(batch) {
		select {
		case outcome := <-results:
			received[outcome.Item.RowIndex] = true
			out <- outcome
		case <-cancelled:
			cancelled = nil
			grace := s.Grace
			if grace <= 0 {
				grace = DefaultGrace
			}
			timer := time.NewTimer(grace)
			defer timer.Stop()
			graceExpired = timer.C
		case <-graceExpired:
			// Force-abandon whatever is still in flight. Their late
			// results land in the buffered channel and are dropped.
			slog.Warn("Cancellation grace expired, abandoning in-flight items",
				"abandoned", len(batch)-len(received))
			for _, item := range batch {
				if !received[item.RowIndex] {
					received[item.RowIndex] = true
					out <- cancelledOutcome(item, ctx.Err())
				}
			}
			return
		}
	}

	wg.Wait()
}

// processItem runs the strict per-item pipeline: every configured provider
// is attempted, each provider's candidates go through the matcher, and the
// per-provider picks are merged. One provider failing does not fail the
// item; the item fails only when every provider does.
func (s *Scheduler) processItem(ctx context.Context, item QueryItem) Outcome {
	picks := make(map[string]match.ScoredCandidate)
	scores := make(map[string]float64)
	providerErrs := make([]error, 0, len(s.Providers))

	for _, provider := range s.Providers {
		candidates, err := provider.Lookup(ctx, item.Title)
		if err != nil {
			slog.Warn("Provider lookup failed",
				"provider", provider.Name(), "row", item.RowIndex, "title", item.Title, "err", err)
			providerErrs = append(providerErrs, err)
			continue
		}
		best, ok := match.Best(item.Title, candidates, s.Threshold)
		if !ok {
			slog.Debug("No candidate cleared threshold",
				"provider", provider.Name(), "row", item.RowIndex, "title", item.Title,
				"candidates", len(candidates))
			continue
		}
		picks[provider.Name()] = best
		scores[provider.Name()] = best.Score
	}

	if len(picks) == 0 {
		if len(providerErrs) == len(s.Providers) && len(s.Providers) > 0 {
			err := providerErrs[0]
			return Outcome{
				Item:    item,
				Status:  StatusFailed,
				ErrKind: errKind(err),
				Err:     err,
			}
		}
		return Outcome{Item: item, Status: StatusNoMatch}
	}

	order := make([]string, 0, len(s.Providers))
	for _, provider := range s.Providers {
		order = append(order, provider.Name())
	}
	record := merge.Merge(item.Existing, s.TargetFields, order, picks)

	return Outcome{
		Item:   item,
		Status: StatusMatched,
		Record: record,
		Scores: scores,
	}
}

func cancelledOutcome(item QueryItem, cause error) Outcome {
	return Outcome{
		Item:    item,
		Status:  StatusFailed,
		ErrKind: ErrKindCancelled,
		Err:     cause,
	}
}

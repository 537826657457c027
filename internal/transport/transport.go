// Package transport wraps provider HTTP calls with retry, exponential
// backoff, and a per-provider rate gate.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Options configures a Transport. Zero values fall back to the defaults the
// tool has always used: 5 attempts, 1s backoff base, 1s provider spacing.
type Options struct {
	Client    *http.Client
	Attempts  int
	Backoff   time.Duration
	RateDelay time.Duration
}

// Transport issues provider requests with bounded retries. Calls to the same
// provider are spaced at least RateDelay apart, across all goroutines.
type Transport struct {
	client    *http.Client
	attempts  int
	backoff   time.Duration
	rateDelay time.Duration

	mu       sync.Mutex
	lastCall map[string]time.Time
}

// New creates a Transport from opts.
func New(opts Options) *Transport {
	t := &Transport{
		client:    opts.Client,
		attempts:  opts.Attempts,
		backoff:   opts.Backoff,
		rateDelay: opts.RateDelay,
		lastCall:  make(map[string]time.Time),
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: 15 * time.Second}
	}
	if t.attempts < 1 {
		t.attempts = 5
	}
	if t.backoff <= 0 {
		t.backoff = time.Second
	}
	if t.rateDelay < 0 {
		t.rateDelay = time.Second
	}
	return t
}

// Do executes req for the named provider, retrying transient failures up to
// the attempt budget. On success the caller owns the response body. Failures
// are always a *Error.
func (t *Transport) Do(ctx context.Context, provider string, req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= t.attempts; attempt++ {
		if err := t.waitTurn(ctx, provider); err != nil {
			return nil, &Error{Kind: ErrCancelled, Provider: provider, Err: err}
		}

		resp, err := t.client.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, &Error{Kind: ErrCancelled, Provider: provider, Err: ctx.Err()}
			}
			// Timeouts, resets, and refused connections are all transient;
			// remember the timeout kind so exhaustion reports the real cause.
			lastErr = err
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				lastErr = &Error{Kind: ErrTimeout, Provider: provider, Err: err}
			}
			slog.Debug("Transient request failure", "provider", provider, "attempt", attempt, "err", err)
			if attempt == t.attempts {
				break
			}
			if err := sleepCtx(ctx, t.delayFor(attempt)); err != nil {
				return nil, &Error{Kind: ErrCancelled, Provider: provider, Err: err}
			}
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			delay := t.delayFor(attempt)
			if resp.StatusCode == http.StatusTooManyRequests {
				if after, ok := retryAfter(resp); ok {
					delay = after
				}
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			slog.Debug("Retryable status", "provider", provider, "attempt", attempt, "status", resp.StatusCode, "delay", delay)
			if attempt == t.attempts {
				break
			}
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, &Error{Kind: ErrCancelled, Provider: provider, Err: err}
			}
			continue
		default:
			// Client errors other than 429 will not improve on retry.
			resp.Body.Close()
			return nil, &Error{Kind: ErrHTTPStatus, Provider: provider, Status: resp.StatusCode}
		}
		break
	}

	return nil, &Error{Kind: ErrExhausted, Provider: provider, Err: lastErr}
}

// waitTurn reserves the provider's next allowed call slot and sleeps until
// it. Reservation happens under the lock so two concurrent callers can never
// both pass the gate inside the same spacing window.
func (t *Transport) waitTurn(ctx context.Context, provider string) error {
	if t.rateDelay == 0 {
		return nil
	}
	t.mu.Lock()
	now := time.Now()
	next := now
	if last, ok := t.lastCall[provider]; ok {
		if earliest := last.Add(t.rateDelay); earliest.After(now) {
			next = earliest
		}
	}
	t.lastCall[provider] = next
	t.mu.Unlock()

	if wait := time.Until(next); wait > 0 {
		return sleepCtx(ctx, wait)
	}
	return nil
}

// delayFor returns the exponential backoff delay before retrying attempt k,
// i.e. backoff * 2^(k-1).
func (t *Transport) delayFor(attempt int) time.Duration {
	d := t.backoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if when, err := http.ParseTime(header); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait, true
		}
		return 0, true
	}
	return 0, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

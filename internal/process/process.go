package process

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultKeys are the letters scraped when no keys are given.
var DefaultKeys = func() []string {
	keys := make([]string, 0, 26)
	for c := 'a'; c <= 'z'; c++ {
		keys = append(keys, string(c))
	}
	return keys
}()

// ParseKeys splits s into single-character keys, keeping their order.
// An empty s yields DefaultKeys.
func ParseKeys(s string) []string {
	if s == "" {
		return append([]string(nil), DefaultKeys...)
	}

	keys := make([]string, 0, len(s))
	for _, c := range s {
		keys = append(keys, string(c))
	}
	return keys
}

// ParseDelay validates a delay given on the command line. The value is
// returned as written so it reaches the scraper unchanged; empty means no
// delay.
func ParseDelay(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("delay %q is not a number", s)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("delay %q must be a non-negative finite number", s)
	}
	return s, nil
}

// Invoker drives one scraper invocation per key, strictly in sequence.
type Invoker struct {
	runner Runner
}

// NewInvoker creates an invoker that hands every key to runner.
func NewInvoker(runner Runner) (*Invoker, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	return &Invoker{runner: runner}, nil
}

// Run invokes the runner once per key in order. A failed invocation is
// logged and the remaining keys are still processed; nothing is retried.
// Only cancellation of ctx stops the loop early.
func (i *Invoker) Run(ctx context.Context, keys []string, delay string) error {
	log.Info().
		Int("keys", len(keys)).
		Str("delay", delay).
		Msg("Starting scraper fan-out")

	failed := 0
	for n, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger := log.With().
			Str("key", key).
			Int("position", n+1).
			Int("total", len(keys)).
			Logger()

		logger.Info().Msg("Invoking scraper")

		start := time.Now()
		err := i.runner.Run(ctx, key, delay)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			failed++
			logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Scraper invocation failed")
			continue
		}

		logger.Info().Dur("duration", time.Since(start)).Msg("Scraper invocation finished")
	}

	log.Info().
		Int("invoked", len(keys)).
		Int("failed", failed).
		Msg("Scraper fan-out finished")

	return nil
}

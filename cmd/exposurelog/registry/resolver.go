package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/common/cache"
	"github.com/lsst-sqre/exposurelog/common/logger"
)

// MatchPolicy decides what a registry with several matching records means.
type MatchPolicy string

const (
	// MatchPolicyFail treats several matches as a corrupt registry.
	MatchPolicyFail MatchPolicy = "fail"
	// MatchPolicyFirst takes the first record the registry returns.
	MatchPolicyFirst MatchPolicy = "first"
)

// ParseMatchPolicy validates s
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch MatchPolicy(s) {
	case MatchPolicyFail, MatchPolicyFirst:
		return MatchPolicy(s), nil
	}
	return "", fmt.Errorf("invalid match policy %q", s)
}

// Resolution is a resolved exposure and the registry it came from.
type Resolution struct {
	Exposure      models.Exposure `json:"exposure"`
	RegistryIndex int             `json:"registry_index"` // 1-based
	URI           string          `json:"uri"`
}

type stepOutcome int

const (
	stepSkip stepOutcome = iota
	stepMatched
)

// stepResult is the result of asking one registry: a match, a skip
// (no record or unknown instrument), or a hard failure in err.
type stepResult struct {
	outcome  stepOutcome
	exposure models.Exposure
	err      error
}

// Resolver looks exposures up in an ordered list of registries.
// The first registry with a match wins and later ones are not asked.
type Resolver struct {
	registries []Registry
	policy     MatchPolicy
	timeout    time.Duration
	cache      cache.Cache
	cacheTTL   time.Duration
	log        *logger.Logger
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithMatchPolicy sets how several matches in one registry are handled
func WithMatchPolicy(p MatchPolicy) ResolverOption {
	return func(r *Resolver) { r.policy = p }
}

// WithTimeout bounds each registry lookup
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.timeout = d }
}

// WithCache caches positive resolutions. Exposures never change, so
// the TTL only bounds memory.
func WithCache(c cache.Cache, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// NewResolver creates a resolver over registries, searched in order
func NewResolver(registries []Registry, log *logger.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registries: registries,
		policy:     MatchPolicyFail,
		log:        log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registries returns the registries in search order
func (r *Resolver) Registries() []Registry {
	return r.registries
}

// Resolve finds (instrument, obsID). It returns ErrExposureNotFound when no
// registry has it, ErrMultipleMatches when the first registry holding it
// has several records under MatchPolicyFail, and ErrRegistry for any
// other failure.
func (r *Resolver) Resolve(ctx context.Context, instrument, obsID string) (*Resolution, error) {
	key := cacheKey(instrument, obsID)
	if res, ok := r.cached(ctx, key); ok {
		CounterResolutions.WithLabelValues("cached").Inc()
		return res, nil
	}

	for i, reg := range r.registries {
		step := r.lookup(ctx, reg, instrument, obsID)
		if step.err != nil {
			if errors.Is(step.err, ErrMultipleMatches) {
				CounterResolutions.WithLabelValues("multiple").Inc()
			} else {
				CounterResolutions.WithLabelValues("error").Inc()
			}
			return nil, step.err
		}
		if step.outcome == stepSkip {
			continue
		}

		res := &Resolution{Exposure: step.exposure, RegistryIndex: i + 1, URI: reg.URI()}
		r.store(ctx, key, res)
		CounterResolutions.WithLabelValues("found").Inc()
		return res, nil
	}

	CounterResolutions.WithLabelValues("not_found").Inc()
	return nil, fmt.Errorf("%w: instrument=%s obs_id=%s", ErrExposureNotFound, instrument, obsID)
}

// lookup asks one registry on its own goroutine, so a slow registry client
// cannot outlive a cancelled request.
func (r *Resolver) lookup(ctx context.Context, reg Registry, instrument, obsID string) stepResult {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan stepResult, 1)
	go func() {
		done <- r.step(ctx, reg, instrument, obsID)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return stepResult{err: fmt.Errorf("%w: %s: %w", ErrRegistry, reg.URI(), ctx.Err())}
	}
}

func (r *Resolver) step(ctx context.Context, reg Registry, instrument, obsID string) stepResult {
	records, err := reg.FindExposure(ctx, instrument, obsID)
	if errors.Is(err, ErrUnknownInstrument) {
		r.log.Debug("instrument unknown to registry, skipping", "uri", reg.URI(), "instrument", instrument)
		return stepResult{outcome: stepSkip}
	}
	if err != nil {
		return stepResult{err: fmt.Errorf("%w: %s: %w", ErrRegistry, reg.URI(), err)}
	}

	switch {
	case len(records) == 0:
		return stepResult{outcome: stepSkip}
	case len(records) > 1 && r.policy == MatchPolicyFail:
		return stepResult{err: fmt.Errorf("%w: %d records for instrument=%s obs_id=%s in %s",
			ErrMultipleMatches, len(records), instrument, obsID, reg.URI())}
	case len(records) > 1:
		r.log.Warn("several exposures match, using the first",
			"uri", reg.URI(), "instrument", instrument, "obs_id", obsID, "count", len(records))
	}
	return stepResult{outcome: stepMatched, exposure: records[0]}
}

func cacheKey(instrument, obsID string) string {
	return "exposure:" + instrument + ":" + obsID
}

func (r *Resolver) cached(ctx context.Context, key string) (*Resolution, bool) {
	if r.cache == nil {
		return nil, false
	}
	data, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.Warn("exposure cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var res Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		r.log.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	return &res, true
}

func (r *Resolver) store(ctx context.Context, key string, res *Resolution) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
		r.log.Warn("exposure cache write failed", "key", key, "error", err)
	}
}

// Close closes every registry
func (r *Resolver) Close() error {
	var errs []error
	for _, reg := range r.registries {
		if err := reg.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

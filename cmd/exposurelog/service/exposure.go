package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/registry"
	"github.com/lsst-sqre/exposurelog/common/logger"
)

// MaxRegistries is the number of registry slots the API exposes.
const MaxRegistries = 3

// ExposureService answers read-only questions about the registries.
type ExposureService struct {
	resolver *registry.Resolver
	log      *logger.Logger
}

// NewExposureService creates a new exposure service
func NewExposureService(resolver *registry.Resolver, log *logger.Logger) *ExposureService {
	return &ExposureService{resolver: resolver, log: log}
}

// FindExposures searches registry registryIndex (1-based) for exposures of
// instrument, using the query.ExposureTable filter keys.
func (s *ExposureService) FindExposures(ctx context.Context, registryIndex int, instrument string, args map[string]any, orderBy []string, limit, offset int) ([]models.Exposure, error) {
	if registryIndex < 1 || registryIndex > MaxRegistries {
		return nil, badRequestf("registry=%d must be in the range [1, %d]", registryIndex, MaxRegistries)
	}
	registries := s.resolver.Registries()
	if registryIndex > len(registries) {
		return nil, notFoundf("registry=%d but only %d registries configured", registryIndex, len(registries))
	}

	exposures, err := registries[registryIndex-1].FindExposures(ctx, instrument, args, orderBy, limit, offset)
	if errors.Is(err, registry.ErrUnknownInstrument) {
		return nil, notFoundf("instrument %q in registry %d", instrument, registryIndex)
	}
	if err != nil {
		return nil, err
	}
	if exposures == nil {
		exposures = []models.Exposure{}
	}
	return exposures, nil
}

// Instruments lists the instruments of every registry, keyed
// butler_instruments_1 through butler_instruments_3. Unconfigured slots
// hold an empty list. Registries are queried concurrently.
func (s *ExposureService) Instruments(ctx context.Context) (map[string][]string, error) {
	registries := s.resolver.Registries()
	lists := make([][]string, MaxRegistries)

	g, gctx := errgroup.WithContext(ctx)
	for i, reg := range registries {
		if i >= MaxRegistries {
			break
		}
		i, reg := i, reg
		g.Go(func() error {
			names, err := reg.Instruments(gctx)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", registry.ErrRegistry, reg.URI(), err)
			}
			lists[i] = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string][]string, MaxRegistries)
	for i, names := range lists {
		if names == nil {
			names = []string{}
		}
		result[fmt.Sprintf("butler_instruments_%d", i+1)] = names
	}
	return result, nil
}

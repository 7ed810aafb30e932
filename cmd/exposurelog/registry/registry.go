package registry

import (
	"context"
	"errors"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
)

var (
	// ErrUnknownInstrument means a registry does not know the instrument.
	// The resolver treats it as no match in that registry.
	ErrUnknownInstrument = errors.New("unknown instrument")

	// ErrExposureNotFound means no registry has the exposure.
	ErrExposureNotFound = errors.New("exposure not found")

	// ErrMultipleMatches means one registry holds more than one record for
	// an (instrument, obs_id) pair, which indicates a corrupt registry.
	ErrMultipleMatches = errors.New("multiple exposures match")

	// ErrRegistry wraps any other registry failure.
	ErrRegistry = errors.New("registry failure")
)

// Registry is a read-only source of exposure records
type Registry interface {
	URI() string

	// FindExposure returns every record for (instrument, obsID), possibly
	// none, or ErrUnknownInstrument.
	FindExposure(ctx context.Context, instrument, obsID string) ([]models.Exposure, error)

	// FindExposures searches one instrument's exposures with the
	// query.ExposureTable filter keys.
	FindExposures(ctx context.Context, instrument string, args map[string]any, orderBy []string, limit, offset int) ([]models.Exposure, error)

	// Instruments lists the instruments the registry knows.
	Instruments(ctx context.Context) ([]string, error)

	Close() error
}

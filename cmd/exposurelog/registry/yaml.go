package registry

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
	"github.com/lsst-sqre/exposurelog/common/db"
)

// Fixture is the YAML layout of a fixture registry. Instruments named by an
// exposure are registered even when not listed.
type Fixture struct {
	Instruments []string          `yaml:"instruments"`
	Exposures   []models.Exposure `yaml:"exposures"`
}

// LoadYAML reads a fixture file into an in-memory registry
func LoadYAML(ctx context.Context, path string) (*SQLRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry fixture %s: %w", path, err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse registry fixture %s: %w", path, err)
	}

	return NewFixtureRegistry(ctx, path, fixture)
}

// NewFixtureRegistry builds an in-memory SQLite registry holding fixture
func NewFixtureRegistry(ctx context.Context, uri string, fixture Fixture) (*SQLRegistry, error) {
	sqlDB, err := db.OpenSQLite(":memory:")
	if err != nil {
		return nil, err
	}

	reg := NewSQLRegistry(uri, sqlDB, query.SQLite)
	if err := reg.CreateSchema(ctx); err != nil {
		reg.Close()
		return nil, err
	}
	if err := reg.load(ctx, fixture); err != nil {
		reg.Close()
		return nil, fmt.Errorf("failed to load registry fixture %s: %w", uri, err)
	}
	return reg, nil
}

func (r *SQLRegistry) load(ctx context.Context, fixture Fixture) error {
	instruments := slices.Clone(fixture.Instruments)
	for _, e := range fixture.Exposures {
		if !slices.Contains(instruments, e.Instrument) {
			instruments = append(instruments, e.Instrument)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, name := range instruments {
		if _, err := tx.ExecContext(ctx, "INSERT INTO instrument (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("instrument %s: %w", name, err)
		}
	}

	insert := fmt.Sprintf("INSERT INTO exposure (%s) VALUES (%s)",
		joinColumns(),
		strings.TrimSuffix(strings.Repeat("?, ", len(models.ExposureColumns)), ", "),
	)
	for _, e := range fixture.Exposures {
		b := query.NewBinder(r.dialect,
			e.ObsID,
			e.ID,
			e.Instrument,
			e.ObservationType,
			e.ObservationReason,
			e.DayObs,
			e.SeqNum,
			e.GroupName,
			e.GroupID,
			e.TargetName,
			e.ScienceProgram,
			e.TrackingRA,
			e.TrackingDec,
			e.SkyAngle,
			e.TimespanBegin,
			e.TimespanEnd,
		)
		if _, err := tx.ExecContext(ctx, insert, b.Args...); err != nil {
			return fmt.Errorf("exposure %s: %w", e.ObsID, err)
		}
	}

	return tx.Commit()
}

package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
)

//go:embed schema/registry.sql
var registrySchema string

// SQLRegistry reads exposures from a relational registry database with
// instrument and exposure tables.
type SQLRegistry struct {
	uri     string
	db      *sql.DB
	dialect query.Dialect
}

// NewSQLRegistry wraps an open registry database
func NewSQLRegistry(uri string, db *sql.DB, dialect query.Dialect) *SQLRegistry {
	return &SQLRegistry{uri: uri, db: db, dialect: dialect}
}

// URI returns the location the registry was opened from
func (r *SQLRegistry) URI() string {
	return r.uri
}

// CreateSchema creates the registry tables. Only fixture registries need it.
func (r *SQLRegistry) CreateSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, registrySchema); err != nil {
		return fmt.Errorf("failed to create registry schema: %w", err)
	}
	return nil
}

// Close closes the registry database
func (r *SQLRegistry) Close() error {
	return r.db.Close()
}

// Instruments lists known instruments in name order
func (r *SQLRegistry) Instruments(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM instrument ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments in %s: %w", r.uri, err)
	}
	defer rows.Close()

	instruments := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, name)
	}
	return instruments, rows.Err()
}

// FindExposure returns all records for (instrument, obsID)
func (r *SQLRegistry) FindExposure(ctx context.Context, instrument, obsID string) ([]models.Exposure, error) {
	if err := r.checkInstrument(ctx, instrument); err != nil {
		return nil, err
	}

	b := query.NewBinder(r.dialect)
	where := query.Where(r.dialect, b, []query.Condition{
		query.Equal{Column: "instrument", Value: instrument},
		query.Equal{Column: "obs_id", Value: obsID},
	})
	sqlText := fmt.Sprintf("SELECT %s FROM exposure WHERE %s", joinColumns(), where)

	return r.collect(ctx, sqlText, b.Args)
}

// FindExposures searches the exposures of one instrument
func (r *SQLRegistry) FindExposures(ctx context.Context, instrument string, args map[string]any, orderBy []string, limit, offset int) ([]models.Exposure, error) {
	if err := r.checkInstrument(ctx, instrument); err != nil {
		return nil, err
	}

	table := query.ExposureTable.WithFixed(query.Equal{Column: "instrument", Value: instrument})
	q, err := query.Build(table, args, orderBy, limit, offset)
	if err != nil {
		return nil, err
	}

	sqlText, sqlArgs := q.SQL(r.dialect)
	return r.collect(ctx, sqlText, sqlArgs)
}

func (r *SQLRegistry) checkInstrument(ctx context.Context, instrument string) error {
	b := query.NewBinder(r.dialect)
	sqlText := "SELECT name FROM instrument WHERE name = " + b.Bind(instrument)

	var name string
	err := r.db.QueryRowContext(ctx, sqlText, b.Args...).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s in %s", ErrUnknownInstrument, instrument, r.uri)
	}
	if err != nil {
		return fmt.Errorf("failed to look up instrument %s in %s: %w", instrument, r.uri, err)
	}
	return nil
}

func (r *SQLRegistry) collect(ctx context.Context, sqlText string, args []any) ([]models.Exposure, error) {
	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exposures in %s: %w", r.uri, err)
	}
	defer rows.Close()

	exposures := []models.Exposure{}
	for rows.Next() {
		exp, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exposure: %w", err)
		}
		exposures = append(exposures, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exposures in %s: %w", r.uri, err)
	}
	return exposures, nil
}

func (r *SQLRegistry) scan(rows *sql.Rows) (models.Exposure, error) {
	var (
		e          models.Exposure
		begin, end any
	)
	err := rows.Scan(
		&e.ObsID,
		&e.ID,
		&e.Instrument,
		&e.ObservationType,
		&e.ObservationReason,
		&e.DayObs,
		&e.SeqNum,
		&e.GroupName,
		&e.GroupID,
		&e.TargetName,
		&e.ScienceProgram,
		&e.TrackingRA,
		&e.TrackingDec,
		&e.SkyAngle,
		&begin,
		&end,
	)
	if err != nil {
		return e, err
	}

	if e.TimespanBegin, err = parseTimestamp(begin); err != nil {
		return e, fmt.Errorf("timespan_begin of %s: %w", e.ObsID, err)
	}
	if e.TimespanEnd, err = parseTimestamp(end); err != nil {
		return e, fmt.Errorf("timespan_end of %s: %w", e.ObsID, err)
	}
	return e, nil
}

// parseTimestamp accepts a driver timestamp or the SQLite text layout.
func parseTimestamp(v any) (*time.Time, error) {
	switch tv := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t := tv.UTC()
		return &t, nil
	case string:
		t, err := time.Parse(query.TimeLayout, tv)
		if err != nil {
			return nil, err
		}
		return &t, nil
	case []byte:
		return parseTimestamp(string(tv))
	}
	return nil, fmt.Errorf("unsupported timestamp type %T", v)
}

func joinColumns() string {
	return strings.Join(models.ExposureColumns, ", ")
}

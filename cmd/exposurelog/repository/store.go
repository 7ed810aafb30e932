package repository

import (
	"context"
	_ "embed"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
)

var (
	//go:embed schema/postgres.sql
	postgresSchema string

	//go:embed schema/sqlite.sql
	sqliteSchema string
)

// ErrNotFound is returned when no message matches.
var ErrNotFound = errors.New("message not found")

// BuildFunc derives the fields of an edit's new row from the locked parent.
type BuildFunc func(parent *models.Message) (models.MessageFields, error)

// MessageStore is durable access to the message table.
// Every method except Edit is a single statement.
type MessageStore interface {
	// Insert adds a row. The store assigns id; is_valid follows from
	// date_invalidated, which is always null on insert.
	Insert(ctx context.Context, fields models.MessageFields) (*models.Message, error)

	// Get returns ErrNotFound when id does not exist.
	Get(ctx context.Context, id uuid.UUID) (*models.Message, error)

	// Select runs a query built against query.MessageTable.
	Select(ctx context.Context, q *query.Query) ([]*models.Message, error)

	// Invalidate sets date_invalidated=at on every row in ids, scoped to
	// siteID when given, and returns the rows it updated. Rows that are
	// already invalid get the new timestamp.
	Invalidate(ctx context.Context, ids []uuid.UUID, siteID *string, at time.Time) ([]*models.Message, error)

	// Edit locks the parent, inserts build(parent) and invalidates the
	// parent at the same instant, all in one transaction.
	Edit(ctx context.Context, parentID uuid.UUID, parentSiteID *string, build BuildFunc, at time.Time) (*models.Message, error)

	// CreateSchema creates the message table and indices if missing.
	CreateSchema(ctx context.Context) error

	Dialect() query.Dialect
}

// rowScanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func selectColumns() string {
	return strings.Join(models.MessageColumns, ", ")
}

func insertColumns() []string {
	return []string{
		"id", "site_id", "obs_id", "instrument", "day_obs", "seq_num",
		"message_text", "level", "tags", "urls", "user_id", "user_agent",
		"is_human", "exposure_flag", "date_added", "parent_id",
	}
}

// normalizeFields fills defaults the store relies on.
func normalizeFields(f models.MessageFields) models.MessageFields {
	if f.Tags == nil {
		f.Tags = []string{}
	}
	if f.URLs == nil {
		f.URLs = []string{}
	}
	if f.ExposureFlag == "" {
		f.ExposureFlag = models.ExposureFlagNone
	}
	f.DateAdded = f.DateAdded.UTC().Truncate(time.Microsecond)
	return f
}

func idConditions(ids []uuid.UUID, siteID *string) []query.Condition {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	conds := []query.Condition{query.In{Column: "id", Values: values}}
	if siteID != nil {
		conds = append(conds, query.Equal{Column: "site_id", Value: *siteID})
	}
	return conds
}

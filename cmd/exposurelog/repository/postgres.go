package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
)

// querier is the part of pgxpool.Pool and pgx.Tx the store uses.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the message store on PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new message store on pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Dialect returns query.Postgres
func (s *PostgresStore) Dialect() query.Dialect {
	return query.Postgres
}

// CreateSchema creates the message table, enum type and indices
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create message schema: %w", err)
	}
	return nil
}

// Insert adds a message
func (s *PostgresStore) Insert(ctx context.Context, fields models.MessageFields) (*models.Message, error) {
	msg, err := s.insert(ctx, s.pool, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg, nil
}

func (s *PostgresStore) insert(ctx context.Context, q querier, fields models.MessageFields) (*models.Message, error) {
	f := normalizeFields(fields)

	b := query.NewBinder(query.Postgres)
	placeholders := []string{
		b.Bind(uuid.New()),
		b.Bind(f.SiteID),
		b.Bind(f.ObsID),
		b.Bind(f.Instrument),
		b.Bind(f.DayObs),
		b.Bind(f.SeqNum),
		b.Bind(f.MessageText),
		b.Bind(f.Level),
		b.Bind(f.Tags),
		b.Bind(f.URLs),
		b.Bind(f.UserID),
		b.Bind(f.UserAgent),
		b.Bind(f.IsHuman),
		"CAST(" + b.Bind(string(f.ExposureFlag)) + "::text AS exposure_flag_enum)",
		b.Bind(f.DateAdded),
		b.Bind(f.ParentID),
	}

	sql := fmt.Sprintf("INSERT INTO message (%s) VALUES (%s) RETURNING %s",
		strings.Join(insertColumns(), ", "),
		strings.Join(placeholders, ", "),
		selectColumnsPostgres(),
	)

	return scanPostgres(q.QueryRow(ctx, sql, b.Args...))
}

// Get retrieves a message by id
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	sql := fmt.Sprintf("SELECT %s FROM message WHERE id = $1", selectColumnsPostgres())

	msg, err := scanPostgres(s.pool.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

// Select runs q
func (s *PostgresStore) Select(ctx context.Context, q *query.Query) ([]*models.Message, error) {
	sql, args := q.SQL(query.Postgres)
	sql, err := postgresSelect(sql)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	return collectPostgres(rows)
}

// Invalidate marks messages invalid and returns the rows it changed
func (s *PostgresStore) Invalidate(ctx context.Context, ids []uuid.UUID, siteID *string, at time.Time) ([]*models.Message, error) {
	if len(ids) == 0 {
		return []*models.Message{}, nil
	}

	b := query.NewBinder(query.Postgres, at.UTC().Truncate(time.Microsecond))
	where := query.Where(query.Postgres, b, idConditions(ids, siteID))
	sql := fmt.Sprintf("UPDATE message SET date_invalidated = $1 WHERE %s RETURNING %s", where, selectColumnsPostgres())

	rows, err := s.pool.Query(ctx, sql, b.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate messages: %w", err)
	}
	return collectPostgres(rows)
}

// Edit inserts a new version of a message and invalidates the parent atomically.
// The parent row stays locked until commit, so concurrent edits of one
// parent serialize.
func (s *PostgresStore) Edit(ctx context.Context, parentID uuid.UUID, parentSiteID *string, build BuildFunc, at time.Time) (*models.Message, error) {
	at = at.UTC().Truncate(time.Microsecond)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin edit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	b := query.NewBinder(query.Postgres)
	where := query.Where(query.Postgres, b, idConditions([]uuid.UUID{parentID}, parentSiteID))
	sql := fmt.Sprintf("SELECT %s FROM message WHERE %s%s", selectColumnsPostgres(), where, query.Postgres.LockClause())

	parent, err := scanPostgres(tx.QueryRow(ctx, sql, b.Args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock parent message %s: %w", parentID, err)
	}

	fields, err := build(parent)
	if err != nil {
		return nil, err
	}

	child, err := s.insert(ctx, tx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to insert edited message: %w", err)
	}

	if _, err := tx.Exec(ctx, "UPDATE message SET date_invalidated = $1 WHERE id = $2", at, parent.ID); err != nil {
		return nil, fmt.Errorf("failed to invalidate parent message %s: %w", parentID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit edit: %w", err)
	}
	return child, nil
}

// selectColumnsPostgres selects exposure_flag as text so it scans without
// registering the enum type on every connection.
func selectColumnsPostgres() string {
	cols := make([]string, len(models.MessageColumns))
	for i, col := range models.MessageColumns {
		if col == "exposure_flag" {
			col = "exposure_flag::text"
		}
		cols[i] = col
	}
	return strings.Join(cols, ", ")
}

// postgresSelect swaps the column list of a select built from
// query.MessageTable for selectColumnsPostgres.
func postgresSelect(sql string) (string, error) {
	rest, ok := strings.CutPrefix(sql, "SELECT "+selectColumns()+" ")
	if !ok {
		return "", fmt.Errorf("select does not list the message columns: %.60s", sql)
	}
	return "SELECT " + selectColumnsPostgres() + " " + rest, nil
}

func scanPostgres(row rowScanner) (*models.Message, error) {
	var m models.Message
	var flag string
	err := row.Scan(
		&m.ID,
		&m.SiteID,
		&m.ObsID,
		&m.Instrument,
		&m.DayObs,
		&m.SeqNum,
		&m.MessageText,
		&m.Level,
		&m.Tags,
		&m.URLs,
		&m.UserID,
		&m.UserAgent,
		&m.IsHuman,
		&m.IsValid,
		&flag,
		&m.DateAdded,
		&m.DateInvalidated,
		&m.ParentID,
	)
	if err != nil {
		return nil, err
	}
	m.ExposureFlag = models.ExposureFlag(flag)
	return &m, nil
}

func collectPostgres(rows pgx.Rows) ([]*models.Message, error) {
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
)

// SQLiteStore is the message store on SQLite, for single-node deployments
// and tests. Arrays are stored as JSON text and timestamps as fixed-width
// ISO strings. The handle must be limited to one connection, which
// serializes writers and makes Edit's transaction exclusive.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a message store on db
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Dialect returns query.SQLite
func (s *SQLiteStore) Dialect() query.Dialect {
	return query.SQLite
}

// CreateSchema creates the message table and indices
func (s *SQLiteStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create message schema: %w", err)
	}
	return nil
}

// Insert adds a message
func (s *SQLiteStore) Insert(ctx context.Context, fields models.MessageFields) (*models.Message, error) {
	msg, err := s.insert(ctx, s.db, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg, nil
}

type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) insert(ctx context.Context, q sqlQuerier, fields models.MessageFields) (*models.Message, error) {
	f := normalizeFields(fields)

	tags, err := json.Marshal(f.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	urls, err := json.Marshal(f.URLs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode urls: %w", err)
	}

	b := query.NewBinder(query.SQLite,
		uuid.New(),
		f.SiteID,
		f.ObsID,
		f.Instrument,
		f.DayObs,
		f.SeqNum,
		f.MessageText,
		f.Level,
		string(tags),
		string(urls),
		f.UserID,
		f.UserAgent,
		f.IsHuman,
		string(f.ExposureFlag),
		f.DateAdded,
		f.ParentID,
	)

	cols := insertColumns()
	sqlText := fmt.Sprintf("INSERT INTO message (%s) VALUES (%s) RETURNING %s",
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		selectColumns(),
	)

	return scanSQLite(q.QueryRowContext(ctx, sqlText, b.Args...))
}

// Get retrieves a message by id
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	sqlText := fmt.Sprintf("SELECT %s FROM message WHERE id = ?", selectColumns())

	msg, err := scanSQLite(s.db.QueryRowContext(ctx, sqlText, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

// Select runs q
func (s *SQLiteStore) Select(ctx context.Context, q *query.Query) ([]*models.Message, error) {
	sqlText, args := q.SQL(query.SQLite)

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	return collectSQLite(rows)
}

// Invalidate marks messages invalid and returns the rows it changed
func (s *SQLiteStore) Invalidate(ctx context.Context, ids []uuid.UUID, siteID *string, at time.Time) ([]*models.Message, error) {
	if len(ids) == 0 {
		return []*models.Message{}, nil
	}

	b := query.NewBinder(query.SQLite, at)
	where := query.Where(query.SQLite, b, idConditions(ids, siteID))
	sqlText := fmt.Sprintf("UPDATE message SET date_invalidated = ? WHERE %s RETURNING %s", where, selectColumns())

	rows, err := s.db.QueryContext(ctx, sqlText, b.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to invalidate messages: %w", err)
	}
	return collectSQLite(rows)
}

// Edit inserts a new version of a message and invalidates the parent atomically
func (s *SQLiteStore) Edit(ctx context.Context, parentID uuid.UUID, parentSiteID *string, build BuildFunc, at time.Time) (*models.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin edit transaction: %w", err)
	}
	defer tx.Rollback()

	b := query.NewBinder(query.SQLite)
	where := query.Where(query.SQLite, b, idConditions([]uuid.UUID{parentID}, parentSiteID))
	sqlText := fmt.Sprintf("SELECT %s FROM message WHERE %s%s", selectColumns(), where, query.SQLite.LockClause())

	parent, err := scanSQLite(tx.QueryRowContext(ctx, sqlText, b.Args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read parent message %s: %w", parentID, err)
	}

	fields, err := build(parent)
	if err != nil {
		return nil, err
	}

	child, err := s.insert(ctx, tx, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to insert edited message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE message SET date_invalidated = ? WHERE id = ?",
		query.SQLite.Value(at), parent.ID); err != nil {
		return nil, fmt.Errorf("failed to invalidate parent message %s: %w", parentID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit edit: %w", err)
	}
	return child, nil
}

func scanSQLite(row rowScanner) (*models.Message, error) {
	var (
		m               models.Message
		tags, urls      string
		flag, dateAdded string
		dateInvalidated sql.NullString
	)
	err := row.Scan(
		&m.ID,
		&m.SiteID,
		&m.ObsID,
		&m.Instrument,
		&m.DayObs,
		&m.SeqNum,
		&m.MessageText,
		&m.Level,
		&tags,
		&urls,
		&m.UserID,
		&m.UserAgent,
		&m.IsHuman,
		&m.IsValid,
		&flag,
		&dateAdded,
		&dateInvalidated,
		&m.ParentID,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(urls), &m.URLs); err != nil {
		return nil, fmt.Errorf("failed to decode urls of %s: %w", m.ID, err)
	}
	m.ExposureFlag = models.ExposureFlag(flag)

	if m.DateAdded, err = time.Parse(query.TimeLayout, dateAdded); err != nil {
		return nil, fmt.Errorf("failed to parse date_added of %s: %w", m.ID, err)
	}
	if dateInvalidated.Valid {
		t, err := time.Parse(query.TimeLayout, dateInvalidated.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date_invalidated of %s: %w", m.ID, err)
		}
		m.DateInvalidated = &t
	}
	return &m, nil
}

func collectSQLite(rows *sql.Rows) ([]*models.Message, error) {
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg, err := scanSQLite(rows)
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

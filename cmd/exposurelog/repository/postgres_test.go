package repository

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
)

// newPostgresTestStore connects to EXPOSURELOG_TEST_DATABASE_URL and returns
// a store plus a site id unique to the test. Rows with that site id are
// removed on cleanup.
func newPostgresTestStore(t *testing.T) (*PostgresStore, string) {
	t.Helper()

	dsn := os.Getenv("EXPOSURELOG_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("EXPOSURELOG_TEST_DATABASE_URL not set, skipping Postgres store test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewPostgresStore(pool)
	require.NoError(t, store.CreateSchema(ctx))

	siteID := "t" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	t.Cleanup(func() {
		_, err := pool.Exec(context.Background(), "DELETE FROM message WHERE site_id = $1", siteID)
		assert.NoError(t, err)
	})
	return store, siteID
}

func postgresFields(siteID, obsID string) models.MessageFields {
	f := testFields(obsID)
	f.SiteID = siteID
	return f
}

func TestPostgresSelect_SwapsColumns(t *testing.T) {
	q, err := query.Build(query.MessageTable, nil, []string{"exposure_flag"}, 10, 0)
	require.NoError(t, err)

	sql, _ := q.SQL(query.Postgres)
	swapped, err := postgresSelect(sql)
	require.NoError(t, err)

	assert.Contains(t, swapped, "exposure_flag::text")
	assert.Contains(t, swapped, "ORDER BY message.exposure_flag ASC NULLS LAST")
	assert.Equal(t, len(models.MessageColumns), strings.Count(selectColumnsPostgres(), ",")+1)
}

func TestPostgresSelect_RejectsOtherColumnList(t *testing.T) {
	_, err := postgresSelect("SELECT id FROM message LIMIT $1 OFFSET $2")
	assert.Error(t, err)
}

func TestPostgresStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	store, siteID := newPostgresTestStore(t)

	fields := postgresFields(siteID, "MC_C_20240301_000002")
	fields.ExposureFlag = models.ExposureFlagJunk

	inserted, err := store.Insert(ctx, fields)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, inserted.ID)
	assert.True(t, inserted.IsValid)
	assert.Nil(t, inserted.DateInvalidated)
	assert.Equal(t, models.ExposureFlagJunk, inserted.ExposureFlag)
	assert.Equal(t, []string{"green", "eggs"}, inserted.Tags)
	assert.True(t, baseTime.Equal(inserted.DateAdded))

	got, err := store.Get(ctx, inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, got.ID)
	assert.Equal(t, inserted.ExposureFlag, got.ExposureFlag)
	assert.Equal(t, inserted.SeqNum, got.SeqNum)

	_, err = store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_InvalidateTwice(t *testing.T) {
	ctx := context.Background()
	store, siteID := newPostgresTestStore(t)

	msg, err := store.Insert(ctx, postgresFields(siteID, "MC_C_20240301_000004"))
	require.NoError(t, err)

	first := baseTime.Add(time.Minute)
	updated, err := store.Invalidate(ctx, []uuid.UUID{msg.ID}, &siteID, first)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.False(t, updated[0].IsValid)
	require.NotNil(t, updated[0].DateInvalidated)
	assert.True(t, first.Equal(*updated[0].DateInvalidated))

	second := first.Add(time.Minute)
	updated, err = store.Invalidate(ctx, []uuid.UUID{msg.ID}, &siteID, second)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.True(t, second.Equal(*updated[0].DateInvalidated))

	other := "elsewhere"
	updated, err = store.Invalidate(ctx, []uuid.UUID{msg.ID}, &other, second)
	require.NoError(t, err)
	assert.Empty(t, updated)
}

func TestPostgresStore_SelectOrderMatchesCompareMessages(t *testing.T) {
	ctx := context.Background()
	store, siteID := newPostgresTestStore(t)

	flags := []models.ExposureFlag{
		models.ExposureFlagQuestionable,
		models.ExposureFlagNone,
		models.ExposureFlagJunk,
		models.ExposureFlagNone,
	}
	for i, flag := range flags {
		f := postgresFields(siteID, "MC_C_20240301_00001"+string(rune('0'+i)))
		f.ExposureFlag = flag
		f.IsHuman = i%2 == 0
		f.DateAdded = baseTime.Add(time.Duration(i) * time.Second)
		if i%2 == 1 {
			f.SeqNum = nil
			f.Level = nil
		}
		_, err := store.Insert(ctx, f)
		require.NoError(t, err)
	}

	orders := [][]string{
		{"exposure_flag"},
		{"-exposure_flag"},
		{"seq_num"},
		{"-seq_num"},
		{"level", "-date_added"},
		{"is_human", "exposure_flag"},
		{"-id"},
	}
	for _, orderBy := range orders {
		t.Run(strings.Join(orderBy, ","), func(t *testing.T) {
			args := map[string]any{"site_ids": []string{siteID}}
			q, err := query.Build(query.MessageTable, args, orderBy, 10, 0)
			require.NoError(t, err)

			got, err := store.Select(ctx, q)
			require.NoError(t, err)
			require.Len(t, got, len(flags))
			for i := 1; i < len(got); i++ {
				assert.Negative(t, models.CompareMessages(got[i-1], got[i], orderBy),
					"rows %d and %d out of order", i-1, i)
			}
		})
	}
}

func TestPostgresStore_Edit(t *testing.T) {
	ctx := context.Background()
	store, siteID := newPostgresTestStore(t)

	parent, err := store.Insert(ctx, postgresFields(siteID, "MC_C_20240301_000005"))
	require.NoError(t, err)

	at := baseTime.Add(time.Hour)
	child, err := store.Edit(ctx, parent.ID, &siteID, func(p *models.Message) (models.MessageFields, error) {
		f := p.Fields()
		f.MessageText = "edited"
		f.ExposureFlag = models.ExposureFlagQuestionable
		f.DateAdded = at
		f.ParentID = &p.ID
		return f, nil
	}, at)
	require.NoError(t, err)

	assert.Equal(t, "edited", child.MessageText)
	assert.Equal(t, models.ExposureFlagQuestionable, child.ExposureFlag)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)

	reread, err := store.Get(ctx, parent.ID)
	require.NoError(t, err)
	assert.False(t, reread.IsValid)
	require.NotNil(t, reread.DateInvalidated)
	assert.True(t, child.DateAdded.Equal(*reread.DateInvalidated))

	other := "elsewhere"
	_, err = store.Edit(ctx, parent.ID, &other, func(p *models.Message) (models.MessageFields, error) {
		return p.Fields(), nil
	}, at)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_ConcurrentEditsSerialize(t *testing.T) {
	ctx := context.Background()
	store, siteID := newPostgresTestStore(t)

	parent, err := store.Insert(ctx, postgresFields(siteID, "MC_C_20240301_000006"))
	require.NoError(t, err)

	editFields := func(p *models.Message, text string, at time.Time) models.MessageFields {
		f := p.Fields()
		f.MessageText = text
		f.DateAdded = at
		f.ParentID = &p.ID
		return f
	}

	firstAt := baseTime.Add(time.Hour)
	locked := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		_, err := store.Edit(ctx, parent.ID, nil, func(p *models.Message) (models.MessageFields, error) {
			close(locked)
			<-release
			return editFields(p, "first", firstAt), nil
		}, firstAt)
		firstDone <- err
	}()

	select {
	case <-locked:
	case <-time.After(5 * time.Second):
		t.Fatal("first edit never locked the parent")
	}

	secondAt := firstAt.Add(time.Minute)
	var seenBySecond atomic.Pointer[models.Message]
	secondDone := make(chan error, 1)
	go func() {
		_, err := store.Edit(ctx, parent.ID, nil, func(p *models.Message) (models.MessageFields, error) {
			seenBySecond.Store(p)
			return editFields(p, "second", secondAt), nil
		}, secondAt)
		secondDone <- err
	}()

	select {
	case err := <-secondDone:
		close(release)
		t.Fatalf("second edit finished while the parent was locked: %v", err)
	case <-time.After(300 * time.Millisecond):
	}
	assert.Nil(t, seenBySecond.Load(), "second edit read the parent before the first committed")

	close(release)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)

	seen := seenBySecond.Load()
	require.NotNil(t, seen)
	assert.False(t, seen.IsValid)
	require.NotNil(t, seen.DateInvalidated)
	assert.True(t, firstAt.Equal(*seen.DateInvalidated))
}

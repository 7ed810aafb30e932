package query

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DefaultsValidAndAppendsIDTiebreak(t *testing.T) {
	q, err := Build(MessageTable, nil, nil, DefaultLimit, 0)
	require.NoError(t, err)

	assert.Equal(t, []Condition{Equal{Column: "is_valid", Value: true}}, q.Conditions)
	assert.Equal(t, []OrderTerm{{Column: "id"}}, q.OrderBy)
	assert.Equal(t, 50, q.Limit)
}

func TestBuild_ExplicitIsValidOverridesDefault(t *testing.T) {
	q, err := Build(MessageTable, map[string]any{"is_valid": false}, nil, 10, 0)
	require.NoError(t, err)

	assert.Equal(t, []Condition{Equal{Column: "is_valid", Value: false}}, q.Conditions)
}

func TestBuild_IDTiebreakNotDuplicated(t *testing.T) {
	q, err := Build(MessageTable, nil, []string{"-id", "day_obs"}, 10, 0)
	require.NoError(t, err)

	assert.Equal(t, []OrderTerm{{Column: "id", Desc: true}, {Column: "day_obs"}}, q.OrderBy)
}

func TestBuild_ConditionPerKind(t *testing.T) {
	when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	args := map[string]any{
		"min_day_obs":          20240101,
		"max_day_obs":          20240201,
		"has_date_invalidated": true,
		"message_text":         "shutter",
		"user_ids":             []string{"alice"},
		"tags":                 []string{"ok"},
		"max_date_added":       when,
	}

	q, err := Build(MessageTable, args, nil, 5, 0)
	require.NoError(t, err)

	assert.Equal(t, []Condition{
		Range{Column: "day_obs", Op: OpGE, Value: 20240101},
		Range{Column: "day_obs", Op: OpLT, Value: 20240201},
		Contains{Column: "message_text", Substr: "shutter"},
		AnyOf{Column: "tags", Values: []string{"ok"}},
		In{Column: "user_id", Values: []any{"alice"}},
		Equal{Column: "is_valid", Value: true},
		Range{Column: "date_added", Op: OpLT, Value: when},
		IsNull{Column: "date_invalidated", Null: false},
	}, q.Conditions)
}

func TestBuild_UnknownFilterIsInternalError(t *testing.T) {
	_, err := Build(MessageTable, map[string]any{"min_colour": 3}, nil, 10, 0)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUnknownFilter)
	var verr *ValidationError
	assert.NotErrorAs(t, err, &verr)
}

func TestBuild_WrongArgType(t *testing.T) {
	_, err := Build(MessageTable, map[string]any{"min_day_obs": "20240101"}, nil, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestBuild_ClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		orderBy []string
		limit   int
		offset  int
		field   string
	}{
		{"unsortable field", nil, []string{"tags"}, 10, 0, "order_by"},
		{"unknown field", nil, []string{"-colour"}, 10, 0, "order_by"},
		{"zero limit", nil, nil, 0, 0, "limit"},
		{"negative offset", nil, nil, 10, -1, "offset"},
		{"bad exposure flag", map[string]any{"exposure_flags": []string{"bad"}}, nil, 10, 0, "exposure_flags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(MessageTable, tt.args, tt.orderBy, tt.limit, tt.offset)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestQuerySQL_Golden(t *testing.T) {
	g := goldie.New(t)

	filterArgs := map[string]any{
		"instruments":   []string{"LSSTCam", "LATISS"},
		"min_day_obs":   20190101,
		"message_text":  "bad",
		"tags":          []string{"a", "b"},
		"has_parent_id": false,
	}
	filterOrder := []string{"-exposure_flag", "day_obs"}

	t.Run("message_default_postgres", func(t *testing.T) {
		q, err := Build(MessageTable, nil, nil, DefaultLimit, 0)
		require.NoError(t, err)

		sql, args := q.SQL(Postgres)
		g.Assert(t, "message_default_postgres", []byte(sql))
		assert.Equal(t, []any{true, 50, 0}, args)
	})

	t.Run("message_filters_postgres", func(t *testing.T) {
		q, err := Build(MessageTable, filterArgs, filterOrder, 10, 20)
		require.NoError(t, err)

		sql, args := q.SQL(Postgres)
		g.Assert(t, "message_filters_postgres", []byte(sql))
		assert.Equal(t, []any{"LSSTCam", "LATISS", 20190101, "bad", []string{"a", "b"}, true, 10, 20}, args)
	})

	t.Run("message_filters_sqlite", func(t *testing.T) {
		q, err := Build(MessageTable, filterArgs, filterOrder, 10, 20)
		require.NoError(t, err)

		sql, args := q.SQL(SQLite)
		g.Assert(t, "message_filters_sqlite", []byte(sql))
		assert.Equal(t, []any{"LSSTCam", "LATISS", 20190101, "bad", "a", "b", true, 10, 20}, args)
	})

	t.Run("exposure_overlap_sqlite", func(t *testing.T) {
		begin := time.Date(2019, 3, 22, 0, 0, 0, 0, time.UTC)
		end := begin.Add(24 * time.Hour)
		table := ExposureTable.WithFixed(Equal{Column: "instrument", Value: "LSSTCam"})

		q, err := Build(table, map[string]any{"min_date": begin, "max_date": end}, []string{"-id"}, 5, 0)
		require.NoError(t, err)

		sql, args := q.SQL(SQLite)
		g.Assert(t, "exposure_overlap_sqlite", []byte(sql))
		assert.Equal(t, []any{
			"LSSTCam",
			"2019-03-22T00:00:00.000000Z",
			"2019-03-23T00:00:00.000000Z",
			5, 0,
		}, args)
	})
}

func TestWhere_EmptySetMatchesNothing(t *testing.T) {
	b := NewBinder(Postgres)
	where := Where(Postgres, b, []Condition{In{Column: "instrument"}, AnyOf{Column: "tags"}})

	assert.Equal(t, "1 = 0 AND 1 = 0", where)
	assert.Empty(t, b.Args)
}

func TestWithFixed_DoesNotMutateBase(t *testing.T) {
	_ = ExposureTable.WithFixed(Equal{Column: "instrument", Value: "LATISS"})
	assert.Empty(t, ExposureTable.Fixed)
}

package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/query"
)

// naiveTimeLayout accepts ISO timestamps without a zone, read as TAI.
const naiveTimeLayout = "2006-01-02T15:04:05.999999999"

// findParams is a parsed find request
type findParams struct {
	args    map[string]any
	orderBy []string
	limit   int
	offset  int
}

// parseFindParams reads the filter keys of table plus order_by, limit and
// offset from the query string. List filters and order_by take one value
// per repeated parameter.
func parseFindParams(values url.Values, table *query.Table) (*findParams, error) {
	p := &findParams{
		args:    make(map[string]any),
		orderBy: values["order_by"],
		limit:   table.DefaultLimit,
	}

	for _, f := range table.Filters {
		raw, ok := values[f.Key]
		if !ok || len(raw) == 0 {
			continue
		}
		v, err := parseValue(f.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", f.Key, err)
		}
		p.args[f.Key] = v
	}

	if s := values.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid limit %q", s)
		}
		p.limit = limit
	}
	if s := values.Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q", s)
		}
		p.offset = offset
	}

	return p, nil
}

func parseValue(typ query.Type, raw []string) (any, error) {
	if typ == query.TypeStrings {
		return raw, nil
	}

	s := raw[len(raw)-1]
	switch typ {
	case query.TypeString:
		return s, nil
	case query.TypeInt:
		return strconv.Atoi(s)
	case query.TypeBool:
		return strconv.ParseBool(s)
	case query.TypeTime:
		return parseTime(s)
	}
	return nil, fmt.Errorf("unsupported filter type %d", typ)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(naiveTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not an ISO 8601 timestamp", s)
	}
	return t, nil
}

package query

import "github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"

// DefaultLimit is the page size when a find does not give one.
const DefaultLimit = 50

func exposureFlagNames() []string {
	names := make([]string, len(models.ExposureFlags))
	for i, f := range models.ExposureFlags {
		names[i] = string(f)
	}
	return names
}

// MessageTable is the message table and its find_messages filter set.
// min_ bounds are inclusive and max_ bounds exclusive for every field.
var MessageTable = &Table{
	Name:    "message",
	Columns: models.MessageColumns,
	Filters: []Filter{
		{Key: "site_ids", Column: "site_id", Kind: KindIn, Type: TypeStrings},
		{Key: "obs_id", Column: "obs_id", Kind: KindContains, Type: TypeString},
		{Key: "instruments", Column: "instrument", Kind: KindIn, Type: TypeStrings},
		{Key: "min_day_obs", Column: "day_obs", Kind: KindMin, Type: TypeInt},
		{Key: "max_day_obs", Column: "day_obs", Kind: KindMax, Type: TypeInt},
		{Key: "min_seq_num", Column: "seq_num", Kind: KindMin, Type: TypeInt},
		{Key: "max_seq_num", Column: "seq_num", Kind: KindMax, Type: TypeInt},
		{Key: "message_text", Column: "message_text", Kind: KindContains, Type: TypeString},
		{Key: "min_level", Column: "level", Kind: KindMin, Type: TypeInt},
		{Key: "max_level", Column: "level", Kind: KindMax, Type: TypeInt},
		{Key: "tags", Column: "tags", Kind: KindAnyOf, Type: TypeStrings},
		{Key: "user_ids", Column: "user_id", Kind: KindIn, Type: TypeStrings},
		{Key: "user_agents", Column: "user_agent", Kind: KindIn, Type: TypeStrings},
		{Key: "is_human", Column: "is_human", Kind: KindEqual, Type: TypeBool},
		{Key: "is_valid", Column: "is_valid", Kind: KindEqual, Type: TypeBool},
		{Key: "exposure_flags", Column: "exposure_flag", Kind: KindIn, Type: TypeStrings, Allowed: exposureFlagNames()},
		{Key: "min_date_added", Column: "date_added", Kind: KindMin, Type: TypeTime},
		{Key: "max_date_added", Column: "date_added", Kind: KindMax, Type: TypeTime},
		{Key: "has_date_invalidated", Column: "date_invalidated", Kind: KindHas, Type: TypeBool},
		{Key: "min_date_invalidated", Column: "date_invalidated", Kind: KindMin, Type: TypeTime},
		{Key: "max_date_invalidated", Column: "date_invalidated", Kind: KindMax, Type: TypeTime},
		{Key: "has_parent_id", Column: "parent_id", Kind: KindHas, Type: TypeBool},
	},
	OrderFields:  models.MessageOrderFields,
	Unique:       "id",
	Defaults:     map[string]any{"is_valid": true},
	DefaultLimit: DefaultLimit,
	EnumOrder:    map[string][]string{"exposure_flag": exposureFlagNames()},
	ArrayColumns: map[string]bool{"tags": true, "urls": true},
}

// ExposureTable is a registry exposure table and its find_exposures filter set.
// min_date and max_date are an overlap test against the exposure timespan:
// min_date is exclusive and max_date inclusive.
var ExposureTable = &Table{
	Name:    "exposure",
	Columns: models.ExposureColumns,
	Filters: []Filter{
		{Key: "min_day_obs", Column: "day_obs", Kind: KindMin, Type: TypeInt},
		{Key: "max_day_obs", Column: "day_obs", Kind: KindMax, Type: TypeInt},
		{Key: "min_seq_num", Column: "seq_num", Kind: KindMin, Type: TypeInt},
		{Key: "max_seq_num", Column: "seq_num", Kind: KindMax, Type: TypeInt},
		{Key: "group_names", Column: "group_name", Kind: KindIn, Type: TypeStrings},
		{Key: "observation_reasons", Column: "observation_reason", Kind: KindIn, Type: TypeStrings},
		{Key: "observation_types", Column: "observation_type", Kind: KindIn, Type: TypeStrings},
		{Key: "min_date", Column: "timespan_end", Kind: KindAfter, Type: TypeTime},
		{Key: "max_date", Column: "timespan_begin", Kind: KindUpTo, Type: TypeTime},
	},
	OrderFields:  models.ExposureOrderFields,
	Unique:       "id",
	DefaultLimit: DefaultLimit,
}

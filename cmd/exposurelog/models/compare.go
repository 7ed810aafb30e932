package models

import (
	"cmp"
	"strings"
	"time"
)

// CompareMessages orders a and b by orderBy, the same way a find does:
// each entry is a field name optionally prefixed with "-" for descending,
// nil sorts after every non-nil value, exposure_flag sorts by declaration
// order, and ascending id breaks ties when orderBy names neither id nor -id.
func CompareMessages(a, b *Message, orderBy []string) int {
	for _, key := range WithIDTiebreak(orderBy) {
		field, desc := strings.CutPrefix(key, "-")
		c := compareValues(a.FieldValue(field), b.FieldValue(field))
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// WithIDTiebreak appends "id" unless orderBy already names id or -id.
func WithIDTiebreak(orderBy []string) []string {
	for _, key := range orderBy {
		if key == "id" || key == "-id" {
			return orderBy
		}
	}
	out := make([]string, 0, len(orderBy)+1)
	out = append(out, orderBy...)
	return append(out, "id")
}

// FieldValue returns the value of the named field, or nil when it is null.
func (m *Message) FieldValue(field string) any {
	switch field {
	case "id":
		return m.ID.String()
	case "site_id":
		return m.SiteID
	case "obs_id":
		return m.ObsID
	case "instrument":
		return m.Instrument
	case "day_obs":
		return m.DayObs
	case "seq_num":
		if m.SeqNum == nil {
			return nil
		}
		return *m.SeqNum
	case "message_text":
		return m.MessageText
	case "level":
		if m.Level == nil {
			return nil
		}
		return *m.Level
	case "user_id":
		return m.UserID
	case "user_agent":
		return m.UserAgent
	case "is_human":
		return m.IsHuman
	case "is_valid":
		return m.IsValid
	case "exposure_flag":
		return m.ExposureFlag
	case "date_added":
		return m.DateAdded
	case "date_invalidated":
		if m.DateInvalidated == nil {
			return nil
		}
		return *m.DateInvalidated
	case "parent_id":
		if m.ParentID == nil {
			return nil
		}
		return m.ParentID.String()
	}
	return nil
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	switch av := a.(type) {
	case string:
		return cmp.Compare(av, b.(string))
	case int:
		return cmp.Compare(av, b.(int))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case ExposureFlag:
		return cmp.Compare(av.Rank(), b.(ExposureFlag).Rank())
	case time.Time:
		return av.Compare(b.(time.Time))
	}
	return 0
}

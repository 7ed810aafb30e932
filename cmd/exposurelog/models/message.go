package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLevel is the message level used when none is supplied (python logging INFO).
const DefaultLevel = 20

// Message is one immutable annotation about an exposure.
// A row is never changed after insert except for DateInvalidated.
type Message struct {
	ID              uuid.UUID    `json:"id"`
	SiteID          string       `json:"site_id"`
	ObsID           string       `json:"obs_id"`
	Instrument      string       `json:"instrument"`
	DayObs          int          `json:"day_obs"`
	SeqNum          *int         `json:"seq_num"`
	MessageText     string       `json:"message_text"`
	Level           *int         `json:"level"`
	Tags            []string     `json:"tags"`
	URLs            []string     `json:"urls"`
	UserID          string       `json:"user_id"`
	UserAgent       string       `json:"user_agent"`
	IsHuman         bool         `json:"is_human"`
	IsValid         bool         `json:"is_valid"`
	ExposureFlag    ExposureFlag `json:"exposure_flag"`
	DateAdded       time.Time    `json:"date_added"`
	DateInvalidated *time.Time   `json:"date_invalidated"`
	ParentID        *uuid.UUID   `json:"parent_id"`
}

// MessageFields is the field set written by an insert.
// id, is_valid and date_invalidated are owned by the store.
type MessageFields struct {
	SiteID       string       `json:"site_id"`
	ObsID        string       `json:"obs_id"`
	Instrument   string       `json:"instrument"`
	DayObs       int          `json:"day_obs"`
	SeqNum       *int         `json:"seq_num"`
	MessageText  string       `json:"message_text"`
	Level        *int         `json:"level"`
	Tags         []string     `json:"tags"`
	URLs         []string     `json:"urls"`
	UserID       string       `json:"user_id"`
	UserAgent    string       `json:"user_agent"`
	IsHuman      bool         `json:"is_human"`
	ExposureFlag ExposureFlag `json:"exposure_flag"`
	DateAdded    time.Time    `json:"date_added"`
	ParentID     *uuid.UUID   `json:"parent_id"`
}

// Fields returns the insertable fields of m.
func (m *Message) Fields() MessageFields {
	return MessageFields{
		SiteID:       m.SiteID,
		ObsID:        m.ObsID,
		Instrument:   m.Instrument,
		DayObs:       m.DayObs,
		SeqNum:       m.SeqNum,
		MessageText:  m.MessageText,
		Level:        m.Level,
		Tags:         m.Tags,
		URLs:         m.URLs,
		UserID:       m.UserID,
		UserAgent:    m.UserAgent,
		IsHuman:      m.IsHuman,
		ExposureFlag: m.ExposureFlag,
		DateAdded:    m.DateAdded,
		ParentID:     m.ParentID,
	}
}

// MessageColumns lists message table columns in select order.
var MessageColumns = []string{
	"id",
	"site_id",
	"obs_id",
	"instrument",
	"day_obs",
	"seq_num",
	"message_text",
	"level",
	"tags",
	"urls",
	"user_id",
	"user_agent",
	"is_human",
	"is_valid",
	"exposure_flag",
	"date_added",
	"date_invalidated",
	"parent_id",
}

// MessageOrderFields lists the fields a find may order by.
// tags and urls are arrays and have no useful order.
var MessageOrderFields = []string{
	"id",
	"site_id",
	"obs_id",
	"instrument",
	"day_obs",
	"seq_num",
	"message_text",
	"level",
	"user_id",
	"user_agent",
	"is_human",
	"is_valid",
	"exposure_flag",
	"date_added",
	"date_invalidated",
	"parent_id",
}

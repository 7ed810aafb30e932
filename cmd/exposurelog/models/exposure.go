package models

import "time"

// Exposure is a registry record. Exposures are immutable and owned by the registry.
type Exposure struct {
	ObsID             string     `json:"obs_id" yaml:"obs_id"`
	ID                int64      `json:"id" yaml:"id"`
	Instrument        string     `json:"instrument" yaml:"instrument"`
	ObservationType   string     `json:"observation_type" yaml:"observation_type"`
	ObservationReason string     `json:"observation_reason" yaml:"observation_reason"`
	DayObs            int        `json:"day_obs" yaml:"day_obs"`
	SeqNum            int        `json:"seq_num" yaml:"seq_num"`
	GroupName         string     `json:"group_name" yaml:"group_name"`
	GroupID           int64      `json:"group_id" yaml:"group_id"`
	TargetName        string     `json:"target_name" yaml:"target_name"`
	ScienceProgram    string     `json:"science_program" yaml:"science_program"`
	TrackingRA        *float64   `json:"tracking_ra" yaml:"tracking_ra"`
	TrackingDec       *float64   `json:"tracking_dec" yaml:"tracking_dec"`
	SkyAngle          *float64   `json:"sky_angle" yaml:"sky_angle"`
	TimespanBegin     *time.Time `json:"timespan_begin" yaml:"timespan_begin"`
	TimespanEnd       *time.Time `json:"timespan_end" yaml:"timespan_end"`
}

// ExposureColumns lists exposure table columns in select order.
var ExposureColumns = []string{
	"obs_id",
	"id",
	"instrument",
	"observation_type",
	"observation_reason",
	"day_obs",
	"seq_num",
	"group_name",
	"group_id",
	"target_name",
	"science_program",
	"tracking_ra",
	"tracking_dec",
	"sky_angle",
	"timespan_begin",
	"timespan_end",
}

// ExposureOrderFields lists the fields a find_exposures may order by.
// instrument is fixed per query so it is not orderable.
var ExposureOrderFields = []string{
	"obs_id",
	"id",
	"observation_type",
	"observation_reason",
	"day_obs",
	"seq_num",
	"group_name",
	"group_id",
	"target_name",
	"science_program",
	"tracking_ra",
	"tracking_dec",
	"sky_angle",
	"timespan_begin",
	"timespan_end",
}

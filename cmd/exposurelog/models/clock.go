package models

import (
	"strconv"
	"time"
)

// TAIMinusUTC is the current TAI-UTC offset (leap seconds since 1972 plus 10 s).
const TAIMinusUTC = 37 * time.Second

// dayObsOffset is the observatory day boundary: a day starts at TAI noon.
const dayObsOffset = 12 * time.Hour

// Clock returns the current time in TAI
type Clock interface {
	Now() time.Time
}

// TAIClock reads the system clock and converts it to TAI.
// Times are truncated to microseconds, the resolution the stores keep.
type TAIClock struct{}

// Now returns the current TAI time, as a UTC-located time.Time
func (TAIClock) Now() time.Time {
	return time.Now().UTC().Add(TAIMinusUTC).Truncate(time.Microsecond)
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f
func (f ClockFunc) Now() time.Time { return f() }

// DayObs returns the observatory day of the TAI time t as YYYYMMDD.
func DayObs(t time.Time) int {
	day, _ := strconv.Atoi(t.UTC().Add(-dayObsOffset).Format("20060102"))
	return day
}

// DayObsTime returns TAI noon at the start of observatory day dayObs.
func DayObsTime(dayObs int) (time.Time, error) {
	t, err := time.Parse("20060102", strconv.Itoa(dayObs))
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(dayObsOffset), nil
}

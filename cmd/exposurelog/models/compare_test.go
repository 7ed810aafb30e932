package models

import (
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func TestCompareMessages_NullSortsLast(t *testing.T) {
	withSeq := &Message{ID: uuid.New(), SeqNum: intPtr(5)}
	withoutSeq := &Message{ID: uuid.New()}

	assert.Equal(t, -1, CompareMessages(withSeq, withoutSeq, []string{"seq_num"}))
	assert.Equal(t, 1, CompareMessages(withoutSeq, withSeq, []string{"seq_num"}))
	assert.Equal(t, 1, CompareMessages(withSeq, withoutSeq, []string{"-seq_num"}))
}

func TestCompareMessages_NullEqualsNull(t *testing.T) {
	a := &Message{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001")}
	b := &Message{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002")}

	// Equal on seq_num, so the appended id tiebreak decides.
	assert.Equal(t, -1, CompareMessages(a, b, []string{"seq_num"}))
	assert.Equal(t, 0, compareValues(nil, nil))
}

func TestCompareMessages_ExposureFlagDeclarationOrder(t *testing.T) {
	msgs := []*Message{
		{ID: uuid.New(), ExposureFlag: ExposureFlagQuestionable},
		{ID: uuid.New(), ExposureFlag: ExposureFlagNone},
		{ID: uuid.New(), ExposureFlag: ExposureFlagJunk},
	}

	slices.SortFunc(msgs, func(a, b *Message) int {
		return CompareMessages(a, b, []string{"exposure_flag"})
	})

	got := []ExposureFlag{msgs[0].ExposureFlag, msgs[1].ExposureFlag, msgs[2].ExposureFlag}
	assert.Equal(t, []ExposureFlag{ExposureFlagNone, ExposureFlagJunk, ExposureFlagQuestionable}, got)
}

func TestCompareMessages_MultiKey(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a := &Message{ID: uuid.New(), Instrument: "LSSTCam", DateAdded: now}
	b := &Message{ID: uuid.New(), Instrument: "LSSTCam", DateAdded: now.Add(time.Second)}
	c := &Message{ID: uuid.New(), Instrument: "LATISS", DateAdded: now}

	msgs := []*Message{a, b, c}
	slices.SortFunc(msgs, func(x, y *Message) int {
		return CompareMessages(x, y, []string{"instrument", "-date_added"})
	})

	assert.Equal(t, []*Message{c, b, a}, msgs)
}

func TestWithIDTiebreak(t *testing.T) {
	assert.Equal(t, []string{"id"}, WithIDTiebreak(nil))
	assert.Equal(t, []string{"-day_obs", "id"}, WithIDTiebreak([]string{"-day_obs"}))
	assert.Equal(t, []string{"-id", "day_obs"}, WithIDTiebreak([]string{"-id", "day_obs"}))
}

func TestParseExposureFlag(t *testing.T) {
	f, err := ParseExposureFlag("junk")
	assert.NoError(t, err)
	assert.Equal(t, ExposureFlagJunk, f)

	_, err = ParseExposureFlag("JUNK")
	assert.Error(t, err)
}

func TestDayObs(t *testing.T) {
	tests := []struct {
		name string
		tai  time.Time
		want int
	}{
		{"after noon", time.Date(2019, 3, 22, 13, 0, 0, 0, time.UTC), 20190322},
		{"before noon belongs to previous day", time.Date(2019, 3, 22, 11, 59, 59, 0, time.UTC), 20190321},
		{"exactly noon", time.Date(2019, 3, 22, 12, 0, 0, 0, time.UTC), 20190322},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayObs(tt.tai))
		})
	}
}

func TestDayObsTime(t *testing.T) {
	got, err := DayObsTime(20190322)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2019, 3, 22, 12, 0, 0, 0, time.UTC), got)
	assert.Equal(t, 20190322, DayObs(got))

	_, err = DayObsTime(20191399)
	assert.Error(t, err)
}

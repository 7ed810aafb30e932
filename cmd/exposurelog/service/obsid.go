package service

import (
	"regexp"
	"strconv"
	"time"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
)

// obsIDRegex matches obs_ids such as MC_C_20190322_000002:
// two-letter controller, one-letter code, day_obs and seq_num.
var obsIDRegex = regexp.MustCompile(`^[A-Z][A-Z]_[A-Z]_(\d{8})_(\d{6})$`)

// checkNewObsID validates the obs_id of an exposure no registry knows yet.
// Its embedded day must be within one day of currentDayObs. Returns the
// seq_num embedded in the obs_id.
func checkNewObsID(obsID string, currentDayObs int) (int, error) {
	match := obsIDRegex.FindStringSubmatch(obsID)
	if match == nil {
		return 0, badRequestf("invalid obs_id=%q: must look like AA_A_YYYYMMDD_NNNNNN", obsID)
	}

	dayObs, _ := strconv.Atoi(match[1])
	seqNum, _ := strconv.Atoi(match[2])

	embedded, err := models.DayObsTime(dayObs)
	if err != nil {
		return 0, badRequestf("invalid obs_id=%q: bad date %d", obsID, dayObs)
	}
	current, err := models.DayObsTime(currentDayObs)
	if err != nil {
		return 0, err
	}

	diff := embedded.Sub(current)
	if diff < -24*time.Hour || diff > 24*time.Hour {
		return 0, badRequestf("invalid obs_id=%q: day_obs=%d not within one day of current day_obs=%d",
			obsID, dayObs, currentDayObs)
	}
	return seqNum, nil
}

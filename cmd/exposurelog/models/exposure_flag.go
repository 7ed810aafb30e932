package models

import (
	"encoding/json"
	"fmt"
)

// ExposureFlag marks an exposure as possibly (questionable) or likely (junk) bad.
type ExposureFlag string

const (
	ExposureFlagNone         ExposureFlag = "none"
	ExposureFlagJunk         ExposureFlag = "junk"
	ExposureFlagQuestionable ExposureFlag = "questionable"
)

// ExposureFlags lists the flags in declaration order, which is also sort order.
var ExposureFlags = []ExposureFlag{
	ExposureFlagNone,
	ExposureFlagJunk,
	ExposureFlagQuestionable,
}

// ParseExposureFlag validates s
func ParseExposureFlag(s string) (ExposureFlag, error) {
	for _, f := range ExposureFlags {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid exposure_flag %q: must be one of none, junk, questionable", s)
}

// Rank is the declaration index of f, or -1 if f is not a known flag.
func (f ExposureFlag) Rank() int {
	for i, known := range ExposureFlags {
		if known == f {
			return i
		}
	}
	return -1
}

// UnmarshalJSON rejects unknown flags
func (f *ExposureFlag) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseExposureFlag(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

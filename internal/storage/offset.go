package storage

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidStartTime is returned for negative, non-finite or unparsable offsets.
var ErrInvalidStartTime = errors.New("storage: invalid start time")

// CheckStartOffset validates a playback start offset in seconds.
func CheckStartOffset(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return ErrInvalidStartTime
	}
	return nil
}

// StartOffset parses a start offset. An empty value means "not given" and
// yields 0.
func StartOffset(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ErrInvalidStartTime
	}
	if err := CheckStartOffset(v); err != nil {
		return 0, err
	}
	return v, nil
}

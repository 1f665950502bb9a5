package interop

import (
	"math"
	"strconv"
)

// StagingSize is the size of the scratch area a number is rendered into,
// terminator included. Longer renderings are cut to StagingSize-1 bytes.
const StagingSize = 32

// FormatNumber renders v in fixed-point notation with six decimals,
// the way printf's %f does.
func FormatNumber(v float64) string {
	var s string
	switch {
	case math.IsNaN(v):
		s = "nan"
		if math.Signbit(v) {
			s = "-nan"
		}
	case math.IsInf(v, 1):
		s = "inf"
	case math.IsInf(v, -1):
		s = "-inf"
	default:
		s = strconv.FormatFloat(v, 'f', 6, 64)
	}

	if len(s) > StagingSize-1 {
		s = s[:StagingSize-1]
	}
	return s
}

// AddTruncated returns a+v truncated toward zero. Results outside the int32
// range saturate and NaN yields zero, matching i32.trunc_sat_f64_s.
func AddTruncated(a int32, v float64) int32 {
	r := math.Trunc(float64(a) + v)
	switch {
	case math.IsNaN(r):
		return 0
	case r >= math.MaxInt32:
		return math.MaxInt32
	case r <= math.MinInt32:
		return math.MinInt32
	}
	return int32(r)
}

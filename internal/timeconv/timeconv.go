// Package timeconv converts timestamps and durations between their native Go
// representations and the portable wire forms used by the plain codec:
// timestamps as 7-element integer arrays or float epoch seconds, durations as
// [days, seconds, microseconds] triples or float seconds.
package timeconv

import (
	"fmt"
	"time"
)

// Wire precision is microseconds. Sub-microsecond components truncate on
// encode, so a round trip preserves values only at microsecond granularity.
const (
	microsPerSecond = 1_000_000
	secondsPerDay   = 24 * 60 * 60
)

// TimestampParts splits a UTC timestamp into its wire components
// [year, month, day, hour, minute, second, microsecond].
func TimestampParts(t time.Time) []any {
	return []any{
		t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second(),
		t.Nanosecond() / 1000,
	}
}

// TimestampFromParts rebuilds a UTC timestamp from 7 wire components.
func TimestampFromParts(parts []int) (time.Time, error) {
	if len(parts) != 7 {
		return time.Time{}, fmt.Errorf("timestamp arrays require 7 elements, got %d", len(parts))
	}
	us := parts[6]
	if us < 0 || us >= microsPerSecond {
		return time.Time{}, fmt.Errorf("timestamp microseconds out of range: %d", us)
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2],
		parts[3], parts[4], parts[5], us*1000, time.UTC), nil
}

// TimestampEpoch renders a timestamp as float seconds since the Unix epoch,
// truncated to microsecond precision.
func TimestampEpoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond()/1000)/microsPerSecond
}

// TimestampFromEpoch rebuilds a UTC timestamp from float epoch seconds.
func TimestampFromEpoch(secs float64) time.Time {
	whole := int64(secs)
	frac := secs - float64(whole)
	if frac < 0 {
		whole--
		frac++
	}
	us := int64(frac*microsPerSecond + 0.5)
	if us >= microsPerSecond {
		whole++
		us -= microsPerSecond
	}
	return time.Unix(whole, us*1000).UTC()
}

// DurationParts splits a duration into wire components
// [days, seconds, microseconds] with seconds in [0, 86400) and microseconds
// in [0, 1e6) for non-negative durations; negative durations normalize the
// same way, carrying the sign in the day count.
func DurationParts(d time.Duration) []any {
	us := d.Microseconds()
	days := floorDiv(us, secondsPerDay*microsPerSecond)
	us -= days * secondsPerDay * microsPerSecond
	secs := us / microsPerSecond
	us -= secs * microsPerSecond
	return []any{int(days), int(secs), int(us)}
}

// DurationFromParts rebuilds a duration from its 3 wire components.
func DurationFromParts(parts []int) (time.Duration, error) {
	if len(parts) != 3 {
		return 0, fmt.Errorf("duration arrays require 3 elements, got %d", len(parts))
	}
	total := int64(parts[0])*secondsPerDay*microsPerSecond +
		int64(parts[1])*microsPerSecond + int64(parts[2])
	return time.Duration(total) * time.Microsecond, nil
}

// DurationSeconds renders a duration as float seconds at microsecond
// precision.
func DurationSeconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / microsPerSecond
}

// DurationFromSeconds rebuilds a duration from float seconds.
func DurationFromSeconds(secs float64) time.Duration {
	us := int64(secs * microsPerSecond)
	return time.Duration(us) * time.Microsecond
}

// CheckUTC rejects timestamps carrying any zone other than UTC.
func CheckUTC(t time.Time) error {
	if t.Location() != time.UTC {
		return fmt.Errorf("timestamps must be UTC; got zone %q", t.Location())
	}
	return nil
}

// CheckWholeDays rejects timestamps with any intra-day component.
func CheckWholeDays(t time.Time) error {
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return fmt.Errorf("timestamp %s is not aligned to a whole day", t.Format(time.RFC3339Nano))
	}
	return nil
}

// CheckWholeHours rejects timestamps with any intra-hour component.
func CheckWholeHours(t time.Time) error {
	if t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return fmt.Errorf("timestamp %s is not aligned to a whole hour", t.Format(time.RFC3339Nano))
	}
	return nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

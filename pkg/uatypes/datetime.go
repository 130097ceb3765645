package uatypes

import "time"

// EpochOffsetSeconds is the fixed offset between the OPC UA epoch
// (1601-01-01 00:00:00 UTC) and the Unix epoch (1970-01-01 00:00:00 UTC),
// in seconds.
const EpochOffsetSeconds int64 = 11644473600

// ticksPerSecond is the number of 100ns ticks in one second.
const ticksPerSecond = 10_000_000

// DateTime is a 64-bit count of 100-nanosecond ticks since 1601-01-01 UTC.
type DateTime int64

// Clock sources the wall-clock time values get stamped into
// SecurityToken.CreatedAt, session timestamps, and anywhere else a
// "now" is needed, so tests can replace it with a fixed or
// step-by-step clock instead of racing the real one.
type Clock interface {
	Now() DateTime
}

type realClock struct{}

func (realClock) Now() DateTime { return FromTime(time.Now()) }

// DefaultClock is the Clock every package-level Now() call in this
// module uses. Tests may swap it for a fake for the duration of the
// test and restore it afterwards.
var DefaultClock Clock = realClock{}

// Now returns the DateTime DefaultClock reports for the current
// moment.
func Now() DateTime {
	return DefaultClock.Now()
}

// FromTime converts a platform wall-clock time to DateTime. Times
// before 1601-01-01 UTC clamp to zero on encode, matching "negative
// values clamp to zero".
func FromTime(t time.Time) DateTime {
	unixSeconds := t.Unix()
	nanos := int64(t.Nanosecond())
	total := (EpochOffsetSeconds+unixSeconds)*ticksPerSecond + nanos/100
	if total < 0 {
		total = 0
	}
	return DateTime(total)
}

// ToTime converts a DateTime to a platform wall-clock time.
func (d DateTime) ToTime() time.Time {
	ticks := int64(d)
	seconds := ticks/ticksPerSecond - EpochOffsetSeconds
	remainder := ticks % ticksPerSecond
	return time.Unix(seconds, remainder*100).UTC()
}

// Ticks returns the raw 100ns tick count, clamped to zero if negative.
func (d DateTime) Ticks() int64 {
	if d < 0 {
		return 0
	}
	return int64(d)
}

package pk2format

import "time"

// windowsEpochOffset is the number of 100ns ticks between the Windows
// FILETIME epoch (1601-01-01 UTC) and the Unix epoch (1970-01-01 UTC).
// Matches the original pk2 crate's filetime.rs MS_EPOCH constant exactly.
const windowsEpochOffset = 116444736000000000

// FILETIME is a Windows FILETIME: 100-nanosecond ticks since 1601-01-01
// UTC, stored on disk as a plain little-endian u64.
type FILETIME uint64

// Now returns the current time as a FILETIME.
func Now() FILETIME {
	return FromTime(time.Now())
}

// FromTime converts a time.Time to a FILETIME, losing sub-100ns precision.
func FromTime(t time.Time) FILETIME {
	ticks := t.UnixNano()/100 + windowsEpochOffset
	return FILETIME(ticks)
}

// Time converts a FILETIME back to a time.Time.
func (f FILETIME) Time() time.Time {
	ticks := int64(f) - windowsEpochOffset
	return time.Unix(0, ticks*100).UTC()
}

// SecondsAndNanos returns the (seconds_since_epoch, nanos) pair the format
// specifies as the canonical conversion target for FILETIME fields.
func (f FILETIME) SecondsAndNanos() (seconds int64, nanos int32) {
	ticks := int64(f) - windowsEpochOffset
	nanosTotal := ticks * 100
	return nanosTotal / int64(time.Second), int32(nanosTotal % int64(time.Second))
}

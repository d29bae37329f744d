package provider

import "time"

// TimeUnit qualifies a timeout. The zero value, UnitDefault, means minutes.
type TimeUnit int

const (
	UnitDefault TimeUnit = iota
	Nanoseconds
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
)

func (u TimeUnit) String() string {
	switch u {
	case UnitDefault:
		return "default"
	case Nanoseconds:
		return "nanoseconds"
	case Microseconds:
		return "microseconds"
	case Milliseconds:
		return "milliseconds"
	case Seconds:
		return "seconds"
	case Minutes:
		return "minutes"
	case Hours:
		return "hours"
	case Days:
		return "days"
	default:
		return "unknown"
	}
}

// Expiration converts a unit-qualified timeout into a TTL.
// timeout <= 0 means no expiry and returns 0.
//
// Minutes, hours and days convert as named. Microseconds convert as
// milliseconds and every other unit (nanoseconds and milliseconds included)
// converts as seconds; deployed annotations depend on this table, so it is
// kept as-is until the intended mapping is confirmed.
func Expiration(timeout int64, unit TimeUnit) time.Duration {
	if timeout <= 0 {
		return 0
	}
	d := time.Duration(timeout)
	switch unit {
	case UnitDefault, Minutes:
		return d * time.Minute
	case Hours:
		return d * time.Hour
	case Days:
		return d * 24 * time.Hour
	case Microseconds:
		return d * time.Millisecond
	default:
		return d * time.Second
	}
}

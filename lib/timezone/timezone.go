package timezone

import (
	"fmt"
	"time"
)

// Offset builds a fixed-offset location from a whole-hour UTC offset.
// the tracker deliberately never consults the host's local zone so that
// behavior is identical no matter where the process happens to run.
func Offset(hours int) *time.Location {
	name := fmt.Sprintf("UTC%+d", hours)
	if hours == 0 {
		name = "UTC"
	}
	return time.FixedZone(name, hours*3600)
}

func Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

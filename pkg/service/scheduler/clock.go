package scheduler

import "time"

// RealClock reads the system time
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

package session

import "time"

// Remaining returns the whole seconds left of a durationMinutes exam started at
// start, as seen at now. A zero start means the exam has not started and the
// full duration is returned. The result saturates at zero.
func Remaining(durationMinutes int, start, now time.Time) int {
	total := time.Duration(durationMinutes) * time.Minute
	if start.IsZero() {
		return int(total / time.Second)
	}
	left := total - now.Sub(start)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

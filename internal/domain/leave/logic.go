package leave

import "time"

// CalculateDays counts calendar days from start to end, both inclusive, so a
// request from the 10th to the 12th spans 3 days. Times of day are ignored.
func CalculateDays(start, end time.Time) (int, error) {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0, ErrInvalidRange
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

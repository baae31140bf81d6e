package domain

// IsAvailable reports whether requested more visitor-units fit on a
// date given its current occupancy and the park's maximum. Pure; used
// both for the advisory pre-check and re-checked atomically by the
// booking protocol at commit time.
func IsAvailable(requested, occupancy, maxCapacity int) bool {
	return occupancy+requested <= maxCapacity
}

// Remaining returns how many units can still be booked, floored at
// zero. Occupancy here may include advisory cart reservations.
func Remaining(occupancy, maxCapacity int) int {
	if occupancy >= maxCapacity {
		return 0
	}
	return maxCapacity - occupancy
}

// BookOutcome is the result of one single-shot compare-and-increment
// attempt. Infrastructure failures travel separately as errors.
type BookOutcome int

const (
	BookingSucceeded BookOutcome = iota
	BookingCapacityExceeded
	BookingNotFound
)

func (o BookOutcome) String() string {
	switch o {
	case BookingSucceeded:
		return "succeeded"
	case BookingCapacityExceeded:
		return "capacity_exceeded"
	case BookingNotFound:
		return "not_found"
	}
	return "unknown"
}

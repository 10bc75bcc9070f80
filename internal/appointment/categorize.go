package appointment

import "time"

// Buckets groups a client's appointments. The groups are independent
// predicates, so an appointment may sit in more than one (past and overdue).
type Buckets struct {
	Upcoming  []Appointment
	Past      []Appointment
	Overdue   []Appointment
	Cancelled []Appointment
}

// Categorize sorts appointments into buckets relative to now. Date and time
// are read in now's location. An appointment whose date or time cannot be
// parsed matches none of the time-based predicates.
func Categorize(appointments []Appointment, now time.Time) Buckets {
	var b Buckets
	loc := now.Location()

	for _, a := range appointments {
		start, ok := a.StartIn(loc)
		future := ok && start.After(now)
		elapsed := ok && !start.After(now)

		if future && a.Status != StatusCancelled && a.Status != StatusCompleted {
			b.Upcoming = append(b.Upcoming, a)
		}
		if elapsed || a.Status == StatusCompleted {
			b.Past = append(b.Past, a)
		}
		if elapsed && a.Status == StatusScheduled {
			b.Overdue = append(b.Overdue, a)
		}
		if a.Status == StatusCancelled {
			b.Cancelled = append(b.Cancelled, a)
		}
	}
	return b
}

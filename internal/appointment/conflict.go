package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const conflictTimeLayout = "3:04 PM"

// FindConflicts returns the existing appointments whose interval overlaps the
// candidate's, in input order. The appointment with excludeID is skipped so an
// edited appointment never conflicts with its stored copy. Other clients'
// appointments and cancelled ones never conflict.
//
// A candidate without client, date, time or a positive duration yields no
// conflicts; conflict checking is skipped rather than failed.
func FindConflicts(candidate Appointment, existing []Appointment, excludeID uuid.UUID) []Appointment {
	if candidate.ClientID == uuid.Nil || candidate.Duration <= 0 {
		return nil
	}
	candStart, candEnd, ok := candidate.IntervalIn(time.UTC)
	if !ok {
		return nil
	}

	var conflicts []Appointment
	for _, ex := range existing {
		if excludeID != uuid.Nil && ex.ID == excludeID {
			continue
		}
		if ex.ClientID != candidate.ClientID {
			continue
		}
		if ex.Status == StatusCancelled {
			continue
		}
		exStart, exEnd, ok := ex.IntervalIn(time.UTC)
		if !ok {
			continue
		}
		if Overlaps(candStart, candEnd, exStart, exEnd) {
			conflicts = append(conflicts, ex)
		}
	}
	return conflicts
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Ranges that only touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// DescribeConflicts renders one "<title> at <time>" line per conflict.
func DescribeConflicts(conflicts []Appointment) []string {
	if len(conflicts) == 0 {
		return nil
	}
	out := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, describe(c))
	}
	return out
}

func describe(a Appointment) string {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = "Appointment"
	}
	start, ok := a.StartIn(time.UTC)
	if !ok {
		return fmt.Sprintf("%s at %s", title, a.AppointmentTime)
	}
	return fmt.Sprintf("%s at %s", title, start.Format(conflictTimeLayout))
}

// ConflictError is returned by save operations blocked by overlapping
// appointments.
type ConflictError struct {
	Conflicts    []Appointment
	Descriptions []string
}

func NewConflictError(conflicts []Appointment) *ConflictError {
	return &ConflictError{
		Conflicts:    conflicts,
		Descriptions: DescribeConflicts(conflicts),
	}
}

func (e *ConflictError) Error() string {
	if len(e.Descriptions) == 0 {
		return "appointment conflicts with an existing appointment"
	}
	return "appointment conflicts with: " + strings.Join(e.Descriptions, ", ")
}

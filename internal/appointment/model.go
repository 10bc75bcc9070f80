package appointment

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type LocationType string

const (
	LocationInPerson   LocationType = "in_person"
	LocationTelehealth LocationType = "telehealth"
	LocationPhone      LocationType = "phone"
)

// Client is the care recipient an appointment belongs to.
type Client struct {
	ID          uuid.UUID
	FullName    string
	DateOfBirth *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Appointment is one scheduled interaction between a provider and a client.
// AppointmentDate and AppointmentTime are wall-clock values without a zone.
type Appointment struct {
	ID              uuid.UUID
	ClientID        uuid.UUID
	Title           string
	ProviderName    string
	AppointmentDate string
	AppointmentTime string
	Duration        int
	Status          Status
	Priority        Priority
	LocationType    LocationType
	Address         string
	TeleHealthLink  string
	Notes           string
	DocumentsNeeded []string
	ReminderTimes   []int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// StartIn combines the appointment date and time in loc.
func (a Appointment) StartIn(loc *time.Location) (time.Time, bool) {
	return combine(a.AppointmentDate, a.AppointmentTime, loc)
}

// IntervalIn returns the half-open interval [start, start+duration).
func (a Appointment) IntervalIn(loc *time.Location) (start, end time.Time, ok bool) {
	start, ok = a.StartIn(loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, start.Add(durationMinutes(a.Duration)), true
}

// maxDurationMinutes is the largest minute count time.Duration can hold.
const maxDurationMinutes = math.MaxInt64 / int64(time.Minute)

// durationMinutes converts minutes to a Duration, saturating instead of
// wrapping for values beyond the Duration range.
func durationMinutes(minutes int) time.Duration {
	if int64(minutes) > maxDurationMinutes {
		return time.Duration(maxDurationMinutes) * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}

func combine(date, clock string, loc *time.Location) (time.Time, bool) {
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

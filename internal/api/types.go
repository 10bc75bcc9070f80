package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/caregiver-scheduling/internal/appointment"
)

type AppointmentRequest struct {
	Title           string   `json:"title"`
	ProviderName    string   `json:"providerName"`
	AppointmentDate string   `json:"appointmentDate"`
	AppointmentTime string   `json:"appointmentTime"`
	Duration        int      `json:"duration"`
	Priority        string   `json:"priority"`
	LocationType    string   `json:"locationType"`
	Address         string   `json:"address"`
	TeleHealthLink  string   `json:"teleHealthLink"`
	Notes           string   `json:"notes"`
	DocumentsNeeded []string `json:"documentsNeeded"`
	ReminderTimes   []int    `json:"reminderTimes"`
}

// ConflictCheckRequest is a draft appointment; ExcludeID names the
// appointment being edited, if any.
type ConflictCheckRequest struct {
	AppointmentRequest
	ExcludeID string `json:"excludeId,omitempty"`
}

func (r AppointmentRequest) toInput(id, clientID uuid.UUID) appointment.SaveInput {
	return appointment.SaveInput{
		ID:              id,
		ClientID:        clientID,
		Title:           r.Title,
		ProviderName:    r.ProviderName,
		AppointmentDate: r.AppointmentDate,
		AppointmentTime: r.AppointmentTime,
		Duration:        r.Duration,
		Priority:        appointment.Priority(r.Priority),
		LocationType:    appointment.LocationType(r.LocationType),
		Address:         r.Address,
		TeleHealthLink:  r.TeleHealthLink,
		Notes:           r.Notes,
		DocumentsNeeded: r.DocumentsNeeded,
		ReminderTimes:   r.ReminderTimes,
	}
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	ClientID        uuid.UUID `json:"clientId"`
	Title           string    `json:"title"`
	ProviderName    string    `json:"providerName"`
	AppointmentDate string    `json:"appointmentDate"`
	AppointmentTime string    `json:"appointmentTime"`
	Duration        int       `json:"duration"`
	Status          string    `json:"status"`
	Priority        string    `json:"priority"`
	LocationType    string    `json:"locationType"`
	Address         string    `json:"address,omitempty"`
	TeleHealthLink  string    `json:"teleHealthLink,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	DocumentsNeeded []string  `json:"documentsNeeded"`
	ReminderTimes   []int     `json:"reminderTimes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toResponse(a appointment.Appointment) AppointmentResponse {
	docs := a.DocumentsNeeded
	if docs == nil {
		docs = []string{}
	}
	reminders := a.ReminderTimes
	if reminders == nil {
		reminders = []int{}
	}
	return AppointmentResponse{
		ID:              a.ID,
		ClientID:        a.ClientID,
		Title:           a.Title,
		ProviderName:    a.ProviderName,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Duration:        a.Duration,
		Status:          string(a.Status),
		Priority:        string(a.Priority),
		LocationType:    string(a.LocationType),
		Address:         a.Address,
		TeleHealthLink:  a.TeleHealthLink,
		Notes:           a.Notes,
		DocumentsNeeded: docs,
		ReminderTimes:   reminders,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toResponses(appts []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toResponse(a))
	}
	return out
}

type CategorizedResponse struct {
	Upcoming  []AppointmentResponse `json:"upcoming"`
	Past      []AppointmentResponse `json:"past"`
	Overdue   []AppointmentResponse `json:"overdue"`
	Cancelled []AppointmentResponse `json:"cancelled"`
}

type ConflictResponse struct {
	Conflicts    []AppointmentResponse `json:"conflicts"`
	Descriptions []string              `json:"descriptions"`
}

type ErrorResponse struct {
	Error        string                `json:"error"`
	Details      string                `json:"details,omitempty"`
	Fields       map[string]string     `json:"fields,omitempty"`
	Conflicts    []string              `json:"conflicts,omitempty"`
	Appointments []AppointmentResponse `json:"appointments,omitempty"`
}

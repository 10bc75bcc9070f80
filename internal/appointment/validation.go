package appointment

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SaveInput carries the caregiver-editable fields of an appointment. A zero
// ID means create.
type SaveInput struct {
	ID              uuid.UUID    `json:"id"`
	ClientID        uuid.UUID    `json:"clientId"`
	Title           string       `json:"title" validate:"required"`
	ProviderName    string       `json:"providerName" validate:"required"`
	AppointmentDate string       `json:"appointmentDate" validate:"required,datetime=2006-01-02"`
	AppointmentTime string       `json:"appointmentTime" validate:"required,datetime=15:04"`
	Duration        int          `json:"duration" validate:"gt=0,lte=1440"`
	Priority        Priority     `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	LocationType    LocationType `json:"locationType" validate:"required,oneof=in_person telehealth phone"`
	Address         string       `json:"address" validate:"required_if=LocationType in_person"`
	TeleHealthLink  string       `json:"teleHealthLink" validate:"required_if=LocationType telehealth"`
	Notes           string       `json:"notes"`
	DocumentsNeeded []string     `json:"documentsNeeded"`
	ReminderTimes   []int        `json:"reminderTimes" validate:"dive,gte=0"`
}

// ValidationErrors maps a field name to a user-facing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Normalize trims text fields and fills defaults.
func (in *SaveInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.ProviderName = strings.TrimSpace(in.ProviderName)
	in.AppointmentDate = strings.TrimSpace(in.AppointmentDate)
	in.AppointmentTime = strings.TrimSpace(in.AppointmentTime)
	in.Address = strings.TrimSpace(in.Address)
	in.TeleHealthLink = strings.TrimSpace(in.TeleHealthLink)
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
}

// Validate checks field-level constraints. It returns ValidationErrors when
// any field is rejected.
func Validate(in SaveInput) error {
	errs := ValidationErrors{}

	if in.ClientID == uuid.Nil {
		errs["clientId"] = "clientId is required"
	}

	if err := validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate appointment: %w", err)
		}
		for _, fe := range fieldErrs {
			name := fe.Field()
			if idx := strings.IndexByte(name, '['); idx > 0 {
				name = name[:idx]
			}
			if _, seen := errs[name]; !seen {
				errs[name] = message(name, fe)
			}
		}
	}

	if in.LocationType == LocationTelehealth && in.TeleHealthLink != "" {
		if err := validate.Var(in.TeleHealthLink, "url"); err != nil {
			errs["teleHealthLink"] = "teleHealthLink must be a valid URL"
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		switch field {
		case "address":
			return "address is required for in-person appointments"
		case "teleHealthLink":
			return "teleHealthLink is required for telehealth appointments"
		}
		return field + " is required"
	case "datetime":
		if fe.Param() == TimeLayout {
			return field + " must be a HH:MM time"
		}
		return field + " must be a YYYY-MM-DD date"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "lte":
		return field + " must be at most " + fe.Param()
	case "gte":
		return field + " must not be negative"
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return field + " is invalid"
}

// toAppointment builds the record the conflict engine and store operate on.
func (in SaveInput) toAppointment(status Status) Appointment {
	return Appointment{
		ID:              in.ID,
		ClientID:        in.ClientID,
		Title:           in.Title,
		ProviderName:    in.ProviderName,
		AppointmentDate: in.AppointmentDate,
		AppointmentTime: in.AppointmentTime,
		Duration:        in.Duration,
		Status:          status,
		Priority:        in.Priority,
		LocationType:    in.LocationType,
		Address:         in.Address,
		TeleHealthLink:  in.TeleHealthLink,
		Notes:           in.Notes,
		DocumentsNeeded: in.DocumentsNeeded,
		ReminderTimes:   in.ReminderTimes,
	}
}

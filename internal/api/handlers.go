package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/caregiver-scheduling/internal/appointment"
	"github.com/hackgods/caregiver-scheduling/internal/logging"
)

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, code, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func createAppointmentHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := parseUUIDParam(w, r, "clientID", "invalid_client_id")
		if !ok {
			return
		}

		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.SaveAppointment(r.Context(), req.toInput(uuid.Nil, clientID))
		if err != nil {
			handleSaveError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, toResponse(*appt))
	}
}

func updateAppointmentHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := parseUUIDParam(w, r, "clientID", "invalid_client_id")
		if !ok {
			return
		}
		id, ok := parseUUIDParam(w, r, "id", "invalid_appointment_id")
		if !ok {
			return
		}

		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.SaveAppointment(r.Context(), req.toInput(id, clientID))
		if err != nil {
			handleSaveError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(*appt))
	}
}

func checkConflictsHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := parseUUIDParam(w, r, "clientID", "invalid_client_id")
		if !ok {
			return
		}

		var req ConflictCheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		excludeID := uuid.Nil
		if req.ExcludeID != "" {
			parsed, err := uuid.Parse(req.ExcludeID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_exclude_id", "excludeId must be a valid UUID")
				return
			}
			excludeID = parsed
		}

		conflicts, descriptions, err := svc.CheckConflicts(r.Context(), req.toInput(excludeID, clientID))
		if err != nil {
			logger.Error("conflict check failed", "client_id", clientID, "request_id", GetRequestID(r.Context()), "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to check conflicts")
			return
		}

		if descriptions == nil {
			descriptions = []string{}
		}
		writeJSON(w, http.StatusOK, ConflictResponse{
			Conflicts:    toResponses(conflicts),
			Descriptions: descriptions,
		})
	}
}

func listAppointmentsHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := parseUUIDParam(w, r, "clientID", "invalid_client_id")
		if !ok {
			return
		}

		appts, err := svc.ListAppointments(r.Context(), clientID)
		if err != nil {
			handleReadError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponses(appts))
	}
}

func categorizedAppointmentsHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, ok := parseUUIDParam(w, r, "clientID", "invalid_client_id")
		if !ok {
			return
		}

		b, err := svc.CategorizedAppointments(r.Context(), clientID)
		if err != nil {
			handleReadError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, CategorizedResponse{
			Upcoming:  toResponses(b.Upcoming),
			Past:      toResponses(b.Past),
			Overdue:   toResponses(b.Overdue),
			Cancelled: toResponses(b.Cancelled),
		})
	}
}

func getAppointmentHandler(svc AppointmentService, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id", "invalid_appointment_id")
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleReadError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(*appt))
	}
}

func transitionHandler(svc AppointmentService, logger *logging.Logger, to appointment.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(w, r, "id", "invalid_appointment_id")
		if !ok {
			return
		}

		appt, err := svc.TransitionStatus(r.Context(), id, to)
		if err != nil {
			handleTransitionError(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(*appt))
	}
}

func handleSaveError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	var verrs appointment.ValidationErrors
	var conflictErr *appointment.ConflictError

	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "validation_failed",
			Fields: verrs,
		})
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:        "appointment_conflict",
			Details:      "appointment overlaps an existing appointment for this client",
			Conflicts:    conflictErr.Descriptions,
			Appointments: toResponses(conflictErr.Conflicts),
		})
	case errors.Is(err, appointment.ErrOverlapRejected):
		writeError(w, http.StatusConflict, "appointment_conflict", "appointment overlaps an existing appointment for this client")
	case errors.Is(err, appointment.ErrClientBeingScheduled):
		writeError(w, http.StatusConflict, "client_being_scheduled", "client schedule is being updated, please retry shortly")
	case errors.Is(err, appointment.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrClientMismatch):
		writeError(w, http.StatusUnprocessableEntity, "client_mismatch", err.Error())
	default:
		logger.Error("save appointment failed", "request_id", GetRequestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to save appointment")
	}
}

func handleReadError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, appointment.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	default:
		logger.Error("read appointments failed", "request_id", GetRequestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load appointments")
	}
}

func handleTransitionError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		logger.Error("status transition failed", "request_id", GetRequestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update appointment status")
	}
}

package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hackgods/caregiver-scheduling/internal/config"
	"github.com/hackgods/caregiver-scheduling/internal/logging"
	"github.com/hackgods/caregiver-scheduling/internal/observability/metrics"
	redisclient "github.com/hackgods/caregiver-scheduling/internal/redis"
)

const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentUpdated       = "APPOINTMENT_UPDATED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentOverdue       = "APPOINTMENT_OVERDUE"
)

var (
	ErrClientBeingScheduled    = errors.New("client schedule is being updated, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrClientMismatch          = errors.New("appointment belongs to a different client")
)

var tracer = otel.Tracer("caregiver.internal.appointment")

type Service struct {
	repo       Repository
	locker     redisclient.Locker
	marker     redisclient.Marker
	clock      Clock
	metrics    *metrics.SchedulingMetrics
	logger     *logging.Logger
	loc        *time.Location
	overdueTTL time.Duration
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithMetrics(m *metrics.SchedulingMetrics) Option { return func(s *Service) { s.metrics = m } }

func WithLogger(l *logging.Logger) Option { return func(s *Service) { s.logger = l } }

// WithOverdueMarker deduplicates overdue notices across worker runs.
func WithOverdueMarker(m redisclient.Marker) Option { return func(s *Service) { s.marker = m } }

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		locker:     locker,
		clock:      SystemClock{},
		loc:        cfg.Timezone,
		overdueTTL: cfg.OverdueNoticeTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	return s
}

// SaveAppointment creates (zero ID) or updates an appointment. The client's
// schedule is re-read under a per-client lock and the write is refused with a
// *ConflictError when the new interval overlaps an active appointment.
func (s *Service) SaveAppointment(ctx context.Context, in SaveInput) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("caregiver.client_id", in.ClientID.String()),
		attribute.Bool("caregiver.update", in.ID != uuid.Nil),
	)

	started := time.Now()
	saved, outcome, err := s.save(ctx, in)
	s.metrics.ObserveSave(outcome, time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	return saved, nil
}

func (s *Service) save(ctx context.Context, in SaveInput) (*Appointment, string, error) {
	in.Normalize()
	if err := Validate(in); err != nil {
		return nil, "invalid", err
	}

	if _, err := s.repo.GetClientByID(ctx, in.ClientID); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, "invalid", err
		}
		return nil, "error", fmt.Errorf("load client: %w", err)
	}

	creating := in.ID == uuid.Nil
	status := StatusScheduled
	if !creating {
		current, err := s.repo.GetAppointmentByID(ctx, in.ID)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return nil, "invalid", err
			}
			return nil, "error", fmt.Errorf("load appointment: %w", err)
		}
		if current.ClientID != in.ClientID {
			return nil, "invalid", ErrClientMismatch
		}
		status = current.Status
	}

	var saved *Appointment

	err := s.locker.WithClientLock(ctx, in.ClientID, func(lockCtx context.Context) error {
		// Inside the critical section re-read the schedule; this check is authoritative
		existing, err := s.repo.ListAppointmentsByClient(lockCtx, in.ClientID)
		if err != nil {
			return fmt.Errorf("list client appointments: %w", err)
		}

		candidate := in.toAppointment(status)
		if status != StatusCancelled {
			conflicts := FindConflicts(candidate, existing, in.ID)
			s.metrics.ObserveConflictCheck(len(conflicts))
			if len(conflicts) > 0 {
				return NewConflictError(conflicts)
			}
		}

		if creating {
			saved, err = s.repo.CreateAppointment(lockCtx, candidate)
		} else {
			saved, err = s.repo.UpdateAppointment(lockCtx, candidate)
		}
		if err != nil {
			if errors.Is(err, ErrOverlapRejected) || errors.Is(err, ErrAppointmentNotFound) {
				return err
			}
			return fmt.Errorf("persist appointment: %w", err)
		}

		eventType := EventAppointmentUpdated
		if creating {
			eventType = EventAppointmentCreated
		}
		s.logEvent(lockCtx, saved.ID, eventType, map[string]any{
			"client_id":        saved.ClientID.String(),
			"appointment_date": saved.AppointmentDate,
			"appointment_time": saved.AppointmentTime,
			"duration":         saved.Duration,
		})
		return nil
	})

	if err != nil {
		var conflictErr *ConflictError
		switch {
		case errors.As(err, &conflictErr), errors.Is(err, ErrOverlapRejected):
			s.logger.Info("appointment save blocked by conflict",
				"client_id", in.ClientID, "appointment_id", in.ID, "error", err)
			return nil, "conflict", err
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			return nil, "conflict", ErrClientBeingScheduled
		case errors.Is(err, ErrAppointmentNotFound):
			return nil, "invalid", err
		}
		s.logger.Error("appointment save failed", "client_id", in.ClientID, "error", err)
		return nil, "error", err
	}

	outcome := "updated"
	if creating {
		outcome = "created"
	}
	s.logger.Info("appointment saved", "outcome", outcome,
		"client_id", saved.ClientID, "appointment_id", saved.ID)
	return saved, outcome, nil
}

// CheckConflicts runs the advisory conflict check for a draft appointment
// without taking the client lock or writing anything. Incomplete drafts
// produce no conflicts.
func (s *Service) CheckConflicts(ctx context.Context, in SaveInput) ([]Appointment, []string, error) {
	ctx, span := tracer.Start(ctx, "appointment.check_conflicts")
	defer span.End()

	if in.ClientID == uuid.Nil {
		return nil, nil, nil
	}
	in.Normalize()

	status := StatusScheduled
	if in.ID != uuid.Nil {
		current, err := s.repo.GetAppointmentByID(ctx, in.ID)
		switch {
		case err == nil:
			status = current.Status
		case !errors.Is(err, ErrAppointmentNotFound):
			span.RecordError(err)
			return nil, nil, fmt.Errorf("load appointment: %w", err)
		}
	}
	// a cancelled appointment is saved without a conflict check
	if status == StatusCancelled {
		return nil, nil, nil
	}

	existing, err := s.repo.ListAppointmentsByClient(ctx, in.ClientID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("list client appointments: %w", err)
	}

	conflicts := FindConflicts(in.toAppointment(status), existing, in.ID)
	s.metrics.ObserveConflictCheck(len(conflicts))
	return conflicts, DescribeConflicts(conflicts), nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListAppointments returns the client's appointments ordered by start.
func (s *Service) ListAppointments(ctx context.Context, clientID uuid.UUID) ([]Appointment, error) {
	if _, err := s.repo.GetClientByID(ctx, clientID); err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	appts, err := s.repo.ListAppointmentsByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by client: %w", err)
	}
	return appts, nil
}

// CategorizedAppointments buckets the client's appointments against the
// service clock.
func (s *Service) CategorizedAppointments(ctx context.Context, clientID uuid.UUID) (Buckets, error) {
	appts, err := s.ListAppointments(ctx, clientID)
	if err != nil {
		return Buckets{}, err
	}
	return Categorize(appts, s.now()), nil
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.TransitionStatus(ctx, id, StatusConfirmed)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.TransitionStatus(ctx, id, StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.TransitionStatus(ctx, id, StatusCancelled)
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.TransitionStatus(ctx, id, StatusNoShow)
}

// TransitionStatus moves an appointment to status `to` if the state machine
// allows it. The update is compare-and-set on the current status.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("caregiver.appointment_id", id.String()),
		attribute.String("caregiver.status_to", string(to)),
	)

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	from := appt.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, from, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// the row moved out of `from` between read and write
			return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidStatusTransition)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.metrics.ObserveTransition(string(from), string(to))
	s.logEvent(ctx, updated.ID, EventAppointmentStatusChanged, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	s.logger.Info("appointment status changed", "appointment_id", id, "from", from, "to", to)

	return updated, nil
}

// NotifyOverdue records one overdue event for every scheduled appointment
// whose start has passed. It is intended to be called by the worker
// periodically and returns the number of new notices.
func (s *Service) NotifyOverdue(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "appointment.notify_overdue")
	defer span.End()

	now := s.now()
	candidates, err := s.repo.ListScheduledStartingBefore(ctx, now)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("list overdue candidates: %w", err)
	}

	notified := 0
	for _, appt := range Categorize(candidates, now).Overdue {
		if s.marker != nil {
			first, err := s.marker.MarkOnce(ctx, appt.ID.String(), s.overdueTTL)
			if err != nil {
				s.logger.Warn("overdue marker failed", "appointment_id", appt.ID, "error", err)
				continue
			}
			if !first {
				continue
			}
		}

		s.logEvent(ctx, appt.ID, EventAppointmentOverdue, map[string]any{
			"client_id":        appt.ClientID.String(),
			"appointment_date": appt.AppointmentDate,
			"appointment_time": appt.AppointmentTime,
		})
		s.metrics.ObserveOverdueNotice()
		notified++
	}

	span.SetAttributes(attribute.Int("caregiver.overdue_notified", notified))
	return notified, nil
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc)
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", "event_type", eventType, "error", err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("failed to insert event log",
			"event_type", eventType, "appointment_id", appointmentID, "error", err)
	}
}

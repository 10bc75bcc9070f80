package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
)

// db is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	pool db
}

func NewPgRepository(pool db) *PgRepository {
	if pool == nil {
		panic("appointment: pgx pool required")
	}
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, client_id, title, provider_name,
	to_char(appointment_date, 'YYYY-MM-DD'), to_char(appointment_time, 'HH24:MI'),
	duration_minutes, status, priority, location_type,
	COALESCE(address, ''), COALESCE(telehealth_link, ''), COALESCE(notes, ''),
	documents_needed, reminder_times, created_at, updated_at`

// Helpers

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var dob *string

	err := row.Scan(
		&c.ID,
		&c.FullName,
		&dob,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	c.DateOfBirth = dob
	return &c, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.Title,
		&a.ProviderName,
		&a.AppointmentDate,
		&a.AppointmentTime,
		&a.Duration,
		&a.Status,
		&a.Priority,
		&a.LocationType,
		&a.Address,
		&a.TeleHealthLink,
		&a.Notes,
		&a.DocumentsNeeded,
		&a.ReminderTimes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// mapWriteError translates constraint violations into domain errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return ErrOverlapRejected
		case pgForeignKeyViolation:
			return ErrClientNotFound
		}
	}
	return err
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// Interface methods

func (r *PgRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, to_char(date_of_birth, 'YYYY-MM-DD'), created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id)
	return scanClient(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE client_id = $1
		ORDER BY appointment_date, appointment_time, created_at
	`, clientID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, client_id, title, provider_name, appointment_date, appointment_time,
			duration_minutes, status, priority, location_type, address, telehealth_link,
			notes, documents_needed, reminder_times, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5::date, $6::time, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
		RETURNING `+appointmentColumns,
		a.ID, a.ClientID, a.Title, a.ProviderName, a.AppointmentDate, a.AppointmentTime,
		a.Duration, string(a.Status), string(a.Priority), string(a.LocationType),
		nullableText(a.Address), nullableText(a.TeleHealthLink), nullableText(a.Notes),
		nonNilStrings(a.DocumentsNeeded), nonNilInts(a.ReminderTimes),
	)

	created, err := scanAppointment(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

// UpdateAppointment rewrites the editable fields; status is left untouched.
func (r *PgRepository) UpdateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET title = $3,
		    provider_name = $4,
		    appointment_date = $5::date,
		    appointment_time = $6::time,
		    duration_minutes = $7,
		    priority = $8,
		    location_type = $9,
		    address = $10,
		    telehealth_link = $11,
		    notes = $12,
		    documents_needed = $13,
		    reminder_times = $14,
		    updated_at = now()
		WHERE id = $1
		  AND client_id = $2
		RETURNING `+appointmentColumns,
		a.ID, a.ClientID, a.Title, a.ProviderName, a.AppointmentDate, a.AppointmentTime,
		a.Duration, string(a.Priority), string(a.LocationType),
		nullableText(a.Address), nullableText(a.TeleHealthLink), nullableText(a.Notes),
		nonNilStrings(a.DocumentsNeeded), nonNilInts(a.ReminderTimes),
	)

	updated, err := scanAppointment(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, string(to), string(from))

	updated, err := scanAppointment(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (r *PgRepository) ListScheduledStartingBefore(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'scheduled'
		  AND appointment_date + appointment_time <= $1::timestamp
		ORDER BY appointment_date, appointment_time
	`, cutoff.Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

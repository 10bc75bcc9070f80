package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appointmentCols = []string{
	"id", "client_id", "title", "provider_name", "appointment_date", "appointment_time",
	"duration_minutes", "status", "priority", "location_type", "address", "telehealth_link",
	"notes", "documents_needed", "reminder_times", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PgRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPgRepository(mock)
}

func appointmentRow(rows *pgxmock.Rows, a Appointment) *pgxmock.Rows {
	return rows.AddRow(
		a.ID, a.ClientID, a.Title, a.ProviderName, a.AppointmentDate, a.AppointmentTime,
		a.Duration, a.Status, a.Priority, a.LocationType, a.Address, a.TeleHealthLink,
		a.Notes, a.DocumentsNeeded, a.ReminderTimes, a.CreatedAt, a.UpdatedAt,
	)
}

// anyArgs matches n query parameters without pinning their values.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func sampleAppointment(clientID uuid.UUID) Appointment {
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	return Appointment{
		ID:              uuid.New(),
		ClientID:        clientID,
		Title:           "Memory clinic",
		ProviderName:    "Dr. Lindqvist",
		AppointmentDate: "2024-01-15",
		AppointmentTime: "15:00",
		Duration:        45,
		Status:          StatusScheduled,
		Priority:        PriorityHigh,
		LocationType:    LocationInPerson,
		Address:         "4 Harbour Road",
		DocumentsNeeded: []string{"insurance card"},
		ReminderTimes:   []int{1440, 60},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestGetClientByID(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()
	dob := "1941-03-02"
	created := time.Now().UTC()

	mock.ExpectQuery("FROM clients").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "date_of_birth", "created_at", "updated_at"}).
			AddRow(id, "Margaret Hale", &dob, created, created))

	c, err := repo.GetClientByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Margaret Hale", c.FullName)
	require.NotNil(t, c.DateOfBirth)
	assert.Equal(t, dob, *c.DateOfBirth)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClientByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery("FROM clients").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "date_of_birth", "created_at", "updated_at"}))

	_, err := repo.GetClientByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestListAppointmentsByClient(t *testing.T) {
	mock, repo := newMockRepo(t)
	clientID := uuid.New()
	first := sampleAppointment(clientID)
	second := sampleAppointment(clientID)
	second.AppointmentTime = "16:00"
	second.Status = StatusCancelled

	rows := pgxmock.NewRows(appointmentCols)
	appointmentRow(rows, first)
	appointmentRow(rows, second)

	mock.ExpectQuery("FROM appointments\\s+WHERE client_id = \\$1").
		WithArgs(clientID).
		WillReturnRows(rows)

	got, err := repo.ListAppointmentsByClient(context.Background(), clientID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0])
	assert.Equal(t, StatusCancelled, got[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointment(t *testing.T) {
	mock, repo := newMockRepo(t)
	a := sampleAppointment(uuid.New())

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(
			a.ID, a.ClientID, a.Title, a.ProviderName, a.AppointmentDate, a.AppointmentTime,
			a.Duration, "scheduled", "high", "in_person",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			a.DocumentsNeeded, a.ReminderTimes,
		).
		WillReturnRows(appointmentRow(pgxmock.NewRows(appointmentCols), a))

	created, err := repo.CreateAppointment(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, created.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointmentMapsConstraintViolations(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"exclusion constraint", "23P01", ErrOverlapRejected},
		{"missing client", "23503", ErrClientNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)
			a := sampleAppointment(uuid.New())

			mock.ExpectQuery("INSERT INTO appointments").
				WithArgs(anyArgs(15)...).
				WillReturnError(&pgconn.PgError{Code: tt.code})

			_, err := repo.CreateAppointment(context.Background(), a)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateAppointmentPassesThroughOtherErrors(t *testing.T) {
	mock, repo := newMockRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(anyArgs(15)...).
		WillReturnError(boom)

	_, err := repo.CreateAppointment(context.Background(), sampleAppointment(uuid.New()))
	assert.ErrorIs(t, err, boom)
}

func TestUpdateAppointmentNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	a := sampleAppointment(uuid.New())

	mock.ExpectQuery("UPDATE appointments").
		WithArgs(anyArgs(14)...).
		WillReturnRows(pgxmock.NewRows(appointmentCols))

	_, err := repo.UpdateAppointment(context.Background(), a)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestUpdateAppointmentStatusCompareAndSet(t *testing.T) {
	mock, repo := newMockRepo(t)
	a := sampleAppointment(uuid.New())
	confirmed := a
	confirmed.Status = StatusConfirmed

	mock.ExpectQuery("UPDATE appointments\\s+SET status = \\$2").
		WithArgs(a.ID, "confirmed", "scheduled").
		WillReturnRows(appointmentRow(pgxmock.NewRows(appointmentCols), confirmed))

	updated, err := repo.UpdateAppointmentStatus(context.Background(), a.ID, StatusScheduled, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListScheduledStartingBefore(t *testing.T) {
	mock, repo := newMockRepo(t)
	cutoff := time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)

	mock.ExpectQuery("WHERE status = 'scheduled'").
		WithArgs("2024-01-15 12:30:00").
		WillReturnRows(appointmentRow(pgxmock.NewRows(appointmentCols), sampleAppointment(uuid.New())))

	got, err := repo.ListScheduledStartingBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEvent(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs(EventAppointmentCreated, &id, []byte(`{}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.InsertEvent(context.Background(), EventLog{
		EventType:     EventAppointmentCreated,
		AppointmentID: &id,
		Payload:       []byte(`{}`),
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/caregiver-scheduling/internal/appointment"
	"github.com/hackgods/caregiver-scheduling/internal/config"
	"github.com/hackgods/caregiver-scheduling/internal/db"
	"github.com/hackgods/caregiver-scheduling/internal/logging"
)

const (
	clientCount = 200
	daysBack    = 14
	daysAhead   = 30
)

var titles = []string{
	"Primary care check-up",
	"Cardiology follow-up",
	"Physical therapy",
	"Memory clinic",
	"Dental cleaning",
	"Eye exam",
	"Blood work",
	"Medication review",
	"Podiatry",
	"Hearing test",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewForEnv(cfg.Env, cfg.LogLevel).With("component", "seed")
	logger.Info("seed starting", "clients", clientCount)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	faker := gofakeit.New(0)
	today := time.Now().In(cfg.Timezone)

	for i := 0; i < clientCount; i++ {
		if err := seedClient(context.Background(), pool, faker, today); err != nil {
			logger.Error("seed client", "error", err)
			os.Exit(1)
		}
		if (i+1)%50 == 0 {
			logger.Info("clients seeded", "done", i+1, "total", clientCount)
		}
	}

	logger.Info("seed complete")
}

// seedClient inserts one client and at most one appointment per day, so the
// generated schedule never overlaps.
func seedClient(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, today time.Time) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	clientID := uuid.New()
	dob := faker.DateRange(
		time.Date(1930, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1960, 12, 31, 0, 0, 0, 0, time.UTC),
	).Format(appointment.DateLayout)

	if _, err := tx.Exec(ctx, `
		INSERT INTO clients (id, full_name, date_of_birth, created_at, updated_at)
		VALUES ($1, $2, $3::date, now(), now())
	`, clientID, faker.Name(), dob); err != nil {
		return err
	}

	for day := -daysBack; day <= daysAhead; day++ {
		if faker.Number(0, 3) != 0 {
			continue
		}
		if err := insertAppointment(ctx, tx, faker, clientID, today.AddDate(0, 0, day), day < 0); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func insertAppointment(ctx context.Context, tx pgx.Tx, faker *gofakeit.Faker, clientID uuid.UUID, date time.Time, past bool) error {
	start := time.Date(date.Year(), date.Month(), date.Day(), faker.Number(8, 16), 15*faker.Number(0, 3), 0, 0, date.Location())
	durations := []int{30, 45, 60, 90}
	duration := durations[faker.Number(0, len(durations)-1)]

	status := appointment.StatusScheduled
	if past {
		switch faker.Number(0, 9) {
		case 0:
			status = appointment.StatusNoShow
		case 1, 2:
			status = appointment.StatusCancelled
		case 3, 4, 5, 6:
			status = appointment.StatusCompleted
		}
	} else if faker.Bool() {
		status = appointment.StatusConfirmed
	}

	priorities := []appointment.Priority{
		appointment.PriorityLow, appointment.PriorityNormal, appointment.PriorityNormal,
		appointment.PriorityHigh, appointment.PriorityUrgent,
	}
	priority := priorities[faker.Number(0, len(priorities)-1)]

	var (
		locType             appointment.LocationType
		address, telehealth *string
	)
	switch faker.Number(0, 2) {
	case 0:
		locType = appointment.LocationInPerson
		a := faker.Street() + ", " + faker.City()
		address = &a
	case 1:
		locType = appointment.LocationTelehealth
		u := faker.URL()
		telehealth = &u
	default:
		locType = appointment.LocationPhone
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO appointments (
			id, client_id, title, provider_name, appointment_date, appointment_time,
			duration_minutes, status, priority, location_type, address, telehealth_link,
			documents_needed, reminder_times, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5::date, $6::time, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
	`,
		uuid.New(), clientID,
		titles[faker.Number(0, len(titles)-1)],
		"Dr. "+faker.LastName(),
		start.Format(appointment.DateLayout), start.Format(appointment.TimeLayout),
		duration, string(status), string(priority), string(locType), address, telehealth,
		[]string{}, []int{1440, 60},
	)
	return err
}

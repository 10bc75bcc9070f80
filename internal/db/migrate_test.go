package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsPairUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestEmbeddedMigrationsAreReadableBySourceDriver(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
}

func TestAppointmentsMigrationDeclaresOverlapConstraint(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000002_create_appointments.up.sql")
	require.NoError(t, err)

	sql := string(data)
	assert.Contains(t, sql, "btree_gist")
	assert.Contains(t, sql, "EXCLUDE USING gist")
	assert.Contains(t, sql, "WHERE (status <> 'cancelled')")
	assert.Contains(t, sql, "duration_minutes <= 1440")
}

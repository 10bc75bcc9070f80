package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []Status{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}
	allowed := map[[2]Status]bool{
		{StatusScheduled, StatusConfirmed}: true,
		{StatusScheduled, StatusCompleted}: true,
		{StatusScheduled, StatusCancelled}: true,
		{StatusScheduled, StatusNoShow}:    true,
		{StatusConfirmed, StatusCompleted}: true,
		{StatusConfirmed, StatusCancelled}: true,
		{StatusConfirmed, StatusNoShow}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, StatusScheduled.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusNoShow.Terminal())

	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		assert.Empty(t, transitions[s], "terminal status %s must have no transitions", s)
	}
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, StatusNoShow.Valid())
	assert.False(t, Status("rescheduled").Valid())
	assert.True(t, PriorityUrgent.Valid())
	assert.False(t, Priority("critical").Valid())
	assert.True(t, LocationPhone.Valid())
	assert.False(t, LocationType("home").Valid())
}

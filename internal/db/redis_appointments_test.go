package db

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/Brightpath/internal/services"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisAppointmentStore) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewRedisAppointmentStore(rdb)
}

func appt(id int64, date, tm string) services.Appointment {
	return services.Appointment{
		ID:           id,
		Professional: services.Professional{ID: 1, Name: "Dr. Sarah Johnson"},
		Type:         "Initial Consultation",
		Date:         date,
		Time:         tm,
		Location:     services.AppointmentLocation,
		Duration:     services.AppointmentDuration,
		Status:       services.StatusScheduled,
	}
}

func TestRedisAppointmentLifecycle(t *testing.T) {
	mr, store := setupRedisStore(t)
	ctx := context.Background()

	list, err := store.GetAppointments(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	require.NoError(t, store.AddAppointment(ctx, 1, appt(10, "2025-02-20", "9:00 AM")))
	require.NoError(t, store.AddAppointment(ctx, 1, appt(11, "2025-02-20", "9:00 AM")))
	require.NoError(t, store.AddAppointment(ctx, 2, appt(12, "2025-02-21", "1:00 PM")))

	list, err = store.GetAppointments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2, "same slot twice is allowed")
	assert.Equal(t, int64(10), list[0].ID)
	assert.Equal(t, int64(11), list[1].ID)

	moved := list[0]
	moved.Date, moved.Time = "2025-02-24", "3:00 PM"
	require.NoError(t, store.UpdateAppointment(ctx, 1, moved))
	require.NoError(t, store.UpdateAppointment(ctx, 1, appt(99, "2025-03-01", "9:00 AM")))
	list, _ = store.GetAppointments(ctx, 1)
	require.Len(t, list, 2, "update of a missing id must not insert")
	assert.Equal(t, "2025-02-24", list[0].Date)

	require.NoError(t, store.CancelAppointment(ctx, 1, 10))
	require.NoError(t, store.CancelAppointment(ctx, 1, 10))
	list, _ = store.GetAppointments(ctx, 1)
	require.Len(t, list, 1)
	assert.Equal(t, int64(11), list[0].ID)

	raw, err := mr.Get("appointments-storage:2")
	require.NoError(t, err)
	assert.Contains(t, raw, `"version":1`)
}

func TestRedisAddThenCancelRestoresList(t *testing.T) {
	_, store := setupRedisStore(t)
	addThenCancelRestores(t, store)
}

func TestRedisRejectsUnknownVersion(t *testing.T) {
	mr, store := setupRedisStore(t)
	require.NoError(t, mr.Set("appointments-storage:5", `{"version":2,"appointments":[]}`))

	_, err := store.GetAppointments(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version 2")

	err = store.AddAppointment(context.Background(), 5, appt(1, "2025-02-20", "9:00 AM"))
	assert.Error(t, err, "writes must not overwrite an unreadable envelope")
	raw, _ := mr.Get("appointments-storage:5")
	assert.Contains(t, raw, `"version":2`)
}

func TestRedisGarbageValue(t *testing.T) {
	mr, store := setupRedisStore(t)
	require.NoError(t, mr.Set("appointments-storage:6", `not json`))
	_, err := store.GetAppointments(context.Background(), 6)
	assert.Error(t, err)
}

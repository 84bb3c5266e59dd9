package api

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/Brightpath/internal/services"
)

func testAppointment(id int64) services.Appointment {
	return services.Appointment{ID: id, Type: "Assessment Review", Date: "2025-02-20", Time: "10:00 AM", Status: services.StatusScheduled}
}

func TestMemoryStoreAppointmentsKeepInsertionOrder(t *testing.T) {
	s := newMemoryStore()
	ctx := context.Background()

	list, err := s.GetAppointments(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, s.AddAppointment(ctx, 1, testAppointment(id)))
	}
	list, _ = s.GetAppointments(ctx, 1)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{list[0].ID, list[1].ID, list[2].ID})

	// callers get a copy
	list[0].Time = "changed"
	again, _ := s.GetAppointments(ctx, 1)
	assert.Equal(t, "10:00 AM", again[0].Time)

	require.NoError(t, s.UpdateAppointment(ctx, 1, services.Appointment{ID: 42}))
	again, _ = s.GetAppointments(ctx, 1)
	assert.Len(t, again, 3, "update never inserts")

	require.NoError(t, s.CancelAppointment(ctx, 1, 1))
	require.NoError(t, s.CancelAppointment(ctx, 1, 1))
	again, _ = s.GetAppointments(ctx, 1)
	assert.Len(t, again, 2)
}

func TestMemoryStoreConcurrentAdds(t *testing.T) {
	s := newMemoryStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = s.AddAppointment(ctx, 7, testAppointment(id))
			_, _ = s.GetAppointments(ctx, 7)
		}(int64(i))
	}
	wg.Wait()
	list, _ := s.GetAppointments(ctx, 7)
	assert.Len(t, list, 50)
}

func TestMemoryStoreResultsAreIsolated(t *testing.T) {
	s := newMemoryStore()
	r := &services.AssessmentResult{
		ID: "r1", TemplateID: "adhd", ChildID: 1, CompletedAt: time.Now(),
		Answers: services.AnswerSet{"situational-1": services.ChoicesAnswer("home")},
	}
	require.NoError(t, s.AddResult(r))
	assert.Error(t, s.AddResult(r))

	r.Answers["situational-1"].Choices[0] = "mutated"
	got, err := s.GetResult("r1")
	require.NoError(t, err)
	assert.Equal(t, "home", got.Answers["situational-1"].Choices[0])

	none, err := s.GetResult("nope")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestWithAppointmentStoreDelegates(t *testing.T) {
	base := newMemoryStore()
	other := newMemoryStore()
	split := WithAppointmentStore(base, other)
	ctx := context.Background()

	require.NoError(t, split.AddAppointment(ctx, 1, testAppointment(1)))
	inBase, _ := base.GetAppointments(ctx, 1)
	inOther, _ := other.GetAppointments(ctx, 1)
	assert.Empty(t, inBase)
	assert.Len(t, inOther, 1)

	assert.Same(t, base, WithAppointmentStore(base, nil).(*memoryStore))
}

func TestMemoryStoreAddThenCancelRestoresList(t *testing.T) {
	for name, s := range map[string]Store{
		"memory": newMemoryStore(),
		"split":  WithAppointmentStore(newMemoryStore(), newMemoryStore()),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.AddAppointment(ctx, 3, testAppointment(1)))
			require.NoError(t, s.AddAppointment(ctx, 3, testAppointment(2)))
			before, err := s.GetAppointments(ctx, 3)
			require.NoError(t, err)

			require.NoError(t, s.AddAppointment(ctx, 3, testAppointment(99)))
			require.NoError(t, s.CancelAppointment(ctx, 3, 99))

			after, err := s.GetAppointments(ctx, 3)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestMemoryStoreAppointmentsShareNoMaps(t *testing.T) {
	s := newMemoryStore()
	ctx := context.Background()
	appt := testAppointment(1)
	appt.Professional.Unavailability = map[string][]string{"2025-02-20": {"9:00 AM"}}
	require.NoError(t, s.AddAppointment(ctx, 1, appt))

	appt.Professional.Unavailability["2025-02-20"][0] = "changed by caller"
	list, _ := s.GetAppointments(ctx, 1)
	list[0].Professional.Unavailability["2025-02-21"] = []string{"1:00 PM"}

	again, _ := s.GetAppointments(ctx, 1)
	assert.Equal(t, map[string][]string{"2025-02-20": {"9:00 AM"}}, again[0].Professional.Unavailability)
}

func TestMemoryStoreChildren(t *testing.T) {
	s := newMemoryStore()

	none, err := s.GetChild(1)
	require.NoError(t, err)
	assert.Nil(t, none)

	id, err := s.AddChild(&services.Child{ParentID: "p1", FirstName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	id2, _ := s.AddChild(&services.Child{ParentID: "p1", FirstName: "Leo"})
	assert.Equal(t, int64(2), id2)

	got, err := s.GetChild(id)
	require.NoError(t, err)
	got.FirstName = "mutated"
	again, _ := s.GetChild(id)
	assert.Equal(t, "Ana", again.FirstName)

	ok, err := s.UpdateChild(&services.Child{ID: id, ParentID: "p1", FirstName: "Ana María"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = s.UpdateChild(&services.Child{ID: 9})
	assert.False(t, ok)

	list, err := s.ListChildrenByParent("p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana María", list[0].FirstName)
	assert.Equal(t, int64(2), list[1].ID)
}

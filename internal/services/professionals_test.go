package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfessionalDirectoryReturnsCopies(t *testing.T) {
	dir := DefaultProfessionals()

	p, ok := dir.Get(1)
	require.True(t, ok)
	p.Unavailability["2025-02-20"][0] = "changed"
	p.Unavailability["2030-01-01"] = []string{"9:00 AM"}

	listed := dir.List()
	listed[0].Unavailability["2025-02-21"] = nil

	again, _ := dir.Get(1)
	assert.Equal(t, []string{"10:00 AM", "2:00 PM"}, again.Unavailability["2025-02-20"])
	assert.Equal(t, []string{"11:00 AM", "3:00 PM"}, again.Unavailability["2025-02-21"])
	assert.NotContains(t, again.Unavailability, "2030-01-01")

	_, ok = dir.Get(42)
	assert.False(t, ok)
}

func TestAppointmentClone(t *testing.T) {
	a := Appointment{ID: 1, Professional: Professional{ID: 1, Unavailability: map[string][]string{"d": {"9:00 AM"}}}}
	cp := a.Clone()
	cp.Professional.Unavailability["d"][0] = "x"
	assert.Equal(t, "9:00 AM", a.Professional.Unavailability["d"][0])

	assert.NotNil(t, CloneAppointments(nil))
	assert.Nil(t, Appointment{}.Clone().Professional.Unavailability)
}

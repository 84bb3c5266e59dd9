package api

import (
	"context"

	"github.com/soaringjerry/Brightpath/internal/services"
)

// Store is everything the router persists. memoryStore and db.SQLiteStore
// both satisfy it.
type Store interface {
	services.AssessmentStore
	services.AuthStore
	services.AppointmentStore
	services.ChildStore

	ListCareTeam(childID int64) ([]services.CareTeamMember, error)
	AddCareTeamMember(m services.CareTeamMember) (bool, error)
	RemoveCareTeamMember(childID int64, userID string) (bool, error)

	AddAudit(e services.AuditEntry)
	ListAudit(limit int) ([]services.AuditEntry, error)
}

var _ Store = (*memoryStore)(nil)

// splitStore serves appointments from a separate backend.
type splitStore struct {
	Store
	appointments services.AppointmentStore
}

// WithAppointmentStore routes appointment calls to appts and everything else to base.
func WithAppointmentStore(base Store, appts services.AppointmentStore) Store {
	if appts == nil {
		return base
	}
	return &splitStore{Store: base, appointments: appts}
}

func (s *splitStore) GetAppointments(ctx context.Context, childID int64) ([]services.Appointment, error) {
	return s.appointments.GetAppointments(ctx, childID)
}

func (s *splitStore) AddAppointment(ctx context.Context, childID int64, appt services.Appointment) error {
	return s.appointments.AddAppointment(ctx, childID, appt)
}

func (s *splitStore) UpdateAppointment(ctx context.Context, childID int64, appt services.Appointment) error {
	return s.appointments.UpdateAppointment(ctx, childID, appt)
}

func (s *splitStore) CancelAppointment(ctx context.Context, childID int64, id int64) error {
	return s.appointments.CancelAppointment(ctx, childID, id)
}

package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	AppointmentLocation = "Virtual Consultation"
	AppointmentDuration = "45 minutes"
	StatusScheduled     = "Scheduled"

	dateLayout = "2006-01-02"
)

var appointmentTypes = map[string]string{
	"initial": "Initial Consultation",
	"review":  "Assessment Review",
}

// AppointmentStore holds each child's appointment list in insertion order.
// Implementations never check for slot conflicts.
type AppointmentStore interface {
	GetAppointments(ctx context.Context, childID int64) ([]Appointment, error)
	AddAppointment(ctx context.Context, childID int64, appt Appointment) error
	UpdateAppointment(ctx context.Context, childID int64, appt Appointment) error
	CancelAppointment(ctx context.Context, childID int64, id int64) error
}

type AppointmentNotice struct {
	Event       string // scheduled | rescheduled
	Channel     string // email | text
	Recipient   string
	ChildID     int64
	Appointment Appointment
}

type Notifier interface {
	NotifyAppointment(ctx context.Context, n AppointmentNotice) error
}

type ScheduleRequest struct {
	ProfessionalID int    `json:"professional_id" validate:"required,gt=0"`
	Type           string `json:"type" validate:"required,oneof=initial review"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	Time           string `json:"time" validate:"required,timelabel"`
	Notes          string `json:"notes"`
	Notify         string `json:"notify" validate:"omitempty,oneof=email text"`
	Recipient      string `json:"-" validate:"omitempty,email"`
}

type RescheduleRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"time" validate:"required,timelabel"`
	Notify    string `json:"notify" validate:"omitempty,oneof=email text"`
	Recipient string `json:"-" validate:"omitempty,email"`
}

type AppointmentService struct {
	store         AppointmentStore
	professionals *ProfessionalDirectory
	audit         AuditLog
	notifier      Notifier
	log           *zap.Logger
	now           func() time.Time
	nextID        func() int64
}

func NewAppointmentService(store AppointmentStore, professionals *ProfessionalDirectory, audit AuditLog, notifier Notifier, log *zap.Logger) *AppointmentService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &AppointmentService{
		store:         store,
		professionals: professionals,
		audit:         audit,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
	}
	s.nextID = newMillisClock(func() time.Time { return s.now() })
	return s
}

// newMillisClock returns strictly increasing millisecond timestamps.
func newMillisClock(now func() time.Time) func() int64 {
	var mu sync.Mutex
	var last int64
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		id := now().UnixMilli()
		if id <= last {
			id = last + 1
		}
		last = id
		return id
	}
}

func (s *AppointmentService) List(ctx context.Context, childID int64) ([]Appointment, error) {
	if childID <= 0 {
		return nil, NewInvalidError("child_id required")
	}
	list, err := s.store.GetAppointments(ctx, childID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Appointment{}
	}
	return list, nil
}

// Schedule books an appointment. The slot is not checked against the
// professional's unavailability or existing bookings.
func (s *AppointmentService) Schedule(ctx context.Context, childID int64, req ScheduleRequest, actor string) (*Appointment, error) {
	if childID <= 0 {
		return nil, NewInvalidError("child_id required")
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	prof, ok := s.professionals.Get(req.ProfessionalID)
	if !ok {
		return nil, NewNotFoundError("professional not found")
	}
	appt := Appointment{
		ID:           s.nextID(),
		Professional: prof,
		Type:         appointmentTypes[req.Type],
		Date:         req.Date,
		Time:         req.Time,
		Location:     AppointmentLocation,
		Duration:     AppointmentDuration,
		Status:       StatusScheduled,
	}
	if err := s.store.AddAppointment(ctx, childID, appt); err != nil {
		return nil, fmt.Errorf("add appointment: %w", err)
	}
	s.record(actor, "appointment.schedule", childID, appt.ID, req.Notes)
	s.log.Info("appointment scheduled",
		zap.Int64("child_id", childID),
		zap.Int64("appointment_id", appt.ID),
		zap.Int("professional_id", prof.ID),
		zap.String("date", appt.Date),
		zap.String("time", appt.Time),
	)
	s.notify(ctx, AppointmentNotice{Event: "scheduled", Channel: req.Notify, Recipient: req.Recipient, ChildID: childID, Appointment: appt})
	return &appt, nil
}

// Reschedule moves an existing appointment to a new date and time.
func (s *AppointmentService) Reschedule(ctx context.Context, childID, id int64, req RescheduleRequest, actor string) (*Appointment, error) {
	if childID <= 0 {
		return nil, NewInvalidError("child_id required")
	}
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	list, err := s.store.GetAppointments(ctx, childID)
	if err != nil {
		return nil, err
	}
	var found *Appointment
	for i := range list {
		if list[i].ID == id {
			found = &list[i]
			break
		}
	}
	if found == nil {
		return nil, NewNotFoundError("appointment not found")
	}
	updated := *found
	updated.Date = req.Date
	updated.Time = req.Time
	if err := s.store.UpdateAppointment(ctx, childID, updated); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	s.record(actor, "appointment.reschedule", childID, id, found.Date+" "+found.Time+" -> "+updated.Date+" "+updated.Time)
	s.notify(ctx, AppointmentNotice{Event: "rescheduled", Channel: req.Notify, Recipient: req.Recipient, ChildID: childID, Appointment: updated})
	return &updated, nil
}

// Cancel removes an appointment. Cancelling a missing id is not an error.
func (s *AppointmentService) Cancel(ctx context.Context, childID, id int64, actor string) error {
	if childID <= 0 {
		return NewInvalidError("child_id required")
	}
	if err := s.store.CancelAppointment(ctx, childID, id); err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	s.record(actor, "appointment.cancel", childID, id, "")
	return nil
}

// TimeSlots are the bookable hours, 9:00 AM through 4:00 PM.
func TimeSlots() []string {
	out := make([]string, 0, 8)
	for h := 9; h <= 16; h++ {
		out = append(out, time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC).Format("3:04 PM"))
	}
	return out
}

// AvailableSlots lists the time slots a professional is shown as free on date.
// Weekends and dates outside today..today+3 months have no slots.
func (s *AppointmentService) AvailableSlots(professionalID int, date string) ([]string, error) {
	prof, ok := s.professionals.Get(professionalID)
	if !ok {
		return nil, NewNotFoundError("professional not found")
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, NewInvalidError("date must be a YYYY-MM-DD date")
	}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return []string{}, nil
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) || day.After(today.AddDate(0, 3, 0)) {
		return []string{}, nil
	}
	blocked := map[string]bool{}
	for _, t := range prof.Unavailability[date] {
		blocked[t] = true
	}
	out := []string{}
	for _, slot := range TimeSlots() {
		if !blocked[slot] {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *AppointmentService) record(actor, action string, childID, apptID int64, note string) {
	if s.audit == nil {
		return
	}
	s.audit.AddAudit(AuditEntry{
		Time:   s.now().UTC(),
		Actor:  actor,
		Action: action,
		Target: childTarget(childID) + "/appointment:" + strconv.FormatInt(apptID, 10),
		Note:   note,
	})
}

func (s *AppointmentService) notify(ctx context.Context, n AppointmentNotice) {
	if s.notifier == nil || n.Channel == "" {
		return
	}
	if err := s.notifier.NotifyAppointment(ctx, n); err != nil {
		s.log.Warn("appointment notification failed",
			zap.String("channel", n.Channel),
			zap.Int64("appointment_id", n.Appointment.ID),
			zap.Error(err),
		)
	}
}

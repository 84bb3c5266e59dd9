package api

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/soaringjerry/Brightpath/internal/services"
)

// memoryStore keeps everything in process memory. All methods are safe for
// concurrent use; the last write wins.
type memoryStore struct {
	mu           sync.RWMutex
	results      map[string]*services.AssessmentResult
	usersByEmail map[string]*services.User
	team         map[int64][]services.CareTeamMember
	appointments map[int64][]services.Appointment
	children     map[int64]services.Child
	lastChildID  int64
	audit        []services.AuditEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		results:      map[string]*services.AssessmentResult{},
		usersByEmail: map[string]*services.User{},
		team:         map[int64][]services.CareTeamMember{},
		appointments: map[int64][]services.Appointment{},
		children:     map[int64]services.Child{},
		audit:        []services.AuditEntry{},
	}
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store { return newMemoryStore() }

func cloneResult(r *services.AssessmentResult) *services.AssessmentResult {
	cp := *r
	cp.Answers = make(services.AnswerSet, len(r.Answers))
	for k, v := range r.Answers {
		if v.Choices != nil {
			v.Choices = append([]string(nil), v.Choices...)
		}
		cp.Answers[k] = v
	}
	if r.CategoryScores != nil {
		cp.CategoryScores = make(services.CategoryScoreMap, len(r.CategoryScores))
		for k, v := range r.CategoryScores {
			cp.CategoryScores[k] = v
		}
	}
	cp.CategoryOrder = append([]string(nil), r.CategoryOrder...)
	return &cp
}

func (s *memoryStore) AddResult(r *services.AssessmentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[r.ID]; ok {
		return errors.New("result already exists")
	}
	s.results[r.ID] = cloneResult(r)
	return nil
}

func (s *memoryStore) GetResult(id string) (*services.AssessmentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, nil
	}
	return cloneResult(r), nil
}

func (s *memoryStore) listResults(keep func(*services.AssessmentResult) bool) []*services.AssessmentResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.AssessmentResult
	for _, r := range s.results {
		if keep(r) {
			out = append(out, cloneResult(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.Before(out[j].CompletedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memoryStore) ListResultsByChild(childID int64) ([]*services.AssessmentResult, error) {
	return s.listResults(func(r *services.AssessmentResult) bool { return r.ChildID == childID }), nil
}

func (s *memoryStore) ListResultsByTemplate(templateID string) ([]*services.AssessmentResult, error) {
	return s.listResults(func(r *services.AssessmentResult) bool { return r.TemplateID == templateID }), nil
}

func (s *memoryStore) AddUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByEmail[u.Email]; ok {
		return errors.New("email already registered")
	}
	cp := *u
	s.usersByEmail[u.Email] = &cp
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStore) ListCareTeam(childID int64) ([]services.CareTeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]services.CareTeamMember(nil), s.team[childID]...), nil
}

func (s *memoryStore) AddCareTeamMember(m services.CareTeamMember) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.team[m.ChildID] {
		if existing.UserID == m.UserID {
			return false, nil
		}
	}
	s.team[m.ChildID] = append(s.team[m.ChildID], m)
	return true, nil
}

func (s *memoryStore) RemoveCareTeamMember(childID int64, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.team[childID]
	for i, m := range list {
		if m.UserID == userID {
			s.team[childID] = append(list[:i:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit(limit int) ([]services.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]services.AuditEntry, 0, limit)
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

func (s *memoryStore) AddChild(c *services.Child) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastChildID++
	cp := *c
	cp.ID = s.lastChildID
	s.children[cp.ID] = cp
	return cp.ID, nil
}

func (s *memoryStore) GetChild(id int64) (*services.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.children[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *memoryStore) UpdateChild(c *services.Child) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.children[c.ID]; !ok {
		return false, nil
	}
	s.children[c.ID] = *c
	return true, nil
}

func (s *memoryStore) ListChildrenByParent(parentID string) ([]services.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []services.Child
	for _, c := range s.children {
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) GetAppointments(_ context.Context, childID int64) ([]services.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return services.CloneAppointments(s.appointments[childID]), nil
}

func (s *memoryStore) AddAppointment(_ context.Context, childID int64, appt services.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[childID] = append(s.appointments[childID], appt.Clone())
	return nil
}

func (s *memoryStore) UpdateAppointment(_ context.Context, childID int64, appt services.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.appointments[childID]
	for i := range list {
		if list[i].ID == appt.ID {
			list[i] = appt.Clone()
		}
	}
	return nil
}

func (s *memoryStore) CancelAppointment(_ context.Context, childID int64, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.appointments[childID]
	kept := make([]services.Appointment, 0, len(list))
	for _, a := range list {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.appointments[childID] = kept
	return nil
}

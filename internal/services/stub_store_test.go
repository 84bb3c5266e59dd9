package services

import (
	"context"
	"sort"
	"sync"
)

// stubStore is an in-memory fake covering every store interface of the package.
type stubStore struct {
	mu       sync.Mutex
	results  map[string]*AssessmentResult
	users    map[string]*User
	team     map[int64][]CareTeamMember
	appts    map[int64][]Appointment
	children map[int64]*Child
	audits   []AuditEntry
	addErr   error
	listErr  error
	getCalls int
}

func newStubStore() *stubStore {
	return &stubStore{
		results:  map[string]*AssessmentResult{},
		users:    map[string]*User{},
		team:     map[int64][]CareTeamMember{},
		appts:    map[int64][]Appointment{},
		children: map[int64]*Child{},
	}
}

func (s *stubStore) AddResult(r *AssessmentResult) error {
	if s.addErr != nil {
		return s.addErr
	}
	cp := *r
	s.results[r.ID] = &cp
	return nil
}

func (s *stubStore) GetResult(id string) (*AssessmentResult, error) {
	s.getCalls++
	if r, ok := s.results[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) ListResultsByChild(childID int64) ([]*AssessmentResult, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*AssessmentResult
	for _, r := range s.results {
		if r.ChildID == childID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubStore) ListResultsByTemplate(templateID string) ([]*AssessmentResult, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*AssessmentResult
	for _, r := range s.results {
		if r.TemplateID == templateID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubStore) FindUserByEmail(email string) (*User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, nil
}

func (s *stubStore) AddUser(u *User) error {
	s.users[u.Email] = u
	return nil
}

func (s *stubStore) ListCareTeam(childID int64) ([]CareTeamMember, error) {
	return s.team[childID], nil
}

func (s *stubStore) AddCareTeamMember(m CareTeamMember) (bool, error) {
	for _, existing := range s.team[m.ChildID] {
		if existing.UserID == m.UserID {
			return false, nil
		}
	}
	s.team[m.ChildID] = append(s.team[m.ChildID], m)
	return true, nil
}

func (s *stubStore) RemoveCareTeamMember(childID int64, userID string) (bool, error) {
	list := s.team[childID]
	for i, m := range list {
		if m.UserID == userID {
			s.team[childID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) AddAudit(entry AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, entry)
}

func (s *stubStore) GetAppointments(_ context.Context, childID int64) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Appointment, len(s.appts[childID]))
	copy(out, s.appts[childID])
	return out, nil
}

func (s *stubStore) AddAppointment(_ context.Context, childID int64, appt Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appts[childID] = append(s.appts[childID], appt)
	return nil
}

func (s *stubStore) UpdateAppointment(_ context.Context, childID int64, appt Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.appts[childID] {
		if a.ID == appt.ID {
			s.appts[childID][i] = appt
		}
	}
	return nil
}

func (s *stubStore) CancelAppointment(_ context.Context, childID int64, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.appts[childID][:0]
	for _, a := range s.appts[childID] {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.appts[childID] = kept
	return nil
}

func (s *stubStore) AddChild(c *Child) (int64, error) {
	if s.addErr != nil {
		return 0, s.addErr
	}
	id := int64(len(s.children) + 1)
	cp := *c
	cp.ID = id
	s.children[id] = &cp
	return id, nil
}

func (s *stubStore) GetChild(id int64) (*Child, error) {
	if c, ok := s.children[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) UpdateChild(c *Child) (bool, error) {
	if _, ok := s.children[c.ID]; !ok {
		return false, nil
	}
	cp := *c
	s.children[c.ID] = &cp
	return true, nil
}

func (s *stubStore) ListChildrenByParent(parentID string) ([]Child, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Child
	for _, c := range s.children {
		if c.ParentID == parentID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func mustTemplates(t interface{ Fatalf(string, ...any) }, templates ...*AssessmentTemplate) *TemplateService {
	repo, err := NewTemplateRepository(templates...)
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	return NewTemplateService(repo)
}

package services

import (
	"strings"
	"time"
)

// Child is a child record owned by the parent account that created it.
type Child struct {
	ID          int64     `json:"id"`
	ParentID    string    `json:"parent_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Gender      string    `json:"gender"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Child) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type ChildStore interface {
	// AddChild stores c and returns the id assigned to it.
	AddChild(c *Child) (int64, error)
	// GetChild returns nil, nil when no child has id.
	GetChild(id int64) (*Child, error)
	// UpdateChild reports false when no child has c.ID.
	UpdateChild(c *Child) (bool, error)
	ListChildrenByParent(parentID string) ([]Child, error)
	AddAudit(e AuditEntry)
}

type ChildRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Gender      string `json:"gender" validate:"required,oneof=male female other prefer_not_to_say"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Notes       string `json:"notes" validate:"max=2000"`
}

var ErrChildNotFound = &ServiceError{Code: ErrorNotFound, Message: "child not found"}

type ChildService struct {
	store ChildStore
	now   func() time.Time
}

func NewChildService(store ChildStore) *ChildService {
	return &ChildService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ChildService) check(req *ChildRequest) error {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Gender = strings.ToLower(strings.TrimSpace(req.Gender))
	req.Notes = strings.TrimSpace(req.Notes)
	if err := checkRequest(*req); err != nil {
		return err
	}
	dob, _ := time.Parse(dateLayout, req.DateOfBirth)
	if dob.After(s.now()) {
		return NewInvalidError("date_of_birth must not be in the future")
	}
	return nil
}

// Add creates a child owned by parentID.
func (s *ChildService) Add(req ChildRequest, parentID string) (*Child, error) {
	if strings.TrimSpace(parentID) == "" {
		return nil, NewUnauthorizedError("sign in to add a child")
	}
	if err := s.check(&req); err != nil {
		return nil, err
	}
	now := s.now()
	c := &Child{
		ParentID: parentID, FirstName: req.FirstName, LastName: req.LastName,
		Gender: req.Gender, DateOfBirth: req.DateOfBirth, Notes: req.Notes,
		CreatedAt: now, UpdatedAt: now,
	}
	id, err := s.store.AddChild(c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	s.store.AddAudit(AuditEntry{Time: now, Actor: parentID, Action: "child.add", Target: childTarget(id)})
	return c, nil
}

func (s *ChildService) Get(id int64) (*Child, error) {
	if id <= 0 {
		return nil, NewInvalidError("child_id must be a positive integer")
	}
	c, err := s.store.GetChild(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChildNotFound
	}
	return c, nil
}

// Update replaces the editable fields. The owning parent may edit a record,
// and so may professionals and educators.
func (s *ChildService) Update(id int64, req ChildRequest, actorID string, actorRole Role) (*Child, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if c.ParentID != actorID && actorRole != RoleProfessional && actorRole != RoleEducator {
		return nil, NewForbiddenError("not allowed to edit this child")
	}
	if err := s.check(&req); err != nil {
		return nil, err
	}
	c.FirstName, c.LastName = req.FirstName, req.LastName
	c.Gender, c.DateOfBirth, c.Notes = req.Gender, req.DateOfBirth, req.Notes
	c.UpdatedAt = s.now()
	ok, err := s.store.UpdateChild(c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrChildNotFound
	}
	s.store.AddAudit(AuditEntry{Time: c.UpdatedAt, Actor: actorID, Action: "child.update", Target: childTarget(id)})
	return c, nil
}

// ListForParent returns parentID's children by id; never nil.
func (s *ChildService) ListForParent(parentID string) ([]Child, error) {
	list, err := s.store.ListChildrenByParent(parentID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Child{}
	}
	return list, nil
}

package services

import (
	"strconv"
	"strings"
	"time"
)

// CareTeamMember links a user to a child's care team.
type CareTeamMember struct {
	ChildID     int64     `json:"child_id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

type CareTeamStore interface {
	FindUserByEmail(email string) (*User, error)
	ListCareTeam(childID int64) ([]CareTeamMember, error)
	AddCareTeamMember(m CareTeamMember) (bool, error)
	RemoveCareTeamMember(childID int64, userID string) (bool, error)
	AddAudit(entry AuditEntry)
}

type AddMemberRequest struct {
	ChildID int64  `validate:"required,gt=0"`
	Email   string `validate:"required,email"`
	Role    Role   `validate:"omitempty,oneof=parent professional educator"`
}

// CareTeamService keeps an informational roster; it does not gate access.
type CareTeamService struct {
	store CareTeamStore
	now   func() time.Time
}

func NewCareTeamService(store CareTeamStore) *CareTeamService {
	return &CareTeamService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *CareTeamService) List(childID int64) ([]CareTeamMember, error) {
	if childID <= 0 {
		return nil, NewInvalidError("child_id required")
	}
	list, err := s.store.ListCareTeam(childID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []CareTeamMember{}
	}
	return list, nil
}

// AddMember adds a registered user by email. Role defaults to the user's own role.
func (s *CareTeamService) AddMember(req AddMemberRequest, actor string) (*CareTeamMember, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	u, err := s.store.FindUserByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("user not found")
	}
	role := req.Role
	if role == "" {
		role = u.Role
	}
	m := CareTeamMember{ChildID: req.ChildID, UserID: u.ID, Email: u.Email, Role: role, DisplayName: u.DisplayName, AddedAt: s.now()}
	added, err := s.store.AddCareTeamMember(m)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, NewConflictError("already on care team")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "team.add", Target: childTarget(req.ChildID), Note: u.Email + ":" + string(role)})
	return &m, nil
}

func (s *CareTeamService) RemoveMember(childID int64, userID, actor string) error {
	if childID <= 0 || strings.TrimSpace(userID) == "" {
		return NewInvalidError("child_id and user_id required")
	}
	removed, err := s.store.RemoveCareTeamMember(childID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return NewNotFoundError("member not found")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "team.remove", Target: childTarget(childID), Note: userID})
	return nil
}

func childTarget(childID int64) string {
	return "child:" + strconv.FormatInt(childID, 10)
}

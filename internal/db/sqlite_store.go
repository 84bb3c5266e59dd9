package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Brightpath/internal/services"
)

// Fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists results, users, care teams, appointments and the audit
// log in one SQLite database. Run RunMigrations before use.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSQLiteStore(db *sql.DB, log *zap.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if log == nil {
		log = zap.NewNop()
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, log: log.Named("sqlite")}, nil
}

func (s *SQLiteStore) logErr(op string, err error) {
	if err != nil {
		s.log.Error("sqlite store", zap.String("op", op), zap.Error(err))
	}
}

func toNullString(v string) sql.NullString {
	if strings.TrimSpace(v) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func encodeJSON(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeJSON(ns sql.NullString, dst any) error {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), dst)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", v, err)
	}
	return t, nil
}

// --- assessment results ---

func (s *SQLiteStore) AddResult(r *services.AssessmentResult) error {
	answers, err := encodeJSON(r.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	scores, err := encodeJSON(r.CategoryScores)
	if err != nil {
		return fmt.Errorf("encode category scores: %w", err)
	}
	order, err := encodeJSON(r.CategoryOrder)
	if err != nil {
		return fmt.Errorf("encode category order: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO assessment_results
		(id, template_id, child_id, answers, category_scores, category_order, overall_score, risk_tier, submitted_by, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TemplateID, r.ChildID, answers, scores, order, r.OverallScore, string(r.RiskTier),
		toNullString(r.SubmittedBy), r.CompletedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

const resultColumns = `id, template_id, child_id, answers, category_scores, category_order, overall_score, risk_tier, submitted_by, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*services.AssessmentResult, error) {
	var (
		r                      services.AssessmentResult
		answers, scores, order sql.NullString
		tier, completed        string
		submittedBy            sql.NullString
	)
	if err := row.Scan(&r.ID, &r.TemplateID, &r.ChildID, &answers, &scores, &order, &r.OverallScore, &tier, &submittedBy, &completed); err != nil {
		return nil, err
	}
	if err := decodeJSON(answers, &r.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of %s: %w", r.ID, err)
	}
	if err := decodeJSON(scores, &r.CategoryScores); err != nil {
		return nil, fmt.Errorf("decode category scores of %s: %w", r.ID, err)
	}
	if err := decodeJSON(order, &r.CategoryOrder); err != nil {
		return nil, fmt.Errorf("decode category order of %s: %w", r.ID, err)
	}
	at, err := parseTime(completed)
	if err != nil {
		return nil, err
	}
	r.CompletedAt = at
	r.RiskTier = services.RiskTier(tier)
	r.SubmittedBy = submittedBy.String
	return &r, nil
}

// GetResult returns nil, nil when id is unknown.
func (s *SQLiteStore) GetResult(id string) (*services.AssessmentResult, error) {
	row := s.db.QueryRow(`SELECT `+resultColumns+` FROM assessment_results WHERE id = ?`, id)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) ListResultsByChild(childID int64) ([]*services.AssessmentResult, error) {
	return s.listResults(`SELECT `+resultColumns+` FROM assessment_results WHERE child_id = ? ORDER BY completed_at DESC, id`, childID)
}

func (s *SQLiteStore) ListResultsByTemplate(templateID string) ([]*services.AssessmentResult, error) {
	return s.listResults(`SELECT `+resultColumns+` FROM assessment_results WHERE template_id = ? ORDER BY completed_at, id`, templateID)
}

func (s *SQLiteStore) listResults(query string, arg any) ([]*services.AssessmentResult, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	var out []*services.AssessmentResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- users ---

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, email, pass_hash, role, display_name, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, string(u.Role), toNullString(u.DisplayName), u.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindUserByEmail returns nil, nil when no user has email.
func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	var (
		u       services.User
		role    string
		name    sql.NullString
		created string
	)
	err := s.db.QueryRow(`SELECT id, email, pass_hash, role, display_name, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PassHash, &role, &name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	u.Role = services.Role(role)
	u.DisplayName = name.String
	return &u, nil
}

// --- children ---

const childColumns = `id, parent_id, first_name, last_name, gender, date_of_birth, notes, created_at, updated_at`

func (s *SQLiteStore) AddChild(c *services.Child) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO children (parent_id, first_name, last_name, gender, date_of_birth, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ParentID, c.FirstName, c.LastName, c.Gender, toNullString(c.DateOfBirth), toNullString(c.Notes),
		c.CreatedAt.UTC().Format(timeLayout), c.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert child: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("child id: %w", err)
	}
	return id, nil
}

func scanChild(row rowScanner) (*services.Child, error) {
	var (
		c                services.Child
		dob, notes       sql.NullString
		created, updated string
	)
	if err := row.Scan(&c.ID, &c.ParentID, &c.FirstName, &c.LastName, &c.Gender, &dob, &notes, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	c.DateOfBirth = dob.String
	c.Notes = notes.String
	return &c, nil
}

// GetChild returns nil, nil when no child has id.
func (s *SQLiteStore) GetChild(id int64) (*services.Child, error) {
	c, err := scanChild(s.db.QueryRow(`SELECT `+childColumns+` FROM children WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) UpdateChild(c *services.Child) (bool, error) {
	res, err := s.db.Exec(`UPDATE children SET first_name = ?, last_name = ?, gender = ?, date_of_birth = ?, notes = ?, updated_at = ? WHERE id = ?`,
		c.FirstName, c.LastName, c.Gender, toNullString(c.DateOfBirth), toNullString(c.Notes), c.UpdatedAt.UTC().Format(timeLayout), c.ID)
	if err != nil {
		return false, fmt.Errorf("update child: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListChildrenByParent(parentID string) ([]services.Child, error) {
	rows, err := s.db.Query(`SELECT `+childColumns+` FROM children WHERE parent_id = ? ORDER BY id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()
	var out []services.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// --- care team ---

func (s *SQLiteStore) ListCareTeam(childID int64) ([]services.CareTeamMember, error) {
	rows, err := s.db.Query(`SELECT child_id, user_id, email, role, display_name, added_at FROM care_team WHERE child_id = ? ORDER BY added_at, user_id`, childID)
	if err != nil {
		return nil, fmt.Errorf("list care team: %w", err)
	}
	defer rows.Close()
	var out []services.CareTeamMember
	for rows.Next() {
		var (
			m     services.CareTeamMember
			role  string
			name  sql.NullString
			added string
		)
		if err := rows.Scan(&m.ChildID, &m.UserID, &m.Email, &role, &name, &added); err != nil {
			return nil, fmt.Errorf("scan care team: %w", err)
		}
		if m.AddedAt, err = parseTime(added); err != nil {
			return nil, err
		}
		m.Role = services.Role(role)
		m.DisplayName = name.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddCareTeamMember reports false when the user is already on the child's team.
func (s *SQLiteStore) AddCareTeamMember(m services.CareTeamMember) (bool, error) {
	res, err := s.db.Exec(`INSERT OR IGNORE INTO care_team (child_id, user_id, email, role, display_name, added_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ChildID, m.UserID, m.Email, string(m.Role), toNullString(m.DisplayName), m.AddedAt.UTC().Format(timeLayout))
	if err != nil {
		return false, fmt.Errorf("insert care team member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) RemoveCareTeamMember(childID int64, userID string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM care_team WHERE child_id = ? AND user_id = ?`, childID, userID)
	if err != nil {
		return false, fmt.Errorf("delete care team member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- audit ---

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	_, err := s.db.Exec(`INSERT INTO audit_log (time, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		e.Time.UTC().Format(timeLayout), toNullString(e.Actor), e.Action, toNullString(e.Target), toNullString(e.Note))
	s.logErr("add audit", err)
}

// ListAudit returns the most recent entries first, at most limit of them.
func (s *SQLiteStore) ListAudit(limit int) ([]services.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT time, actor, action, target, note FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()
	var out []services.AuditEntry
	for rows.Next() {
		var (
			e                   services.AuditEntry
			at                  string
			actor, target, note sql.NullString
		)
		if err := rows.Scan(&at, &actor, &e.Action, &target, &note); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		if e.Time, err = parseTime(at); err != nil {
			return nil, err
		}
		e.Actor, e.Target, e.Note = actor.String, target.String, note.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- appointments ---

// GetAppointments returns the child's appointments in insertion order.
func (s *SQLiteStore) GetAppointments(ctx context.Context, childID int64) ([]services.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM appointments WHERE child_id = ? ORDER BY seq`, childID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	out := []services.Appointment{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		var a services.Appointment
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("decode appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddAppointment(ctx context.Context, childID int64, appt services.Appointment) error {
	payload, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("encode appointment: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO appointments (child_id, id, payload) VALUES (?, ?, ?)`, childID, appt.ID, string(payload)); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// UpdateAppointment replaces the stored appointment with the same id. A
// missing id is left alone.
func (s *SQLiteStore) UpdateAppointment(ctx context.Context, childID int64, appt services.Appointment) error {
	payload, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("encode appointment: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE appointments SET payload = ? WHERE child_id = ? AND id = ?`, string(payload), childID, appt.ID); err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CancelAppointment(ctx context.Context, childID int64, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM appointments WHERE child_id = ? AND id = ?`, childID, id); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// ImportAppointments appends every child's list inside one transaction.
// Children are written in the order given, each list in its own order. A child
// id with no record gets an ownerless placeholder so its appointments stay
// reachable.
func (s *SQLiteStore) ImportAppointments(ctx context.Context, byChild map[int64][]services.Appointment, order []int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	n := 0
	now := time.Now().UTC().Format(timeLayout)
	for _, childID := range order {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO children (id, parent_id, first_name, last_name, gender, created_at, updated_at) VALUES (?, '', 'Imported', ?, 'prefer_not_to_say', ?, ?)`,
			childID, "child "+strconv.FormatInt(childID, 10), now, now); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("import child %d: %w", childID, err)
		}
		for _, a := range byChild[childID] {
			payload, err := json.Marshal(a)
			if err != nil {
				_ = tx.Rollback()
				return 0, fmt.Errorf("encode appointment: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO appointments (child_id, id, payload) VALUES (?, ?, ?)`, childID, a.ID, string(payload)); err != nil {
				_ = tx.Rollback()
				return 0, fmt.Errorf("import appointment: %w", err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return n, nil
}

// HasAppointments reports whether any appointment is stored.
func (s *SQLiteStore) HasAppointments(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM appointments`).Scan(&n); err != nil {
		return false, fmt.Errorf("count appointments: %w", err)
	}
	return n > 0, nil
}

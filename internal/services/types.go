package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

type QuestionType string

const (
	QuestionScale    QuestionType = "scale"
	QuestionMultiple QuestionType = "multiple"
	QuestionText     QuestionType = "text"
)

// DefaultCategory is the bucket for questions that carry no category.
const DefaultCategory = "General"

// MaxScaleValue is the highest point value of a scale option.
const MaxScaleValue = 4

type AssessmentTemplate struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []Option     `json:"options,omitempty"`
	Category string       `json:"category,omitempty"`
}

// AcceptsScaleValue reports whether v is one of q's numeric option values.
func (q Question) AcceptsScaleValue(v int) bool {
	for _, o := range q.Options {
		if o.Value.IsNum && o.Value.Num == v {
			return true
		}
	}
	return false
}

type Option struct {
	Value OptionValue `json:"value"`
	Label string      `json:"label"`
}

// OptionValue is either an integer (scale options) or a string (multiple choice).
type OptionValue struct {
	Num   int
	Str   string
	IsNum bool
}

func IntValue(n int) OptionValue       { return OptionValue{Num: n, IsNum: true} }
func StringValue(s string) OptionValue { return OptionValue{Str: s} }

func (v OptionValue) String() string {
	if v.IsNum {
		return strconv.Itoa(v.Num)
	}
	return v.Str
}

func (v OptionValue) MarshalJSON() ([]byte, error) {
	if v.IsNum {
		return json.Marshal(v.Num)
	}
	return json.Marshal(v.Str)
}

func (v *OptionValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	}
	n, err := decodeInt(b)
	if err != nil {
		return fmt.Errorf("option value: %w", err)
	}
	*v = IntValue(n)
	return nil
}

type AnswerKind int

const (
	AnswerNumber AnswerKind = iota + 1
	AnswerChoices
	AnswerText
)

// Answer is a single response value. The zero Answer is not a valid answer;
// presence in an AnswerSet is what marks a question as answered.
type Answer struct {
	Kind    AnswerKind
	Number  int
	Choices []string
	Text    string
}

func NumberAnswer(n int) Answer            { return Answer{Kind: AnswerNumber, Number: n} }
func ChoicesAnswer(values ...string) Answer { return Answer{Kind: AnswerChoices, Choices: values} }
func TextAnswer(s string) Answer            { return Answer{Kind: AnswerText, Text: s} }

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerNumber:
		return json.Marshal(a.Number)
	case AnswerChoices:
		if a.Choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Choices)
	case AnswerText:
		return json.Marshal(a.Text)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return errors.New("answer: null value")
	}
	switch b[0] {
	case '[':
		var vals []string
		if err := json.Unmarshal(b, &vals); err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		*a = ChoicesAnswer(vals...)
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		*a = TextAnswer(s)
	default:
		n, err := decodeInt(b)
		if err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		*a = NumberAnswer(n)
	}
	return nil
}

func decodeInt(b []byte) (int, error) {
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(num.String())
	if err != nil {
		return 0, fmt.Errorf("%s is not an integer", num.String())
	}
	return n, nil
}

// AnswerSet maps question id to the answer given for it.
type AnswerSet map[string]Answer

// ScaleValue reports the numeric answer for id and whether one is present.
func (s AnswerSet) ScaleValue(id string) (int, bool) {
	a, ok := s[id]
	if !ok || a.Kind != AnswerNumber {
		return 0, false
	}
	return a.Number, true
}

// CategoryScoreMap maps category name to a 0..100 percentage.
type CategoryScoreMap map[string]int

type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
}

type AssessmentResult struct {
	ID             string           `json:"id"`
	TemplateID     string           `json:"template_id"`
	ChildID        int64            `json:"child_id"`
	Answers        AnswerSet        `json:"answers"`
	CategoryScores CategoryScoreMap `json:"category_scores"`
	CategoryOrder  []string         `json:"category_order"`
	OverallScore   int              `json:"overall_score"`
	RiskTier       RiskTier         `json:"risk_tier"`
	CompletedAt    time.Time        `json:"completed_at"`
	SubmittedBy    string           `json:"submitted_by,omitempty"`
}

// OrderedCategoryScores returns the result's category scores in step order.
func (r *AssessmentResult) OrderedCategoryScores() []CategoryScore {
	return orderScores(r.CategoryScores, r.CategoryOrder)
}

type Professional struct {
	ID             int                 `json:"id"`
	Name           string              `json:"name"`
	Specialty      string              `json:"specialty"`
	Image          string              `json:"image"`
	Timezone       string              `json:"timezone"`
	Unavailability map[string][]string `json:"unavailability,omitempty"`
}

// Clone returns a copy that shares no maps or slices with p.
func (p Professional) Clone() Professional {
	if p.Unavailability == nil {
		return p
	}
	m := make(map[string][]string, len(p.Unavailability))
	for day, slots := range p.Unavailability {
		m[day] = append([]string(nil), slots...)
	}
	p.Unavailability = m
	return p
}

type Appointment struct {
	ID           int64        `json:"id"`
	Professional Professional `json:"professional"`
	Type         string       `json:"type"`
	Date         string       `json:"date"`
	Time         string       `json:"time"`
	Location     string       `json:"location"`
	Duration     string       `json:"duration"`
	Status       string       `json:"status"`
}

// Clone returns a deep copy of a.
func (a Appointment) Clone() Appointment {
	a.Professional = a.Professional.Clone()
	return a
}

// CloneAppointments deep-copies list; the result is never nil.
func CloneAppointments(list []Appointment) []Appointment {
	out := make([]Appointment, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out
}

type Role string

const (
	RoleParent       Role = "parent"
	RoleProfessional Role = "professional"
	RoleEducator     Role = "educator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleProfessional, RoleEducator:
		return true
	}
	return false
}

type User struct {
	ID          string
	Email       string
	PassHash    []byte
	Role        Role
	DisplayName string
	CreatedAt   time.Time
}

type AuditEntry struct {
	Time   time.Time `json:"time"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Note   string    `json:"note,omitempty"`
}

// AuditLog records who changed what.
type AuditLog interface {
	AddAudit(entry AuditEntry)
}

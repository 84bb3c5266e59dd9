package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorNotFound     ErrorCode = "not_found"
	ErrorConflict     ErrorCode = "conflict"
	ErrorUnauthorized ErrorCode = "unauthorized"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
	// Err is an optional typed cause, e.g. *IncompleteError.
	Err error
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) Unwrap() error { return e.Err }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ErrTemplateNotFound is returned for any template id the catalog does not know.
var ErrTemplateNotFound = &ServiceError{Code: ErrorNotFound, Message: "template not found"}

type TemplateRepository interface {
	GetTemplate(id string) (*AssessmentTemplate, bool)
	ListTemplates() []*AssessmentTemplate
}

type TemplateService struct {
	repo TemplateRepository
}

func NewTemplateService(repo TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

func (s *TemplateService) GetTemplate(id string) (*AssessmentTemplate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, NewInvalidError("template id required")
	}
	t, ok := s.repo.GetTemplate(id)
	if !ok || t == nil {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

// TemplateSummary is the list view of a template.
type TemplateSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	QuestionCount int    `json:"question_count"`
	StepCount     int    `json:"step_count"`
}

func (s *TemplateService) ListTemplates() []TemplateSummary {
	list := s.repo.ListTemplates()
	out := make([]TemplateSummary, 0, len(list))
	for _, t := range list {
		out = append(out, TemplateSummary{
			ID:            t.ID,
			Title:         t.Title,
			Description:   t.Description,
			QuestionCount: len(t.Questions),
			StepCount:     len(GroupByCategory(t)),
		})
	}
	return out
}

type Step struct {
	Index     int        `json:"index"`
	Category  string     `json:"category"`
	Questions []Question `json:"questions"`
}

type StepsView struct {
	TemplateID string `json:"template_id"`
	Title      string `json:"title"`
	Total      int    `json:"total"`
	Steps      []Step `json:"steps"`
}

// Steps pages a template by category, one step per category.
func (s *TemplateService) Steps(id string) (*StepsView, error) {
	t, err := s.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	groups := GroupByCategory(t)
	view := &StepsView{TemplateID: t.ID, Title: t.Title, Total: len(groups), Steps: make([]Step, 0, len(groups))}
	for i, g := range groups {
		view.Steps = append(view.Steps, Step{Index: i, Category: g.Name, Questions: g.Questions})
	}
	return view, nil
}

// ExportQuestionsCSV renders the question catalog of a template.
func (s *TemplateService) ExportQuestionsCSV(id string) (*ExportResult, error) {
	t, err := s.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"question_id", "position", "category", "type", "text", "options"})
	for i, q := range t.Questions {
		cat := q.Category
		if cat == "" {
			cat = DefaultCategory
		}
		opts := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			opts = append(opts, o.Value.String()+"="+o.Label)
		}
		rec := []string{q.ID, strconv.Itoa(i + 1), cat, string(q.Type), q.Text, strings.Join(opts, "|")}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    t.ID + "-questions.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

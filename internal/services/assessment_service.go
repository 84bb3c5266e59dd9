package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssessmentStore persists scored results.
type AssessmentStore interface {
	AddResult(r *AssessmentResult) error
	GetResult(id string) (*AssessmentResult, error)
	ListResultsByChild(childID int64) ([]*AssessmentResult, error)
	ListResultsByTemplate(templateID string) ([]*AssessmentResult, error)
}

type SubmitRequest struct {
	TemplateID  string
	ChildID     int64
	Answers     AnswerSet
	SubmittedBy string
}

// Evaluation is a scored, classified answer set.
type Evaluation struct {
	TemplateID     string          `json:"template_id"`
	CategoryScores []CategoryScore `json:"category_scores"`
	OverallScore   int             `json:"overall_score"`
	Risk           RiskLevel       `json:"risk"`
}

type AssessmentService struct {
	templates *TemplateService
	store     AssessmentStore
	log       *zap.Logger
	now       func() time.Time
	idGen     func() string
}

func NewAssessmentService(templates *TemplateService, store AssessmentStore, log *zap.Logger) *AssessmentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AssessmentService{
		templates: templates,
		store:     store,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     uuid.NewString,
	}
}

// Preview scores answers without persisting anything.
func (s *AssessmentService) Preview(templateID string, answers AnswerSet) (*Evaluation, error) {
	t, scores, err := s.evaluate(templateID, answers)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		TemplateID:     t.ID,
		CategoryScores: scores.Ordered(),
		OverallScore:   scores.Overall,
		Risk:           Classify(scores.Overall),
	}, nil
}

// SubmitAssessment validates, scores and stores a completed assessment.
func (s *AssessmentService) SubmitAssessment(req SubmitRequest) (*AssessmentResult, error) {
	if s.store == nil {
		return nil, errors.New("assessment service store is nil")
	}
	if req.ChildID <= 0 {
		return nil, NewInvalidError("child_id required")
	}
	t, scores, err := s.evaluate(req.TemplateID, req.Answers)
	if err != nil {
		return nil, err
	}
	res := &AssessmentResult{
		ID:             s.idGen(),
		TemplateID:     t.ID,
		ChildID:        req.ChildID,
		Answers:        req.Answers,
		CategoryScores: scores.Categories,
		CategoryOrder:  scores.CategoryOrder,
		OverallScore:   scores.Overall,
		RiskTier:       Classify(scores.Overall).Tier,
		CompletedAt:    s.now(),
		SubmittedBy:    req.SubmittedBy,
	}
	if err := s.store.AddResult(res); err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}
	s.log.Info("assessment submitted",
		zap.String("result_id", res.ID),
		zap.String("template_id", res.TemplateID),
		zap.Int64("child_id", res.ChildID),
		zap.Int("overall_score", res.OverallScore),
		zap.String("risk_tier", string(res.RiskTier)),
	)
	return res, nil
}

func (s *AssessmentService) GetResult(id string) (*AssessmentResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewInvalidError("result id required")
	}
	r, err := s.store.GetResult(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, NewNotFoundError("assessment result not found")
	}
	return r, nil
}

// ListChildResults returns a child's results, newest first.
func (s *AssessmentService) ListChildResults(childID int64) ([]*AssessmentResult, error) {
	list, err := s.store.ListResultsByChild(childID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*AssessmentResult{}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CompletedAt.After(list[j].CompletedAt)
	})
	return list, nil
}

func (s *AssessmentService) evaluate(templateID string, answers AnswerSet) (*AssessmentTemplate, Scores, error) {
	t, err := s.templates.GetTemplate(templateID)
	if err != nil {
		return nil, Scores{}, err
	}
	if err := checkAnswerValues(t, answers); err != nil {
		return nil, Scores{}, err
	}
	if err := ValidateAnswers(t, answers); err != nil {
		return nil, Scores{}, err
	}
	return t, Score(t, answers), nil
}

// checkAnswerValues rejects answers whose kind or value does not fit the question.
// Answers to ids the template does not contain are ignored.
func checkAnswerValues(t *AssessmentTemplate, answers AnswerSet) error {
	for _, q := range t.Questions {
		a, ok := answers[q.ID]
		if !ok {
			continue
		}
		switch q.Type {
		case QuestionScale:
			if a.Kind != AnswerNumber {
				return NewInvalidError(fmt.Sprintf("answer for %s must be a number", q.ID))
			}
			if !q.AcceptsScaleValue(a.Number) {
				return NewInvalidError(fmt.Sprintf("answer for %s is not one of its options", q.ID))
			}
		case QuestionMultiple:
			if a.Kind != AnswerChoices {
				return NewInvalidError(fmt.Sprintf("answer for %s must be a list", q.ID))
			}
		case QuestionText:
			if a.Kind != AnswerText {
				return NewInvalidError(fmt.Sprintf("answer for %s must be text", q.ID))
			}
		}
	}
	return nil
}

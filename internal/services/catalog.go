package services

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

//go:embed templates/*.json
var builtinTemplates embed.FS

// StaticTemplateRepository serves an immutable set of templates.
type StaticTemplateRepository struct {
	byID  map[string]*AssessmentTemplate
	order []string
}

// NewStaticTemplateRepository loads the built-in catalog.
func NewStaticTemplateRepository() (*StaticTemplateRepository, error) {
	return LoadTemplates(builtinTemplates, "templates")
}

// MustBuiltinTemplates panics if the embedded catalog is malformed.
func MustBuiltinTemplates() *StaticTemplateRepository {
	repo, err := NewStaticTemplateRepository()
	if err != nil {
		panic(err)
	}
	return repo
}

// LoadTemplates reads every *.json file in dir.
func LoadTemplates(fsys fs.FS, dir string) (*StaticTemplateRepository, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	var list []*AssessmentTemplate
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var t AssessmentTemplate
		if err := json.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		list = append(list, &t)
	}
	return NewTemplateRepository(list...)
}

// NewTemplateRepository validates and indexes the given templates.
func NewTemplateRepository(templates ...*AssessmentTemplate) (*StaticTemplateRepository, error) {
	r := &StaticTemplateRepository{byID: map[string]*AssessmentTemplate{}}
	for _, t := range templates {
		if err := checkTemplate(t); err != nil {
			return nil, err
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template %q", t.ID)
		}
		r.byID[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	sort.Strings(r.order)
	return r, nil
}

func checkTemplate(t *AssessmentTemplate) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("template id required")
	}
	seen := map[string]bool{}
	for _, q := range t.Questions {
		if q.ID == "" {
			return fmt.Errorf("template %s: question without id", t.ID)
		}
		if seen[q.ID] {
			return fmt.Errorf("template %s: duplicate question %q", t.ID, q.ID)
		}
		seen[q.ID] = true
		switch q.Type {
		case QuestionScale:
			if len(q.Options) == 0 {
				return fmt.Errorf("template %s: scale question %s has no options", t.ID, q.ID)
			}
			for _, o := range q.Options {
				if !o.Value.IsNum {
					return fmt.Errorf("template %s: scale question %s has non-integer option %q", t.ID, q.ID, o.Value.Str)
				}
				if o.Value.Num < 0 || o.Value.Num > MaxScaleValue {
					return fmt.Errorf("template %s: scale question %s option %d out of range", t.ID, q.ID, o.Value.Num)
				}
			}
		case QuestionMultiple, QuestionText:
		default:
			return fmt.Errorf("template %s: question %s has unknown type %q", t.ID, q.ID, q.Type)
		}
	}
	return nil
}

func (r *StaticTemplateRepository) GetTemplate(id string) (*AssessmentTemplate, bool) {
	t, ok := r.byID[id]
	return t, ok
}

func (r *StaticTemplateRepository) ListTemplates() []*AssessmentTemplate {
	out := make([]*AssessmentTemplate, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

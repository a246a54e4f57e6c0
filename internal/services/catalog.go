package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Catalog is the immutable ordered question/section structure for one
// survey type. Built once per session, never mutated afterwards.
type Catalog struct {
	surveyType SurveyType
	sections   []*Section
	bySection  map[string][]*Question
	byID       map[string]*Question
	ordered    []*Question
}

// NewCatalog validates and indexes the given structure. Sections are sorted
// by Order; questions keep their given order within each section.
func NewCatalog(st SurveyType, sections []*Section, questions []*Question) (*Catalog, error) {
	if len(sections) == 0 {
		return nil, NewInvalidError("catalog requires at least one section")
	}
	c := &Catalog{
		surveyType: st,
		bySection:  make(map[string][]*Question, len(sections)),
		byID:       make(map[string]*Question, len(questions)),
	}
	seen := make(map[string]bool, len(sections))
	for _, sec := range sections {
		if sec.ID == "" {
			return nil, NewInvalidError("section id required")
		}
		if seen[sec.ID] {
			return nil, NewInvalidError("duplicate section id " + sec.ID)
		}
		seen[sec.ID] = true
		cp := *sec
		c.sections = append(c.sections, &cp)
	}
	sort.SliceStable(c.sections, func(i, j int) bool { return c.sections[i].Order < c.sections[j].Order })

	for _, q := range questions {
		if q.ID == "" {
			return nil, NewInvalidError("question id required")
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, NewInvalidError("duplicate question id " + q.ID)
		}
		if !seen[q.SectionID] {
			return nil, NewInvalidError(fmt.Sprintf("question %s references unknown section %s", q.ID, q.SectionID))
		}
		if q.Type.needsOptions() && len(q.Options) == 0 {
			return nil, NewInvalidError(fmt.Sprintf("question %s of type %s requires options", q.ID, q.Type))
		}
		if q.Type == QuestionLinearScale && q.Scale == nil {
			return nil, NewInvalidError(fmt.Sprintf("question %s of type %s requires a scale", q.ID, q.Type))
		}
		if q.Scale != nil && q.Scale.Max <= q.Scale.Min {
			return nil, NewInvalidError(fmt.Sprintf("question %s scale max must exceed min", q.ID))
		}
		cp := *q
		c.byID[cp.ID] = &cp
		c.bySection[cp.SectionID] = append(c.bySection[cp.SectionID], &cp)
	}
	for _, sec := range c.sections {
		c.ordered = append(c.ordered, c.bySection[sec.ID]...)
	}
	return c, nil
}

func (c *Catalog) SurveyType() SurveyType { return c.surveyType }

// SectionsInOrder returns the sections sorted by their Order attribute.
func (c *Catalog) SectionsInOrder() []*Section {
	return append([]*Section(nil), c.sections...)
}

// QuestionsForSection returns the ordered questions of one section.
func (c *Catalog) QuestionsForSection(sectionID string) ([]*Question, error) {
	qs, ok := c.bySection[sectionID]
	if !ok {
		return nil, NewNotFoundError("unknown section " + sectionID)
	}
	return append([]*Question(nil), qs...), nil
}

func (c *Catalog) TotalQuestionCount() int { return len(c.ordered) }

// QuestionByID looks up a single question.
func (c *Catalog) QuestionByID(id string) (*Question, error) {
	q, ok := c.byID[id]
	if !ok {
		return nil, NewNotFoundError("unknown question " + id)
	}
	return q, nil
}

// Contains reports whether id names a question in this catalog.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// QuestionsInOrder returns every question in catalog order.
func (c *Catalog) QuestionsInOrder() []*Question {
	return append([]*Question(nil), c.ordered...)
}

// questionAt returns the question at (section index, index within section),
// or nil when either index is out of range.
func (c *Catalog) questionAt(secIdx, qIdx int) *Question {
	if secIdx < 0 || secIdx >= len(c.sections) {
		return nil
	}
	qs := c.bySection[c.sections[secIdx].ID]
	if qIdx < 0 || qIdx >= len(qs) {
		return nil
	}
	return qs[qIdx]
}

// sectionSize returns the question count of the section at secIdx.
func (c *Catalog) sectionSize(secIdx int) int {
	if secIdx < 0 || secIdx >= len(c.sections) {
		return 0
	}
	return len(c.bySection[c.sections[secIdx].ID])
}

// CatalogLoader is the slice of the gateway contract needed to resolve a
// catalog.
type CatalogLoader interface {
	LoadQuestions(ctx context.Context, st SurveyType) (*Catalog, error)
}

// ResolveCatalog implements the remote-then-local strategy: ask the gateway
// for the catalog and, on any failure, substitute the bundled fallback so
// the session is never stuck without a question structure.
func ResolveCatalog(ctx context.Context, loader CatalogLoader, st SurveyType, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !ValidSurveyType(st) {
		return nil, NewInvalidError("unknown survey type " + string(st))
	}
	if loader != nil {
		c, err := loader.LoadQuestions(ctx, st)
		if err == nil && c != nil {
			return c, nil
		}
		logger.Warn("catalog fetch failed, using bundled fallback",
			zap.String("survey_type", string(st)), zap.Error(err))
	}
	return FallbackCatalog(st)
}

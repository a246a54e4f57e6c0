package services

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// SurveyType selects which questionnaire a session runs against.
type SurveyType string

const (
	SurveyStrategy     SurveyType = "strategy"
	SurveyCapabilities SurveyType = "capabilities"
	SurveyReadiness    SurveyType = "readiness"
)

// ValidSurveyType reports whether st names one of the shipped questionnaires.
func ValidSurveyType(st SurveyType) bool {
	switch st {
	case SurveyStrategy, SurveyCapabilities, SurveyReadiness:
		return true
	}
	return false
}

// QuestionType enumerates the supported prompt kinds.
type QuestionType string

const (
	QuestionSingleSelect QuestionType = "single_select"
	QuestionMultiSelect  QuestionType = "multi_select"
	QuestionLinearScale  QuestionType = "linear_scale"
	QuestionFreeText     QuestionType = "free_text"
	QuestionRankedList   QuestionType = "ranked_list"
)

// needsOptions reports whether the question type requires a non-empty
// option list.
func (qt QuestionType) needsOptions() bool {
	switch qt {
	case QuestionSingleSelect, QuestionMultiSelect, QuestionRankedList:
		return true
	}
	return false
}

// ScaleSpec bounds a linear-scale question. Labels, when present, annotate
// the scale points for display.
type ScaleSpec struct {
	Min    int      `json:"min" yaml:"min"`
	Max    int      `json:"max" yaml:"max"`
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Section groups questions in display order.
type Section struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Order       int    `json:"order" yaml:"order"`
}

// Question is one prompt within a section.
type Question struct {
	ID        string       `json:"id" yaml:"id"`
	SectionID string       `json:"section_id" yaml:"section_id"`
	Text      string       `json:"text" yaml:"text"`
	Type      QuestionType `json:"type" yaml:"type"`
	Options   []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Required  bool         `json:"required,omitempty" yaml:"required,omitempty"`
	Scale     *ScaleSpec   `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Value holds one answer: free text for text/select/scale questions, an
// ordered list for multi-select and ranked questions. The wire form is a
// bare JSON string or a JSON array of strings.
type Value struct {
	Text string
	List []string
}

// TextValue wraps a plain string answer.
func TextValue(s string) Value { return Value{Text: s} }

// ListValue wraps a multi-select or ranked answer.
func ListValue(items ...string) Value { return Value{List: items} }

// IsEmpty applies the answered-count rule: blank after trimming for text,
// zero elements for lists.
func (v Value) IsEmpty() bool {
	return strings.TrimSpace(v.Text) == "" && len(v.List) == 0
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.List != nil {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &v.List)
	}
	return json.Unmarshal(data, &v.Text)
}

// SaveState tracks the persistence status of one response.
type SaveState string

const (
	SavePending SaveState = "pending"
	SaveDone    SaveState = "saved"
	SaveFailed  SaveState = "failed"
)

// Response is the answer to one question within one session. It is created
// the instant an answer changes and overwritten in place by later edits.
type Response struct {
	QuestionID string
	Value      Value
	SavedAt    time.Time
	SaveState  SaveState
}

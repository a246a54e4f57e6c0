package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisDonovan01/dva-survey/internal/services"
)

const catalogJSON = `{
  "survey_type": "strategy",
  "sections": [
    {
      "id": "s1",
      "title": "Alignment",
      "order": 0,
      "questions": [
        {"id": "q1", "text": "Pick one", "type": "single_select", "options": ["A", "B"], "required": true},
        {"id": "q2", "text": "Say more", "type": "free_text"}
      ]
    }
  ]
}`

func TestLoadQuestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/surveys/strategy/questions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	catalog, err := c.LoadQuestions(context.Background(), services.SurveyStrategy)
	require.NoError(t, err)
	assert.Equal(t, services.SurveyStrategy, catalog.SurveyType())
	assert.Equal(t, 2, catalog.TotalQuestionCount())

	q, err := catalog.QuestionByID("q1")
	require.NoError(t, err)
	assert.Equal(t, "s1", q.SectionID, "section id filled in from the enclosing section")
	assert.True(t, q.Required)
}

func TestLoadQuestionsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	_, err := c.LoadQuestions(context.Background(), services.SurveyStrategy)
	require.Error(t, err)
	assert.True(t, services.IsUnavailable(err), "5xx should map to unavailable, got %v", err)
}

func TestLoadQuestionsUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", &http.Client{Timeout: 200 * time.Millisecond}, nil)
	_, err := c.LoadQuestions(context.Background(), services.SurveyStrategy)
	require.Error(t, err)
	assert.True(t, services.IsUnavailable(err))
}

func TestLoadQuestionsInvalidCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Question references a section the payload does not define.
		_, _ = w.Write([]byte(`{"survey_type":"strategy","sections":[{"id":"s1","questions":[{"id":"q1","section_id":"other","type":"free_text"}]}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	_, err := c.LoadQuestions(context.Background(), services.SurveyStrategy)
	require.Error(t, err)
	assert.True(t, services.IsUnavailable(err))
}

func TestLoadResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/responses", r.URL.Path)
		assert.Equal(t, "client-1", r.URL.Query().Get("client_id"))
		assert.Equal(t, "readiness", r.URL.Query().Get("survey_type"))
		_, _ = w.Write([]byte(`{"responses":{"q1":"A","q2":["X","Y"]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	values, err := c.LoadResponses(context.Background(), "client-1", services.SurveyReadiness)
	require.NoError(t, err)
	assert.Equal(t, "A", values["q1"].Text)
	assert.Equal(t, []string{"X", "Y"}, values["q2"].List)
}

func TestSaveResponse(t *testing.T) {
	var got saveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/responses", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	err := c.SaveResponse(context.Background(), "client-1", "user-1", "q3", services.ListValue("X"))
	require.NoError(t, err)
	assert.Equal(t, "client-1", got.ClientID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "q3", got.QuestionID)
	assert.Equal(t, []string{"X"}, got.Value.List)
}

func TestSaveResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "malformed payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	err := c.SaveResponse(context.Background(), "c", "u", "q1", services.TextValue("A"))
	require.Error(t, err)
	se, ok := services.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, services.ErrorRejected, se.Code)
	assert.Contains(t, se.Message, "malformed payload")
}

func TestRecordCompletion(t *testing.T) {
	completedAt := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil, nil)
	err := c.RecordCompletion(context.Background(), "client-1", "user-1", completedAt)
	require.NoError(t, err)
	assert.True(t, got.CompletedAt.Equal(completedAt))
	assert.Equal(t, "client-1", got.ClientID)
}

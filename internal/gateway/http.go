// Package gateway provides the HTTP implementation of the survey gateway
// contract consumed by internal/services.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ChrisDonovan01/dva-survey/internal/services"
)

// HTTPClient lets tests substitute the transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks JSON to the DVA backend. Network faults and 5xx map to the
// unavailable error code, 4xx to rejected; the session layer decides how
// to degrade.
type Client struct {
	base   string
	http   HTTPClient
	logger *zap.Logger
}

func NewClient(baseURL string, hc HTTPClient, logger *zap.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc, logger: logger}
}

var _ services.Gateway = (*Client)(nil)

// wire shapes

type catalogPayload struct {
	SurveyType services.SurveyType `json:"survey_type"`
	Sections   []struct {
		ID          string              `json:"id"`
		Title       string              `json:"title"`
		Description string              `json:"description"`
		Order       int                 `json:"order"`
		Questions   []services.Question `json:"questions"`
	} `json:"sections"`
}

type responsesPayload struct {
	Responses map[string]services.Value `json:"responses"`
}

type saveRequest struct {
	ClientID   string         `json:"client_id"`
	UserID     string         `json:"user_id,omitempty"`
	QuestionID string         `json:"question_id"`
	Value      services.Value `json:"value"`
}

type completionRequest struct {
	ClientID    string    `json:"client_id"`
	UserID      string    `json:"user_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

func (c *Client) LoadQuestions(ctx context.Context, st services.SurveyType) (*services.Catalog, error) {
	var payload catalogPayload
	path := fmt.Sprintf("/api/surveys/%s/questions", st)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	var sections []*services.Section
	var questions []*services.Question
	for _, sec := range payload.Sections {
		sections = append(sections, &services.Section{
			ID:          sec.ID,
			Title:       sec.Title,
			Description: sec.Description,
			Order:       sec.Order,
		})
		for _, q := range sec.Questions {
			qq := q
			if qq.SectionID == "" {
				qq.SectionID = sec.ID
			}
			questions = append(questions, &qq)
		}
	}
	catalog, err := services.NewCatalog(payload.SurveyType, sections, questions)
	if err != nil {
		return nil, services.NewUnavailableError("invalid catalog from backend: " + err.Error())
	}
	return catalog, nil
}

func (c *Client) LoadResponses(ctx context.Context, clientID string, st services.SurveyType) (map[string]services.Value, error) {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("survey_type", string(st))
	var payload responsesPayload
	if err := c.getJSON(ctx, "/api/responses?"+q.Encode(), &payload); err != nil {
		return nil, err
	}
	return payload.Responses, nil
}

func (c *Client) SaveResponse(ctx context.Context, clientID, userID, questionID string, v services.Value) error {
	return c.postJSON(ctx, "/api/responses", saveRequest{
		ClientID:   clientID,
		UserID:     userID,
		QuestionID: questionID,
		Value:      v,
	})
}

func (c *Client) RecordCompletion(ctx context.Context, clientID, userID string, completedAt time.Time) error {
	return c.postJSON(ctx, "/api/completions", completionRequest{
		ClientID:    clientID,
		UserID:      userID,
		CompletedAt: completedAt,
	})
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return services.NewInvalidError(err.Error())
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return services.NewUnavailableError(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.NewUnavailableError("decode response: " + err.Error())
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return services.NewInvalidError(err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return services.NewInvalidError(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return services.NewUnavailableError(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(b)))
	if resp.StatusCode >= 500 {
		return services.NewUnavailableError(msg)
	}
	return services.NewRejectedError(msg)
}

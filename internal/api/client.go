package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/placement-client/internal/config"
	"github.com/stemsi/placement-client/internal/model"
)

// Client talks to the placement-test backend. One client serves the whole
// session; every request carries a generated X-Request-ID for tracing.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a backend client from configuration.
func New(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.APIBaseURL,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     log.With().Str("component", "api_client").Logger(),
	}
}

// createStudentResponse is the backend envelope for student creation.
type createStudentResponse struct {
	Data model.SessionIdentifiers `json:"data"`
}

// CreateStudent registers the student profile and returns the session
// identifiers the backend assigned.
func (c *Client) CreateStudent(ctx context.Context, profile model.StudentProfile) (*model.SessionIdentifiers, error) {
	body, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/student/create", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out createStudentResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// ListQuestions fetches the ordered question set for the session.
func (c *Client) ListQuestions(ctx context.Context, studentID, setQuestion string) ([]model.Question, error) {
	q := url.Values{}
	q.Set("student_id", studentID)
	q.Set("set_question", setQuestion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/question/list?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	var questions []model.Question
	if err := c.do(req, &questions); err != nil {
		return nil, err
	}

	return questions, nil
}

// SubmitAnswers posts the assembled submission as a multipart form. Exactly
// one call per invocation; retries are up to the caller.
func (c *Client) SubmitAnswers(ctx context.Context, payload model.SubmissionPayload) error {
	records, err := json.Marshal(payload.StudentAnswers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	fields := map[string]string{
		"student_id":        strconv.Itoa(payload.StudentID),
		"student_answer_id": strconv.Itoa(payload.StudentAnswerID),
		"duration":          payload.Duration,
		"student_answers":   string(records),
	}
	if payload.Timestamp != 0 {
		fields["timestamp"] = strconv.FormatInt(payload.Timestamp, 10)
	}

	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return fmt.Errorf("write form field %s: %w", name, err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/studentanswer/create", &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	return c.do(req, nil)
}

// do executes the request and decodes a JSON body into out when non-nil.
// Any non-2xx status is reported as an error with the backend's status line.
func (c *Client) do(req *http.Request, out interface{}) error {
	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)

	c.log.Debug().
		Str("request_id", reqID).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("Backend request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("backend returned %s", resp.Status)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

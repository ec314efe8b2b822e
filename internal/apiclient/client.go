// Package apiclient talks to the exam REST API. It implements the question
// supplier and grader used by the exam session controller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 4 << 20

var (
	// ErrBadStatus is matched by every non-2xx answer.
	ErrBadStatus = errors.New("unexpected HTTP status")
	// ErrMalformedResponse is returned for bodies that do not decode or fail validation.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError carries the status and server message of a non-2xx answer.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrBadStatus
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	log        zerolog.Logger

	mu    sync.RWMutex
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log.With().Str("component", "api_client").Logger() }
}

// New builds a client for cfg.EndpointBaseURL.
func New(cfg config.SessionConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.EndpointBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
		validate:   validator.New(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token sent with every request. Empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// FetchQuestions calls POST /api/questions.
func (c *Client) FetchQuestions(ctx context.Context, req model.QuestionRequest) ([]model.QuestionForStudent, error) {
	var out model.QuestionsResponse
	if err := c.do(ctx, http.MethodPost, "/api/questions", req, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// SubmitExam calls POST /api/submit-exam.
func (c *Client) SubmitExam(ctx context.Context, req model.SubmitExamRequest) (*model.SubmitExamResponse, error) {
	var out model.SubmitExamResponse
	if err := c.do(ctx, http.MethodPost, "/api/submit-exam", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and remembers the returned token.
func (c *Client) Login(ctx context.Context, userName, password string) (*model.LoginResponse, error) {
	var out model.LoginResponse
	err := c.do(ctx, http.MethodPost, "/login", model.LoginRequest{UserName: userName, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout ends the server session and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	var out struct {
		Success bool `json:"success"`
	}
	err := c.do(ctx, http.MethodPost, "/logout", nil, &out)
	c.SetToken("")
	return err
}

// ListSubjects calls GET /api/subjects.
func (c *Client) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	var out model.SubjectsResponse
	if err := c.do(ctx, http.MethodGet, "/api/subjects", nil, &out); err != nil {
		return nil, err
	}
	return out.Subjects, nil
}

// ListReports calls GET /api/reports.
func (c *Client) ListReports(ctx context.Context, q model.ReportQuery) ([]model.ReportEntry, error) {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.SubjectID > 0 {
		v.Set("subjectId", strconv.Itoa(q.SubjectID))
	}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	path := "/api/reports"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var out model.ReportsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

// envelope is decoded from every body before the typed payload.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	c.log.Debug().Str("method", method).Str("path", path).Msg("API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			se.Code, se.Message = env.Code, env.Message
		}
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("API request failed")
		return se
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, decodeErr)
	}
	if !env.Success {
		return fmt.Errorf("%w: success flag not set", ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

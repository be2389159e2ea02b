package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mobile-core/internal/models"
)

// Client exposes the remote learning API operations the sync core depends
// on. Wire envelope details, auth and status-code mapping live here; callers
// see domain types and errors only.
type Client interface {
	GetAssignment(ctx context.Context, id uint) (models.Assignment, error)
	ListLessonAssignments(ctx context.Context, lessonID uint) ([]models.Assignment, error)
	ListStudentAssignments(ctx context.Context) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, req AssignmentRequest) (models.Assignment, error)
	UpdateAssignment(ctx context.Context, id uint, req AssignmentRequest) (models.Assignment, error)
	DeleteAssignment(ctx context.Context, id uint) error

	ListSubmissions(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	GetSubmission(ctx context.Context, id uint) (models.Submission, error)
	GetMySubmission(ctx context.Context, assignmentID uint) (*models.Submission, error)
	CreateSubmission(ctx context.Context, payload models.SubmitPayload) (models.Submission, error)
	UpdateSubmission(ctx context.Context, payload models.UpdatePayload) (models.Submission, error)
	GradeSubmission(ctx context.Context, payload models.GradePayload) (models.Submission, error)

	// Ping probes backend reachability without side effects.
	Ping(ctx context.Context) error
}

// AssignmentRequest carries the assignment create/edit form to the backend.
type AssignmentRequest struct {
	LessonID     uint      `json:"lesson_id"`
	Title        string    `json:"title" validate:"required"`
	Instructions string    `json:"instructions" validate:"required"`
	DueDate      time.Time `json:"due_date" validate:"required"`
}

// envelope is the backend's JSON response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type httpClient struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  zerolog.Logger
}

// NewClient builds an HTTP-backed Client. The timeout bounds every call,
// queued or direct; the queue treats a timeout like any other failure.
func NewClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) Client {
	return &httpClient{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "api_client").Logger(),
	}
}

func (c *httpClient) GetAssignment(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/assignments/%d", id), nil, &assignment)
	return assignment, err
}

func (c *httpClient) ListLessonAssignments(ctx context.Context, lessonID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/lessons/%d/assignments", lessonID), nil, &assignments)
	return assignments, err
}

func (c *httpClient) ListStudentAssignments(ctx context.Context) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := c.do(ctx, http.MethodGet, "/student/assignments", nil, &assignments)
	return assignments, err
}

func (c *httpClient) CreateAssignment(ctx context.Context, req AssignmentRequest) (models.Assignment, error) {
	var assignment models.Assignment
	err := c.do(ctx, http.MethodPost, "/assignments", req, &assignment)
	return assignment, err
}

func (c *httpClient) UpdateAssignment(ctx context.Context, id uint, req AssignmentRequest) (models.Assignment, error) {
	var assignment models.Assignment
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/assignments/%d", id), req, &assignment)
	return assignment, err
}

func (c *httpClient) DeleteAssignment(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/assignments/%d", id), nil, nil)
}

func (c *httpClient) ListSubmissions(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/assignments/%d/submissions", assignmentID), nil, &submissions)
	return submissions, err
}

func (c *httpClient) GetSubmission(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/submissions/%d", id), nil, &submission)
	return submission, err
}

func (c *httpClient) GetMySubmission(ctx context.Context, assignmentID uint) (*models.Submission, error) {
	var submission models.Submission
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/assignments/%d/submissions/mine", assignmentID), nil, &submission)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &submission, nil
}

// CreateSubmission uploads the answer as multipart form data: an optional
// text part plus zero or more file parts in their attachment order.
func (c *httpClient) CreateSubmission(ctx context.Context, payload models.SubmitPayload) (models.Submission, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("assignment_id", strconv.FormatUint(uint64(payload.AssignmentID), 10)); err != nil {
		return models.Submission{}, fmt.Errorf("failed to build submission form: %w", err)
	}
	if payload.TextAnswer != "" {
		if err := writer.WriteField("text_answer", payload.TextAnswer); err != nil {
			return models.Submission{}, fmt.Errorf("failed to build submission form: %w", err)
		}
	}

	for _, file := range payload.Files {
		if err := appendFilePart(writer, file); err != nil {
			return models.Submission{}, err
		}
	}

	if err := writer.Close(); err != nil {
		return models.Submission{}, fmt.Errorf("failed to finalize submission form: %w", err)
	}

	path := fmt.Sprintf("/assignments/%d/submissions", payload.AssignmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return models.Submission{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var submission models.Submission
	if err := c.send(req, &submission); err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (c *httpClient) UpdateSubmission(ctx context.Context, payload models.UpdatePayload) (models.Submission, error) {
	var submission models.Submission
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/submissions/%d", payload.SubmissionID), payload, &submission)
	return submission, err
}

func (c *httpClient) GradeSubmission(ctx context.Context, payload models.GradePayload) (models.Submission, error) {
	var submission models.Submission
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/submissions/%d/grade", payload.SubmissionID), payload, &submission)
	return submission, err
}

func (c *httpClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *httpClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *httpClient) send(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			apiErr.Message = env.Message
		}

		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("path", req.URL.Path).
			Msg("api call rejected")

		return apiErr
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response payload: %w", err)
	}

	return nil
}

func appendFilePart(writer *multipart.Writer, file models.LocalFile) error {
	part, err := writer.CreateFormFile("files", file.Name)
	if err != nil {
		return fmt.Errorf("failed to add file %q: %w", file.Name, err)
	}

	source, err := os.Open(file.URI)
	if err != nil {
		return fmt.Errorf("failed to open file %q: %w", file.Name, err)
	}
	defer source.Close()

	if _, err := io.Copy(part, source); err != nil {
		return fmt.Errorf("failed to copy file %q: %w", file.Name, err)
	}

	return nil
}

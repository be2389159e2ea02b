package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-mobile-core/internal/api"
	"github.com/noah-isme/gema-mobile-core/internal/models"
	"github.com/noah-isme/gema-mobile-core/internal/service"
)

func newSubmissionApp(t *testing.T, sync service.SyncService) *fiber.App {
	t.Helper()

	app := fiber.New()
	h := NewSubmissionHandler(sync, zerolog.Nop())
	h.RegisterAssignmentRoutes(app.Group("/assignments"))
	h.Register(app.Group("/submissions"))
	return app
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSubmitCreatedWhenAppliedDirectly(t *testing.T) {
	sync := &stubSync{
		submit: func(payload models.SubmitPayload) (service.Outcome, error) {
			require.Equal(t, uint(7), payload.AssignmentID)
			require.Equal(t, "my answer", payload.TextAnswer)
			return service.Outcome{Submission: &models.Submission{ID: 20, AssignmentID: 7}}, nil
		},
	}
	app := newSubmissionApp(t, sync)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/assignments/7/submission", fiber.Map{
		"text_answer": "my answer",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeResponse(t, resp)
	require.True(t, body.Success)
	require.Equal(t, "submission created", body.Message)
}

func TestSubmitAcceptedWhenQueued(t *testing.T) {
	sync := &stubSync{
		submit: func(models.SubmitPayload) (service.Outcome, error) {
			return service.Outcome{Queued: true, OperationID: "op-1"}, nil
		},
	}
	app := newSubmissionApp(t, sync)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/assignments/7/submission", fiber.Map{
		"text_answer": "offline answer",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	body := decodeResponse(t, resp)
	require.Equal(t, "submission queued for sync", body.Message)
	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, true, data["queued"])
	require.Equal(t, "op-1", data["operation_id"])
}

func TestSubmitRejectsInvalidFilesBeforeSyncing(t *testing.T) {
	sync := &stubSync{
		submit: func(models.SubmitPayload) (service.Outcome, error) {
			t.Fatal("invalid files must never reach the sync service")
			return service.Outcome{}, nil
		},
	}
	app := newSubmissionApp(t, sync)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/assignments/7/submission", fiber.Map{
		"files": []models.LocalFile{
			{URI: "/tmp/a.exe", Name: "a.exe", Type: "application/octet-stream", Size: 100},
			{URI: "/tmp/b.pdf", Name: "b.pdf", Type: "application/pdf", Size: 11 * 1024 * 1024},
			{URI: "/tmp/c.pdf", Name: "c.pdf", Type: "application/pdf", Size: 100},
		},
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeResponse(t, resp)
	require.False(t, body.Success)
	require.Equal(t, "validation failed", body.Message)
	require.Contains(t, body.Details, "files[0]")
	require.Contains(t, body.Details["files[0]"], "not supported")
	require.Contains(t, body.Details, "files[1]")
	require.Contains(t, body.Details["files[1]"], "exceeds 10MB limit")
	require.NotContains(t, body.Details, "files[2]")
}

func TestSubmitRejectsNonNumericAssignmentID(t *testing.T) {
	app := newSubmissionApp(t, &stubSync{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/assignments/abc/submission", fiber.Map{}))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitBackendRejectionKeepsStatus(t *testing.T) {
	sync := &stubSync{
		submit: func(models.SubmitPayload) (service.Outcome, error) {
			return service.Outcome{}, &api.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "assignment is past due"}
		},
	}
	app := newSubmissionApp(t, sync)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/assignments/7/submission", fiber.Map{}))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeResponse(t, resp)
	require.Equal(t, "assignment is past due", body.Message)
}

func TestSubmitTransportFailureIsBadGateway(t *testing.T) {
	sync := &stubSync{
		submit: func(models.SubmitPayload) (service.Outcome, error) {
			return service.Outcome{}, fmt.Errorf("%w: connection refused", api.ErrUnreachable)
		},
	}
	app := newSubmissionApp(t, sync)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/assignments/7/submission", fiber.Map{}))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body := decodeResponse(t, resp)
	require.Equal(t, "backend unreachable", body.Message)
}

func TestUpdateSubmissionUsesPathID(t *testing.T) {
	sync := &stubSync{
		update: func(payload models.UpdatePayload) (service.Outcome, error) {
			require.Equal(t, uint(5), payload.SubmissionID)
			return service.Outcome{Submission: &models.Submission{ID: 5}}, nil
		},
	}
	app := newSubmissionApp(t, sync)

	resp, err := app.Test(jsonRequest(t, http.MethodPatch, "/submissions/5", fiber.Map{
		"text_answer": "revised",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGradeQueuedWhileOffline(t *testing.T) {
	sync := &stubSync{
		grade: func(payload models.GradePayload) (service.Outcome, error) {
			require.Equal(t, uint(5), payload.SubmissionID)
			require.Equal(t, models.GradingStatusFailed, payload.GradingStatus)
			return service.Outcome{Queued: true, OperationID: "op-9"}, nil
		},
	}
	app := newSubmissionApp(t, sync)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/submissions/5/grade", fiber.Map{
		"grading_status": "failed",
		"feedback":       "incomplete",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	body := decodeResponse(t, resp)
	require.Equal(t, "grade queued for sync", body.Message)
}

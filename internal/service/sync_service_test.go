package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-mobile-core/internal/api"
	"github.com/noah-isme/gema-mobile-core/internal/models"
	"github.com/noah-isme/gema-mobile-core/internal/netstatus"
	"github.com/noah-isme/gema-mobile-core/internal/storage"
)

// stubClient implements api.Client with overridable mutation hooks.
type stubClient struct {
	api.Client

	createSubmission func(models.SubmitPayload) (models.Submission, error)
	updateSubmission func(models.UpdatePayload) (models.Submission, error)
	gradeSubmission  func(models.GradePayload) (models.Submission, error)

	createCalls int
	updateCalls int
	gradeCalls  int
}

func (s *stubClient) CreateSubmission(_ context.Context, payload models.SubmitPayload) (models.Submission, error) {
	s.createCalls++
	if s.createSubmission != nil {
		return s.createSubmission(payload)
	}
	return models.Submission{ID: 100, AssignmentID: payload.AssignmentID, Status: models.SubmissionStatusSubmitted}, nil
}

func (s *stubClient) UpdateSubmission(_ context.Context, payload models.UpdatePayload) (models.Submission, error) {
	s.updateCalls++
	if s.updateSubmission != nil {
		return s.updateSubmission(payload)
	}
	return models.Submission{ID: payload.SubmissionID}, nil
}

func (s *stubClient) GradeSubmission(_ context.Context, payload models.GradePayload) (models.Submission, error) {
	s.gradeCalls++
	if s.gradeSubmission != nil {
		return s.gradeSubmission(payload)
	}
	return models.Submission{ID: payload.SubmissionID, Status: models.SubmissionStatusGraded, GradingStatus: payload.GradingStatus}, nil
}

type syncFixture struct {
	sync    SyncService
	queue   QueueService
	drafts  DraftService
	client  *stubClient
	monitor *netstatus.Monitor
	store   storage.Store
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	store := storage.NewMemoryStore()
	validate := validator.New(validator.WithRequiredStructEnabled())
	queue := NewQueueService(store, validate, zerolog.Nop())
	drafts := NewDraftService(store, zerolog.Nop())
	client := &stubClient{}
	monitor := netstatus.NewMonitor(zerolog.Nop())

	return &syncFixture{
		sync:    NewSyncService(queue, drafts, client, monitor, validate, nil, "", zerolog.Nop()),
		queue:   queue,
		drafts:  drafts,
		client:  client,
		monitor: monitor,
		store:   store,
	}
}

func transportError() error {
	return fmt.Errorf("%w: connection refused", api.ErrUnreachable)
}

func TestDrainAppliesOperationsInOrder(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	var applied []uint
	f.client.createSubmission = func(payload models.SubmitPayload) (models.Submission, error) {
		applied = append(applied, payload.AssignmentID)
		return models.Submission{ID: 1, AssignmentID: payload.AssignmentID}, nil
	}

	for id := uint(1); id <= 3; id++ {
		_, err := f.queue.Enqueue(ctx, submitOp(id))
		require.NoError(t, err)
	}

	report, err := f.sync.Drain(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, DrainReport{Processed: 3, Succeeded: 3}, report)
	require.Equal(t, []uint{1, 2, 3}, applied)

	ops, err := f.queue.List(ctx)
	require.NoError(t, err)
	require.Empty(t, ops)
}

func TestDrainClearsDraftAfterSuccessfulSubmit(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	require.NoError(t, f.drafts.Save(ctx, 7, "offline answer", nil))
	_, err := f.queue.Enqueue(ctx, submitOp(7))
	require.NoError(t, err)

	_, err = f.sync.Drain(ctx, "test")
	require.NoError(t, err)

	draft, err := f.drafts.Load(ctx, 7)
	require.NoError(t, err)
	require.Nil(t, draft, "draft is destroyed once the submission lands remotely")
}

func TestDrainFailureIncrementsRetryAndContinues(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.client.createSubmission = func(payload models.SubmitPayload) (models.Submission, error) {
		if payload.AssignmentID == 1 {
			return models.Submission{}, transportError()
		}
		return models.Submission{ID: 2}, nil
	}

	_, err := f.queue.Enqueue(ctx, submitOp(1))
	require.NoError(t, err)
	_, err = f.queue.Enqueue(ctx, submitOp(2))
	require.NoError(t, err)

	report, err := f.sync.Drain(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, 2, report.Processed)
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, 1, report.Failed)
	require.Zero(t, report.Dropped)

	ops, err := f.queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, uint(1), ops[0].Submit.AssignmentID)
	require.Equal(t, 1, ops[0].RetryCount)
}

func TestDrainDropsOperationAfterRetryCeiling(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.client.createSubmission = func(models.SubmitPayload) (models.Submission, error) {
		return models.Submission{}, transportError()
	}

	_, err := f.queue.Enqueue(ctx, submitOp(1))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		report, err := f.sync.Drain(ctx, "test")
		require.NoError(t, err)
		require.Equal(t, 1, report.Failed)
		require.Zero(t, report.Dropped)
	}

	report, err := f.sync.Drain(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.Dropped)

	ops, err := f.queue.List(ctx)
	require.NoError(t, err)
	require.Empty(t, ops, "operation is abandoned after the third failed attempt")
}

func TestDrainDispatchesAllOperationTypes(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_, err := f.queue.Enqueue(ctx, submitOp(1))
	require.NoError(t, err)
	answer := "revised"
	_, err = f.queue.Enqueue(ctx, models.QueuedOperation{
		Type:   models.OperationUpdateSubmission,
		Update: &models.UpdatePayload{SubmissionID: 5, TextAnswer: &answer},
	})
	require.NoError(t, err)
	_, err = f.queue.Enqueue(ctx, models.QueuedOperation{
		Type:  models.OperationGradeSubmission,
		Grade: &models.GradePayload{SubmissionID: 5, GradingStatus: models.GradingStatusPassed},
	})
	require.NoError(t, err)

	report, err := f.sync.Drain(ctx, "test")
	require.NoError(t, err)
	require.Equal(t, 3, report.Succeeded)
	require.Equal(t, 1, f.client.createCalls)
	require.Equal(t, 1, f.client.updateCalls)
	require.Equal(t, 1, f.client.gradeCalls)
}

func TestSubmitAssignmentQueuesWhileOffline(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	outcome, err := f.sync.SubmitAssignment(ctx, models.SubmitPayload{AssignmentID: 3, TextAnswer: "later"})
	require.NoError(t, err)
	require.True(t, outcome.Queued)
	require.NotEmpty(t, outcome.OperationID)
	require.Nil(t, outcome.Submission)
	require.Zero(t, f.client.createCalls, "no remote call while offline")

	ops, err := f.queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
}

func TestSubmitAssignmentDirectWhileConnected(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.monitor.Set(netstatus.State{Connected: true})

	require.NoError(t, f.drafts.Save(ctx, 3, "draft text", nil))

	outcome, err := f.sync.SubmitAssignment(ctx, models.SubmitPayload{AssignmentID: 3, TextAnswer: "final"})
	require.NoError(t, err)
	require.False(t, outcome.Queued)
	require.NotNil(t, outcome.Submission)
	require.Equal(t, 1, f.client.createCalls)

	draft, err := f.drafts.Load(ctx, 3)
	require.NoError(t, err)
	require.Nil(t, draft)
}

func TestSubmitAssignmentSupersedesQueuedSubmit(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	// Queued while offline, then the user resubmits once connected.
	_, err := f.sync.SubmitAssignment(ctx, models.SubmitPayload{AssignmentID: 3, TextAnswer: "stale"})
	require.NoError(t, err)

	f.monitor.Set(netstatus.State{Connected: true})

	outcome, err := f.sync.SubmitAssignment(ctx, models.SubmitPayload{AssignmentID: 3, TextAnswer: "fresh"})
	require.NoError(t, err)
	require.False(t, outcome.Queued)

	ops, err := f.queue.List(ctx)
	require.NoError(t, err)
	require.Empty(t, ops, "the stale queued submit is superseded by the direct call")
}

func TestSubmitAssignmentFallsBackToQueueOnTransportFailure(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.monitor.Set(netstatus.State{Connected: true})

	f.client.createSubmission = func(models.SubmitPayload) (models.Submission, error) {
		return models.Submission{}, transportError()
	}

	outcome, err := f.sync.SubmitAssignment(ctx, models.SubmitPayload{AssignmentID: 3, TextAnswer: "keep me"})
	require.NoError(t, err)
	require.True(t, outcome.Queued)

	ops, err := f.queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, "keep me", ops[0].Submit.TextAnswer)
}

func TestSubmitAssignmentPropagatesBackendRejection(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.monitor.Set(netstatus.State{Connected: true})

	f.client.createSubmission = func(models.SubmitPayload) (models.Submission, error) {
		return models.Submission{}, &api.APIError{StatusCode: 422, Message: "assignment is past due"}
	}

	_, err := f.sync.SubmitAssignment(ctx, models.SubmitPayload{AssignmentID: 3, TextAnswer: "late"})
	require.Error(t, err)

	ops, listErr := f.queue.List(ctx)
	require.NoError(t, listErr)
	require.Empty(t, ops, "deliberate rejections are not retried via the queue")
}

func TestGradeSubmissionQueuesWhileOffline(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	outcome, err := f.sync.GradeSubmission(ctx, models.GradePayload{
		SubmissionID:  8,
		GradingStatus: models.GradingStatusFailed,
		Feedback:      "missing citations",
	})
	require.NoError(t, err)
	require.True(t, outcome.Queued)

	ops, err := f.queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, models.OperationGradeSubmission, ops[0].Type)
	require.Equal(t, "missing citations", ops[0].Grade.Feedback)
}

func TestUpdateSubmissionValidatesPayload(t *testing.T) {
	f := newSyncFixture(t)

	_, err := f.sync.UpdateSubmission(context.Background(), models.UpdatePayload{})
	require.Error(t, err, "submission id is required")
}

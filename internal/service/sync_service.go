package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-mobile-core/internal/api"
	"github.com/noah-isme/gema-mobile-core/internal/models"
	"github.com/noah-isme/gema-mobile-core/internal/netstatus"
	"github.com/noah-isme/gema-mobile-core/internal/observability"
)

// ErrDrainInProgress indicates a drain pass is already running; the caller's
// request coalesces with it.
var ErrDrainInProgress = errors.New("queue drain already in progress")

// DrainReport summarizes one drain pass over the queue snapshot.
type DrainReport struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`
}

// Outcome describes how a mutating action was carried out: applied remotely,
// or recorded in the offline queue for a later drain.
type Outcome struct {
	Submission  *models.Submission `json:"submission,omitempty"`
	Queued      bool               `json:"queued"`
	OperationID string             `json:"operation_id,omitempty"`
}

// SyncService owns the write path between the device and the backend. While
// connected it calls the API directly; while offline (or when a call never
// reaches the backend) it records the action in the offline queue. Draining
// replays the queue in FIFO order, one operation at a time.
type SyncService interface {
	// Drain replays a snapshot of the queue. Operations enqueued during
	// the pass wait for the next trigger. Failures never abort the pass.
	Drain(ctx context.Context, trigger string) (DrainReport, error)
	SubmitAssignment(ctx context.Context, payload models.SubmitPayload) (Outcome, error)
	UpdateSubmission(ctx context.Context, payload models.UpdatePayload) (Outcome, error)
	GradeSubmission(ctx context.Context, payload models.GradePayload) (Outcome, error)
}

type syncService struct {
	queue     QueueService
	drafts    DraftService
	client    api.Client
	monitor   *netstatus.Monitor
	validator *validator.Validate
	nats      *nats.Conn
	subject   string
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time

	draining sync.Mutex
}

// syncIssuesEvent is the transient notification published after a drain pass
// that could not apply every operation.
type syncIssuesEvent struct {
	Failed     int       `json:"failed"`
	Dropped    int       `json:"dropped"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewSyncService constructs the sync write path. natsConn may be nil; sync
// issue notifications are then skipped.
func NewSyncService(queue QueueService, drafts DraftService, client api.Client, monitor *netstatus.Monitor, validate *validator.Validate, natsConn *nats.Conn, subject string, logger zerolog.Logger) SyncService {
	return &syncService{
		queue:     queue,
		drafts:    drafts,
		client:    client,
		monitor:   monitor,
		validator: validate,
		nats:      natsConn,
		subject:   subject,
		logger:    logger.With().Str("component", "sync_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-mobile-core/internal/service/sync"),
		now:       time.Now,
	}
}

func (s *syncService) Drain(ctx context.Context, trigger string) (DrainReport, error) {
	if !s.draining.TryLock() {
		return DrainReport{}, ErrDrainInProgress
	}
	defer s.draining.Unlock()

	ctx, span := s.tracer.Start(ctx, "sync.drain")
	span.SetAttributes(attribute.String("sync.trigger", trigger))
	defer span.End()

	started := s.now()
	observability.SyncDrains().WithLabelValues(trigger).Inc()

	snapshot, err := s.queue.List(ctx)
	if err != nil {
		span.RecordError(err)
		return DrainReport{}, err
	}

	report := DrainReport{Processed: len(snapshot)}
	for _, op := range snapshot {
		if err := s.apply(ctx, op); err != nil {
			report.Failed++
			observability.SyncOperations().WithLabelValues(string(op.Type), "failure").Inc()
			s.logger.Warn().
				Err(err).
				Str("operation_id", op.ID).
				Str("operation_type", string(op.Type)).
				Int("retry_count", op.RetryCount).
				Msg("queued operation failed")

			dropped, retryErr := s.queue.IncrementRetry(ctx, op.ID)
			if retryErr != nil {
				s.logger.Error().Err(retryErr).Str("operation_id", op.ID).Msg("failed to record retry")
			}
			if dropped {
				report.Dropped++
				observability.SyncOperations().WithLabelValues(string(op.Type), "dropped").Inc()
			}
			continue
		}

		report.Succeeded++
		observability.SyncOperations().WithLabelValues(string(op.Type), "success").Inc()
		if err := s.queue.Remove(ctx, op.ID); err != nil {
			s.logger.Error().Err(err).Str("operation_id", op.ID).Msg("failed to remove applied operation")
		}
	}

	if remaining, err := s.queue.Length(ctx); err == nil {
		observability.QueuePending().Set(float64(remaining))
	}
	observability.DrainDuration().Observe(s.now().Sub(started).Seconds())

	span.SetAttributes(
		attribute.Int("sync.processed", report.Processed),
		attribute.Int("sync.succeeded", report.Succeeded),
		attribute.Int("sync.failed", report.Failed),
		attribute.Int("sync.dropped", report.Dropped),
	)

	s.logger.Info().
		Str("trigger", trigger).
		Int("processed", report.Processed).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("dropped", report.Dropped).
		Msg("drain pass finished")

	if report.Failed > 0 || report.Dropped > 0 {
		s.notifySyncIssues(report)
	}

	return report, nil
}

// apply dispatches one queued operation to its remote call. A successful
// submit also destroys the local draft for that assignment.
func (s *syncService) apply(ctx context.Context, op models.QueuedOperation) error {
	switch op.Type {
	case models.OperationSubmitAssignment:
		if op.Submit == nil {
			return ErrPayloadMismatch
		}
		if _, err := s.client.CreateSubmission(ctx, *op.Submit); err != nil {
			return err
		}
		if err := s.drafts.Clear(ctx, op.Submit.AssignmentID); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", op.Submit.AssignmentID).Msg("failed to clear draft after sync")
		}
		return nil
	case models.OperationUpdateSubmission:
		if op.Update == nil {
			return ErrPayloadMismatch
		}
		_, err := s.client.UpdateSubmission(ctx, *op.Update)
		return err
	case models.OperationGradeSubmission:
		if op.Grade == nil {
			return ErrPayloadMismatch
		}
		_, err := s.client.GradeSubmission(ctx, *op.Grade)
		return err
	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}
}

// SubmitAssignment applies the submission directly while connected, after
// superseding any queued submit for the same assignment; otherwise it
// records the submit in the queue. A direct call that never reaches the
// backend is queued as well, so the answer survives the failure.
func (s *syncService) SubmitAssignment(ctx context.Context, payload models.SubmitPayload) (Outcome, error) {
	if err := s.validator.Struct(payload); err != nil {
		return Outcome{}, err
	}

	ctx, span := s.tracer.Start(ctx, "sync.submit_assignment")
	span.SetAttributes(attribute.Int64("assignment_id", int64(payload.AssignmentID)))
	defer span.End()

	if !s.monitor.Current().Connected {
		return s.enqueue(ctx, models.QueuedOperation{
			Type:   models.OperationSubmitAssignment,
			Submit: &payload,
		})
	}

	if removed, err := s.queue.RemoveSubmitFor(ctx, payload.AssignmentID); err == nil && removed {
		s.logger.Info().Uint("assignment_id", payload.AssignmentID).Msg("superseded queued submission")
	}

	submission, err := s.client.CreateSubmission(ctx, payload)
	if err != nil {
		if api.IsTransportError(err) {
			span.RecordError(err)
			return s.enqueue(ctx, models.QueuedOperation{
				Type:   models.OperationSubmitAssignment,
				Submit: &payload,
			})
		}
		return Outcome{}, err
	}

	if err := s.drafts.Clear(ctx, payload.AssignmentID); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", payload.AssignmentID).Msg("failed to clear draft after submission")
	}

	return Outcome{Submission: &submission}, nil
}

func (s *syncService) UpdateSubmission(ctx context.Context, payload models.UpdatePayload) (Outcome, error) {
	if err := s.validator.Struct(payload); err != nil {
		return Outcome{}, err
	}

	if !s.monitor.Current().Connected {
		return s.enqueue(ctx, models.QueuedOperation{
			Type:   models.OperationUpdateSubmission,
			Update: &payload,
		})
	}

	submission, err := s.client.UpdateSubmission(ctx, payload)
	if err != nil {
		if api.IsTransportError(err) {
			return s.enqueue(ctx, models.QueuedOperation{
				Type:   models.OperationUpdateSubmission,
				Update: &payload,
			})
		}
		return Outcome{}, err
	}

	return Outcome{Submission: &submission}, nil
}

func (s *syncService) GradeSubmission(ctx context.Context, payload models.GradePayload) (Outcome, error) {
	if err := s.validator.Struct(payload); err != nil {
		return Outcome{}, err
	}

	if !s.monitor.Current().Connected {
		return s.enqueue(ctx, models.QueuedOperation{
			Type:  models.OperationGradeSubmission,
			Grade: &payload,
		})
	}

	submission, err := s.client.GradeSubmission(ctx, payload)
	if err != nil {
		if api.IsTransportError(err) {
			return s.enqueue(ctx, models.QueuedOperation{
				Type:  models.OperationGradeSubmission,
				Grade: &payload,
			})
		}
		return Outcome{}, err
	}

	return Outcome{Submission: &submission}, nil
}

func (s *syncService) enqueue(ctx context.Context, op models.QueuedOperation) (Outcome, error) {
	stored, err := s.queue.Enqueue(ctx, op)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Queued: true, OperationID: stored.ID}, nil
}

func (s *syncService) notifySyncIssues(report DrainReport) {
	if s.nats == nil || s.subject == "" {
		return
	}

	event := syncIssuesEvent{
		Failed:     report.Failed,
		Dropped:    report.Dropped,
		OccurredAt: s.now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.nats.Publish(s.subject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish sync issues event")
	}
}

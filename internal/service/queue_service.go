package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mobile-core/internal/models"
	"github.com/noah-isme/gema-mobile-core/internal/storage"
)

// queueKey is the single key the serialized operation list lives under.
const queueKey = "offline_operation_queue"

// ErrPayloadMismatch indicates a queued operation whose payload does not
// match its type tag.
var ErrPayloadMismatch = errors.New("operation payload does not match its type")

// QueueService is the durable FIFO of mutating operations deferred for lack
// of connectivity. A corrupt or missing backing entry reads as an empty
// queue; operations are immutable after enqueue except for retry-count
// increments.
type QueueService interface {
	// Enqueue assigns an id, timestamp and zero retry count, then appends
	// the operation and returns it as stored.
	Enqueue(ctx context.Context, op models.QueuedOperation) (models.QueuedOperation, error)
	// List returns the queue in insertion order, empty on missing or
	// corrupt backing data.
	List(ctx context.Context) ([]models.QueuedOperation, error)
	// Remove drops the operation with the given id, if present.
	Remove(ctx context.Context, id string) error
	// IncrementRetry bumps the retry count; when the bump would reach the
	// ceiling the operation is dropped instead, and dropped is true.
	IncrementRetry(ctx context.Context, id string) (dropped bool, err error)
	// RemoveSubmitFor drops any pending submit operation for the
	// assignment, returning whether one was removed.
	RemoveSubmitFor(ctx context.Context, assignmentID uint) (bool, error)
	// Length reports the number of pending operations.
	Length(ctx context.Context) (int, error)
}

type queueService struct {
	store     storage.Store
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time

	// Serializes load-modify-write cycles on the queue key. Logical tasks
	// are event-driven, but a manual drain and a reconnect drain can
	// overlap in this process.
	mu sync.Mutex
}

// NewQueueService constructs a QueueService over the given store.
func NewQueueService(store storage.Store, validate *validator.Validate, logger zerolog.Logger) QueueService {
	return &queueService{
		store:     store,
		validator: validate,
		logger:    logger.With().Str("component", "queue_service").Logger(),
		now:       time.Now,
	}
}

func (s *queueService) Enqueue(ctx context.Context, op models.QueuedOperation) (models.QueuedOperation, error) {
	if err := s.validatePayload(op); err != nil {
		return models.QueuedOperation{}, err
	}

	op.ID = uuid.NewString()
	op.Timestamp = s.now()
	op.RetryCount = 0

	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.load(ctx)
	queue = append(queue, op)
	if err := s.persist(ctx, queue); err != nil {
		return models.QueuedOperation{}, err
	}

	s.logger.Info().
		Str("operation_id", op.ID).
		Str("operation_type", string(op.Type)).
		Int("queue_length", len(queue)).
		Msg("operation enqueued")

	return op, nil
}

func (s *queueService) List(ctx context.Context) ([]models.QueuedOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx), nil
}

func (s *queueService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.load(ctx)
	remaining := make([]models.QueuedOperation, 0, len(queue))
	for _, op := range queue {
		if op.ID != id {
			remaining = append(remaining, op)
		}
	}

	return s.persist(ctx, remaining)
}

func (s *queueService) IncrementRetry(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.load(ctx)
	for i, op := range queue {
		if op.ID != id {
			continue
		}

		if !op.CanRetry() {
			remaining := append(queue[:i:i], queue[i+1:]...)
			if err := s.persist(ctx, remaining); err != nil {
				return false, err
			}

			s.logger.Warn().
				Str("operation_id", op.ID).
				Str("operation_type", string(op.Type)).
				Int("retry_count", op.RetryCount).
				Msg("operation dropped after exhausting retries")

			return true, nil
		}

		queue[i].RetryCount++
		return false, s.persist(ctx, queue)
	}

	return false, nil
}

func (s *queueService) RemoveSubmitFor(ctx context.Context, assignmentID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.load(ctx)
	remaining := make([]models.QueuedOperation, 0, len(queue))
	removed := false
	for _, op := range queue {
		if op.Type == models.OperationSubmitAssignment && op.Submit != nil && op.Submit.AssignmentID == assignmentID {
			removed = true
			continue
		}
		remaining = append(remaining, op)
	}

	if !removed {
		return false, nil
	}

	return true, s.persist(ctx, remaining)
}

func (s *queueService) Length(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.load(ctx)), nil
}

// load reads the queue, degrading missing or corrupt data to an empty list.
func (s *queueService) load(ctx context.Context) []models.QueuedOperation {
	raw, ok, err := s.store.Get(ctx, queueKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read operation queue")
		return []models.QueuedOperation{}
	}
	if !ok {
		return []models.QueuedOperation{}
	}

	var queue []models.QueuedOperation
	if err := json.Unmarshal([]byte(raw), &queue); err != nil {
		s.logger.Warn().Err(err).Msg("discarding unparseable operation queue")
		return []models.QueuedOperation{}
	}

	return queue
}

func (s *queueService) persist(ctx context.Context, queue []models.QueuedOperation) error {
	payload, err := json.Marshal(queue)
	if err != nil {
		return fmt.Errorf("failed to serialize operation queue: %w", err)
	}

	if err := s.store.Set(ctx, queueKey, string(payload)); err != nil {
		return fmt.Errorf("failed to persist operation queue: %w", err)
	}

	return nil
}

func (s *queueService) validatePayload(op models.QueuedOperation) error {
	switch op.Type {
	case models.OperationSubmitAssignment:
		if op.Submit == nil {
			return ErrPayloadMismatch
		}
		return s.validator.Struct(op.Submit)
	case models.OperationUpdateSubmission:
		if op.Update == nil {
			return ErrPayloadMismatch
		}
		return s.validator.Struct(op.Update)
	case models.OperationGradeSubmission:
		if op.Grade == nil {
			return ErrPayloadMismatch
		}
		return s.validator.Struct(op.Grade)
	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}
}

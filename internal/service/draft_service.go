package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mobile-core/internal/models"
	"github.com/noah-isme/gema-mobile-core/internal/storage"
)

// draftKeyPrefix namespaces draft keys in the shared key-value store. The
// assignment id completes the key, so at most one draft exists per
// assignment.
const draftKeyPrefix = "draft_submission_"

// DraftService persists in-progress answers locally, one per assignment.
// Reads degrade to absence: a missing or unparseable draft is reported as no
// draft at all, never as an error.
type DraftService interface {
	Save(ctx context.Context, assignmentID uint, textAnswer string, files []models.LocalFile) error
	Load(ctx context.Context, assignmentID uint) (*models.DraftSubmission, error)
	Clear(ctx context.Context, assignmentID uint) error
	Has(ctx context.Context, assignmentID uint) (bool, error)
	All(ctx context.Context) ([]models.DraftSubmission, error)
	ClearAll(ctx context.Context) error
}

type draftService struct {
	store  storage.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewDraftService constructs a DraftService over the given store.
func NewDraftService(store storage.Store, logger zerolog.Logger) DraftService {
	return &draftService{
		store:  store,
		logger: logger.With().Str("component", "draft_service").Logger(),
		now:    time.Now,
	}
}

// Save overwrites any prior draft for the assignment. There are no merge
// semantics: the new draft replaces the old one wholesale.
func (s *draftService) Save(ctx context.Context, assignmentID uint, textAnswer string, files []models.LocalFile) error {
	draft := models.DraftSubmission{
		AssignmentID: assignmentID,
		TextAnswer:   textAnswer,
		Files:        files,
		LastModified: s.now(),
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to serialize draft: %w", err)
	}

	if err := s.store.Set(ctx, draftKey(assignmentID), string(payload)); err != nil {
		return fmt.Errorf("failed to persist draft: %w", err)
	}

	return nil
}

func (s *draftService) Load(ctx context.Context, assignmentID uint) (*models.DraftSubmission, error) {
	raw, ok, err := s.store.Get(ctx, draftKey(assignmentID))
	if err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("failed to read draft")
		return nil, nil
	}
	if !ok {
		return nil, nil
	}

	var draft models.DraftSubmission
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("discarding unparseable draft")
		return nil, nil
	}

	return &draft, nil
}

// Clear removes the draft. Clearing an absent draft is a no-op.
func (s *draftService) Clear(ctx context.Context, assignmentID uint) error {
	if err := s.store.Delete(ctx, draftKey(assignmentID)); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}

	return nil
}

func (s *draftService) Has(ctx context.Context, assignmentID uint) (bool, error) {
	exists, err := s.store.Exists(ctx, draftKey(assignmentID))
	if err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("failed to check draft")
		return false, nil
	}

	return exists, nil
}

// All returns every stored draft, skipping entries that no longer parse
// rather than failing the whole scan.
func (s *draftService) All(ctx context.Context) ([]models.DraftSubmission, error) {
	keys, err := s.store.Keys(ctx, draftKeyPrefix)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan drafts")
		return []models.DraftSubmission{}, nil
	}

	drafts := make([]models.DraftSubmission, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := s.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}

		var draft models.DraftSubmission
		if err := json.Unmarshal([]byte(raw), &draft); err != nil {
			s.logger.Warn().Str("key", key).Msg("skipping unparseable draft")
			continue
		}

		drafts = append(drafts, draft)
	}

	return drafts, nil
}

func (s *draftService) ClearAll(ctx context.Context) error {
	keys, err := s.store.Keys(ctx, draftKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to scan drafts: %w", err)
	}

	for _, key := range keys {
		if !strings.HasPrefix(key, draftKeyPrefix) {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear draft %q: %w", key, err)
		}
	}

	return nil
}

func draftKey(assignmentID uint) string {
	return fmt.Sprintf("%s%d", draftKeyPrefix, assignmentID)
}

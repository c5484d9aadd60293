package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aidolab/mgstudio/internal/common"
	"github.com/aidolab/mgstudio/internal/logging"
	"github.com/aidolab/mgstudio/internal/server/models"
	"github.com/aidolab/mgstudio/internal/server/repositories/repomanager"
)

type WorkService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	presigner   Presigner
	logger      logging.Logger
}

func NewWorkService(db *sql.DB, m repomanager.RepositoryManager, presigner Presigner, logger logging.Logger) *WorkService {
	return &WorkService{
		db:          db,
		repomanager: m,
		presigner:   presigner,
		logger:      logger,
	}
}

// Generate queues a new text-to-animation work for userID.
func (s *WorkService) Generate(ctx context.Context, userID, prompt string) (*models.Work, error) {
	if prompt == "" {
		return nil, common.ErrorCodeInvalid
	}

	work, err := s.repomanager.Works(s.db).Create(ctx, &models.Work{UserID: userID, Prompt: prompt})
	if err != nil {
		return nil, common.ErrorInternal
	}

	return work, nil
}

// List returns the user's works, newest first.
func (s *WorkService) List(ctx context.Context, userID string) ([]*models.Work, error) {
	works, err := s.repomanager.Works(s.db).SelectByUser(ctx, userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return works, nil
}

// Get returns one of the user's works.
func (s *WorkService) Get(ctx context.Context, userID, id string) (*models.Work, error) {
	work, err := s.repomanager.Works(s.db).Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return work, nil
}

// Delete removes one of the user's works.
func (s *WorkService) Delete(ctx context.Context, userID, id string) error {
	err := s.repomanager.Works(s.db).Delete(ctx, userID, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}

// VideoURL returns a short-lived download link for a completed work, or an
// empty string while the work is still in the pipeline.
func (s *WorkService) VideoURL(ctx context.Context, work *models.Work) (string, error) {
	if work.Status != models.WorkStatusCompleted || work.StorageKey == "" {
		return "", nil
	}

	url, err := s.presigner.PresignGet(ctx, work.StorageKey)
	if err != nil {
		return "", err
	}
	return url, nil
}

// RenderNext claims the oldest queued work and completes it, assigning a
// storage key for the rendered video. The actual rendering pipeline lives
// elsewhere; this server only tracks the lifecycle. Returns
// common.ErrorNotFound when the queue is empty.
func (s *WorkService) RenderNext(ctx context.Context) (*models.Work, error) {
	repo := s.repomanager.Works(s.db)

	work, err := repo.ClaimQueued(ctx)
	if err != nil {
		return nil, err
	}

	key := GetRandomStorageKey()
	if err := repo.Complete(ctx, work.ID, key); err != nil {
		return nil, err
	}

	work.Status = models.WorkStatusCompleted
	work.StorageKey = key
	s.logger.Info(ctx, "work rendered", "work_id", work.ID, "storage_key", key)

	return work, nil
}

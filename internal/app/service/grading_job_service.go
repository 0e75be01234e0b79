package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"

	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"
	"classhub/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type GradingJobService struct {
	jobRepo repository.GradingJobRepository
	rdb     *redis.Client
}

func NewGradingJobService(jobRepo repository.GradingJobRepository, rdb *redis.Client) *GradingJobService {
	return &GradingJobService{jobRepo: jobRepo, rdb: rdb}
}

// EnqueueAIPreGradeJob creates a job record and pushes its ID to Redis. The
// record rides the caller's transaction; if the Redis push fails the caller
// rolls back and no orphan row is left. A push that lands just before a
// failed commit leaves a queue entry with no row, which the worker treats as
// a stale ID and drops.
func (s *GradingJobService) EnqueueAIPreGradeJob(ctx context.Context, tx *sql.Tx, submissionID, fileRef string) (*model.GradingJob, error) {
	payloadBytes, err := json.Marshal(model.AIPreGradePayload{SubmissionID: submissionID, FileRef: fileRef})
	if err != nil {
		return nil, common.Errorf("failed to marshal pre-grade payload: %w", err)
	}

	job := &model.GradingJob{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		JobType:      model.JobTypeAIPreGrade,
		Payload:      payloadBytes,
		Status:       model.JobStatusQueued,
	}

	if err := s.jobRepo.CreateJob(ctx, tx, job); err != nil {
		return nil, common.Errorf("failed to create grading job in DB: %w", err)
	}

	if err := s.rdb.LPush(ctx, config.AppConfig.GradingQueueName, job.ID).Err(); err != nil {
		return nil, common.Errorf("failed to push grading job ID to Redis queue: %w", err)
	}

	log.Printf("Grading job %s for submission %s enqueued successfully.", job.ID, submissionID)
	return job, nil
}

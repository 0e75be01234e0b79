package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"classhub/internal/common"
	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"
	"classhub/internal/platform/aigrader"
	"classhub/internal/platform/config"
	"classhub/internal/platform/files"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// GradingWorker drains the AI pre-grading queue. It converts the submitted
// PDF to an image, asks the grading model for an evaluation, and stores the
// result as an advisory score on the submission. It never touches the
// submission's mark or status; only a lecturer's grade operation does that.
type GradingWorker struct {
	rdb            *redis.Client
	jobRepo        repository.GradingJobRepository
	submissionRepo repository.SubmissionRepository
	fileStore      files.Store
	converter      aigrader.Converter
	grader         aigrader.Grader
}

func NewGradingWorker(
	rdb *redis.Client,
	jobRepo repository.GradingJobRepository,
	submissionRepo repository.SubmissionRepository,
	fileStore files.Store,
	converter aigrader.Converter,
	grader aigrader.Grader,
) *GradingWorker {
	return &GradingWorker{
		rdb:            rdb,
		jobRepo:        jobRepo,
		submissionRepo: submissionRepo,
		fileStore:      fileStore,
		converter:      converter,
		grader:         grader,
	}
}

func (w *GradingWorker) Start(ctx context.Context) {
	log.Println("Grading worker started, listening to queue:", config.AppConfig.GradingQueueName)
	for {
		select {
		case <-ctx.Done():
			log.Println("Grading worker stopping...")
			return
		default:
			res, err := w.rdb.BRPop(ctx, 0*time.Second, config.AppConfig.GradingQueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					log.Printf("Worker BRPop exiting or timed out: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}
				log.Printf("ERROR: Failed to BRPop from Redis queue '%s': %v", config.AppConfig.GradingQueueName, err)
				time.Sleep(5 * time.Second)
				continue
			}

			// res is [queueName, value]
			if len(res) < 2 || res[1] == "" {
				log.Println("WARN: BRPop returned empty job ID.")
				continue
			}
			jobID := res[1]
			log.Printf("Worker picked up grading job ID: %s", jobID)
			w.processJobWithLock(ctx, jobID)
		}
	}
}

func (w *GradingWorker) processJobWithLock(ctx context.Context, jobID string) {
	// One evaluation at a time across all workers; the grading model has a
	// single-concurrency quota.
	lockValue := uuid.NewString()
	lockTTL := time.Duration(config.AppConfig.GradingLockTTLSeconds) * time.Second

	ok, err := w.rdb.SetNX(ctx, config.AppConfig.GradingLockKey, lockValue, lockTTL).Result()
	if err != nil {
		log.Printf("ERROR: Failed to attempt lock acquisition for job %s: %v", jobID, err)
		w.requeueJob(ctx, jobID)
		return
	}
	if !ok {
		log.Printf("INFO: Could not acquire grading lock for job %s, another worker is busy. Re-queueing.", jobID)
		w.requeueJob(ctx, jobID)
		return
	}

	defer func() {
		// CAS delete so an expired lock taken over by another worker is left alone.
		script := redis.NewScript(`
            if redis.call("get", KEYS[1]) == ARGV[1] then
                return redis.call("del", KEYS[1])
            else
                return 0
            end
        `)
		deleted, err := script.Run(ctx, w.rdb, []string{config.AppConfig.GradingLockKey}, lockValue).Result()
		if err != nil {
			log.Printf("ERROR: Failed to release grading lock (job %s): %v", jobID, err)
		} else if deleted.(int64) != 1 {
			log.Printf("WARN: Did not release grading lock for job %s; it may have expired.", jobID)
		}
	}()

	w.handleJob(ctx, jobID)
}

func (w *GradingWorker) requeueJob(ctx context.Context, jobID string) {
	if err := w.rdb.RPush(ctx, config.AppConfig.GradingQueueName, jobID).Err(); err != nil {
		log.Printf("ERROR: Failed to re-queue job %s: %v", jobID, err)
	} else {
		log.Printf("INFO: Job %s re-queued.", jobID)
	}
}

func (w *GradingWorker) handleJob(ctx context.Context, jobID string) {
	job, err := w.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Queue entry survived a rolled-back enqueue transaction.
			log.Printf("WARN: Grading job %s has no DB row, dropping stale queue entry.", jobID)
			return
		}
		log.Printf("ERROR: Failed to fetch grading job %s: %v", jobID, err)
		return
	}
	if job.Status == model.JobStatusCompleted {
		log.Printf("WARN: Grading job %s already completed, skipping.", job.ID)
		return
	}

	if err := w.jobRepo.UpdateJobStatus(ctx, nil, job.ID, model.JobStatusProcessing, nil); err != nil {
		log.Printf("ERROR: Failed to update job %s status to Processing: %v", job.ID, err)
	}
	if err := w.jobRepo.IncrementJobAttempts(ctx, job.ID); err != nil {
		log.Printf("ERROR: Failed to increment attempts for job %s: %v", job.ID, err)
	}

	var payload model.AIPreGradePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		w.failJob(ctx, job.ID, fmt.Sprintf("bad job payload: %v", err))
		return
	}

	// The submission may have been replaced while this job sat in the queue;
	// in that case its file_ref moved on and this evaluation is for a stale
	// artifact, so skip it. The replacement enqueued its own job.
	submission, err := w.submissionRepo.FindByID(ctx, payload.SubmissionID)
	if err != nil {
		w.failJob(ctx, job.ID, fmt.Sprintf("submission %s not found: %v", payload.SubmissionID, err))
		return
	}
	if submission.FileRef != payload.FileRef {
		log.Printf("INFO: Submission %s was re-submitted, dropping stale grading job %s.", submission.ID, job.ID)
		w.failJob(ctx, job.ID, "superseded by a newer submission")
		return
	}

	pdf, err := w.fileStore.Get(payload.FileRef)
	if err != nil {
		w.failJob(ctx, job.ID, fmt.Sprintf("failed to load file %s: %v", payload.FileRef, err))
		return
	}

	image, err := w.converter.Convert(ctx, pdf)
	if err != nil {
		w.failJob(ctx, job.ID, fmt.Sprintf("pdf conversion failed: %v", err))
		return
	}

	eval, err := w.grader.Grade(ctx, image)
	if err != nil {
		w.failJob(ctx, job.ID, fmt.Sprintf("ai grading failed: %v", err))
		return
	}

	if err := w.submissionRepo.SetAIResult(ctx, submission.ID, eval.Score, eval.Feedback); err != nil {
		w.failJob(ctx, job.ID, fmt.Sprintf("failed to store ai result: %v", err))
		return
	}

	if err := w.jobRepo.UpdateJobStatus(ctx, nil, job.ID, model.JobStatusCompleted, nil); err != nil {
		log.Printf("ERROR: Failed to mark job %s completed: %v", job.ID, err)
		return
	}
	log.Printf("Grading job %s completed: submission %s scored %.2f", job.ID, submission.ID, eval.Score)
}

func (w *GradingWorker) failJob(ctx context.Context, jobID, msg string) {
	log.Printf("ERROR: %s (Job ID: %s)", msg, jobID)
	if err := w.jobRepo.UpdateJobStatus(ctx, nil, jobID, model.JobStatusFailed, &msg); err != nil {
		log.Printf("ERROR: Failed to mark job %s failed: %v", jobID, err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classhub/internal/api"
	"classhub/internal/app/service"
	"classhub/internal/app/worker"
	"classhub/internal/common/security"
	"classhub/internal/domain/repository"
	"classhub/internal/platform/aigrader"
	"classhub/internal/platform/config"
	"classhub/internal/platform/database"
	"classhub/internal/platform/files"
	"classhub/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()

	// 5. File store for uploaded homework
	fileStore, err := files.NewDiskStore(config.AppConfig.UploadDir)
	if err != nil {
		log.Fatalf("Could not initialize file store: %v", err)
	}

	// 6. Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	classroomRepo := repository.NewPgClassroomRepository(database.DB)
	membershipRepo := repository.NewPgMembershipRepository(database.DB)
	assignmentRepo := repository.NewPgAssignmentRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	jobRepo := repository.NewPgGradingJobRepository(database.DB)

	// 7. Services
	authService := service.NewAuthService(userRepo)
	classroomService := service.NewClassroomService(
		classroomRepo, membershipRepo,
		config.AppConfig.ClassroomCodeLength, config.AppConfig.ClassroomCodeMaxAttempts,
	)
	membershipService := service.NewMembershipService(membershipRepo, classroomRepo)
	assignmentService := service.NewAssignmentService(assignmentRepo, classroomRepo, membershipRepo)
	jobService := service.NewGradingJobService(jobRepo, queue.RDB)
	submissionService := service.NewSubmissionService(
		submissionRepo, assignmentRepo, classroomRepo, membershipRepo, jobService, database.DB,
	)

	// 8. AI pre-grading worker (as a goroutine)
	converter := aigrader.NewHTTPConverter(config.AppConfig.PDFConverterURL)
	grader := aigrader.NewHTTPGrader(config.AppConfig.AIGraderURL)
	gradingWorker := worker.NewGradingWorker(queue.RDB, jobRepo, submissionRepo, fileStore, converter, grader)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go gradingWorker.Start(workerCtx)
	fmt.Println("Grading worker started.")

	// 9. Router & HTTP Server
	router := api.NewRouter(authService, classroomService, membershipService, assignmentService, submissionService, fileStore)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()

	<-stop

	log.Println("Shutting down server...")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}

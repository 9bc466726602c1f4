package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/coach-app/internal/api"
	"alcyxob/coach-app/internal/config"
	"alcyxob/coach-app/internal/dispatch"
	"alcyxob/coach-app/internal/events"
	"alcyxob/coach-app/internal/mail"
	"alcyxob/coach-app/internal/repository"
	"alcyxob/coach-app/internal/repository/memory"
	"alcyxob/coach-app/internal/repository/mongo"
	"alcyxob/coach-app/internal/service"
	"alcyxob/coach-app/internal/storage"

	"github.com/gin-gonic/gin"
)

// repositories is the set of stores the services are built from.
type repositories struct {
	tx               repository.Transactor
	users            repository.UserRepository
	relationships    repository.RelationshipRepository
	workouts         repository.WorkoutRepository
	sessions         repository.SessionRepository
	sessionExercises repository.SessionExerciseRepository
	sets             repository.SetRepository
	exercises        repository.ExerciseRepository
}

// @title Coach API
// @version 1.0
// @description Trainer/client coaching: invitations, workouts and the exercise catalog.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("could not load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)
	slog.Info("configuration loaded", "address", cfg.Server.Address, "driver", cfg.Database.Driver)

	// --- Repositories ---
	repos, closeRepos, err := openRepositories(cfg.Database)
	if err != nil {
		slog.Error("could not open database", "error", err)
		os.Exit(1)
	}
	defer closeRepos()

	// --- Storage ---
	var files storage.FileStorage
	if cfg.S3.BucketName != "" {
		files, err = storage.NewS3Storage(cfg.S3)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("s3 bucket not configured, exercise media uploads are disabled")
	}

	// --- Mail and events ---
	// Both are delivered after commit by background workers.
	dispatcher := dispatch.New(dispatch.Options{})
	mailer := mail.NewMailer(mail.NewAsyncSender(dispatcher, newSender(cfg.Mail)), cfg.Mail.AppBaseURL)
	publisher := events.NewAsyncPublisher(dispatcher, newPublisher(cfg.Kafka))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := dispatcher.Close(ctx); err != nil {
			slog.Error("pending mail and events were not delivered", "error", err)
		}
		if err := publisher.Close(); err != nil {
			slog.Error("failed to close event publisher", "error", err)
		}
	}()

	// --- Services ---
	slog.Info("initializing services")
	services := api.Services{
		Auth:         service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Relationship: service.NewRelationshipService(repos.tx, repos.users, repos.relationships, mailer, publisher),
		Workout: service.NewWorkoutService(repos.tx, repos.relationships, repos.workouts, repos.sessions,
			repos.sessionExercises, repos.sets, publisher),
		Composition: service.NewCompositionService(repos.tx, repos.workouts, repos.sessions,
			repos.sessionExercises, repos.sets, repos.exercises),
		Catalog: service.NewCatalogService(repos.exercises, repos.sessionExercises, files),
		Profile: service.NewProfileService(repos.users, repos.relationships),
	}

	// --- HTTP ---
	router := gin.Default()
	api.SetupRoutes(router, cfg.JWT.Secret, services)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	slog.Info("server exiting")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func openRepositories(cfg config.DatabaseConfig) (*repositories, func(), error) {
	if cfg.Driver == "memory" {
		slog.Warn("using the in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			tx:               store,
			users:            store.Users(),
			relationships:    store.Relationships(),
			workouts:         store.Workouts(),
			sessions:         store.Sessions(),
			sessionExercises: store.SessionExercises(),
			sets:             store.Sets(),
			exercises:        store.Exercises(),
		}, func() {}, nil
	}

	// Activation, reorders and cascades are multi-document writes.
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	client, err := mongo.ConnectDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(cfg.Name)
	slog.Info("database connection established", "database", cfg.Name)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			slog.Error("index creation failed", "error", err)
			return
		}
		slog.Info("index creation completed")
	}()

	closeFn := func() {
		slog.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(client); err != nil {
			slog.Error("failed to disconnect MongoDB", "error", err)
		}
	}
	return &repositories{
		tx:               mongo.NewTransactor(client),
		users:            mongo.NewMongoUserRepository(db),
		relationships:    mongo.NewMongoRelationshipRepository(db),
		workouts:         mongo.NewMongoWorkoutRepository(db),
		sessions:         mongo.NewMongoSessionRepository(db),
		sessionExercises: mongo.NewMongoSessionExerciseRepository(db),
		sets:             mongo.NewMongoSetRepository(db),
		exercises:        mongo.NewMongoExerciseRepository(db),
	}, closeFn, nil
}

func newSender(cfg config.MailConfig) mail.Sender {
	if cfg.Provider == "resend" {
		return mail.NewResendSender(cfg.ResendAPIKey, cfg.From)
	}
	slog.Warn("mail provider is not resend, messages are only logged", "provider", cfg.Provider)
	return mail.LogSender{}
}

func newPublisher(cfg config.KafkaConfig) events.Publisher {
	if cfg.Enabled && len(cfg.Brokers) > 0 {
		slog.Info("publishing domain events to kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
		return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
	}
	return events.LogPublisher{}
}

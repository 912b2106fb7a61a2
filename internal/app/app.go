package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Ansh212/Onlineportal/internal/config"
	"github.com/Ansh212/Onlineportal/internal/delivery/httpd"
	"github.com/Ansh212/Onlineportal/internal/repository"
	"github.com/Ansh212/Onlineportal/internal/service"
	"github.com/Ansh212/Onlineportal/internal/service/integration"
	"github.com/Ansh212/Onlineportal/internal/worker"
	"github.com/Ansh212/Onlineportal/internal/worker/queue"
)

type App struct {
	server           *http.Server
	logger           zerolog.Logger
	config           *config.Config
	db               *sql.DB
	evaluationWorker worker.EvaluationWorker
	rabbitMQRepo     repository.RabbitMQRepository
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	rabbitMQRepo, err := repository.NewRabbitMQRepository(cfg.RabbitMQ.URL, log)
	if err != nil {
		return nil, err
	}

	if err := rabbitMQRepo.SetupQueue(
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.RoutingKey,
	); err != nil {
		return nil, err
	}

	publisher := queue.NewRabbitMQPublisher(rabbitMQRepo.Channel(), cfg.RabbitMQ.Exchange, log)
	consumer := queue.NewRabbitMQConsumer(
		rabbitMQRepo.Channel(),
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.ConsumerTag,
		log,
	)

	testRepo := repository.NewTestRepository(db, log)
	userRepo := repository.NewUserRepository(db, log)
	logRepo := repository.NewLogRepository(db, log)
	resultRepo := repository.NewResultRepository(db, log)

	classifierClient := integration.NewClassifierClient(
		cfg.Classifier.URL,
		cfg.Classifier.Timeout,
		cfg.Classifier.RetryCount,
		cfg.Classifier.RetryDelay,
		log,
	)

	evaluationService := service.NewEvaluationService(
		testRepo,
		userRepo,
		logRepo,
		resultRepo,
		classifierClient,
		publisher,
		rabbitMQRepo,
		log,
		service.EvaluationServiceConfig{
			FlagRatioThreshold: cfg.Evaluation.FlagRatioThreshold,
		},
	)

	workerPool := worker.NewWorkerPool(cfg.Evaluation.MaxWorkers, log)
	evaluationWorker := worker.NewEvaluationWorker(workerPool, consumer, evaluationService, publisher, log)

	handler := httpd.NewHandler(evaluationService, evaluationWorker, log)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:           server,
		logger:           log,
		config:           cfg,
		db:               db,
		evaluationWorker: evaluationWorker,
		rabbitMQRepo:     rabbitMQRepo,
	}, nil
}

func (a *App) Run() error {
	ctx := context.Background()
	if err := a.evaluationWorker.Start(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to start evaluation worker")
		return err
	}

	a.logger.Info().Msgf("Starting evaluation service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down evaluation service...")

	if err := a.evaluationWorker.Stop(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to stop evaluation worker")
	}

	if a.rabbitMQRepo != nil {
		if err := a.rabbitMQRepo.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
		return err
	}

	a.logger.Info().Msg("Evaluation service stopped")
	return nil
}

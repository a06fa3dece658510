package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/akash-d122/agentic-helpdesk-sub002/internal/api/http"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/api/http/handlers"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/auth"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/classifier"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/config"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/events"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/observability"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/persistence"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/repository"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/service"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewTicketCommentRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	suggestionRepo := repository.NewSuggestionRepository(pool)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  userRepo,
		AgentRepo: agentRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, agentRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
	})
	agentPool := service.NewAgentPoolService(service.AgentPoolDependencies{
		TicketRepo:  ticketRepo,
		AgentRepo:   agentRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
	})
	triageService := service.NewTriageService(cfg.Triage, service.TriageDependencies{
		TicketRepo:     ticketRepo,
		SuggestionRepo: suggestionRepo,
		CommentRepo:    commentRepo,
		HistoryRepo:    historyRepo,
		AgentRepo:      agentRepo,
		Classifier:     classifier.NewRedisQueueClient(redis.Client),
		Dispatcher:     dispatcher,
		Logger:         logger,
		Metrics:        metrics,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.StartTriageWorker(dispatcher, triageService, cfg.Triage, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Agents:         handlers.NewAgentsHandler(authService, ticketService, agentPool),
		Triage:         handlers.NewTriageHandler(triageService, suggestionRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

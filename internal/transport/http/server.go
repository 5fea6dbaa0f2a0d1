package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/profilehub/backend/internal/cache"
	"github.com/profilehub/backend/internal/config"
	"github.com/profilehub/backend/internal/database"
	"github.com/profilehub/backend/internal/handler"
	"github.com/profilehub/backend/internal/livecheck"
	"github.com/profilehub/backend/internal/queue"
	"github.com/profilehub/backend/internal/redis"
	"github.com/profilehub/backend/internal/repository"
	"github.com/profilehub/backend/internal/service"
	authmw "github.com/profilehub/backend/internal/transport/http/middleware"
	"github.com/profilehub/backend/internal/worker"
)

// Run wires the whole server together and blocks until shutdown.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to MongoDB
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close(context.Background())

	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	// 3. Connect to Redis
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 4. Identity provider
	var firebaseClient *fbauth.Client
	if cfg.AuthMode == config.AuthModeFirebase {
		firebaseClient, err = authmw.NewFirebaseAuthClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to init firebase auth: %w", err)
		}
	} else {
		log.Println("[Server] Auth mode: local JWT (development)")
	}

	// 5. Object storage (optional; avatar uploads are disabled without it)
	var mediaService *service.MediaService
	objectStore, err := service.NewR2ObjectStore(ctx, cfg)
	if err != nil {
		log.Printf("[Server] R2 not configured, avatar uploads disabled: %v", err)
	} else {
		mediaService = service.NewMediaService(objectStore)
	}

	// 6. Repositories
	profileRepo := repository.NewProfileRepository(db.Collection(database.CollectionProfiles))
	reservationRepo := repository.NewReservationRepository(db.Collection(database.CollectionReservations))
	notificationRepo := repository.NewNotificationRepository(db.Collection(database.CollectionNotifications))

	// 7. Services
	availCache := cache.NewAvailabilityCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)

	usernameService := service.NewUsernameService(reservationRepo, availCache)
	profileService := service.NewProfileService(profileRepo, reservationRepo, usernameService, availCache, publisher)

	webhook := service.NewWebhookClient(cfg.NotifyWebhookURL)
	notificationService := service.NewNotificationService(notificationRepo, webhook)

	// 8. Reconciliation workers
	consumer := queue.NewConsumer(redisClient.Client)
	workerHandler := worker.NewHandler(reservationRepo, profileRepo)
	if objectStore != nil {
		workerHandler.SetObjectRemover(objectStore)
	}
	workerHandler.SetNotificationCreator(notificationService)

	managerCfg := worker.DefaultManagerConfig()
	managerCfg.WorkerCount = cfg.WorkerCount
	manager := worker.NewManager(consumer, workerHandler, managerCfg)
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer manager.Stop()

	// 9. HTTP handlers and router
	registry := livecheck.NewRegistry(livecheck.DefaultQuiet)

	router := NewRouter(RouterConfig{
		ProfileHandler:      handler.NewProfileHandler(profileService),
		UsernameHandler:     handler.NewUsernameHandler(usernameService, profileService, registry),
		MediaHandler:        handler.NewMediaHandler(mediaService, profileService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		AuthMode:            cfg.AuthMode,
		JWTSecret:           cfg.JWTSecret,
		FirebaseClient:      firebaseClient,
	})

	server := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Println("[Server] Stopped")
	return nil
}

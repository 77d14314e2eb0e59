package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/task-manager-api/internal/auth"
	"github.com/yukikurage/task-manager-api/internal/database"
	"github.com/yukikurage/task-manager-api/internal/metrics"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/router"
	"github.com/yukikurage/task-manager-api/internal/services"
)

const sessionTokenIssuer = "task-manager-api"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	provider := auth.NewFirebaseVerifier(
		cfg.FirebaseProjectID,
		auth.NewCertificateSource(cfg.FirebaseCertsURL, &http.Client{Timeout: 10 * time.Second}),
	)

	var verifier auth.Verifier = provider
	var tokens *auth.TokenManager
	if cfg.SessionSecret != "" {
		tokens = auth.NewTokenManager(auth.SessionTokenConfig{
			SecretKey: cfg.SessionSecret,
			TTL:       cfg.SessionTokenTTL,
			Issuer:    sessionTokenIssuer,
		})
		verifier = auth.ChainVerifier{tokens, provider}
	} else {
		logger.Warn("SESSION_SECRET is not set; only provider ID tokens will be accepted")
	}

	taskService := services.NewTaskService(repository.NewTaskRepository(db))
	authService := services.NewAuthService(repository.NewUserRepository(db), provider, tokens)

	r := router.New(router.Deps{
		Logger:         logger,
		Metrics:        metrics.New(),
		Verifier:       verifier,
		AuthService:    authService,
		TaskService:    taskService,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "addr", srv.Addr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			// Operations run concurrently, so the store closes only after
			// in-flight requests have drained.
			"http-server": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated...")
				shutdownErr := srv.Shutdown(ctx)
				return errors.Join(shutdownErr, database.Close(db))
			},
		},
	)

	exitCode := <-wait
	logger.Info("Server exited", "code", exitCode)
	if exitCode != 0 {
		return fmt.Errorf("shutdown finished with exit code %d", exitCode)
	}
	return nil
}

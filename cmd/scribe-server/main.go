package main

import (
	"context"
	cryptorand "crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medscribe/medscribe/internal/config"
	"github.com/medscribe/medscribe/internal/domain/notes"
	"github.com/medscribe/medscribe/internal/domain/patient"
	"github.com/medscribe/medscribe/internal/domain/training"
	"github.com/medscribe/medscribe/internal/domain/user"
	"github.com/medscribe/medscribe/internal/domain/visit"
	"github.com/medscribe/medscribe/internal/platform/auth"
	"github.com/medscribe/medscribe/internal/platform/cache"
	"github.com/medscribe/medscribe/internal/platform/completion"
	"github.com/medscribe/medscribe/internal/platform/db"
	"github.com/medscribe/medscribe/internal/platform/middleware"
	"github.com/medscribe/medscribe/internal/platform/openapi"
	"github.com/medscribe/medscribe/internal/platform/speech"
	"github.com/medscribe/medscribe/internal/platform/tablestore"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "scribe-server",
		Short: "Medical dictation and note generation API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the bootstrap super admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				return fmt.Errorf("--password is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			policy := auth.RolePolicy{OrgDomain: cfg.OrgDomain, SuperAdminMarker: cfg.SuperAdminMarker}
			userSvc := user.NewService(user.NewRepo(tablestore.NewPG(pool)), policy, logger)

			if err := userSvc.SeedAdmin(ctx, username, password); err != nil {
				return err
			}
			fmt.Printf("Seeded admin account %q.\n", username)
			return nil
		},
	}
	cmd.Flags().String("username", "admin", "Admin username")
	cmd.Flags().String("password", "", "Admin password")
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	redis := cache.New(cfg.RedisURL)
	defer redis.Close()

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := cryptorand.Read(secret); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate session secret")
		}
	}

	policy := auth.RolePolicy{OrgDomain: cfg.OrgDomain, SuperAdminMarker: cfg.SuperAdminMarker}
	sessions := auth.NewSessions(secret, time.Duration(cfg.SessionTTLHours)*time.Hour, policy, redis, logger)

	sweepCtx, sweepCancel := context.WithCancel(ctx)
	defer sweepCancel()
	sessions.StartSweep(sweepCtx)

	store := tablestore.NewPG(pool)

	// Domain services
	userSvc := user.NewService(user.NewRepo(store), policy, logger)
	visitRepo := visit.NewRepo(store)
	visitSvc := visit.NewService(visitRepo)
	patientSvc := patient.NewService(patient.NewRepo(store), visitRepo, logger)
	trainingSvc := training.NewService(training.NewRepo(store), logger)

	completionClient := completion.New(completion.Config{
		Endpoint:    cfg.CompletionEndpoint,
		APIKey:      cfg.CompletionAPIKey,
		Deployment:  cfg.CompletionDeployment,
		APIVersion:  cfg.CompletionAPIVersion,
		MaxTokens:   cfg.CompletionMaxTokens,
		Temperature: cfg.CompletionTemperature,
	})
	notesSvc := notes.NewService(completionClient, trainingSvc, patientSvc, visitSvc, logger)

	speechProvider := speech.NewProvider(cfg.SpeechKey, cfg.SpeechRegion, redis)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(auth.Middleware(sessions, auth.Skipper))

	e.GET("/health", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	user.NewHandler(userSvc, sessions).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	visit.NewHandler(visitSvc).RegisterRoutes(apiV1)
	training.NewHandler(trainingSvc).RegisterRoutes(apiV1)
	notes.NewHandler(notesSvc).RegisterRoutes(apiV1)
	speech.NewHandler(speechProvider).RegisterRoutes(apiV1)

	openapi.NewHandler(describeAPI()).RegisterRoutes(e)

	if !cfg.CompletionConfigured() {
		logger.Warn().Msg("completion service not configured; note generation is disabled")
	}
	if !cfg.SpeechConfigured() {
		logger.Warn().Msg("speech service not configured; dictation tokens are disabled")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// describeAPI registers the HTTP surface for the served OpenAPI document.
func describeAPI() *openapi.Generator {
	g := openapi.NewGenerator("medscribe API", version, "/")
	g.Register(
		openapi.Endpoint{Method: http.MethodGet, Path: "/health", Summary: "Health and pool status", Tag: "system", Open: true},
		openapi.Endpoint{Method: http.MethodPost, Path: "/api/v1/users/login", Summary: "Authenticate and issue a session token", Tag: "users", Open: true, RequestRef: "LoginRequest", ResponseRef: "Session"},
		openapi.Endpoint{Method: http.MethodPost, Path: "/api/v1/users/logout", Summary: "Revoke the current session", Tag: "users"},
		openapi.Endpoint{Method: http.MethodGet, Path: "/api/v1/users", Summary: "List users", Tag: "users", ResponseRef: "UserList"},
		openapi.Endpoint{Method: http.MethodPost, Path: "/api/v1/users", Summary: "Create user", Tag: "users", RequestRef: "CreateUserRequest", ResponseRef: "User"},
		openapi.Endpoint{Method: http.MethodGet, Path: "/api/v1/users/{id}", Summary: "Read user", Tag: "users", ResponseRef: "User"},
		openapi.Endpoint{Method: http.MethodPut, Path: "/api/v1/users/{id}", Summary: "Update user", Tag: "users", RequestRef: "UpdateUserRequest", ResponseRef: "User"},
		openapi.Endpoint{Method: http.MethodDelete, Path: "/api/v1/users/{id}", Summary: "Deactivate user", Tag: "users"},
		openapi.Endpoint{Method: http.MethodGet, Path: "/api/v1/patients", Summary: "List patients", Tag: "patients", ResponseRef: "PatientList"},
		openapi.Endpoint{Method: http.MethodPost, Path: "/api/v1/patients", Summary: "Create patient", Tag: "patients", RequestRef: "Patient", ResponseRef: "Patient"},
		openapi.Endpoint{Method: http.MethodGet, Path: "/api/v1/patients/{id}", Summary: "Read patient", Tag: "patients", ResponseRef: "Patient"},
		openapi.Endpoint{Method: http.MethodPut, Path: "/api/v1/patients/{id}", Summary: "Update patient", Tag: "patients", RequestRef: "Patient", ResponseRef: "Patient"},
		openapi.Endpoint{Method: http.MethodDelete, Path: "/api/v1/patients/{id}", Summary: "Delete patient and its visits", Tag: "patients"},
		openapi.Endpoint{Method: http.MethodGet, Path: "/api/v1/visits", Summary: "List visits for a patient", Tag: "visits", ResponseRef: "VisitList"},
		openapi.Endpoint{Method: http.MethodPost, Path: "/api/v1/visits", Summary: "Create visit", Tag: "visits", RequestRef: "Visit", ResponseRef: "Visit"},
		openapi.Endpoint{Method: http.MethodGet, Path: "/api/v1/visits/{id}", Summary: "Read visit", Tag: "visits", ResponseRef: "Visit"},
		openapi.Endpoint{Method: http.MethodPut, Path: "/api/v1/visits/{id}", Summary: "Update visit", Tag: "visits", RequestRef: "Visit", ResponseRef: "Visit"},
		openapi.Endpoint{Method: http.MethodDelete, Path: "/api/v1/visits/{id}", Summary: "Delete visit", Tag: "visits"},
		openapi.Endpoint{Method: http.MethodGet, Path: "/api/v1/training", Summary: "Read training configuration", Tag: "training", ResponseRef: "TrainingConfig"},
		openapi.Endpoint{Method: http.MethodPut, Path: "/api/v1/training", Summary: "Save training configuration", Tag: "training", RequestRef: "TrainingConfig", ResponseRef: "TrainingConfig"},
		openapi.Endpoint{Method: http.MethodGet, Path: "/api/v1/training/catalog", Summary: "List specialties and note types", Tag: "training"},
		openapi.Endpoint{Method: http.MethodPost, Path: "/api/v1/training/baseline-notes", Summary: "Add a baseline example note", Tag: "training", RequestRef: "AddBaselineNoteRequest", ResponseRef: "BaselineNote"},
		openapi.Endpoint{Method: http.MethodDelete, Path: "/api/v1/training/baseline-notes/{id}", Summary: "Remove a baseline example note", Tag: "training"},
		openapi.Endpoint{Method: http.MethodPost, Path: "/api/v1/generate-notes", Summary: "Generate a clinical note from a transcript", Tag: "notes", RequestRef: "GenerateRequest"},
		openapi.Endpoint{Method: http.MethodGet, Path: "/api/v1/speech-token", Summary: "Issue a dictation token", Tag: "speech"},
	)
	return g
}

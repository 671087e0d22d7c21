package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ehr/intake/internal/config"
	"github.com/ehr/intake/internal/domain/intake"
	"github.com/ehr/intake/internal/platform/db"
	"github.com/ehr/intake/internal/platform/middleware"
	"github.com/ehr/intake/internal/platform/telemetry"
	"github.com/ehr/intake/internal/platform/websocket"
)

const version = "0.1.0"

// JournalSinkAdapter adapts a db.Journal to intake.EventSink so the domain
// package does not import the database layer.
type JournalSinkAdapter struct {
	journal *db.Journal
	metrics *telemetry.Metrics
}

func NewJournalSinkAdapter(j *db.Journal, m *telemetry.Metrics) *JournalSinkAdapter {
	return &JournalSinkAdapter{journal: j, metrics: m}
}

// Record implements intake.EventSink.
func (a *JournalSinkAdapter) Record(ctx context.Context, ev intake.Event) error {
	err := a.journal.Append(ctx, db.JournalEntry{
		EventType:  ev.Type,
		PatientID:  ev.PatientID,
		RoomID:     ev.RoomID,
		DoctorID:   ev.DoctorID,
		Detail:     ev.Detail,
		RequestID:  middleware.RequestIDFromContext(ctx),
		OccurredAt: ev.At,
	})
	if a.metrics != nil {
		a.metrics.ObserveJournalWrite(err)
	}
	return err
}

// HubSinkAdapter forwards intake events to websocket subscribers.
type HubSinkAdapter struct {
	hub *websocket.Hub
}

func NewHubSinkAdapter(hub *websocket.Hub) *HubSinkAdapter {
	return &HubSinkAdapter{hub: hub}
}

// Record implements intake.EventSink.
func (a *HubSinkAdapter) Record(ctx context.Context, ev intake.Event) error {
	return a.hub.Publish(ctx, websocket.Event{
		Type:      ev.Type,
		Topic:     websocket.TopicFor(ev.Type),
		PatientID: ev.PatientID,
		RoomID:    ev.RoomID,
		DoctorID:  ev.DoctorID,
		Detail:    ev.Detail,
		Timestamp: ev.At,
	})
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "intake-server",
		Short: "Hospital intake and admission API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(rosterCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the intake API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the audit journal schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending journal migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show journal migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				for _, s := range statuses {
					status, appliedAt := "pending", ""
					if s.Applied {
						status = "applied"
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *db.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.JournalEnabled() {
		return fmt.Errorf("DATABASE_URL is required for migrations")
	}
	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, db.Migrations()))
}

func rosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Inspect the staff and room roster",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the roster the server would load, as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				file = cfg.RosterFile
			}
			roster, err := loadRoster(file)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(roster)
		},
	}
	showCmd.Flags().String("file", "", "Roster YAML file (defaults to ROSTER_FILE or the built-in roster)")
	cmd.AddCommand(showCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a roster file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := config.LoadRoster(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d doctor(s), %d room(s)\n", args[0], len(roster.Doctors), roster.RoomCount())
			return nil
		},
	})

	return cmd
}

func loadRoster(path string) (*config.Roster, error) {
	if path == "" {
		return config.DefaultRoster(), nil
	}
	return config.LoadRoster(path)
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

// server bundles what runServer wires together, so tests can build one
// without a database or a listening socket.
type server struct {
	echo    *echo.Echo
	service *intake.Service
	metrics *telemetry.Metrics
	hub     *websocket.Hub
}

func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool) *server {
	metrics := telemetry.NewMetrics(telemetry.Config{
		ServiceName:       "intake-server",
		ServiceVersion:    version,
		Environment:       cfg.Env,
		RuntimeCollectors: !cfg.IsDev(),
	})

	hub := websocket.NewHub(logger.With().Str("component", "websocket").Logger())

	opts := []intake.Option{
		intake.WithLogger(logger.With().Str("component", "intake").Logger()),
		intake.WithRecorder(metrics),
		intake.WithEventSink(NewHubSinkAdapter(hub)),
		intake.WithAppointmentLead(cfg.AppointmentLeadTime),
		intake.WithDefaultCapacities(cfg.DefaultDoctorCapacity, cfg.DefaultRoomCapacity),
	}
	var health db.Pinger
	if pool != nil {
		opts = append(opts, intake.WithEventSink(NewJournalSinkAdapter(db.NewJournal(pool), metrics)))
		health = pool
	}
	svc := intake.NewService(opts...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	if cfg.MetricsEnabled {
		e.Use(metrics.Middleware())
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(health))
	if cfg.MetricsEnabled {
		e.GET("/metrics", metrics.Handler())
	}

	apiV1 := e.Group("/api/v1")
	intake.NewHandler(svc).RegisterRoutes(apiV1)
	websocket.NewHandler(hub, cfg.CORSOrigins).RegisterRoutes(e.Group(""))

	return &server{echo: e, service: svc, metrics: metrics, hub: hub}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	var pool *pgxpool.Pool
	if cfg.JournalEnabled() {
		pool, err = db.NewPool(ctx, poolConfig(cfg))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		count, err := db.NewMigrator(pool, db.Migrations()).Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate journal schema")
		}
		logger.Info().Int("applied", count).Msg("audit journal enabled")
	} else {
		logger.Warn().Msg("DATABASE_URL not set, audit journal disabled")
	}

	srv := newServer(cfg, logger, pool)

	roster, err := loadRoster(cfg.RosterFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load roster")
	}
	if err := roster.Seed(ctx, srv.service); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed roster")
	}
	logger.Info().Int("doctors", len(roster.Doctors)).Int("rooms", roster.RoomCount()).
		Str("source", rosterSource(cfg.RosterFile)).Msg("roster loaded")

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := srv.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.echo.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func rosterSource(path string) string {
	if path == "" {
		return "default"
	}
	return path
}

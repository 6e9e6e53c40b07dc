package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/example/crewcal/internal/application"
	"github.com/example/crewcal/internal/config"
	apihttp "github.com/example/crewcal/internal/http"
	"github.com/example/crewcal/internal/mail"
	"github.com/example/crewcal/internal/persistence/sqlite"
	"github.com/example/crewcal/internal/token"
)

func main() {
	// Load .env first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "crewcal",
		Usage: "Shared team calendar server.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run database migrations and start the API server.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			pool, err := sqlite.Open(cfg.SQLiteDSN)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer pool.Close()

			if err := pool.Migrate(c.Context); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}

			handler := buildHandler(cfg, pool, logger)
			server := &nethttp.Server{
				Addr:              cfg.Addr(),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", "addr", cfg.Addr())
				errCh <- server.ListenAndServe()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
					return err
				}
			case sig := <-stop:
				logger.Info("shutting down", "signal", sig.String())
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
			}
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations and exit.",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			pool, err := sqlite.Open(cfg.SQLiteDSN)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer pool.Close()

			if err := pool.Migrate(c.Context); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			logger.Info("migrations applied", "dsn", cfg.SQLiteDSN)
			return nil
		},
	}
}

func buildHandler(cfg config.Config, pool *sqlite.ConnectionPool, logger *slog.Logger) nethttp.Handler {
	users := sqlite.NewUserRepository(pool)
	calendars := sqlite.NewCalendarRepository(pool)
	invites := sqlite.NewInviteRepository(pool)
	events := sqlite.NewEventRepository(pool)

	tokens := token.NewManager([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTTTL, time.Now)

	var notifier application.InviteNotifier
	if cfg.SMTPEnabled() {
		mailer, err := mail.NewMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, cfg.FrontendBaseURL, logger)
		if err != nil {
			logger.Warn("SMTP mailer unavailable, falling back to log delivery", "error", err)
			notifier = mail.NewLogMailer(cfg.FrontendBaseURL, logger)
		} else {
			notifier = mailer
		}
	} else {
		notifier = mail.NewLogMailer(cfg.FrontendBaseURL, logger)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	authSvc := application.NewAuthService(users, tokens, application.HashPassword, application.VerifyPassword, idGenerator, time.Now, logger)
	calendarSvc := application.NewCalendarService(calendars, idGenerator, time.Now, logger)
	inviteSvc := application.NewInviteService(calendars, invites, notifier, idGenerator, tokenGenerator, time.Now, cfg.InviteTTL, logger)
	eventSvc := application.NewEventService(calendars, events, idGenerator, time.Now, logger)

	return apihttp.NewRouter(apihttp.RouterConfig{
		Auth:      apihttp.NewAuthHandler(authSvc, logger),
		Calendars: apihttp.NewCalendarHandler(calendarSvc, logger),
		Invites:   apihttp.NewInviteHandler(inviteSvc, logger),
		Events:    apihttp.NewEventHandler(eventSvc, logger),
		Export:    apihttp.NewExportHandler(eventSvc, time.Now, logger),
		Middleware: []func(nethttp.Handler) nethttp.Handler{
			apihttp.RequestLogger(logger),
			apihttp.Authenticate(tokens, logger),
		},
	})
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/rpggio/courseflow/internal/config"
	"github.com/rpggio/courseflow/internal/contentstore"
	"github.com/rpggio/courseflow/internal/courseapi"
	"github.com/rpggio/courseflow/internal/domain/account"
	"github.com/rpggio/courseflow/internal/domain/content"
	"github.com/rpggio/courseflow/internal/domain/enrollment"
	"github.com/rpggio/courseflow/internal/host"
	"github.com/rpggio/courseflow/internal/httpx"
	"github.com/rpggio/courseflow/internal/mcp"
	"github.com/rpggio/courseflow/internal/notice"
	"github.com/rpggio/courseflow/internal/preferences"
	"github.com/rpggio/courseflow/internal/sqlite"
	"github.com/rpggio/courseflow/internal/telemetry"
)

// app holds the wired services shared by every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sqlite.DB
	store    *contentstore.Store
	flows    *content.Flows
	accounts *account.Service
	enrolled *sqlite.EnrolledCourseRepository
	services mcp.Services
	handler  *mcp.Handler

	closers []func()
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG_PATH", configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// newApp wires storage, remote clients and the host from cfg.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	logger, closeLog, err := newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Path, cfg.Log.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, closers: []func(){closeLog}}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := shutdown(context.Background()); err != nil {
			a.logger.Warn("telemetry shutdown failed", "error", err)
		}
	})

	if err := ensureDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	prefs, err := a.preferenceStore(ctx, db)
	if err != nil {
		return err
	}

	retry := httpx.DefaultRetryConfig()
	retry.MaxAttempts = cfg.CourseAPI.MaxAttempts
	courses, err := courseapi.New(courseapi.Config{
		BaseURL: cfg.CourseAPI.BaseURL,
		APIKey:  cfg.CourseAPI.APIKey,
		Timeout: cfg.CourseAPI.Timeout,
	}, httpx.NewClient(&http.Client{Timeout: cfg.CourseAPI.Timeout}, retry, a.logger), a.logger)
	if err != nil {
		return fmt.Errorf("creating course api client: %w", err)
	}

	a.store = contentstore.New(contentstore.Config{
		BaseURL:           cfg.Content.BaseURL,
		DestinationFolder: cfg.Content.DestinationFolder,
		Buffer:            cfg.Content.EventBuffer,
	}, sqlite.NewCatalogRepository(db), nil, a.logger)
	a.closers = append(a.closers, a.store.Close)

	catalog, err := notice.Default()
	if err != nil {
		return fmt.Errorf("loading notices: %w", err)
	}
	tr := catalog.Translator(cfg.Locale)
	h := host.New(tr, a.logger)

	a.flows = content.NewFlows(a.store, h, h, h, content.ResolverOptions{
		DestinationFolder: cfg.Content.DestinationFolder,
	}, a.logger)
	a.closers = append(a.closers, a.flows.Close)

	a.enrolled = sqlite.NewEnrolledCourseRepository(db)
	a.accounts = account.NewService(sqlite.NewAPIKeyRepository(db), a.logger)

	a.services = mcp.Services{
		Flows: mcp.DeviceFlows(a.flows),
		Enrollment: enrollment.Collaborators{
			Courses:    courses,
			Network:    host.NewProbe(cfg.CourseAPI.BaseURL, a.logger),
			Navigator:  h,
			Picker:     h,
			Loader:     h,
			Notifier:   h,
			Telemetry:  telemetry.NewRecorder(nil, a.logger),
			Cache:      a.enrolled,
			Listener:   h,
			Onboarding: h,
		},
		Preferences: prefs,
		Translator:  tr,
	}
	a.handler = mcp.NewHandler(a.services, a.logger)
	return nil
}

func (a *app) preferenceStore(ctx context.Context, db *sqlite.DB) (preferences.Store, error) {
	if a.cfg.Preferences.Backend != config.PreferencesRedis {
		return sqlite.NewPreferenceRepository(db), nil
	}
	rc := preferences.DefaultRedisConfig()
	rc.Addr = a.cfg.Preferences.RedisAddr
	rc.Password = a.cfg.Preferences.RedisPassword
	rc.DB = a.cfg.Preferences.RedisDB
	store, err := preferences.NewRedisStore(ctx, rc)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { store.Close() })
	return store, nil
}

// session returns the user the command acts for, or nil for a guest.
func (a *app) session(ctx context.Context) (*enrollment.Session, error) {
	switch {
	case apiKey != "":
		sess, err := a.accounts.Resolve(ctx, apiKey)
		if err != nil {
			return nil, fmt.Errorf("resolving api key: %w", err)
		}
		return sess, nil
	case userID != "":
		return &enrollment.Session{UserID: userID, OnboardingCompleted: onboarded}, nil
	default:
		return nil, nil
	}
}

// callContext returns ctx carrying the command's session and device.
func (a *app) callContext(ctx context.Context) (context.Context, error) {
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	return mcp.WithDeviceID(mcp.WithSession(ctx, sess), deviceID), nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// withApp loads config, wires the app and runs fn with it.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// commandError renders a mapped tool error for the terminal.
func commandError(err error) error {
	var apiErr *mcp.APIError
	if errors.As(err, &apiErr) {
		if apiErr.RecoveryHint != "" {
			return fmt.Errorf("%s: %s (%s)", apiErr.Code, apiErr.Message, apiErr.RecoveryHint)
		}
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	return err
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/meridianbank/authd/internal/adapters/cache"
	emailadapter "github.com/meridianbank/authd/internal/adapters/email"
	httpadapter "github.com/meridianbank/authd/internal/adapters/http"
	mongoadapter "github.com/meridianbank/authd/internal/adapters/mongo"
	"github.com/meridianbank/authd/internal/adapters/security"
	"github.com/meridianbank/authd/internal/application"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping authentication service", "http_port", cfg.HTTPPort)

	db, err := mongoadapter.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	users := mongoadapter.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		_ = db.Client().Disconnect(context.Background())
		return nil, fmt.Errorf("ensure user indexes: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = db.Client().Disconnect(context.Background())
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	tokens, err := security.NewJWTService(cfg.TokenSecret, security.TokenTTLs{
		Access:           cfg.AccessTokenTTL,
		Refresh:          cfg.RefreshTokenTTL,
		EmailValidation:  cfg.EmailValidationTTL,
		EmailRecovery:    cfg.EmailRecoveryTTL,
		PasswordRecovery: cfg.PasswordRecoveryTTL,
		DeviceInfo:       cfg.DeviceTokenTTL,
	})
	if err != nil {
		_ = redisClient.Close()
		_ = db.Client().Disconnect(context.Background())
		return nil, fmt.Errorf("init token service: %w", err)
	}

	sender, err := emailadapter.NewSMTPSender(emailadapter.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		BaseURL:  cfg.PublicBaseURL,
	})
	if err != nil {
		_ = redisClient.Close()
		_ = db.Client().Disconnect(context.Background())
		return nil, fmt.Errorf("init smtp sender: %w", err)
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			DefaultPermissions: cfg.DefaultPermissions,
		},
		Users:       users,
		Revocations: cacheadapter.NewRedisRevocationCache(redisClient),
		Hasher:      security.NewBcryptHasher(cfg.BcryptCost),
		Tokens:      tokens,
		TwoFactor:   security.NewTOTPService(cfg.TwoFactorIssuer),
		Email:       sender,
		IDs:         security.UUIDGenerator{},
		Logger:      logger,
	})

	handler := httpadapter.NewHandler(svc)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = db.Client().Disconnect(ctx)
		},
	}, nil
}

func (r *Runtime) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkghub/gallery-idm/pkg/account/api"
	"github.com/pkghub/gallery-idm/pkg/auth"
	"github.com/pkghub/gallery-idm/pkg/config"
	"github.com/pkghub/gallery-idm/pkg/emailchange"
	"github.com/pkghub/gallery-idm/pkg/notification"
	"github.com/pkghub/gallery-idm/pkg/user"
)

type Config struct {
	AppConfig                config.AppConfig
	DbConfig                 config.DatabaseConfig
	EmailConfig              config.EmailConfig
	ApiKeyConfig             config.ApiKeyConfig
	TokenConfig              config.TokenConfig
	JwtConfig                config.JwtConfig
	PasswordComplexityConfig config.PasswordComplexityConfig
}

func main() {
	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed reading config from env", "err", err)
		os.Exit(-1)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DbConfig.ToDatabaseURL())
	if err != nil {
		slog.Error("Failed creating dbpool", "db", cfg.DbConfig.Database, "host", cfg.DbConfig.Host, "err", err)
		os.Exit(-1)
	}
	defer pool.Close()

	repo := user.NewPostgresUserRepository(pool)

	notificationManager, err := notification.NewNotificationManagerWithOptions(
		cfg.AppConfig.BaseUrl,
		notification.WithSMTP(cfg.EmailConfig.ToSMTPConfig()),
		notification.WithDefaultTemplates(),
	)
	if err != nil {
		slog.Error("Failed creating notification manager", "err", err)
		os.Exit(-1)
	}

	authService := auth.NewAuthService(repo,
		auth.WithNotificationManager(notificationManager),
		auth.WithPasswordPolicy(cfg.PasswordComplexityConfig.ToPasswordPolicy()),
		auth.WithPasswordResetTTL(cfg.TokenConfig.ResetTTL()),
		auth.WithAPIKeyExpirationDays(cfg.ApiKeyConfig.ExpirationInDays),
	)

	emailChangeService := emailchange.NewEmailChangeService(repo,
		emailchange.WithNotificationManager(notificationManager),
		emailchange.WithConfirmationTTL(cfg.TokenConfig.ConfirmationTTL()),
	)

	jwtService := api.NewJwtService(cfg.JwtConfig.Secret,
		api.WithExpiry(cfg.JwtConfig.Expiry),
		api.WithCookieHttpOnly(cfg.JwtConfig.CookieHttpOnly),
		api.WithCookieSecure(cfg.JwtConfig.CookieSecure),
	)

	handle := api.NewHandle(authService, emailChangeService, repo, jwtService, cfg.TokenConfig.PasswordResetTTLMinutes)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/healthz/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/account", func(r chi.Router) {
		handle.Routes(r)
	})

	slog.Info("Starting server", "addr", cfg.AppConfig.Addr())
	if err := http.ListenAndServe(cfg.AppConfig.Addr(), r); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(-1)
	}
}

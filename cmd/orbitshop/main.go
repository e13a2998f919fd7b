package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"orbitshop/internal/app"
	"orbitshop/internal/config"
	"orbitshop/internal/ratelimit"
	"orbitshop/internal/server"
	"orbitshop/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		DatabaseURL:     cfg.DatabaseURL,
		RedisAddr:       cfg.RedisAddr,
		RedisPassword:   cfg.RedisPassword,
		SessionStrategy: cfg.SessionStrategy,
		SessionTTL:      sessionTTL,
		JWTSecret:       cfg.JWTSecret,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	seedAdmin(appCore)

	loginLimiter := buildLimiter(cfg, cfg.LoginRateLimitPerMinute, "orbitshop:ratelimit:login")
	registerLimiter := buildLimiter(cfg, cfg.RegisterRateLimitPerMinute, "orbitshop:ratelimit:register")

	var trustedProxies *util.TrustedProxies
	if cfg.TrustedProxies {
		// Behind a load balancer every peer is the proxy; trust it for
		// forwarded headers so rate limits key on the real client.
		trustedProxies, err = util.NewTrustedProxies([]string{"0.0.0.0/0", "::/0"})
		if err != nil {
			log.Fatalf("failed to build trusted proxies: %v", err)
		}
	}

	httpServer := server.New(server.Config{
		App:             appCore,
		SessionTTL:      sessionTTL,
		SecureCookies:   cfg.Environment == "production",
		CORSOrigin:      cfg.CORSOrigin,
		TrustedProxies:  trustedProxies,
		LoginLimiter:    loginLimiter,
		RegisterLimiter: registerLimiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("storefront server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}

// seedAdmin bootstraps the first admin account from the environment. Skipped
// when the variables are absent or the email is already registered.
func seedAdmin(appCore *app.App) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}
	admin, err := appCore.RegisterAdmin(name, email, password)
	if err != nil {
		if errors.Is(err, app.ErrEmailAlreadyExists) {
			return
		}
		log.Fatalf("failed to seed admin: %v", err)
	}
	slog.Info("seeded admin account", "email", admin.Email)
}

func buildLimiter(cfg config.FileConfig, perMinute int, prefix string) *ratelimit.FixedWindowLimiter {
	if perMinute <= 0 {
		return nil
	}
	limiter, err := ratelimit.NewFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, perMinute, time.Minute)
	if err != nil {
		log.Fatalf("failed to init rate limiter: %v", err)
	}
	return limiter
}

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"tracks-login/internal/config"
	"tracks-login/internal/db"
	apihttp "tracks-login/internal/http"
	"tracks-login/internal/metrics"
	"tracks-login/internal/repository"
	"tracks-login/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	authMetrics := metrics.NewAuthMetrics(registry)

	sessionStore := service.NewMemorySessionStore()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, sessions kept in memory", zap.Error(err))
		} else {
			sessionStore = service.NewRedisSessionStore(redisClient)
		}
		cancel()
	} else {
		logger.Warn("redis not configured, sessions kept in memory")
	}

	userRepo := repository.NewPgUserRepository(pool)
	prefsRepo := repository.NewPgPreferencesRepository(pool)

	hasher := service.NewBcryptHasher(cfg.AuthSalt, cfg.BcryptCost)
	credentialSvc := service.NewCredentialService(logger, userRepo, hasher)
	sessionSvc := service.NewSessionService(logger, sessionStore, cfg.SessionIdleTimeout, cfg.AdminSessionsNeverExpire)
	tokenSvc := service.NewRememberTokenService(logger, userRepo, sessionSvc, authMetrics, cfg.TokenSecret(), cfg.RememberTokenTTL)
	identitySvc := service.NewIdentityService(logger, userRepo, prefsRepo, sessionSvc, tokenSvc)
	loginSvc := service.NewLoginService(logger, credentialSvc, sessionSvc, tokenSvc, authMetrics, service.LoginPaths{
		Landing: cfg.DefaultLandingPath,
		Login:   cfg.LoginPath,
		Signup:  cfg.SignupPath,
	})

	cookies := apihttp.CookieSettings{
		SessionName:  cfg.SessionCookieName,
		RememberName: cfg.RememberCookieName,
		Secure:       cfg.CookieSecure,
	}
	router := apihttp.NewRouter(logger, apihttp.RouterDeps{
		Login:        apihttp.NewLoginHandler(logger, loginSvc, cookies),
		Identity:     apihttp.IdentityMiddleware(logger, identitySvc, cookies),
		RequireLogin: apihttp.RequireLogin(logger, sessionSvc, cookies, cfg.LoginPath),
		Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		DB:           pool,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

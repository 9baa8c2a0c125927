package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/oromiahinlala/tourism-backend/internal/config"
	"github.com/oromiahinlala/tourism-backend/internal/database"
	"github.com/oromiahinlala/tourism-backend/internal/handler"
	"github.com/oromiahinlala/tourism-backend/internal/mailer"
	"github.com/oromiahinlala/tourism-backend/internal/middleware"
	"github.com/oromiahinlala/tourism-backend/internal/queue"
	"github.com/oromiahinlala/tourism-backend/internal/repository"
	"github.com/oromiahinlala/tourism-backend/internal/router"
	"github.com/oromiahinlala/tourism-backend/internal/service"
	"github.com/oromiahinlala/tourism-backend/internal/storage"
	"github.com/oromiahinlala/tourism-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	log := newLogger(os.Getenv("APP_ENV"))
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		log.Fatal("migrate schema", zap.Error(err))
	}

	disk, err := storage.NewDisk(cfg.Upload.Dir, cfg.Upload.URLPrefix)
	if err != nil {
		log.Fatal("prepare upload dir", zap.Error(err))
	}

	users := repository.NewUserRepo(db)
	images := service.NewImageService(repository.NewImageRepo(db), disk, log.Named("images"))
	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, nil)

	var m service.Mailer = mailer.NewLogMailer(log.Named("mailer"))
	if cfg.Mail.Enabled() {
		m = mailer.NewSMTPMailer(cfg.Mail)
	} else {
		log.Warn("MAIL_HOST not set, checkout emails are only logged")
	}

	var events service.EventPublisher
	if cfg.RabbitMQURL != "" {
		events = service.NewAMQPPublisher(cfg.RabbitMQURL)
		consumer := &queue.Consumer{URL: cfg.RabbitMQURL, LogDir: cfg.EventLogDir, Log: log.Named("consumer")}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("checkout event consumer stopped", zap.Error(err))
			}
		}()
	}

	checkouts := service.NewCheckoutService(repository.NewCheckoutRepo(db), images, m, events, cfg.PublicBaseURL, log.Named("checkout"))

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unreachable, auth rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.Named("ratelimit"))

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Renderer = handler.NewRenderer()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log.Named("http")))
	e.Use(middleware.Metrics())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	// Room for one image plus the form fields around it.
	e.Use(echomw.BodyLimit(bodyLimit(cfg.Upload.MaxBytes)))
	e.Static(cfg.Upload.URLPrefix, cfg.Upload.Dir)

	authn := middleware.NewAuthenticator(tokens, users, log.Named("auth"))
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, images, tokens, log.Named("auth")), authn, limiter)
	router.RegisterCheckouts(e, handler.NewCheckoutHandler(cfg, checkouts, users, log.Named("checkout")), authn)

	go func() {
		log.Info("listening", zap.String("addr", cfg.Address()), zap.String("env", cfg.Env))
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if env == "" || strings.EqualFold(env, "dev") {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// bodyLimit renders the request size cap in echo's "<n>K" notation.
func bodyLimit(maxUpload int64) string {
	kib := maxUpload/1024 + 512
	return strconv.FormatInt(kib, 10) + "K"
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resolvenow/backend/internal/api/handler"
	"resolvenow/backend/internal/assignment"
	"resolvenow/backend/internal/auth"
	"resolvenow/backend/internal/chathub"
	"resolvenow/backend/internal/complaint"
	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/feedback"
	"resolvenow/backend/internal/logger"
	"resolvenow/backend/internal/messaging"
	"resolvenow/backend/internal/storage"
	"resolvenow/backend/internal/telegram"
	"resolvenow/backend/internal/uploads"
	"resolvenow/backend/internal/users"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "resolvenow-api")
	if err != nil {
		panic("logger: " + err.Error())
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenDB(cfg.Database, logger.NewGormLogger(log))
	if err != nil {
		return err
	}
	if err := storage.Migrate(db); err != nil {
		return err
	}
	rdb, err := storage.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	store := storage.NewStorageService(db, rdb)
	log.Info("database and redis ready", zap.String("driver", cfg.Database.Driver))

	hub := chathub.NewManagerService(log)
	go hub.Run(ctx)

	relay := chathub.NewRedisRelay(store, cfg.Redis.Channel, hub, log)
	ready := make(chan struct{})
	go func() {
		if err := relay.Listen(ctx, ready); err != nil {
			log.Error("event relay stopped", zap.Error(err))
		}
	}()
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		log.Warn("event relay not ready, events may be missed")
	}

	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBotService(cfg.Telegram, hub, store, log)
		if err != nil {
			return err
		}
		go bot.Run(ctx)
	}

	uploadStore, staticDir, err := openUploads(cfg)
	if err != nil {
		return err
	}

	authSvc := auth.NewService(store, auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL), log)
	complaints := complaint.NewService(store, relay, log)
	h := handler.NewHandler(handler.Services{
		Auth:       authSvc,
		Users:      users.NewService(store, log),
		Complaints: complaints,
		Engine:     assignment.NewEngine(store, relay, log),
		Messages:   messaging.NewService(store, complaints, complaint.Scope, relay, log),
		Feedback:   feedback.NewService(store, complaints, log),
		Uploads:    uploadStore,
		Hub:        hub,
	}, log)

	limiter := handler.NewRateLimiter(rate.Every(time.Minute/10), 20)
	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				limiter.Cleanup(time.Hour)
			}
		}
	}()

	gin.SetMode(cfg.Server.GinMode)
	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: h.Router(handler.RouterConfig{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			UploadsDir:       staticDir,
			UploadsURLPrefix: cfg.Uploads.URLPrefix,
			AuthLimiter:      limiter,
		}),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openUploads picks the attachment store. The local store's directory is also served statically.
func openUploads(cfg *config.Config) (uploads.Store, string, error) {
	if cfg.Uploads.Backend == "cloudinary" {
		s, err := uploads.NewCloudinaryStore(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
		return s, "", err
	}
	s, err := uploads.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
	if err != nil {
		return nil, "", err
	}
	return s, cfg.Uploads.Dir, nil
}

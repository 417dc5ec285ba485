package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"chatwire/api"
	"chatwire/auth"
	"chatwire/config"
	"chatwire/dispatch"
	"chatwire/events"
	"chatwire/logger"
	"chatwire/media"
	"chatwire/presence"
	"chatwire/ratelimit"
	"chatwire/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logg, err := logger.New(cfg.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()
	logg.Infow("starting chatwire", "port", cfg.APIPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: Mongo in deployments, in-memory when no URI is configured.
	var (
		messages store.MessageStore
		users    store.UserStore
		ready    func(context.Context) error
	)
	if cfg.MongoURI != "" {
		mongoStore, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logg.Fatalw("mongo init failed", "err", err)
		}
		defer func() { _ = mongoStore.Close(context.Background()) }()
		messages, users, ready = mongoStore, mongoStore, mongoStore.Ping
		logg.Infow("mongo store initialized", "db", cfg.MongoDB)
	} else {
		mem := store.NewMemory()
		messages, users, ready = mem, mem, mem.Ping
		logg.Warnw("no MONGO_URI set, using in-memory store")
	}

	verifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCAudience, logg)
	if err != nil {
		logg.Fatalw("oidc init failed", "err", err)
	}

	uploader, err := media.NewS3Uploader(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Endpoint)
	if err != nil {
		logg.Fatalw("media uploader init failed", "err", err)
	}

	var firehose events.Publisher
	if cfg.KafkaBroker != "" {
		kp := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic, logg)
		defer func() { _ = kp.Close() }()
		firehose = kp
		logg.Infow("message firehose enabled", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		limiter = ratelimit.NewRedisLimiter(rdb, "chatwire:send", cfg.RateLimit, cfg.RateLimitWindow)
		logg.Infow("send rate limiting enabled", "limit", cfg.RateLimit, "window", cfg.RateLimitWindow)
	}

	registry := presence.NewRegistry(logg)
	dispatcher := dispatch.New(dispatch.Options{
		Messages:           messages,
		Users:              users,
		Presence:           registry,
		Uploader:           uploader,
		Firehose:           firehose,
		Log:                logg,
		MaxContentLength:   cfg.MaxContentLength,
		MaxAttachmentBytes: cfg.MaxAttachmentBytes,
	})

	srv := api.NewServer(api.ServerOptions{
		Sender:    dispatcher,
		Messages:  messages,
		Users:     users,
		Registry:  registry,
		Verifier:  verifier,
		Validator: api.NewSendValidator(),
		Limiter:   limiter,
		Ready:     ready,
		Log:       logg,
	})

	httpSrv := &http.Server{Addr: ":" + cfg.APIPort, Handler: srv}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logg.Infow("shutdown signal received")
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logg.Infow("http server listening", "addr", httpSrv.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Fatalw("http server error", "err", err)
	}
	logg.Infow("server stopped")
}

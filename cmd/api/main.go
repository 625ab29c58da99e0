// cmd/api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/connorshinn/unsplash-Backgrounds/internal/config"
	"github.com/connorshinn/unsplash-Backgrounds/internal/http/routes"
	"github.com/connorshinn/unsplash-Backgrounds/internal/jobs"
	"github.com/connorshinn/unsplash-Backgrounds/internal/pool"
	"github.com/connorshinn/unsplash-Backgrounds/internal/store"
	"github.com/connorshinn/unsplash-Backgrounds/internal/unsplash"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Printf("starting api on :%s", cfg.Port)

	// A missing binding doesn't stop the server; the image endpoint answers
	// 500 with the reason until the environment is fixed.
	var images routes.ImageServer
	bindingErr := cfg.Validate()
	if bindingErr == nil {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		meta := store.NewRedisMetadata(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		objects, err := store.NewMinioObjects(ctx, store.MinioConfig{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		cancel()
		if err != nil {
			log.Fatalf("object store error: %v", err)
		}

		upstream, err := unsplash.New(cfg.Unsplash.AccessKey)
		if err != nil {
			log.Fatalf("unsplash client error: %v", err)
		}

		queue := jobs.NewAsynqEnqueuer(asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}))

		images = pool.NewManager(meta, objects, upstream, queue,
			logger.With().Str("component", "pool").Logger())
	} else {
		logger.Error().Err(bindingErr).Msg("missing configuration, serving errors")
	}

	s := routes.New(routes.ServerOptions{
		Images:     images,
		Logger:     logger.With().Str("component", "http").Logger(),
		BindingErr: bindingErr,
	})
	h := hlog.NewHandler(logger)(s.Router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

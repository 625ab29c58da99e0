package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/connorshinn/unsplash-Backgrounds/internal/config"
	"github.com/connorshinn/unsplash-Backgrounds/internal/janitor"
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
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

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

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	queue := jobs.NewAsynqEnqueuer(asynq.NewClient(redisOpt))

	mgr := pool.NewManager(meta, objects, upstream, queue,
		logger.With().Str("component", "pool").Logger())
	sweeper := janitor.New(meta, objects, cfg.Retention,
		logger.With().Str("component", "janitor").Logger())

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 8,
		Queues: map[string]int{
			jobs.Queue: 10,
			"default":  5,
		},
	})
	mux := asynq.NewServeMux()

	// Population, refill and sweep failures degrade pool freshness; none of
	// them is worth a queue retry, so handlers log and return nil.
	mux.HandleFunc(jobs.TaskPopulatePool, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.PopulatePoolPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			log.Printf("[populate] bad payload: %v", err)
			return nil
		}
		start := time.Now()
		if err := mgr.Populate(ctx, p.CacheKey, p.Candidates); err != nil {
			log.Printf("[populate] key=%s duration=%v: %v", p.CacheKey, time.Since(start), err)
			return nil
		}
		log.Printf("[populate] done key=%s duration=%v", p.CacheKey, time.Since(start))
		return nil
	})

	mux.HandleFunc(jobs.TaskRefillPool, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.RefillPoolPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			log.Printf("[refill] bad payload: %v", err)
			return nil
		}
		start := time.Now()
		if err := mgr.Refill(ctx, p.CacheKey); err != nil {
			log.Printf("[refill] key=%s duration=%v: %v", p.CacheKey, time.Since(start), err)
			return nil
		}
		log.Printf("[refill] done key=%s duration=%v", p.CacheKey, time.Since(start))
		return nil
	})

	mux.HandleFunc(jobs.TaskSweep, func(ctx context.Context, t *asynq.Task) error {
		if err := sweeper.Run(ctx); err != nil {
			log.Printf("[sweep] error: %v", err)
		}
		return nil
	})

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register(cfg.SweepCron, asynq.NewTask(jobs.TaskSweep, nil), asynq.Queue(jobs.Queue)); err != nil {
		log.Fatalf("register sweep schedule: %v", err)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatalf("scheduler error: %v", err)
		}
	}()

	log.Println("Worker running...")
	log.Fatal(srv.Run(mux))
}

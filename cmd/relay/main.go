// Command relay is the telemetry forwarding daemon. It consumes the change
// feed, maps matching records to tracker parameter sets, deduplicates
// contributor submissions, and delivers the results best-effort.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/banshee-data/skyrelay/internal/checkpoint"
	"github.com/banshee-data/skyrelay/internal/config"
	"github.com/banshee-data/skyrelay/internal/dedup"
	"github.com/banshee-data/skyrelay/internal/feed"
	"github.com/banshee-data/skyrelay/internal/mapper"
	"github.com/banshee-data/skyrelay/internal/monitoring"
	"github.com/banshee-data/skyrelay/internal/relay"
	"github.com/banshee-data/skyrelay/internal/status"
	"github.com/banshee-data/skyrelay/internal/upload"
	"github.com/banshee-data/skyrelay/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file")
	listen     = flag.String("listen", "", "Status server listen address (overrides config)")
)

func main() {
	flag.Parse()

	monitoring.Logf("skyrelay %s starting", version.String())

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	store, err := checkpoint.Open(cfg.CheckpointPath, cfg.Stream)
	if err != nil {
		log.Fatalf("failed to open checkpoint store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	position, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load resume position: %v", err)
	}
	if position == "" {
		position = cfg.ResumeFrom
	}
	monitoring.Logf("resuming feed %q from position %q", cfg.Stream, position)

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer client.Close()

	metrics := monitoring.NewMetrics()
	queue := upload.NewQueue()
	cache := dedup.NewCache(cfg.DedupWindow)

	sender := upload.NewSender(nil, cfg.TrackerURL)
	pool := upload.NewPool(queue, sender.Send, cfg.Workers, metrics)
	pool.Start()

	pipeline := relay.New(mapper.New(cfg.Token), cache, queue, metrics)

	stream := feed.NewRedisStream(client, cfg.Stream, position, cfg.Heartbeat())
	consumer := feed.NewConsumer(stream, pipeline, store)

	statusServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: status.NewServer(queue, cache, metrics).Routes(),
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		monitoring.Logf("status server listening on %s", cfg.Listen)
		if err := statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("status server: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("feed consumer: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down")

	if err := statusServer.Shutdown(context.Background()); err != nil {
		log.Printf("status server shutdown: %v", err)
	}
	wg.Wait()

	// Let the workers drain whatever made it into the queue before exit.
	queue.Close()
	pool.Wait()
}

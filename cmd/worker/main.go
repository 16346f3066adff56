package main

import (
	"context"
	"log"
	"time"

	"chatquery/internal/activities"
	"chatquery/internal/config"
	"chatquery/internal/store"
	"chatquery/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	vs, err := store.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer vs.Close()
	a, err := activities.New(cfg, vs)
	if err != nil {
		log.Fatal(err)
	}
	activities.Register(w, a)

	log.Printf("chatquery worker listening on %s queue=%s store=%q embed_providers=%q", cfg.TemporalAddress, cfg.TemporalTaskQueue, cfg.StoreMode, cfg.EmbedProviders)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal(err)
	}
}

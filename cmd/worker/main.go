package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/founders-outreach/internal/app"
	"github.com/ignite/founders-outreach/internal/config"
	"github.com/ignite/founders-outreach/internal/worker"
)

func main() {
	path := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run each enabled job once and exit (for cron)")
	flag.Parse()

	log.Println("Starting founders outreach worker...")

	cfg, err := config.LoadFromEnv(*path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	jobs := a.Jobs()
	if len(jobs) == 0 {
		log.Println("No jobs enabled (drip.enabled, phase.enabled); exiting")
		return
	}
	runner := worker.NewRunner(a.Locks, jobs...)

	if *once {
		for _, job := range jobs {
			runner.RunOnce(ctx, job)
		}
		return
	}

	log.Printf("Worker running %d job(s)", len(jobs))
	if err := runner.Start(ctx); err != nil {
		log.Fatalf("Worker error: %v", err)
	}
	log.Println("Worker stopped")
}

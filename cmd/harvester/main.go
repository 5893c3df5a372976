package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gradharvest/internal/config"
	"gradharvest/internal/fetch"
	"gradharvest/internal/gradcafe"
	"gradharvest/internal/harvest"
	"gradharvest/internal/normalize"
	"gradharvest/internal/runlock"
	"gradharvest/internal/store"
)

func main() {
	var (
		flagConfig = flag.String("config", "", "path to config.yml (default: <data-dir>/config.yml)")
		flagResume = flag.Bool("resume", false, "preload records from the previous run's checkpoint")
	)
	flag.Parse()

	dataDir := os.Getenv("GRADHARVEST_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	cfgPath := *flagConfig
	if cfgPath == "" {
		var err error
		cfgPath, err = config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			log.Fatalf("config bootstrap failed: %v", err)
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", cfgPath, err)
	}
	if cfg.App.DataDir != "" && cfg.App.DataDir != "." {
		dataDir = cfg.App.DataDir
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	// One harvest per store at a time; a held lock is a caller error.
	lock, err := runlock.Acquire(filepath.Join(dataDir, "harvest.lock"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lock.Release() }()

	db, err := store.Open(filepath.Join(dataDir, "gradcafe.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	known, err := store.KnownURLs(seedCtx, db.Pool)
	cancelSeed()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[db] loaded %d existing urls", len(known))

	client := fetch.NewClient(cfg.Site.UserAgent, cfg.SiteTimeout())
	resilient := fetch.NewResilient(client, cfg.Fetch.Retries, cfg.FetchBackoff())
	details := gradcafe.NewDetailParser(resilient)

	checkpointPath := filepath.Join(dataDir, "applicant_data_update.json")
	h := harvest.New(harvest.Config{
		BaseURL:        cfg.Site.BaseURL,
		Pages:          cfg.Harvest.Pages,
		ChunkPages:     cfg.Harvest.ChunkPages,
		Workers:        cfg.Harvest.Workers,
		TaskTimeout:    cfg.TaskTimeout(),
		StopAfterNoNew: cfg.Harvest.StopAfterNoNew,
		PageDelay:      cfg.PageDelay(),
		CheckpointPath: checkpointPath,
	}, resilient, details, known)

	if *flagResume {
		prev, err := harvest.LoadCheckpoint(checkpointPath)
		if err != nil {
			log.Printf("[resume] no usable checkpoint: %v", err)
		} else {
			h.Resume(prev)
			log.Printf("[resume] preloaded %d records", len(prev))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, stats := h.Run(ctx)

	normalized := normalize.Records(records)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelLoad()
	inserted, err := store.InsertApplicants(loadCtx, db.Pool, normalized)
	if err != nil {
		log.Fatalf("load failed after %d inserts: %v", inserted, err)
	}

	log.Printf("[done] pages=%d discovered=%d detail_failed=%d checkpoints=%d inserted=%d",
		stats.PagesVisited, stats.Discovered, stats.DetailFailed, stats.Checkpoints, inserted)
}

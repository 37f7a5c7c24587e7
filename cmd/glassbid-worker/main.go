// glassbid-worker is the pipeline worker: it polls the job and render
// queues, runs the stage chains and keeps the storage buckets tidy.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/config"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/disk"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/objstore"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/sql"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Errorf("invalid configuration: %v", err)
		os.Exit(2)
	}
	if err := log.InitGlobalLogger(cfg.Log); err != nil {
		log.Errorf("could not initialize logger: %v", err)
		os.Exit(2)
	}
	log.Infof("glassbid worker %s starting (mode %s)", cfg.WorkerID, cfg.WorkerMode)

	if _, err := sql.InitDefault(sql.DatabaseConfig{URL: cfg.DatabaseURL}); err != nil {
		log.Errorf("database connection failed: %v", err)
		os.Exit(1)
	}

	store, err := objstore.NewStore(cfg)
	if err != nil {
		log.Errorf("object storage client failed: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bucket provisioning normally belongs to the platform; creating them
	// here only matters for fresh local stacks, so failure is not fatal.
	if err := store.EnsureBuckets(ctx); err != nil {
		log.Warnf("could not ensure buckets: %v", err)
	}

	// Scratch dirs from a crashed run are garbage unless their job is still
	// locked (some other worker may be mid-stage on this volume).
	jobs := database.NewJobFacade()
	lockedIDs, err := jobs.ListLockedJobIDs(ctx)
	if err != nil {
		log.Warnf("could not list locked jobs: %v", err)
	}
	disk.CleanupOrphanTempDirs(cfg.TempDir, lockedIDs)

	w := worker.New(cfg, store)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Errorf("worker stopped with error: %v", err)
		os.Exit(1)
	}
	log.Infof("glassbid worker %s stopped", cfg.WorkerID)
}

package jobs

import (
	"context"
	"log"
	"time"

	"github.com/astroveda/astro-backend/internal/storage"
)

// CleanupJob purges expired OTP and login-token rows on a schedule.
type CleanupJob struct {
	store    storage.Store
	interval time.Duration
	stop     chan struct{}
}

// NewCleanupJob creates a new cleanup job scheduler
func NewCleanupJob(store storage.Store, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the scheduled cleanup loop
func (j *CleanupJob) Start() {
	log.Printf("Starting expired-credential cleanup job (every %v)", j.interval)
	go j.run()
}

// Stop halts the scheduled cleanup loop
func (j *CleanupJob) Stop() {
	log.Println("Stopping expired-credential cleanup job...")
	close(j.stop)
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce(context.Background())
		case <-j.stop:
			return
		}
	}
}

// RunOnce performs a single purge pass.
func (j *CleanupJob) RunOnce(ctx context.Context) {
	if err := j.store.DeleteExpiredOTPs(ctx); err != nil {
		log.Printf("Error purging expired OTPs: %v", err)
	}
	if err := j.store.DeleteExpiredLoginTokens(ctx); err != nil {
		log.Printf("Error purging expired login tokens: %v", err)
	}
}

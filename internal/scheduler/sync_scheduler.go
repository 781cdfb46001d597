package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/versemate/offlinestore/internal/outbox"
)

// AutoSyncer runs a full content sync when the sync interval has passed.
type AutoSyncer interface {
	AutoSyncIfDue(ctx context.Context) bool
}

// OutboxDrainer replays queued user mutations.
type OutboxDrainer interface {
	ProcessSyncQueue(ctx context.Context) (outbox.Result, error)
}

// Config holds the two schedules. An empty schedule disables its job.
type Config struct {
	CheckSchedule  string
	OutboxSchedule string
	SyncTimeout    time.Duration
}

// SyncScheduler periodically asks whether a full sync is due and drains the outbox.
// The cron fires often; the orchestrator decides whether a sync actually runs.
type SyncScheduler struct {
	syncer AutoSyncer
	outbox OutboxDrainer
	config Config

	cron       *cron.Cron
	checkID    cron.EntryID
	outboxID   cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	isDraining bool
	baseCtx    context.Context
	cancelFunc context.CancelFunc
}

// NewSyncScheduler creates a new scheduler instance
func NewSyncScheduler(syncer AutoSyncer, drainer OutboxDrainer, cfg Config) *SyncScheduler {
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = 30 * time.Minute
	}
	return &SyncScheduler{
		syncer:  syncer,
		outbox:  drainer,
		config:  cfg,
		cron:    cron.New(cron.WithParser(parser)),
		baseCtx: context.Background(),
	}
}

// Start registers the jobs and starts the cron loop. It stops when ctx is cancelled.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.config.CheckSchedule != "" && s.syncer != nil {
		if err := ValidateCronSchedule(s.config.CheckSchedule); err != nil {
			return fmt.Errorf("invalid sync schedule '%s': %w", s.config.CheckSchedule, err)
		}
		id, err := s.cron.AddFunc(s.config.CheckSchedule, s.runSync)
		if err != nil {
			return fmt.Errorf("failed to schedule sync job: %w", err)
		}
		s.checkID = id
	}

	if s.config.OutboxSchedule != "" && s.outbox != nil {
		if err := ValidateCronSchedule(s.config.OutboxSchedule); err != nil {
			return fmt.Errorf("invalid outbox schedule '%s': %w", s.config.OutboxSchedule, err)
		}
		id, err := s.cron.AddFunc(s.config.OutboxSchedule, s.runDrain)
		if err != nil {
			return fmt.Errorf("failed to schedule outbox job: %w", err)
		}
		s.outboxID = id
	}

	if len(s.cron.Entries()) == 0 {
		log.Printf("[SYNC] Scheduler: no jobs configured")
		return nil
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)
	s.baseCtx = cancelCtx

	s.cron.Start()
	s.isRunning = true

	log.Printf("[SYNC] Scheduler: started (sync check: %s, outbox: %s)",
		CronDescription(s.config.CheckSchedule), CronDescription(s.config.OutboxSchedule))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop cancels running jobs, waits for them and stops the scheduler
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// Jobs take the lock when they finish, so it must not be held while waiting.
	if cancel != nil {
		cancel()
	}
	<-s.cron.Stop().Done()

	log.Printf("[SYNC] Scheduler: stopped")
}

// RunSyncNow triggers the sync check immediately
func (s *SyncScheduler) RunSyncNow() {
	go s.runSync()
}

// RunDrainNow triggers an outbox drain immediately
func (s *SyncScheduler) RunDrainNow() {
	go s.runDrain()
}

func (s *SyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *SyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// NextSyncCheck returns when the next sync check will occur
func (s *SyncScheduler) NextSyncCheck() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || s.checkID == 0 {
		return nil
	}
	t := s.cron.Entry(s.checkID).Next
	return &t
}

func (s *SyncScheduler) runSync() {
	if !s.begin(&s.isSyncing) {
		log.Printf("[SYNC] Scheduled sync: skipped (already syncing)")
		return
	}
	defer s.end(&s.isSyncing)

	ctx, cancel := context.WithTimeout(s.context(), s.config.SyncTimeout)
	defer cancel()

	if s.syncer.AutoSyncIfDue(ctx) {
		log.Printf("[SYNC] Scheduled sync: finished")
	}
}

func (s *SyncScheduler) runDrain() {
	if !s.begin(&s.isDraining) {
		return
	}
	defer s.end(&s.isDraining)

	ctx, cancel := context.WithTimeout(s.context(), s.config.SyncTimeout)
	defer cancel()

	if _, err := s.outbox.ProcessSyncQueue(ctx); err != nil {
		log.Printf("[OUTBOX] Scheduled drain failed: %v", err)
	}
}

func (s *SyncScheduler) begin(flag *bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *flag {
		return false
	}
	*flag = true
	return true
}

func (s *SyncScheduler) end(flag *bool) {
	s.mu.Lock()
	*flag = false
	s.mu.Unlock()
}

func (s *SyncScheduler) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseCtx
}

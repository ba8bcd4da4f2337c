package autosave

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tecsitel/backend/internal/application/state"
)

// SnapshotSource provides the current full state for persistence.
type SnapshotSource interface {
	Snapshot() *state.FullState
}

// Config holds auto-saver configuration
type Config struct {
	// Interval between periodic flushes of a pending save
	Interval time.Duration
	// SaveTimeout is the maximum time a single save may take
	SaveTimeout time.Duration
}

// DefaultConfig returns the default auto-saver configuration
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		SaveTimeout: 10 * time.Second,
	}
}

// Saver persists state snapshots in the background. Writes are optimistic:
// callers commit locally first and signal RequestSave, which coalesces with
// any save already pending. At most one save is in flight; a failed save
// stays pending and is retried on the next tick.
type Saver struct {
	config Config
	source SnapshotSource
	repo   state.Repository
	logger *zap.Logger

	notify chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	isRunning bool
	dirty     bool
	lastSave  *time.Time
	lastError error
}

// NewSaver creates a background saver over the given source and repository
func NewSaver(config Config, source SnapshotSource, repo state.Repository, logger *zap.Logger) *Saver {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.SaveTimeout <= 0 {
		config.SaveTimeout = DefaultConfig().SaveTimeout
	}
	return &Saver{
		config: config,
		source: source,
		repo:   repo,
		logger: logger,
		notify: make(chan struct{}, 1),
	}
}

// Start launches the save loop
func (s *Saver) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Auto-saver started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("save_timeout", s.config.SaveTimeout),
	)
	return nil
}

// Stop flushes any pending save and stops the loop. The given context bounds
// how long the final flush may take.
func (s *Saver) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Auto-saver stop timed out")
		return ctx.Err()
	}

	// Final flush so a dirty snapshot is not lost on shutdown
	if s.takeDirty() {
		if err := s.SaveNow(ctx); err != nil {
			s.logger.Error("Final flush failed on shutdown", zap.Error(err))
			return err
		}
	}
	s.logger.Info("Auto-saver stopped")
	return nil
}

// RequestSave marks the state dirty and wakes the loop. Multiple requests
// while a save is in flight collapse into a single pending save.
func (s *Saver) RequestSave() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// SaveNow persists the current snapshot synchronously, bypassing the queue
func (s *Saver) SaveNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.SaveTimeout)
	defer cancel()

	err := s.repo.Save(ctx, s.source.Snapshot())

	s.mu.Lock()
	s.lastError = err
	if err == nil {
		now := time.Now()
		s.lastSave = &now
	}
	s.mu.Unlock()
	return err
}

// LastError returns the outcome of the most recent save attempt
func (s *Saver) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// LastSaveAt returns when the last successful save completed
func (s *Saver) LastSaveAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSave
}

func (s *Saver) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notify:
			s.flush(ctx)
		case <-ticker.C:
			// Retry path for saves that failed since the last tick
			s.flush(ctx)
		}
	}
}

// flush performs one save if the state is dirty. On failure the dirty flag
// is restored so the next notification or tick retries.
func (s *Saver) flush(ctx context.Context) {
	if !s.takeDirty() {
		return
	}

	if err := s.SaveNow(ctx); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		s.logger.Error("Background save failed, will retry", zap.Error(err))
		return
	}
	s.logger.Debug("State snapshot saved")
}

func (s *Saver) takeDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return false
	}
	s.dirty = false
	return true
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"crashqueue/internal/config"
	"crashqueue/internal/deliver"
	"crashqueue/internal/history"
	"crashqueue/internal/logging"
)

// ErrAlreadyRunning is returned when another process holds the delivery lock.
var ErrAlreadyRunning = errors.New("another crashqueue delivery process is already running")

// Daemon runs the delivery loop under the single-instance lock.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	runner  *deliver.Runner
	history *history.Store

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// New constructs a daemon. ledger may be nil when history is disabled.
func New(cfg *config.Config, runner *deliver.Runner, ledger *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil {
		return nil, errors.New("daemon requires config and runner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runner:   runner,
		history:  ledger,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// LockPath returns the lock file guarding delivery.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Running reports whether this daemon currently holds the lock.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Run delivers until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	d.prune(ctx)
	return d.runner.Run(ctx)
}

// Once drains the queue a single time and returns the counts.
func (d *Daemon) Once(ctx context.Context) (deliver.Stats, error) {
	if err := d.acquire(); err != nil {
		return deliver.Stats{}, err
	}
	defer d.release()

	d.prune(ctx)
	return d.runner.Drain(ctx)
}

func (d *Daemon) acquire() error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	d.running.Store(true)
	d.logger.Info("delivery lock acquired",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
	)
	return nil
}

func (d *Daemon) release() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release delivery lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("delivery lock released", logging.String(logging.FieldEventType, "daemon_stopped"))
}

func (d *Daemon) prune(ctx context.Context) {
	if d.history == nil || d.cfg.History.RetentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -d.cfg.History.RetentionDays)
	removed, err := d.history.Prune(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(d.logger, "history prune failed",
			"history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "old ledger rows retained"),
		)
		return
	}
	if removed > 0 {
		d.logger.Info("history pruned",
			logging.String(logging.FieldEventType, "history_pruned"),
			logging.Int64("removed", removed),
			logging.Int("retention_days", d.cfg.History.RetentionDays),
		)
	}
}

// DeliveryActive reports whether some process holds the delivery lock at path.
func DeliveryActive(path string) (bool, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock: %w", err)
	}
	if !ok {
		return true, nil
	}
	if err := lock.Unlock(); err != nil {
		return false, fmt.Errorf("release probe lock: %w", err)
	}
	return false, nil
}

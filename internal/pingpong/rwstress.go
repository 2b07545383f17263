package pingpong

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/atomic"

	"github.com/Iron-Ham/procthread/internal/logging"
	"github.com/Iron-Ham/procthread/internal/metrics"
	"github.com/Iron-Ham/procthread/internal/rwlock"
	"github.com/Iron-Ham/procthread/internal/thread"
)

// StressConfig sizes a reader/writer stress run.
type StressConfig struct {
	Backend    rwlock.Kind
	Readers    int
	Writers    int
	Iterations int
	Logger     *logging.Logger
	Metrics    *metrics.Collector
}

// StressReport summarizes a completed stress run.
type StressReport struct {
	RunID      string
	Backend    rwlock.Kind
	Reads      int64
	Writes     int64
	MaxReaders int64 // most readers observed inside the lock at once
	Violations int64 // exclusion failures; always 0 for a correct lock
	Elapsed    time.Duration
}

// sharedState is what the lock protects. The atomics are only there so a
// broken lock shows up as a counted violation rather than a data race.
type sharedState struct {
	lock       rwlock.RWLock
	readers    atomic.Int64
	writers    atomic.Int64
	maxReaders atomic.Int64
	violations atomic.Int64
	reads      atomic.Int64
	value      int64 // written only under the write lock
}

// RWStress runs cfg.Readers reader threads and cfg.Writers writer threads,
// each taking the lock cfg.Iterations times, and checks that no reader ever
// overlaps a writer and no two writers overlap.
func RWStress(ctx context.Context, cfg StressConfig) (StressReport, error) {
	if cfg.Iterations <= 0 || cfg.Readers < 0 || cfg.Writers < 0 || cfg.Readers+cfg.Writers == 0 {
		return StressReport{}, fmt.Errorf("rwstress: invalid sizing readers=%d writers=%d iterations=%d",
			cfg.Readers, cfg.Writers, cfg.Iterations)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NopLogger()
	}
	runID := uuid.NewString()
	logger := cfg.Logger.WithComponent("rwstress").WithRun(runID)

	lock, err := rwlock.New(cfg.Backend, rwlock.WithLogger(logger), rwlock.WithMetrics(cfg.Metrics))
	if err != nil {
		return StressReport{}, err
	}
	st := &sharedState{lock: lock}

	logger.Info("starting rwstress run",
		"backend", string(cfg.Backend), "readers", cfg.Readers, "writers", cfg.Writers, "iterations", cfg.Iterations)
	start := time.Now()

	opts := []thread.Option{thread.WithLogger(logger), thread.WithMetrics(cfg.Metrics)}
	p := pool.New().WithErrors().WithContext(ctx)
	spawn := func(role string, entry thread.Entry) error {
		th, err := thread.Spawn(ctx, entry, st, opts...)
		if err != nil {
			return fmt.Errorf("spawn %s: %w", role, err)
		}
		p.Go(func(context.Context) error {
			res, err := th.Join()
			if err != nil {
				return fmt.Errorf("%s %d: %w", role, th.ID(), err)
			}
			if err, ok := res.(error); ok {
				return fmt.Errorf("%s %d: %w", role, th.ID(), err)
			}
			return nil
		})
		return nil
	}

	var spawnErr error
	for range cfg.Writers {
		if spawnErr = spawn("writer", writer(cfg.Iterations)); spawnErr != nil {
			break
		}
	}
	for range cfg.Readers {
		if spawnErr != nil {
			break
		}
		spawnErr = spawn("reader", reader(cfg.Iterations))
	}

	err = p.Wait()
	if spawnErr != nil {
		err = spawnErr
	}
	report := StressReport{
		RunID:      runID,
		Backend:    cfg.Backend,
		Reads:      st.reads.Load(),
		Writes:     st.value,
		MaxReaders: st.maxReaders.Load(),
		Violations: st.violations.Load(),
		Elapsed:    time.Since(start),
	}
	if derr := lock.Destroy(); err == nil {
		err = derr
	}
	if err == nil && report.Violations > 0 {
		err = fmt.Errorf("rwstress: %d exclusion violations on %s lock", report.Violations, cfg.Backend)
	}
	if err != nil {
		logger.Error("rwstress run failed", "error", err)
		return report, err
	}
	logger.Info("rwstress run complete",
		"elapsed", report.Elapsed, "reads", report.Reads, "writes", report.Writes, "max_readers", report.MaxReaders)
	return report, nil
}

func reader(iterations int) thread.Entry {
	return func(ctx context.Context, arg any) any {
		st := arg.(*sharedState)
		for range iterations {
			if ctx.Err() != nil {
				return nil
			}
			if err := st.lock.RLock(); err != nil {
				return err
			}
			n := st.readers.Inc()
			for {
				m := st.maxReaders.Load()
				if n <= m || st.maxReaders.CompareAndSwap(m, n) {
					break
				}
			}
			if st.writers.Load() != 0 {
				st.violations.Inc()
			}
			st.reads.Inc()
			st.readers.Dec()
			if err := st.lock.Unlock(); err != nil {
				return err
			}
		}
		return nil
	}
}

func writer(iterations int) thread.Entry {
	return func(ctx context.Context, arg any) any {
		st := arg.(*sharedState)
		for range iterations {
			if ctx.Err() != nil {
				return nil
			}
			if err := st.lock.Lock(); err != nil {
				return err
			}
			if st.writers.Inc() != 1 || st.readers.Load() != 0 {
				st.violations.Inc()
			}
			st.value++
			st.writers.Dec()
			if err := st.lock.Unlock(); err != nil {
				return err
			}
		}
		return nil
	}
}

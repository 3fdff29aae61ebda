package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/reflecta/reflecta-api/internal/config"
	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/store"
)

// Default poll loop tuning, used when the corresponding config values are
// missing or nonsensical.
const (
	defaultBatchSize      = 5
	defaultIdleInterval   = 3 * time.Second
	defaultErrorBackoff   = 5 * time.Second
	defaultProcessTimeout = 2 * time.Minute
)

// jobProcessor is the slice of Processor the poller needs; tests substitute
// their own implementations.
type jobProcessor interface {
	Process(ctx context.Context, job *domain.AnalysisJob) error
}

// Poller drives the analysis job queue. It fetches batches of pending jobs,
// claims them one at a time, and processes claimed jobs sequentially. The
// loop never exits on its own: store and processing errors are logged and
// absorbed with a backoff, and only context cancellation stops it.
type Poller struct {
	jobStore  store.JobStore
	processor jobProcessor
	logger    *slog.Logger

	batchSize      int
	idleInterval   time.Duration
	errorBackoff   time.Duration
	processTimeout time.Duration
}

// NewPoller creates a Poller configured from cfg. Zero or negative config
// values fall back to the package defaults.
func NewPoller(jobStore store.JobStore, processor jobProcessor, cfg config.WorkerConfig, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Poller{
		jobStore:       jobStore,
		processor:      processor,
		logger:         logger.With("component", "job_poller"),
		batchSize:      cfg.BatchSize,
		idleInterval:   time.Duration(cfg.IdleIntervalSeconds) * time.Second,
		errorBackoff:   time.Duration(cfg.ErrorBackoffSeconds) * time.Second,
		processTimeout: time.Duration(cfg.ProcessTimeoutSeconds) * time.Second,
	}

	if p.batchSize <= 0 {
		p.batchSize = defaultBatchSize
	}
	if p.idleInterval <= 0 {
		p.idleInterval = defaultIdleInterval
	}
	if p.errorBackoff <= 0 {
		p.errorBackoff = defaultErrorBackoff
	}
	if p.processTimeout <= 0 {
		p.processTimeout = defaultProcessTimeout
	}

	return p
}

// Run executes the poll loop until ctx is cancelled. It always returns
// ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("job poller starting",
		"batch_size", p.batchSize,
		"idle_interval", p.idleInterval.String(),
		"error_backoff", p.errorBackoff.String(),
		"process_timeout", p.processTimeout.String())

	for {
		if err := ctx.Err(); err != nil {
			p.logger.Info("job poller stopping", "reason", err)
			return err
		}

		jobs, err := p.jobStore.FetchPending(ctx, p.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Error("failed to fetch pending jobs, backing off", "error", err)
			if !p.sleep(ctx, p.errorBackoff) {
				continue
			}
			continue
		}

		if len(jobs) == 0 {
			if !p.sleep(ctx, p.idleInterval) {
				continue
			}
			continue
		}

		p.logger.Debug("fetched pending jobs", "count", len(jobs))

		for _, job := range jobs {
			if ctx.Err() != nil {
				break
			}
			p.runOne(ctx, job)
		}
	}
}

// runOne claims and processes a single job. Losing the claim race is normal
// when several pollers share a queue and is not logged above debug level.
func (p *Poller) runOne(ctx context.Context, job *domain.AnalysisJob) {
	claimed, ok, err := p.jobStore.Claim(ctx, job.ID)
	if err != nil {
		p.logger.Error("failed to claim job", "error", err, "job_id", job.ID)
		return
	}
	if !ok {
		p.logger.Debug("lost claim race", "job_id", job.ID)
		return
	}

	procCtx, cancel := context.WithTimeout(ctx, p.processTimeout)
	defer cancel()

	if err := p.processor.Process(procCtx, claimed); err != nil {
		// The processor already recorded the job outcome; this is loop
		// telemetry only.
		p.logger.Warn("job processing failed",
			"error", err,
			"job_id", claimed.ID,
			"attempts", claimed.Attempts)
	}
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// duration elapsed.
func (p *Poller) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

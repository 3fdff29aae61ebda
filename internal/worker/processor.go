package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reflecta/reflecta-api/internal/analyzer"
	"github.com/reflecta/reflecta-api/internal/domain"
	"github.com/reflecta/reflecta-api/internal/store"
)

// AnalysisSaver persists a normalized analysis for a journal. It is satisfied
// by service.AnalysisService; the indirection keeps the worker package free
// of a dependency on the service layer.
type AnalysisSaver interface {
	SaveAnalysis(ctx context.Context, journal *domain.Journal, raw *analyzer.RawAnalysis) (*domain.Analysis, error)
}

// Processor executes a single claimed analysis job end to end: load the
// journal, run the analyzer, persist the result, and record the job outcome.
type Processor struct {
	journalStore store.JournalStore
	jobStore     store.JobStore
	analyzer     analyzer.Analyzer
	saver        AnalysisSaver
	logger       *slog.Logger
}

// NewProcessor creates a Processor. All dependencies are required except
// logger, which defaults to slog.Default.
func NewProcessor(
	journalStore store.JournalStore,
	jobStore store.JobStore,
	a analyzer.Analyzer,
	saver AnalysisSaver,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		journalStore: journalStore,
		jobStore:     jobStore,
		analyzer:     a,
		saver:        saver,
		logger:       logger.With("component", "job_processor"),
	}
}

// Process runs one claimed job to completion. The job must already be in the
// processing state; Process records the terminal outcome itself, marking the
// job done on success and failed otherwise, so callers only use the returned
// error for logging.
//
// A journal that no longer exists is a permanent failure: retrying cannot
// bring it back, so the job is failed without rethrowing.
func (p *Processor) Process(ctx context.Context, job *domain.AnalysisJob) error {
	log := p.logger.With("job_id", job.ID, "journal_id", job.JournalID)

	journal, err := p.journalStore.GetByID(ctx, job.JournalID)
	if err != nil {
		if errors.Is(err, store.ErrJournalNotFound) {
			log.Warn("journal missing, failing job permanently")
			p.markFailed(ctx, job, "journal not found")
			return nil
		}
		log.Error("failed to load journal for job", "error", err)
		p.markFailed(ctx, job, fmt.Sprintf("failed to load journal: %v", err))
		return fmt.Errorf("failed to load journal %s: %w", job.JournalID, err)
	}

	raw, err := p.analyzer.Analyze(ctx, journal.EntryText)
	if err != nil {
		log.Error("analysis failed", "error", err)
		p.markFailed(ctx, job, fmt.Sprintf("analysis failed: %v", err))
		return fmt.Errorf("analysis failed for journal %s: %w", job.JournalID, err)
	}

	analysis, err := p.saver.SaveAnalysis(ctx, journal, raw)
	if err != nil {
		log.Error("failed to save analysis", "error", err)
		p.markFailed(ctx, job, fmt.Sprintf("failed to save analysis: %v", err))
		return fmt.Errorf("failed to save analysis for journal %s: %w", job.JournalID, err)
	}

	if err := p.jobStore.MarkDone(ctx, job.ID); err != nil {
		// The analysis is saved; a failed status write leaves the job
		// claimable-looking but harmless, since reprocessing just appends
		// another analysis record.
		log.Error("failed to mark job done", "error", err)
		return fmt.Errorf("failed to mark job %s done: %w", job.ID, err)
	}

	log.Info("job processed",
		"analysis_id", analysis.ID,
		"attempts", job.Attempts)
	return nil
}

// markFailed records a job failure. The status write itself is best effort:
// if it fails the job stays in processing and needs a manual reset, which is
// the same recovery path as any other stuck job.
func (p *Processor) markFailed(ctx context.Context, job *domain.AnalysisJob, msg string) {
	// Use a context detached from the (possibly expired) processing deadline
	// so the failure record is not lost to the same timeout that caused it.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	if err := p.jobStore.MarkFailed(ctx, job.ID, msg); err != nil {
		p.logger.Error("failed to mark job failed",
			"error", err,
			"job_id", job.ID,
			"failure", msg)
	}
}

// Package assessment scores a batch of candidates against finalized
// requirements through the oracle.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-assessor/internal/ai"
	"github.com/spigell/cv-assessor/internal/candidate"
	"github.com/spigell/cv-assessor/internal/criteria"
	"github.com/spigell/cv-assessor/internal/logger"
	"github.com/spigell/cv-assessor/internal/score"
)

const (
	DefaultWorkers = 4
	DefaultTimeout = 2 * time.Minute
)

var (
	// ErrOracleFailed marks candidates whose oracle call failed or timed out.
	ErrOracleFailed = errors.New("oracle call failed")
	// ErrNothingScored is returned with a run in which no candidate got a score.
	ErrNothingScored = errors.New("no candidate could be scored")
)

var now = time.Now

// LoadFunc converts a candidate file into text.
type LoadFunc func(ctx context.Context, path string) (string, error)

// Job is the immutable input of a run.
type Job struct {
	Role          string
	Strategy      string
	LowConfidence bool
	Requirements  string
	Table         criteria.Table
	Candidates    []candidate.Candidate
}

// Run is the ranked outcome of one batch.
type Run struct {
	ID            string         `json:"id"`
	Role          string         `json:"role"`
	Strategy      string         `json:"strategy"`
	LowConfidence bool           `json:"low_confidence"`
	Requirements  string         `json:"requirements"`
	Criteria      criteria.Table `json:"criteria"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Total         int            `json:"total"`
	Assessed      int            `json:"assessed"`
	Records       []Record       `json:"records"`
}

// Incomplete reports whether fewer candidates were scored than submitted.
func (r Run) Incomplete() bool {
	return r.Assessed < r.Total
}

type Options struct {
	Workers int
	Timeout time.Duration
	Load    LoadFunc
}

type Runner struct {
	oracle  ai.Oracle
	load    LoadFunc
	logger  *zap.Logger
	workers int
	timeout time.Duration
}

func NewRunner(oracle ai.Oracle, log *zap.Logger, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Load == nil {
		opts.Load = candidate.Read
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Runner{
		oracle:  oracle,
		load:    opts.Load,
		logger:  log,
		workers: opts.Workers,
		timeout: opts.Timeout,
	}
}

// Run assesses every candidate with at most Workers concurrent oracle calls.
// A failing candidate becomes an error record. The run is returned together
// with ErrNothingScored when no candidate got a score; ctx cancellation
// aborts the run.
func (r *Runner) Run(ctx context.Context, job Job) (Run, error) {
	if r.oracle == nil {
		return Run{}, errors.New("oracle is not configured")
	}

	run := Run{
		ID:            uuid.NewString(),
		Role:          job.Role,
		Strategy:      job.Strategy,
		LowConfidence: job.LowConfidence,
		Requirements:  job.Requirements,
		Criteria:      job.Table,
		StartedAt:     now(),
		Total:         len(job.Candidates),
	}
	log := logger.WithFields(r.logger, logger.JobFields(run.ID, job.Role)...)
	log.Info("assessment started", zap.Int("candidates", run.Total), zap.Int("workers", r.workers))

	records := make([]Record, len(job.Candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, c := range job.Candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = r.assess(gctx, log, job, c)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Run{}, err
	}
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}

	Rank(records)
	for _, rec := range records {
		if rec.Scored() {
			run.Assessed++
		}
	}
	run.Records = records
	run.FinishedAt = now()

	log.Info("assessment finished",
		zap.Int("total", run.Total),
		zap.Int("assessed", run.Assessed),
		zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)),
	)

	if run.Total > 0 && run.Assessed == 0 {
		return run, ErrNothingScored
	}
	return run, nil
}

func (r *Runner) assess(ctx context.Context, log *zap.Logger, job Job, c candidate.Candidate) Record {
	started := now()
	rec := Record{CandidateID: c.ID}
	log = log.With(logger.Candidate(c.ID))

	text, err := r.load(ctx, c.Path)
	if err != nil {
		log.Warn("candidate could not be loaded", zap.Error(err))
		rec.Status = StatusUnreadable
		rec.Error = err.Error()
		rec.RawReport = err.Error()
		return finish(&rec, started)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	raw, err := r.oracle.Assess(callCtx, job.Requirements, text)
	cancel()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrOracleFailed, err)
		log.Warn("oracle assessment failed", zap.Error(err))
		rec.Status = StatusOracleFailed
		rec.Error = err.Error()
		rec.RawReport = err.Error()
		return finish(&rec, started)
	}

	rec.RawReport = raw
	resolveScore(&rec, job.Table)

	if rec.Scored() {
		log.Info("candidate scored",
			zap.Float64("score", *rec.Score),
			zap.String("score_source", string(rec.ScoreSource)),
		)
	} else {
		log.Warn("score not found in oracle report")
	}
	return finish(&rec, started)
}

func finish(rec *Record, started time.Time) Record {
	rec.Duration = now().Sub(started)
	return *rec
}

// resolveScore prefers the weighted criteria composite, then the reported
// overall score, then a score found in the narrative.
func resolveScore(rec *Record, table criteria.Table) {
	set := func(v float64, src ScoreSource) {
		rec.Score = &v
		rec.ScoreSource = src
		rec.Status = StatusScored
		rec.FitLevel = score.FitLevel(v)
	}

	narrative := rec.RawReport
	if report, err := score.ParseReport(rec.RawReport); err == nil {
		rec.Report = &report
		narrative = report.Narrative()

		if v, ok := criteria.Aggregate(table, report.Scores()); ok {
			set(v, SourceCriteria)
		} else if report.OverallScore != nil {
			set(score.Percent(*report.OverallScore), SourceReported)
		}
	}

	if !rec.Scored() {
		if n := score.ParseNarrative(narrative); n.Found {
			set(n.Percent(), SourceNarrative)
		} else if n := score.ParseNarrative(rec.RawReport); n.Found {
			set(n.Percent(), SourceNarrative)
		}
	}

	if !rec.Scored() {
		rec.Status = StatusUnparsed
		rec.Error = score.ErrUnparseable.Error()
	}
}

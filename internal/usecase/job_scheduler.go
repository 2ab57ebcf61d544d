package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/prediction-league/internal/domain/jobscheduler"
	"github.com/riskibarqy/prediction-league/internal/domain/league"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
)

type JobLeagueSource interface {
	ListActiveSimLeagues(ctx context.Context) ([]league.League, error)
}

type PriceRefresher interface {
	RefreshLeague(ctx context.Context, leagueID string) (RefreshResult, error)
}

type ScoreRecomputer interface {
	RecomputeScores(ctx context.Context, leagueID string) (RecomputeResult, error)
}

// JobPublisher hands a job to an external queue that calls the internal job endpoints back.
type JobPublisher interface {
	Publish(ctx context.Context, event jobscheduler.DispatchEvent) error
}

type JobSchedulerConfig struct {
	PriceInterval   time.Duration
	ScoringInterval time.Duration
	RunTimeout      time.Duration
	MaxWorkers      int
}

type jobFunc func(ctx context.Context, leagueID string) (map[string]any, error)

// JobScheduler drives price refresh and scoring per league and records a metric for every run.
type JobScheduler struct {
	cfg     JobSchedulerConfig
	leagues JobLeagueSource
	jobs    map[string]jobFunc
	metrics jobscheduler.MetricStore
	locks   *resilience.KeyedMutex
	logger  *logging.Logger
	now     func() time.Time

	publisher  JobPublisher
	dispatches jobscheduler.Repository
}

func NewJobScheduler(
	cfg JobSchedulerConfig,
	leagues JobLeagueSource,
	prices PriceRefresher,
	scoring ScoreRecomputer,
	metrics jobscheduler.MetricStore,
	locks *resilience.KeyedMutex,
	logger *logging.Logger,
) *JobScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if locks == nil {
		locks = resilience.NewKeyedMutex()
	}
	if cfg.PriceInterval <= 0 {
		cfg.PriceInterval = time.Minute
	}
	if cfg.ScoringInterval <= 0 {
		cfg.ScoringInterval = 5 * time.Minute
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Minute
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}

	s := &JobScheduler{
		cfg:     cfg,
		leagues: leagues,
		metrics: metrics,
		locks:   locks,
		logger:  logger,
		now:     time.Now,
	}
	s.jobs = map[string]jobFunc{
		jobscheduler.JobPriceRefresh: func(ctx context.Context, leagueID string) (map[string]any, error) {
			result, err := prices.RefreshLeague(ctx, leagueID)
			return result.Stats(), err
		},
		jobscheduler.JobScoring: func(ctx context.Context, leagueID string) (map[string]any, error) {
			result, err := scoring.RecomputeScores(ctx, leagueID)
			return result.Stats(), err
		},
	}
	return s
}

// WithPublisher makes Start enqueue ticks on publisher instead of running them in-process.
// Each publish is recorded in dispatches when it is set.
func (s *JobScheduler) WithPublisher(publisher JobPublisher, dispatches jobscheduler.Repository) *JobScheduler {
	s.publisher = publisher
	s.dispatches = dispatches
	return s
}

func (s *JobScheduler) RunPriceRefresh(ctx context.Context, leagueID string) (jobscheduler.Metric, error) {
	return s.Run(ctx, jobscheduler.JobPriceRefresh, leagueID)
}

func (s *JobScheduler) RunScoring(ctx context.Context, leagueID string) (jobscheduler.Metric, error) {
	return s.Run(ctx, jobscheduler.JobScoring, leagueID)
}

// Run executes one job for one league. A run already in flight for the same
// (job, league) is skipped and reported with ErrRecomputeInProgress.
func (s *JobScheduler) Run(ctx context.Context, jobName, leagueID string) (jobscheduler.Metric, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobScheduler.Run", leagueID)
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return jobscheduler.Metric{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	fn, ok := s.jobs[jobName]
	if !ok {
		return jobscheduler.Metric{}, fmt.Errorf("%w: unknown job %q", ErrInvalidInput, jobName)
	}

	metric := jobscheduler.Metric{
		JobName:   jobName,
		LeagueID:  leagueID,
		StartedAt: s.now().UTC(),
	}

	unlock, ok := s.locks.TryLock(resilience.Key("job", jobName, leagueID))
	if !ok {
		metric.Skipped = true
		metric.Error = "previous run still in progress"
		s.record(ctx, metric)
		return metric, fmt.Errorf("%w: job=%s league=%s", ErrRecomputeInProgress, jobName, leagueID)
	}
	defer unlock()

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RunTimeout)
	defer cancel()

	stats, err := safeRun(runCtx, fn, leagueID)
	metric.Duration = s.now().UTC().Sub(metric.StartedAt)
	metric.Stats = stats
	switch {
	case err == nil:
		metric.Success = true
	case crerr.Is(err, ErrRecomputeInProgress):
		metric.Skipped = true
		metric.Error = err.Error()
	default:
		metric.Error = err.Error()
	}

	s.record(ctx, metric)
	return metric, err
}

// RunAll fans jobName out over every active simulated league and waits for completion.
func (s *JobScheduler) RunAll(ctx context.Context, jobName string) ([]jobscheduler.Metric, error) {
	pool, err := ants.NewPool(s.cfg.MaxWorkers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	return s.runAll(ctx, pool, jobName)
}

func (s *JobScheduler) runAll(ctx context.Context, pool *ants.Pool, jobName string) ([]jobscheduler.Metric, error) {
	if _, ok := s.jobs[jobName]; !ok {
		return nil, fmt.Errorf("%w: unknown job %q", ErrInvalidInput, jobName)
	}

	leagues, err := s.leagues.ListActiveSimLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active leagues: %w", err)
	}

	var (
		mu      sync.Mutex
		workers sync.WaitGroup
		out     = make([]jobscheduler.Metric, 0, len(leagues))
	)
	collect := func(metric jobscheduler.Metric) {
		mu.Lock()
		out = append(out, metric)
		mu.Unlock()
	}

	for _, item := range leagues {
		leagueID := item.ID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			metric, _ := s.Run(ctx, jobName, leagueID)
			collect(metric)
		}); err != nil {
			workers.Done()
			skipped := jobscheduler.Metric{
				JobName:   jobName,
				LeagueID:  leagueID,
				Skipped:   true,
				StartedAt: s.now().UTC(),
				Error:     fmt.Sprintf("submit to worker pool: %v", err),
			}
			s.record(ctx, skipped)
			collect(skipped)
		}
	}
	workers.Wait()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LeagueID < out[j].LeagueID
	})
	return out, nil
}

// Start runs both ticker loops until ctx is done, then waits for in-flight runs.
func (s *JobScheduler) Start(ctx context.Context) error {
	pool, err := ants.NewPool(s.cfg.MaxWorkers, ants.WithNonblocking(true))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	priceTicker := time.NewTicker(s.cfg.PriceInterval)
	defer priceTicker.Stop()
	scoringTicker := time.NewTicker(s.cfg.ScoringInterval)
	defer scoringTicker.Stop()

	s.logger.InfoContext(ctx, "job scheduler started",
		"price_interval", s.cfg.PriceInterval.String(),
		"scoring_interval", s.cfg.ScoringInterval.String(),
		"max_workers", s.cfg.MaxWorkers,
	)

	var ticks sync.WaitGroup
	tick := func(jobName string) {
		ticks.Add(1)
		go func() {
			defer ticks.Done()
			var err error
			if s.publisher != nil {
				_, err = s.PublishAll(ctx, jobName)
			} else {
				_, err = s.runAll(ctx, pool, jobName)
			}
			if err != nil {
				s.logger.WarnContext(ctx, "scheduled job fan-out failed", "job", jobName, "error", err)
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			ticks.Wait()
			s.logger.Info("job scheduler stopped")
			return nil
		case <-priceTicker.C:
			tick(jobscheduler.JobPriceRefresh)
		case <-scoringTicker.C:
			tick(jobscheduler.JobScoring)
		}
	}
}

// PublishAll enqueues jobName for every active simulated league and returns the dispatch events it produced.
func (s *JobScheduler) PublishAll(ctx context.Context, jobName string) ([]jobscheduler.DispatchEvent, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobScheduler.PublishAll")
	defer span.End()

	if s.publisher == nil {
		return nil, fmt.Errorf("%w: job publisher is not configured", ErrDependencyUnavailable)
	}
	path, ok := jobscheduler.PathFor(jobName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown job %q", ErrInvalidInput, jobName)
	}
	leagues, err := s.leagues.ListActiveSimLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active leagues: %w", err)
	}

	now := s.now().UTC()
	events := make([]jobscheduler.DispatchEvent, 0, len(leagues))
	for _, item := range leagues {
		// One id per (job, league, tick) so queue redeliveries collapse.
		dispatchID := fmt.Sprintf("sched-%s-%s-%d", jobName, item.ID, now.Unix())
		payload := map[string]any{"league_id": item.ID, "dispatch_id": dispatchID}
		event := jobscheduler.DispatchEvent{
			DispatchID: dispatchID,
			JobName:    jobName,
			JobPath:    path,
			LeagueID:   item.ID,
			Status:     jobscheduler.StatusSent,
			Payload:    payload,
			OccurredAt: now,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			event.Status = jobscheduler.StatusFailed
			event.ErrorMessage = err.Error()
			s.logger.WarnContext(ctx, "publish job failed", "job", jobName, "league_id", item.ID, "error", err)
		}
		if s.dispatches != nil {
			if err := s.dispatches.UpsertEvent(ctx, event); err != nil {
				s.logger.WarnContext(ctx, "record job dispatch failed", "dispatch_id", dispatchID, "error", err)
			}
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *JobScheduler) RecentMetrics(limit int) []jobscheduler.Metric {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.Recent(limit)
}

func (s *JobScheduler) record(ctx context.Context, metric jobscheduler.Metric) {
	if s.metrics != nil {
		s.metrics.Record(metric)
	}

	args := []any{
		"job", metric.JobName,
		"league_id", metric.LeagueID,
		"success", metric.Success,
		"skipped", metric.Skipped,
		"duration_ms", metric.Duration.Milliseconds(),
	}
	switch {
	case metric.Success:
		s.logger.InfoContext(ctx, "job run finished", args...)
	case metric.Skipped:
		s.logger.InfoContext(ctx, "job run skipped", append(args, "reason", metric.Error)...)
	default:
		s.logger.WarnContext(ctx, "job run failed", append(args, "error", metric.Error)...)
	}
}

func safeRun(ctx context.Context, fn jobFunc, leagueID string) (stats map[string]any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			stats = map[string]any{"stack": string(debug.Stack())}
			err = fmt.Errorf("%w: job panicked: %v", ErrInvariantViolation, recovered)
		}
	}()
	return fn(ctx, leagueID)
}

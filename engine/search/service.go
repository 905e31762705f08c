package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/beedev/recommenderv3-sub002/engine/catalog"
	"github.com/beedev/recommenderv3-sub002/engine/normalize"
	"github.com/beedev/recommenderv3-sub002/pkg/metrics"
)

// Mode selects how applicable strategies are executed.
type Mode int

const (
	// ModeParallel runs all applicable strategies concurrently, each under its
	// own deadline.
	ModeParallel Mode = iota
	// ModeSequential runs strategies in precedence order and stops once a
	// high-confidence strategy has produced enough candidates for the page.
	ModeSequential
)

// GraphBackend is the catalog-graph capability the engine consumes.
type GraphBackend interface {
	GraphQuerier
	CategoryLister
}

// Options configures the orchestrator.
type Options struct {
	Mode            Mode
	StrategyTimeout time.Duration
	RequestTimeout  time.Duration
	Registry        *metrics.Registry
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Mode:            ModeParallel,
		StrategyTimeout: 3 * time.Second,
		RequestTimeout:  8 * time.Second,
	}
}

// Service owns the per-request search lifecycle: strategy selection, bounded
// execution, consolidation, and ranking.
type Service struct {
	strategies []Strategy // fixed precedence order
	opts       Options
	logger     *slog.Logger
	met        *serviceMetrics
}

// New wires the three standard strategies against the given backends.
func New(store GraphBackend, index RelevanceSearcher, table *normalize.Table, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	strategies := []Strategy{
		NewGraphStrategy(store, logger),
		NewKeywordStrategy(index, table, logger),
		NewFallbackStrategy(store, logger),
	}
	return NewWithStrategies(strategies, opts, logger)
}

// NewWithStrategies creates a Service over explicit strategies, in precedence
// order. Used by tests and custom deployments.
func NewWithStrategies(strategies []Strategy, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.StrategyTimeout <= 0 {
		opts.StrategyTimeout = DefaultOptions().StrategyTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultOptions().RequestTimeout
	}
	return &Service{
		strategies: strategies,
		opts:       opts,
		logger:     logger,
		met:        newServiceMetrics(opts.Registry),
	}
}

// Search runs the full pipeline for one request. A strategy failure never
// aborts the request; only when no applicable strategy succeeds does the
// caller see ErrAllStrategiesFailed.
func (s *Service) Search(ctx context.Context, req catalog.SearchRequest) (Result, error) {
	if err := catalog.ValidateRequest(req); err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	start := time.Now()
	execs := s.execute(ctx, req)

	anySucceeded := false
	var failures []string
	for _, e := range execs {
		s.met.observeStrategy(e.Strategy, e.Outcome, e.Duration)
		switch e.Outcome.Status {
		case StatusSuccess, StatusPartial:
			anySucceeded = true
		case StatusFailed:
			failures = append(failures, e.Strategy+": "+e.Outcome.Reason)
		}
	}

	if !anySucceeded {
		s.met.observeRequest(start, true)
		s.logger.Error("all strategies failed",
			"component_type", req.ComponentType, "reasons", failures)
		res := Result{
			FiltersApplied: filtersApplied(req),
			StrategyCounts: map[string]int{},
			Reports:        reports(execs),
		}
		return res, &AllStrategiesFailedError{Reasons: failures}
	}

	res := Consolidate(execs, req)
	s.met.observeRequest(start, false)
	s.logger.Info("search done",
		"component_type", req.ComponentType,
		"total", res.TotalCount,
		"returned", len(res.Products),
		"duration", time.Since(start),
	)
	return res, nil
}

// execute runs every strategy (or records its skip) and returns executions in
// the service's fixed strategy order, independent of completion order.
func (s *Service) execute(ctx context.Context, req catalog.SearchRequest) []Execution {
	execs := make([]Execution, len(s.strategies))

	var runnable []int
	for i, strat := range s.strategies {
		if ok, reason := strat.Applicable(req); !ok {
			execs[i] = Execution{Strategy: strat.Name(), Outcome: Skipped(reason)}
		} else {
			runnable = append(runnable, i)
		}
	}

	if s.opts.Mode == ModeSequential {
		s.runSequential(ctx, req, execs, runnable)
	} else {
		s.runParallel(ctx, req, execs, runnable)
	}
	return execs
}

func (s *Service) runParallel(ctx context.Context, req catalog.SearchRequest, execs []Execution, runnable []int) {
	var wg sync.WaitGroup
	for _, i := range runnable {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			execs[i] = s.runOne(ctx, s.strategies[i], req)
		}(i)
	}
	wg.Wait()
}

func (s *Service) runSequential(ctx context.Context, req catalog.SearchRequest, execs []Execution, runnable []int) {
	enough := false
	for _, i := range runnable {
		strat := s.strategies[i]
		if enough {
			execs[i] = Execution{Strategy: strat.Name(), Outcome: Skipped("short-circuit")}
			continue
		}
		execs[i] = s.runOne(ctx, strat, req)

		// Short-circuit only on high-confidence strategies that can already
		// fill the requested page.
		if execs[i].Outcome.Status == StatusSuccess &&
			strat.Name() != StrategyFallback &&
			len(execs[i].Candidates) >= req.Limit+req.Offset {
			enough = true
		}
	}
}

// runOne executes a single strategy under its own deadline, recovering panics
// into a Failed outcome so one bad strategy cannot take down the request.
func (s *Service) runOne(ctx context.Context, strat Strategy, req catalog.SearchRequest) (exec Execution) {
	strategyCtx, cancel := context.WithTimeout(ctx, s.opts.StrategyTimeout)
	defer cancel()

	start := time.Now()
	exec = Execution{Strategy: strat.Name()}
	defer func() {
		exec.Duration = time.Since(start)
		if r := recover(); r != nil {
			s.logger.Error("strategy panicked", "strategy", strat.Name(), "panic", r)
			exec.Candidates = nil
			exec.Outcome = Failed("internal error")
		}
	}()

	exec.Candidates, exec.Outcome = strat.Execute(strategyCtx, req)
	return exec
}

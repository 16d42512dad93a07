package scheduler

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/termtable/pkg/constraint"
	"github.com/limaJavier/termtable/pkg/domain"
	"github.com/limaJavier/termtable/pkg/model"
	"github.com/limaJavier/termtable/pkg/report"
	"github.com/limaJavier/termtable/pkg/solver"
	"go.uber.org/zap"
)

type Strategy string

const (
	Exact    Strategy = "exact"
	Genetic  Strategy = "genetic"
	Fallback Strategy = "fallback" // Exact first, genetic when the exact search fails
)

func ParseStrategy(value string) (Strategy, error) {
	switch strategy := Strategy(value); strategy {
	case Exact, Genetic, Fallback:
		return strategy, nil
	}
	return "", fmt.Errorf("unknown strategy %q: expected exact, genetic or fallback", value)
}

// Run outcomes
const (
	OutcomeSolved            = "solved"
	OutcomeConflicts         = "conflicts"
	OutcomeInfeasible        = "infeasible"
	OutcomeInvalidDomain     = "invalid_domain"
	OutcomeInvalidConstraint = "invalid_constraint"
	OutcomeError             = "error"
)

// Recorder receives one observation per run. Score is negative when the run produced no timetable.
type Recorder interface {
	ObserveRun(strategy, outcome string, elapsed time.Duration, sessions, conflicts int, score float64)
}

type Options struct {
	Strategy     Strategy
	Domain       domain.Config
	Rules        constraint.Options
	Backtracking solver.BacktrackingConfig
	Genetic      solver.GeneticConfig
	Seed         uint64 // 0 seeds the genetic solver from the clock
}

func DefaultOptions() Options {
	return Options{
		Strategy:     Exact,
		Domain:       domain.DefaultConfig(),
		Rules:        constraint.DefaultOptions(),
		Backtracking: solver.DefaultBacktrackingConfig(),
		Genetic:      solver.DefaultGeneticConfig(),
	}
}

// Result is handed to the persistence and notification collaborators
type Result struct {
	RunId        string               `json:"runId"`
	Strategy     Strategy             `json:"strategy"` // Solver that produced the solution
	Seed         uint64               `json:"seed,omitempty"`
	Solution     model.Solution       `json:"solution"`
	Report       report.ScoreReport   `json:"report"`
	GeneticStats *solver.GeneticStats `json:"geneticStats,omitempty"`
	Elapsed      time.Duration        `json:"elapsedNanoseconds"`
}

type Scheduler struct {
	options  Options
	logger   *zap.Logger
	recorder Recorder
}

func New(options Options, logger *zap.Logger, recorder Recorder) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{options: options, logger: logger, recorder: recorder}
}

// Generate builds a timetable for the input snapshot. Every call works on its own sessions, domains and
// population, so calls may run in parallel.
func (scheduler *Scheduler) Generate(input model.Input) (*Result, error) {
	start := time.Now()
	options := scheduler.options
	result := &Result{RunId: uuid.NewString(), Strategy: options.Strategy}
	logger := scheduler.logger.With(zap.String("run_id", result.RunId), zap.String("strategy", string(options.Strategy)))

	logger.Info("generation started",
		zap.Int("courses", len(input.Courses)),
		zap.Int("teachers", len(input.Teachers)),
		zap.Int("rooms", len(input.Rooms)),
		zap.Int("constraints", len(input.Constraints)),
	)

	//** Load rules before any search
	rules, err := constraint.Load(input.Constraints)
	if err != nil {
		return nil, scheduler.fail(logger, options.Strategy, start, 0, err)
	}

	//** Build domains
	sessions, domains, err := domain.BuildDomains(input.Courses, input.Teachers, input.Rooms, options.Domain)
	if err != nil {
		return nil, scheduler.fail(logger, options.Strategy, start, 0, err)
	}
	logger.Debug("domains built",
		zap.Int("sessions", len(sessions)),
		zap.Int("placements", totalPlacements(domains)),
	)

	engine, err := constraint.NewEngine(rules, model.NewCatalog(input, sessions), options.Rules)
	if err != nil {
		return nil, scheduler.fail(logger, options.Strategy, start, len(sessions), err)
	}
	problem := solver.Problem{Sessions: sessions, Domains: domains, Window: options.Domain.Window, Engine: engine}

	//** Solve
	switch options.Strategy {
	case Exact:
		result.Solution, err = solver.NewBacktrackingSolver(options.Backtracking).Solve(problem)
	case Genetic:
		err = scheduler.solveGenetic(problem, result)
	case Fallback:
		result.Strategy = Exact
		result.Solution, err = solver.NewBacktrackingSolver(options.Backtracking).Solve(problem)
		var infeasible model.InfeasibleScheduleError
		if errors.As(err, &infeasible) {
			logger.Warn("exact search failed, falling back to the genetic solver", zap.Error(err))
			result.Strategy = Genetic
			err = scheduler.solveGenetic(problem, result)
		}
	default:
		err = fmt.Errorf("unknown strategy %q", options.Strategy)
	}
	if err != nil {
		return nil, scheduler.fail(logger, result.Strategy, start, len(sessions), err)
	}

	//** Report
	result.Report = report.Build(engine, options.Domain.Window, result.Solution)
	result.Elapsed = time.Since(start)

	outcome := OutcomeSolved
	if len(result.Report.Conflicts) > 0 {
		outcome = OutcomeConflicts
		logger.Warn("timetable has conflicts", zap.Int("conflicts", len(result.Report.Conflicts)))
	}
	scheduler.observe(result.Strategy, outcome, result.Elapsed, len(sessions), len(result.Report.Conflicts), result.Report.Score)

	logger.Info("generation finished",
		zap.String("solver", string(result.Strategy)),
		zap.Int("assignments", len(result.Solution)),
		zap.Float64("score", result.Report.Score),
		zap.Float64("fill_rate", result.Report.FillRate),
		zap.Float64("compliance_ratio", result.Report.ComplianceRatio),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (scheduler *Scheduler) solveGenetic(problem solver.Problem, result *Result) error {
	seed := scheduler.options.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	result.Seed = seed

	genetic := solver.NewGeneticSolver(scheduler.options.Genetic, rand.New(rand.NewPCG(seed, seed)))
	solution, err := genetic.Solve(problem)
	if err != nil {
		return err
	}
	stats := genetic.Stats()
	result.Solution = solution
	result.GeneticStats = &stats
	return nil
}

func (scheduler *Scheduler) fail(logger *zap.Logger, strategy Strategy, start time.Time, sessions int, err error) error {
	outcome := OutcomeError
	var (
		domainErr     model.InvalidDomainError
		infeasibleErr model.InfeasibleScheduleError
		definitionErr model.ConstraintDefinitionError
	)
	switch {
	case errors.As(err, &domainErr):
		outcome = OutcomeInvalidDomain
	case errors.As(err, &infeasibleErr):
		outcome = OutcomeInfeasible
	case errors.As(err, &definitionErr):
		outcome = OutcomeInvalidConstraint
	}

	logger.Error("generation failed", zap.String("outcome", outcome), zap.Error(err))
	scheduler.observe(strategy, outcome, time.Since(start), sessions, 0, -1)
	return err
}

func (scheduler *Scheduler) observe(strategy Strategy, outcome string, elapsed time.Duration, sessions, conflicts int, score float64) {
	if scheduler.recorder != nil {
		scheduler.recorder.ObserveRun(string(strategy), outcome, elapsed, sessions, conflicts, score)
	}
}

func totalPlacements(domains *domain.Domains) int {
	total := 0
	for session := range domains.Len() {
		total += domains.Size(session)
	}
	return total
}

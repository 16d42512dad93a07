package config

import (
	"fmt"

	"github.com/limaJavier/termtable/pkg/constraint"
	"github.com/limaJavier/termtable/pkg/domain"
	"github.com/limaJavier/termtable/pkg/model"
	"github.com/limaJavier/termtable/pkg/scheduler"
	"github.com/limaJavier/termtable/pkg/solver"
)

// SchedulerOptions converts the configuration into scheduler options. Compatibility entries override the
// default room types of their course type.
func (cfg *Config) SchedulerOptions() (scheduler.Options, error) {
	strategy, err := scheduler.ParseStrategy(cfg.Strategy)
	if err != nil {
		return scheduler.Options{}, err
	}

	window := domain.Window{Granularity: cfg.Window.Granularity}
	for _, day := range cfg.Window.Days {
		index, err := model.ParseDay(day)
		if err != nil {
			return scheduler.Options{}, fmt.Errorf("window.days: %w", err)
		}
		window.Days = append(window.Days, index)
	}
	if window.Start, err = model.ParseClock(cfg.Window.Start); err != nil {
		return scheduler.Options{}, fmt.Errorf("window.start: %w", err)
	}
	if window.End, err = model.ParseClock(cfg.Window.End); err != nil {
		return scheduler.Options{}, fmt.Errorf("window.end: %w", err)
	}
	if err := window.Validate(); err != nil {
		return scheduler.Options{}, fmt.Errorf("window: %w", err)
	}

	compatibility := domain.DefaultCompatibility()
	for courseType, roomTypes := range cfg.Compatibility {
		compatibility[model.CourseType(courseType)] = roomTypes
	}

	noon, err := model.ParseClock(cfg.Rules.Noon)
	if err != nil {
		return scheduler.Options{}, fmt.Errorf("rules.noon: %w", err)
	}

	return scheduler.Options{
		Strategy: strategy,
		Domain: domain.Config{
			Window:        window,
			Compatibility: compatibility,
		},
		Rules: constraint.Options{
			ConsecutiveThreshold:  cfg.Rules.ConsecutiveThreshold,
			DefaultMaxConsecutive: cfg.Rules.DefaultMaxConsecutive,
			Noon:                  noon,
		},
		Backtracking: solver.BacktrackingConfig{
			Budget: cfg.Exact.Budget,
		},
		Genetic: solver.GeneticConfig{
			PopulationSize: cfg.Genetic.PopulationSize,
			Generations:    cfg.Genetic.Generations,
			ElitismCount:   cfg.Genetic.ElitismCount,
			TournamentSize: cfg.Genetic.TournamentSize,
			CrossoverRate:  cfg.Genetic.CrossoverRate,
			MutationRate:   cfg.Genetic.MutationRate,
			RepairRooms:    cfg.Genetic.RepairRooms,
		},
		Seed: cfg.Genetic.Seed,
	}, nil
}

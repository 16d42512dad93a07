package solver

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/limaJavier/termtable/pkg/domain"
	"github.com/limaJavier/termtable/pkg/model"
	"github.com/samber/lo"
)

type GeneticConfig struct {
	PopulationSize int
	Generations    int
	ElitismCount   int
	TournamentSize int
	CrossoverRate  float64
	MutationRate   float64
	RepairRooms    bool // Reassign rooms of the best individual through a maximum matching
}

func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 100,
		Generations:    1000,
		ElitismCount:   10,
		TournamentSize: 5,
		CrossoverRate:  0.8,
		MutationRate:   0.1,
	}
}

// Fitness weights
const (
	baseFitness          = 1000.0
	overlapPenalty       = 50.0
	preferencePenalty    = 10.0
	consecutivePenalty   = 20.0
	maxLoadBonus         = 50.0
	maxDistributionBonus = 30.0
	utilizationBonus     = 20.0
	overUtilizationBonus = 10.0
)

type GeneticStats struct {
	BestFitness    float64
	BestGeneration int
	Generations    int
	Evaluations    int
}

// GeneticSolver evolves complete timetables that may break hard rules; conflicts are only discouraged by
// the fitness. It always returns the best individual ever seen.
type GeneticSolver struct {
	config GeneticConfig
	random *rand.Rand
	stats  GeneticStats
}

func NewGeneticSolver(config GeneticConfig, random *rand.Rand) *GeneticSolver {
	return &GeneticSolver{config: config, random: random}
}

// Stats describes the last run
func (solver *GeneticSolver) Stats() GeneticStats {
	return solver.stats
}

// individual holds one gene per session: an index into the session's (day, start, room) space
type individual struct {
	genes   []uint64
	fitness float64
}

func (chromosome *individual) clone() *individual {
	return &individual{genes: slices.Clone(chromosome.genes), fitness: chromosome.fitness}
}

type encoding struct {
	problem  Problem
	rooms    []model.Room
	starts   [][]model.Clock
	indexers []domain.Indexer
}

func newEncoding(problem Problem) (*encoding, error) {
	rooms := problem.Engine.Catalog().Rooms
	encoding := &encoding{
		problem:  problem,
		rooms:    rooms,
		starts:   make([][]model.Clock, len(problem.Sessions)),
		indexers: make([]domain.Indexer, len(problem.Sessions)),
	}
	for i, session := range problem.Sessions {
		encoding.starts[i] = problem.Window.Starts(session.DurationMinutes)
		encoding.indexers[i] = domain.NewIndexer(uint64(len(problem.Window.Days)), uint64(len(encoding.starts[i])), uint64(len(rooms)))
		if encoding.indexers[i].Size() == 0 {
			return nil, fmt.Errorf("session %q cannot be placed in the operating window with %d rooms", session.Id, len(rooms))
		}
	}
	return encoding, nil
}

func (encoding *encoding) decode(genes []uint64) model.Solution {
	solution := make(model.Solution, len(genes))
	for i, gene := range genes {
		session := encoding.problem.Sessions[i]
		day, start, room := encoding.indexers[i].Attributes(gene)
		begin := encoding.starts[i][start]
		solution[i] = model.Assignment{
			SessionId: session.Id,
			Placement: model.Placement{
				Slot: model.Slot{
					Day:   encoding.problem.Window.Days[day],
					Start: begin,
					End:   begin + model.Clock(session.DurationMinutes),
				},
				RoomId: encoding.rooms[room].Id,
			},
		}
	}
	return solution
}

func (solver *GeneticSolver) Solve(problem Problem) (model.Solution, error) {
	solver.stats = GeneticStats{}
	if len(problem.Sessions) == 0 {
		return model.Solution{}, nil
	}

	encoding, err := newEncoding(problem)
	if err != nil {
		return nil, err
	}

	config := solver.config
	size := max(config.PopulationSize, 1)
	elitism := min(max(config.ElitismCount, 0), size)

	//** Random initial population
	population := make([]*individual, size)
	for i := range population {
		genes := make([]uint64, len(problem.Sessions))
		for j := range genes {
			genes[j] = solver.random.Uint64N(encoding.indexers[j].Size())
		}
		population[i] = &individual{genes: genes}
	}

	best := &individual{fitness: math.Inf(-1)}
	evaluate := func(generation int) {
		for _, individual := range population {
			individual.fitness = solver.fitness(encoding, individual.genes)
			solver.stats.Evaluations++
		}
		slices.SortStableFunc(population, func(a, b *individual) int { return cmp.Compare(b.fitness, a.fitness) })
		if population[0].fitness > best.fitness {
			best = population[0].clone()
			solver.stats.BestFitness = best.fitness
			solver.stats.BestGeneration = generation
		}
	}

	for generation := range config.Generations {
		evaluate(generation)

		next := make([]*individual, 0, size)
		for _, elite := range population[:elitism] {
			next = append(next, elite.clone())
		}
		for len(next) < size {
			first, second := solver.tournament(population).clone(), solver.tournament(population).clone()
			if solver.random.Float64() < config.CrossoverRate {
				solver.crossover(first, second)
			}
			for _, child := range []*individual{first, second} {
				if len(next) == size {
					break
				}
				if solver.random.Float64() < config.MutationRate {
					solver.mutate(encoding, child)
				}
				next = append(next, child)
			}
		}
		population = next
		solver.stats.Generations++
	}
	evaluate(config.Generations)

	solution := encoding.decode(best.genes)
	if config.RepairRooms {
		solution = RepairRooms(problem, solution)
	}
	return solution, nil
}

// tournament returns the fittest of TournamentSize individuals drawn with replacement
func (solver *GeneticSolver) tournament(population []*individual) *individual {
	winner := population[solver.random.IntN(len(population))]
	for range solver.config.TournamentSize - 1 {
		contender := population[solver.random.IntN(len(population))]
		if contender.fitness > winner.fitness {
			winner = contender
		}
	}
	return winner
}

// crossover swaps the genes of both individuals after a random point
func (solver *GeneticSolver) crossover(first, second *individual) {
	if len(first.genes) < 2 {
		return
	}
	point := 1 + solver.random.IntN(len(first.genes)-1)
	for i := point; i < len(first.genes); i++ {
		first.genes[i], second.genes[i] = second.genes[i], first.genes[i]
	}
}

// mutate re-rolls the day, the start time or the room of one random session
func (solver *GeneticSolver) mutate(encoding *encoding, individual *individual) {
	gene := solver.random.IntN(len(individual.genes))
	indexer := encoding.indexers[gene]
	day, start, room := indexer.Attributes(individual.genes[gene])
	switch solver.random.IntN(3) {
	case 0:
		day = solver.random.Uint64N(uint64(len(encoding.problem.Window.Days)))
	case 1:
		start = solver.random.Uint64N(uint64(len(encoding.starts[gene])))
	default:
		room = solver.random.Uint64N(uint64(len(encoding.rooms)))
	}
	individual.genes[gene] = indexer.Index(day, start, room)
}

func (solver *GeneticSolver) fitness(encoding *encoding, genes []uint64) float64 {
	solution := encoding.decode(genes)
	engine := encoding.problem.Engine

	penalties := overlapPenalty*float64(len(engine.Conflicts(solution))) +
		preferencePenalty*float64(engine.UnmetPreferences(solution)) +
		consecutivePenalty*float64(engine.ExcessConsecutive(solution))

	bonuses := loadBalanceBonus(encoding.problem.Sessions) +
		dayDistributionBonus(solution, encoding.problem.Window) +
		roomUtilizationBonus(solution, len(encoding.rooms))

	return baseFitness - penalties + bonuses
}

// loadBalanceBonus reaches its maximum when every teacher has the same weekly minutes
func loadBalanceBonus(sessions []model.Session) float64 {
	loads := lo.Values(lo.MapValues(
		lo.GroupBy(sessions, func(session model.Session) string { return session.TeacherId }),
		func(group []model.Session, _ string) float64 {
			return float64(lo.SumBy(group, func(session model.Session) int { return session.DurationMinutes }))
		},
	))
	slices.Sort(loads)
	// Variance in squared hours
	return maxLoadBonus / (1 + variance(loads)/3600)
}

// dayDistributionBonus reaches its maximum when every day of the window holds as many sessions
func dayDistributionBonus(solution model.Solution, window domain.Window) float64 {
	perDay := lo.CountValuesBy(solution, func(assignment model.Assignment) int { return assignment.Day })
	counts := lo.Map(window.Days, func(day int, _ int) float64 { return float64(perDay[day]) })
	return maxDistributionBonus / (1 + math.Sqrt(variance(counts)))
}

func roomUtilizationBonus(solution model.Solution, rooms int) float64 {
	if rooms == 0 {
		return 0
	}
	used := len(lo.UniqBy(solution, func(assignment model.Assignment) string { return assignment.RoomId }))
	ratio := float64(used) / float64(rooms)
	switch {
	case ratio > 0.9:
		return overUtilizationBonus
	case ratio >= 0.6:
		return utilizationBonus
	default:
		return 0
	}
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := lo.Sum(values) / float64(len(values))
	return lo.SumBy(values, func(value float64) float64 { return (value - mean) * (value - mean) }) / float64(len(values))
}

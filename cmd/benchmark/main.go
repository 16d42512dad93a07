package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/limaJavier/termtable/pkg/model"
	"github.com/limaJavier/termtable/pkg/scheduler"
	"github.com/samber/lo"
)

const resultsFile = "benchmark_results.csv"

type InstanceMetadata struct {
	Name     string
	Classes  int
	Teachers int
	Rooms    int
	Courses  int
	Sessions int
}

type BenchmarkResult struct {
	Instance    string  `csv:"instance"`
	Strategy    string  `csv:"strategy"`
	Classes     int     `csv:"classes"`
	Teachers    int     `csv:"teachers"`
	Rooms       int     `csv:"rooms"`
	Courses     int     `csv:"courses"`
	Sessions    int     `csv:"sessions"`
	Duration    int64   `csv:"duration_ms"`
	Result      string  `csv:"result"`
	Score       float64 `csv:"score"`
	Conflicts   int     `csv:"conflicts"`
	FillRate    float64 `csv:"fill_rate"`
	Compliance  float64 `csv:"compliance"`
	Generations int     `csv:"generations"`
}

// Sizes of the synthetic instances, as (classes, subjects per class)
var sizes = [][2]int{{1, 3}, {2, 4}, {4, 5}, {6, 6}, {8, 6}}

func main() {
	seed := flag.Uint64("seed", 1, "Seed used to generate instances and drive the genetic solver")
	generations := flag.Int("generations", 200, "Generations of the genetic solver")
	outFile := flag.String("out", resultsFile, "Path to the CSV file where the results will be written")
	flag.Parse()

	random := rand.New(rand.NewPCG(*seed, *seed))
	strategies := []scheduler.Strategy{scheduler.Exact, scheduler.Genetic}
	results := make([]*BenchmarkResult, 0, len(sizes)*len(strategies))

	for _, size := range sizes {
		input, metadata := generateInstance(size[0], size[1], random)
		for _, strategy := range strategies {
			fmt.Printf("Benchmarking instance \"%v\" with strategy \"%v\"\n", metadata.Name, strategy)

			options := scheduler.DefaultOptions()
			options.Strategy = strategy
			options.Seed = *seed
			options.Genetic.Generations = *generations
			results = append(results, measure(input, metadata, options))
		}
	}

	file, err := os.Create(*outFile)
	if err != nil {
		log.Fatalf("cannot create CSV file: %v", err)
	}
	defer file.Close()
	if err := gocsv.MarshalFile(&results, file); err != nil {
		log.Fatalf("cannot write CSV file: %v", err)
	}
}

func measure(input model.Input, metadata InstanceMetadata, options scheduler.Options) *BenchmarkResult {
	row := &BenchmarkResult{
		Instance: metadata.Name,
		Strategy: string(options.Strategy),
		Classes:  metadata.Classes,
		Teachers: metadata.Teachers,
		Rooms:    metadata.Rooms,
		Courses:  metadata.Courses,
		Sessions: metadata.Sessions,
	}

	start := time.Now()
	result, err := scheduler.New(options, nil, nil).Generate(input)
	row.Duration = time.Since(start).Milliseconds()

	var infeasible model.InfeasibleScheduleError
	if errors.As(err, &infeasible) {
		row.Result = lo.Ternary(infeasible.BudgetExhausted, "timeout", "infeasible")
		return row
	} else if err != nil {
		log.Fatalf("an error occurred at instance \"%v\" using strategy \"%v\": %v", metadata.Name, options.Strategy, err)
	}

	row.Result = lo.Ternary(len(result.Report.Conflicts) == 0, "solved", "conflicts")
	row.Score = result.Report.Score
	row.Conflicts = len(result.Report.Conflicts)
	row.FillRate = result.Report.FillRate
	row.Compliance = result.Report.ComplianceRatio
	if result.GeneticStats != nil {
		row.Generations = result.GeneticStats.Generations
	}
	return row
}

// generateInstance builds a feasible-looking input: every class takes one course per subject, teachers are
// shared between classes and there are enough rooms of each type for the classes to run in parallel.
func generateInstance(classes, subjects int, random *rand.Rand) (model.Input, InstanceMetadata) {
	teachers := max(1, classes*subjects/3)
	input := model.Input{}

	preferences := []model.TimePreference{model.Indifferent, model.Morning, model.Afternoon}
	for i := range teachers {
		input.Teachers = append(input.Teachers, model.Teacher{
			Id:                    fmt.Sprintf("t%d", i+1),
			Name:                  fmt.Sprintf("Teacher %d", i+1),
			WeeklyContractMinutes: 20 * 60,
			TimePreference:        preferences[random.IntN(len(preferences))],
		})
	}

	for i := range classes {
		input.Rooms = append(input.Rooms, model.Room{
			Id:       fmt.Sprintf("c%d", i+1),
			Capacity: 40,
			RoomType: "classroom",
		})
		if i%2 == 0 {
			input.Rooms = append(input.Rooms, model.Room{
				Id:        fmt.Sprintf("l%d", i/2+1),
				Capacity:  25,
				RoomType:  "laboratory",
				Equipment: []string{"projector"},
			})
		}
	}

	for class := range classes {
		for subject := range subjects {
			courseType := lo.Ternary(subject%3 == 2, model.Lab, model.Lecture)
			input.Courses = append(input.Courses, model.Course{
				Id:                     fmt.Sprintf("k%d-s%d", class+1, subject+1),
				ClassId:                fmt.Sprintf("k%d", class+1),
				SubjectId:              fmt.Sprintf("s%d", subject+1),
				TeacherId:              input.Teachers[random.IntN(teachers)].Id,
				WeeklyVolumeMinutes:    60 * (2 + random.IntN(3)),
				StandardSessionMinutes: 60,
				CourseType:             courseType,
				MaxHeadcount:           lo.Ternary(courseType == model.Lab, 20, 30),
			})
		}
	}

	input.Constraints = []model.Constraint{
		{
			Id:            "preference",
			Name:          "time_preference",
			Severity:      model.Soft,
			Category:      model.Pedagogical,
			Weight:        2,
			SeverityLevel: 3,
			Active:        true,
		},
		{
			Id:            "spread",
			Name:          "day_spread",
			Severity:      model.Soft,
			Category:      model.Pedagogical,
			Weight:        1,
			SeverityLevel: 2,
			Parameters:    map[string]any{"minDays": 2, "scope": "course"},
			Active:        true,
		},
	}

	metadata := InstanceMetadata{
		Name:     fmt.Sprintf("k%d-s%d", classes, subjects),
		Classes:  classes,
		Teachers: teachers,
		Rooms:    len(input.Rooms),
		Courses:  len(input.Courses),
		Sessions: lo.SumBy(input.Courses, func(course model.Course) int { return course.Sessions() }),
	}
	return input, metadata
}

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/limaJavier/termtable/internal/config"
	"github.com/limaJavier/termtable/internal/logger"
	"github.com/limaJavier/termtable/internal/metrics"
	"github.com/limaJavier/termtable/pkg/model"
	"github.com/limaJavier/termtable/pkg/scheduler"
	"go.uber.org/zap"
)

// Exit codes
const (
	exitSolved     = 10
	exitConflicts  = 15
	exitInfeasible = 20
)

func main() {
	// Define arguments
	strategyPtr := flag.String("strategy", "", `Strategy to build the timetable. Allowed values are:
- "exact" (backtracking search, every hard constraint holds or no timetable is returned),
- "genetic" (evolutionary search, always returns a timetable that may carry conflicts) and
- "fallback" (exact search first, genetic search when it fails); overrides the configured strategy`)
	filePathPtr := flag.String("file", "", "Path to the JSON input file")
	dirPathPtr := flag.String("dir", "", "Path to a directory holding courses.csv, teachers.csv, rooms.csv and optionally availability.csv and constraints.csv")
	configPathPtr := flag.String("config", "", "Path to a yaml, json or toml configuration file; TERMTABLE_* environment variables take precedence")
	seedPtr := flag.Uint64("seed", 0, "Seed of the genetic solver; 0 keeps the configured seed")
	outFilePathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	metricsPathPtr := flag.String("metrics", "", "Path to a Prometheus textfile where run metrics will be written")
	flag.Parse()
	filePath := *filePathPtr
	dirPath := *dirPathPtr
	outFile := *outFilePathPtr

	// Validate arguments
	if filePath == "" && dirPath == "" {
		log.Fatal("an input file or directory must be specified")
	} else if filePath != "" && dirPath != "" {
		log.Fatal("only one of -file and -dir can be specified")
	}

	cfg, err := config.Load(*configPathPtr)
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}
	if *strategyPtr != "" {
		cfg.Strategy = strings.ToLower(*strategyPtr)
	}
	if *seedPtr != 0 {
		cfg.Genetic.Seed = *seedPtr
	}
	options, err := cfg.SchedulerOptions()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer zapLogger.Sync()

	// Extract input
	var input model.Input
	if filePath != "" {
		input, err = model.InputFromJson(filePath)
	} else {
		input, err = model.InputFromCsv(dirPath)
	}
	if err != nil {
		log.Fatalf("cannot parse input: %v", err)
	}

	// Build timetable
	recorder := metrics.New()
	result, err := scheduler.New(options, zapLogger, recorder).Generate(input)
	writeMetrics(*metricsPathPtr, recorder, zapLogger)

	var infeasible model.InfeasibleScheduleError
	if errors.As(err, &infeasible) {
		zapLogger.Sync()
		fmt.Fprintln(os.Stderr, infeasible.Error())
		os.Exit(exitInfeasible)
	} else if err != nil {
		log.Fatalf("an error occurred during timetable construction: %v", err)
	}

	// Marshal output into json
	resultJson, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("an error occurred while building output json: %v", err)
	}

	// Verify outfile is empty, if so then write the results to the Standard Output
	if outFile == "" {
		fmt.Println(string(resultJson))
	} else {
		err := os.WriteFile(outFile, resultJson, 0666)
		if err != nil {
			log.Fatalf("an error occurred while writing to the output file: %v", err)
		}
	}

	zapLogger.Sync()
	if len(result.Report.Conflicts) > 0 {
		os.Exit(exitConflicts)
	}
	os.Exit(exitSolved)
}

func writeMetrics(path string, recorder *metrics.Metrics, zapLogger *zap.Logger) {
	if path == "" {
		return
	}
	if err := recorder.WriteTextfile(path); err != nil {
		zapLogger.Error("cannot write metrics textfile", zap.String("path", path), zap.Error(err))
	}
}

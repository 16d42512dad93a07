package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	EnvPrefix = "TERMTABLE"
)

var validate = validator.New()

type Config struct {
	Env      string `validate:"oneof=development production"`
	Strategy string `validate:"oneof=exact genetic fallback"`

	Window        WindowConfig
	Compatibility map[string][]string
	Exact         ExactConfig
	Genetic       GeneticConfig
	Rules         RulesConfig
	Log           LogConfig
}

// WindowConfig is the weekly operating window; days accept names, abbreviations or indices
type WindowConfig struct {
	Days        []string `validate:"min=1,dive,required"`
	Start       string   `validate:"required"`
	End         string   `validate:"required"`
	Granularity int      `validate:"gt=0"`
}

type ExactConfig struct {
	Budget int `validate:"gt=0"`
}

type GeneticConfig struct {
	PopulationSize int     `validate:"gt=0"`
	Generations    int     `validate:"gte=0"`
	ElitismCount   int     `validate:"gte=0,ltefield=PopulationSize"`
	TournamentSize int     `validate:"gte=1"`
	CrossoverRate  float64 `validate:"gte=0,lte=1"`
	MutationRate   float64 `validate:"gte=0,lte=1"`
	Seed           uint64  // 0 seeds from the clock
	RepairRooms    bool
}

type RulesConfig struct {
	ConsecutiveThreshold  int    `validate:"gte=0"`
	DefaultMaxConsecutive int    `validate:"gte=1"`
	Noon                  string `validate:"required"`
}

type LogConfig struct {
	Level  string
	Format string `validate:"oneof=json console"`
}

// Load reads an optional .env file, an optional configuration file (yaml, json or toml) and TERMTABLE_*
// environment variables, in increasing priority
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config file %v not found: %w", path, err)
			}
			return nil, fmt.Errorf("cannot read config file %v: %w", path, err)
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("env")
	cfg.Strategy = strings.ToLower(v.GetString("strategy"))

	cfg.Window = WindowConfig{
		Days:        splitAndTrim(v.GetStringSlice("window.days")),
		Start:       v.GetString("window.start"),
		End:         v.GetString("window.end"),
		Granularity: v.GetInt("window.granularity"),
	}

	cfg.Compatibility = v.GetStringMapStringSlice("compatibility")

	cfg.Exact = ExactConfig{
		Budget: v.GetInt("exact.budget"),
	}

	cfg.Genetic = GeneticConfig{
		PopulationSize: v.GetInt("genetic.population"),
		Generations:    v.GetInt("genetic.generations"),
		ElitismCount:   v.GetInt("genetic.elitism"),
		TournamentSize: v.GetInt("genetic.tournament"),
		CrossoverRate:  v.GetFloat64("genetic.crossover"),
		MutationRate:   v.GetFloat64("genetic.mutation"),
		Seed:           v.GetUint64("genetic.seed"),
		RepairRooms:    v.GetBool("genetic.repair_rooms"),
	}

	cfg.Rules = RulesConfig{
		ConsecutiveThreshold:  v.GetInt("rules.consecutive_threshold"),
		DefaultMaxConsecutive: v.GetInt("rules.default_max_consecutive"),
		Noon:                  v.GetString("rules.noon"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("strategy", "exact")

	v.SetDefault("window.days", []string{"Mon", "Tue", "Wed", "Thu", "Fri"})
	v.SetDefault("window.start", "08:00")
	v.SetDefault("window.end", "18:00")
	v.SetDefault("window.granularity", 60)

	v.SetDefault("exact.budget", 10000)

	v.SetDefault("genetic.population", 100)
	v.SetDefault("genetic.generations", 1000)
	v.SetDefault("genetic.elitism", 10)
	v.SetDefault("genetic.tournament", 5)
	v.SetDefault("genetic.crossover", 0.8)
	v.SetDefault("genetic.mutation", 0.1)
	v.SetDefault("genetic.seed", 0)
	v.SetDefault("genetic.repair_rooms", false)

	v.SetDefault("rules.consecutive_threshold", 15)
	v.SetDefault("rules.default_max_consecutive", 3)
	v.SetDefault("rules.noon", "12:00")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Days may also arrive as a single comma separated value
func splitAndTrim(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}

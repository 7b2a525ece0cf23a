package hexpatch

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pingcap/errors"

	"hexpatch/patch"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "HEXPATCH"

var (
	ErrInvalidMaxReplacements = errors.New("max replacements must not be negative")
	ErrInvalidDumpContext     = errors.New("dump context must not be negative")
)

// Config holds the environment defaults of a patch run. Command line flags
// take precedence over every field.
type Config struct {
	MaxReplacements int    `envconfig:"MAX_REPLACEMENTS" default:"1048576"`
	DumpContext     int    `envconfig:"DUMP_CONTEXT" default:"0"`
	MetricsFile     string `envconfig:"METRICS_FILE"`
	Verbose         bool   `envconfig:"VERBOSE" default:"false"`
	Color           bool   `envconfig:"COLOR" default:"true"`
}

func DefaultConfig() Config {
	return Config{
		MaxReplacements: patch.DefaultMaxReplacements,
		Color:           true,
	}
}

// LoadConfig seeds the environment from envFile, when that file exists, and
// reads the HEXPATCH_* variables. Variables already set are not overridden
// by the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, errors.Annotatef(err, "load %s", envFile)
			}
		}
	}

	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, errors.Trace(err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	if cfg.MaxReplacements < 0 {
		return errors.Annotatef(ErrInvalidMaxReplacements, "got %d", cfg.MaxReplacements)
	}
	if cfg.DumpContext < 0 {
		return errors.Annotatef(ErrInvalidDumpContext, "got %d", cfg.DumpContext)
	}
	return nil
}

// Options converts the configuration into patcher options.
func (cfg Config) Options(test bool) Options {
	return Options{
		Test:            test,
		MaxReplacements: cfg.MaxReplacements,
		DumpContext:     cfg.DumpContext,
		MetricsFile:     cfg.MetricsFile,
		Verbose:         cfg.Verbose,
		Color:           cfg.Color,
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dkoosis/rollup/pkg/ordering"
	"github.com/dkoosis/rollup/pkg/render"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "ROLLUP"

// FileName is the config file looked up in each search directory.
const FileName = ".rollup.yaml"

// Config is the fully resolved configuration.
type Config struct {
	MaxChildren     int          `mapstructure:"max_children"`
	OrderBy         string       `mapstructure:"order_by"`
	TestTieBreak    string       `mapstructure:"test_tie_break"`
	ProblemTieBreak string       `mapstructure:"problem_tie_break"`
	SplitByBuild    bool         `mapstructure:"split_by_build"`
	GroupParallel   bool         `mapstructure:"group_parallel"`
	Format          string       `mapstructure:"format"`
	Theme           string       `mapstructure:"theme"`
	Log             LogConfig    `mapstructure:"log"`
	Server          ServerConfig `mapstructure:"server"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP query service.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Format names accepted in addition to the renderer formats.
const FormatAuto = "auto"

// MaxChildrenLimit bounds max_children.
const MaxChildrenLimit = 1000

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxChildren:     5,
		OrderBy:         ordering.DefaultNodeOrder,
		TestTieBreak:    ordering.NewestFailureFirst,
		ProblemTieBreak: ordering.NewestFirst,
		SplitByBuild:    true,
		GroupParallel:   false,
		Format:          FormatAuto,
		Theme:           "default",
		Log: LogConfig{
			Level:  "warn",
			Format: "human",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// flagKeys maps config keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"max_children":      "max-children",
	"order_by":          "order-by",
	"test_tie_break":    "test-tie-break",
	"problem_tie_break": "problem-tie-break",
	"split_by_build":    "split-by-build",
	"group_parallel":    "group-parallel",
	"format":            "format",
	"theme":             "theme",
	"log.level":         "log-level",
	"log.format":        "log-format",
	"server.addr":       "addr",
}

// Options control where Load looks.
type Options struct {
	// File, when set, is the only config file read; it must exist.
	File string
	// Dirs are searched in order for FileName. Nil means the working
	// directory then the user config directory.
	Dirs []string
	// Flags are bound on top of everything else. Only flags the user
	// changed take effect.
	Flags *pflag.FlagSet
}

// Load resolves the configuration from defaults, file, environment and
// flags, then validates it.
func Load(opts Options) (*Resolved, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for key, name := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	file, err := readFile(v, opts)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Resolved{Config: cfg, File: file, v: v, flags: opts.Flags}, nil
}

func readFile(v *viper.Viper, opts Options) (string, error) {
	v.SetConfigType("yaml")
	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("reading config %s: %w", opts.File, err)
		}
		return opts.File, nil
	}

	dirs := opts.Dirs
	if dirs == nil {
		dirs = []string{"."}
		if dir, err := os.UserConfigDir(); err == nil {
			dirs = append(dirs, filepath.Join(dir, "rollup"))
		}
	}
	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("max_children", d.MaxChildren)
	v.SetDefault("order_by", d.OrderBy)
	v.SetDefault("test_tie_break", d.TestTieBreak)
	v.SetDefault("problem_tie_break", d.ProblemTieBreak)
	v.SetDefault("split_by_build", d.SplitByBuild)
	v.SetDefault("group_parallel", d.GroupParallel)
	v.SetDefault("format", d.Format)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.addr", d.Server.Addr)
}

// Validate checks every value that later stages would otherwise reject
// one by one.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxChildren < 0 || c.MaxChildren > MaxChildrenLimit {
		errs = append(errs, &ConfigError{Field: "max_children", Message: fmt.Sprintf("must be between 0 and %d", MaxChildrenLimit)})
	}
	if _, err := ordering.ParseNodeOrder(c.OrderBy); err != nil {
		errs = append(errs, &ConfigError{Field: "order_by", Message: err.Error()})
	}
	if _, err := ordering.TestTieBreak(c.TestTieBreak); err != nil {
		errs = append(errs, &ConfigError{Field: "test_tie_break", Message: err.Error()})
	}
	if _, err := ordering.ProblemTieBreak(c.ProblemTieBreak); err != nil {
		errs = append(errs, &ConfigError{Field: "problem_tie_break", Message: err.Error()})
	}
	formats := []string{FormatAuto, render.FormatTerminal, render.FormatLLM, render.FormatJSON}
	if !slices.Contains(formats, c.Format) {
		errs = append(errs, &ConfigError{Field: "format", Message: "want one of " + strings.Join(formats, ", ")})
	}
	if !slices.Contains(render.ThemeNames(), c.Theme) {
		errs = append(errs, &ConfigError{Field: "theme", Message: "want one of " + strings.Join(render.ThemeNames(), ", ")})
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)) {
		errs = append(errs, &ConfigError{Field: "log.level", Message: "want debug, info, warn or error"})
	}
	if c.Log.Format != "human" && c.Log.Format != "json" {
		errs = append(errs, &ConfigError{Field: "log.format", Message: "want human or json"})
	}
	return errors.Join(errs...)
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// Package config holds ppdoc's run configuration.
//
// Values are layered: command-line flags win over PPDOC_* environment
// variables, which win over a .ppdoc.yaml or .ppdoc.toml file in the
// module root, which wins over the flag defaults.
//
//	cfg := config.NewConfig()
//	cfg.RegisterFlags(rootCmd.Flags())
//	cfg.RegisterCompletions(rootCmd)
//	...
//	err := cfg.Load(rootCmd.Flags(), moduleRoot)
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/phobologic/ppdoc/internal/log"
	"github.com/phobologic/ppdoc/internal/markdown"
)

// ErrInvalidConfig indicates a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	// Stdout is the Output value that writes to standard output.
	Stdout = "-"

	// DefaultMaxFileSize is the largest source unit read by default.
	DefaultMaxFileSize int64 = 1 << 20

	envPrefix      = "PPDOC"
	configFileName = ".ppdoc"
)

// Flags holds CLI flag names, allowing callers to customize flag names
// while keeping sensible defaults via [NewConfig].
type Flags struct {
	Output      string
	Title       string
	Exclude     string
	MaxFileSize string
	LogLevel    string
	LogFormat   string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{Flags: f}
}

// Config holds the values of one ppdoc run.
type Config struct {
	Output      string   `mapstructure:"output"`
	Title       string   `mapstructure:"title"`
	Exclude     []string `mapstructure:"exclude"`
	MaxFileSize int64    `mapstructure:"max_file_size"`
	LogLevel    string   `mapstructure:"log_level"`
	LogFormat   string   `mapstructure:"log_format"`

	Flags Flags `mapstructure:"-"`
}

// NewConfig returns a new [Config] with the default flag names.
func NewConfig() *Config {
	f := Flags{
		Output:      "output",
		Title:       "title",
		Exclude:     "exclude",
		MaxFileSize: "max-file-size",
		LogLevel:    "log-level",
		LogFormat:   "log-format",
	}

	return f.NewConfig()
}

// RegisterFlags adds the configuration flags to flags.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.Output, c.Flags.Output, "o", Stdout,
		"write the reference to this file ('-' for stdout)")
	flags.StringVar(&c.Title, c.Flags.Title, markdown.DefaultTitle,
		"document title")
	flags.StringSliceVar(&c.Exclude, c.Flags.Exclude, nil,
		"gitignore-style patterns of files to leave out (repeatable)")
	flags.Int64Var(&c.MaxFileSize, c.Flags.MaxFileSize, DefaultMaxFileSize,
		"skip source files larger than this many bytes")
	flags.StringVar(&c.LogLevel, c.Flags.LogLevel, "warn",
		fmt.Sprintf("log level, one of: %s", strings.Join(log.GetAllLevelStrings(), ", ")))
	flags.StringVar(&c.LogFormat, c.Flags.LogFormat, string(log.FormatText),
		fmt.Sprintf("log format, one of: %s", strings.Join(log.GetAllFormatStrings(), ", ")))
}

// RegisterCompletions registers shell completions for the flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.LogLevel,
		cobra.FixedCompletions(log.GetAllLevelStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering log-level completion: %w", err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.LogFormat,
		cobra.FixedCompletions(log.GetAllFormatStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering log-format completion: %w", err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.Output,
		func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"md"}, cobra.ShellCompDirectiveFilterFileExt
		})
	if err != nil {
		return fmt.Errorf("registering output completion: %w", err)
	}

	return nil
}

// Load layers the config file in dir, the environment and the flags
// registered on flags into c, then validates the result.
func (c *Config) Load(flags *pflag.FlagSet, dir string) error {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"output":        c.Flags.Output,
		"title":         c.Flags.Title,
		"exclude":       c.Flags.Exclude,
		"max_file_size": c.Flags.MaxFileSize,
		"log_level":     c.Flags.LogLevel,
		"log_format":    c.Flags.LogFormat,
	}
	for key, name := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("flag %q not registered", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %q: %w", name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		WeaklyTypedInput: true,
		Result:           c,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return c.Validate()
}

// Validate checks value ranges and the log settings.
func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max file size must be positive, got %d", ErrInvalidConfig, c.MaxFileSize)
	}
	if _, err := log.GetLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := log.GetFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// WritesStdout reports whether the reference goes to standard output.
func (c *Config) WritesStdout() bool {
	return c.Output == "" || c.Output == Stdout
}

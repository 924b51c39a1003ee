package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	FrontendPlain = "plain" // raw terminal with ANSI cursor control
	FrontendTUI   = "tui"   // bubbletea program
	FrontendTcell = "tcell" // tcell screen

	DefaultSocketPath = "/tmp/pomodoro.sock"

	envPrefix = "POMODORO"

	// maxMinutes is the most whole minutes a time.Duration can hold.
	maxMinutes = math.MaxInt64 / int64(time.Minute)
)

var (
	// ErrHelp is matched by the error Parse returns when -h/--help is given.
	// The error text is the usage message.
	ErrHelp = errors.New("help requested")

	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the immutable timer configuration handed to the engine.
type Config struct {
	WorkDuration          time.Duration
	ShortBreakDuration    time.Duration
	LongBreakDuration     time.Duration
	CyclesBeforeLongBreak uint

	Frontend   string
	LogPath    string
	Control    bool
	SocketPath string
}

// fileConfig mirrors the flag names so that flags, environment variables and
// config files all decode into the same shape.
type fileConfig struct {
	Work       uint   `mapstructure:"work" yaml:"work"`
	ShortBreak uint   `mapstructure:"short-break" yaml:"short-break"`
	LongBreak  uint   `mapstructure:"long-break" yaml:"long-break"`
	Cycles     uint   `mapstructure:"cycles" yaml:"cycles"`
	UI         string `mapstructure:"ui" yaml:"ui"`
	Log        string `mapstructure:"log" yaml:"log,omitempty"`
	Control    bool   `mapstructure:"control" yaml:"control"`
	Socket     string `mapstructure:"socket" yaml:"socket"`
}

// Default returns the classic 25/5/15 schedule with a long break every 4 cycles.
func Default() Config {
	return Config{
		WorkDuration:          25 * time.Minute,
		ShortBreakDuration:    5 * time.Minute,
		LongBreakDuration:     15 * time.Minute,
		CyclesBeforeLongBreak: 4,
		Frontend:              FrontendPlain,
		SocketPath:            DefaultSocketPath,
	}
}

// RegisterFlags adds every option to fs. Defaults come from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.UintP("work", "w", minutes(d.WorkDuration), "Set work duration in minutes")
	fs.UintP("short-break", "s", minutes(d.ShortBreakDuration), "Set short break duration in minutes")
	fs.UintP("long-break", "l", minutes(d.LongBreakDuration), "Set long break duration in minutes")
	fs.UintP("cycles", "c", d.CyclesBeforeLongBreak, "Set number of cycles before long break")
	fs.String("config", "", "Path to configuration file (defaults to ./pomodoro.yaml, ~/.config/pomodoro/pomodoro.yaml, /etc/pomodoro/pomodoro.yaml)")
	fs.String("log", "", "Path to log file (logging is discarded when empty)")
	fs.String("ui", d.Frontend, "Display frontend: plain, tui or tcell")
	fs.Bool("control", false, "Accept control commands on the unix socket")
	fs.String("socket", d.SocketPath, "Path of the control socket")
}

// Usage returns the help text for the options registered on fs.
func Usage(fs *pflag.FlagSet) string {
	return "Usage: pomodoro [options]\n\nOptions:\n" + fs.FlagUsages()
}

// Parse builds a Config from command line arguments (without the program
// name). Unknown options, missing values and non-numeric values are reported
// with the offending flag or value in the message.
func Parse(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("pomodoro", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, &helpError{usage: Usage(fs)}
		}
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return Load(fs)
}

// Load resolves the configuration from parsed flags, POMODORO_* environment
// variables and an optional config file, in that order of precedence.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pomodoro")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pomodoro")
		v.AddConfigPath("/etc/pomodoro/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("Config file not found, using flags and defaults.")
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg, err := fc.toConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Printf("Configuration loaded: %+v", cfg)
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.WorkDuration <= 0:
		return fmt.Errorf("%w: work duration must be positive", ErrInvalidConfig)
	case c.ShortBreakDuration <= 0:
		return fmt.Errorf("%w: short break duration must be positive", ErrInvalidConfig)
	case c.LongBreakDuration <= 0:
		return fmt.Errorf("%w: long break duration must be positive", ErrInvalidConfig)
	case c.CyclesBeforeLongBreak < 1:
		return fmt.Errorf("%w: cycles before long break must be at least 1", ErrInvalidConfig)
	}
	switch c.Frontend {
	case FrontendPlain, FrontendTUI, FrontendTcell:
	default:
		return fmt.Errorf("%w: unknown ui %q (want plain, tui or tcell)", ErrInvalidConfig, c.Frontend)
	}
	return nil
}

// YAML renders the configuration in the same shape a config file uses.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(fromConfig(c))
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return out, nil
}

func (fc fileConfig) toConfig() (Config, error) {
	for _, d := range []struct {
		name string
		min  uint
	}{
		{"work", fc.Work},
		{"short-break", fc.ShortBreak},
		{"long-break", fc.LongBreak},
	} {
		if uint64(d.min) > uint64(maxMinutes) {
			return Config{}, fmt.Errorf("%w: %s duration of %d minutes is too long (max %d)", ErrInvalidConfig, d.name, d.min, maxMinutes)
		}
	}
	return Config{
		WorkDuration:          time.Duration(fc.Work) * time.Minute,
		ShortBreakDuration:    time.Duration(fc.ShortBreak) * time.Minute,
		LongBreakDuration:     time.Duration(fc.LongBreak) * time.Minute,
		CyclesBeforeLongBreak: fc.Cycles,
		Frontend:              fc.UI,
		LogPath:               fc.Log,
		Control:               fc.Control,
		SocketPath:            fc.Socket,
	}, nil
}

func fromConfig(c Config) fileConfig {
	return fileConfig{
		Work:       minutes(c.WorkDuration),
		ShortBreak: minutes(c.ShortBreakDuration),
		LongBreak:  minutes(c.LongBreakDuration),
		Cycles:     c.CyclesBeforeLongBreak,
		UI:         c.Frontend,
		Log:        c.LogPath,
		Control:    c.Control,
		Socket:     c.SocketPath,
	}
}

func minutes(d time.Duration) uint {
	return uint(d / time.Minute)
}

type helpError struct {
	usage string
}

func (e *helpError) Error() string { return e.usage }

func (e *helpError) Is(target error) bool { return target == ErrHelp }

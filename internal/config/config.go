// Package config loads conda-switch settings from flags, environment and an
// optional YAML file, layered over one of the built-in profiles.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"condaswitch/internal/model"
)

const (
	// AppName names the config directory and env prefix.
	AppName = "conda-switch"
	// EnvPrefix is prepended to upper-cased keys, e.g. CONDA_SWITCH_PROFILE.
	EnvPrefix = "CONDA_SWITCH"

	ProfileCluster = "cluster"
	ProfileGeneric = "generic"
	ProfilePair    = "pair"
)

// Config keys.
const (
	KeyProfile        = "profile"
	KeySearchRoots    = "search_roots"
	KeyFallbacks      = "fallbacks"
	KeyMaxDepth       = "max_depth"
	KeyNames          = "names"
	KeyPrefixes       = "prefixes"
	KeyExclude        = "exclude"
	KeyVersionTimeout = "version_timeout"
	KeyShell          = "shell"
)

// Config drives discovery and switching.
type Config struct {
	Profile     string   `mapstructure:"profile"`
	SearchRoots []string `mapstructure:"search_roots"`
	// Fallbacks are installation paths checked directly, without traversal.
	Fallbacks []string `mapstructure:"fallbacks"`
	// MaxDepth bounds traversal below each root; 0 means unbounded.
	MaxDepth int      `mapstructure:"max_depth"`
	Names    []string `mapstructure:"names"`
	Prefixes []string `mapstructure:"prefixes"`
	// Exclude holds gitignore-style patterns pruned during traversal.
	Exclude        []string      `mapstructure:"exclude"`
	VersionTimeout time.Duration `mapstructure:"version_timeout"`
	Shell          string        `mapstructure:"shell"`
}

var (
	defaultNames   = []string{"anaconda3", "miniconda3", "miniforge3"}
	defaultExclude = []string{".git/", "node_modules/", ".cache/", "pkgs/", ".Trash/"}
)

// Defaults returns the built-in settings for a profile.
func Defaults(profile string) (Config, error) {
	base := Config{
		Profile:        profile,
		MaxDepth:       3,
		Names:          append([]string(nil), defaultNames...),
		Exclude:        append([]string(nil), defaultExclude...),
	}

	switch profile {
	case ProfileCluster, "":
		base.Profile = ProfileCluster
		base.SearchRoots = []string{
			"/cluster/apps",
			"/cluster/software",
			"/cluster/home/$USER",
			"/cluster/work/$USER",
			"/cluster/projects",
			"~",
			"~/.local",
			"~/opt",
			"~/software",
			"/opt",
			"/usr/local",
			"/usr/share",
		}
	case ProfileGeneric:
		base.MaxDepth = 0
		base.Prefixes = []string{"conda", "miniconda", "miniforge"}
		base.SearchRoots = []string{"~", "/opt", "/usr/local", "/usr/share"}
	case ProfilePair:
		base.Fallbacks = []string{"~/miniforge3", "~/anaconda3"}
	default:
		return Config{}, fmt.Errorf("unknown profile %q (want %s, %s or %s)", profile, ProfileCluster, ProfileGeneric, ProfilePair)
	}
	return base, nil
}

// Dir returns the configuration directory: $XDG_CONFIG_HOME/conda-switch,
// defaulting to ~/.config/conda-switch.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// Load reads configuration into a Config. Flags must already be bound to v.
// When file is empty the default location is tried and a missing file is
// not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	defaults, err := Defaults(v.GetString(KeyProfile))
	if err != nil {
		return Config{}, err
	}
	v.SetDefault(KeyProfile, defaults.Profile)
	v.SetDefault(KeySearchRoots, defaults.SearchRoots)
	v.SetDefault(KeyFallbacks, defaults.Fallbacks)
	v.SetDefault(KeyMaxDepth, defaults.MaxDepth)
	v.SetDefault(KeyNames, defaults.Names)
	v.SetDefault(KeyPrefixes, defaults.Prefixes)
	v.SetDefault(KeyExclude, defaults.Exclude)
	v.SetDefault(KeyVersionTimeout, defaults.VersionTimeout)
	v.SetDefault(KeyShell, "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.SearchRoots = expandAll(cfg.SearchRoots)
	cfg.Fallbacks = expandAll(cfg.Fallbacks)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}
	if len(c.Names) == 0 && len(c.Prefixes) == 0 {
		return errors.New("at least one of names or prefixes is required")
	}
	if c.VersionTimeout < 0 {
		return fmt.Errorf("version_timeout must not be negative, got %s", c.VersionTimeout)
	}
	return nil
}

func expandAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, model.ExpandHome(p))
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".kodeship.yml"

// Config is the top-level kodeship configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Project  ProjectConfig  `yaml:"project"`
	Policies PoliciesConfig `yaml:"policies"`
	Triggers TriggersConfig `yaml:"triggers"`
	Assets   AssetsConfig   `yaml:"assets"`
	Build    BuildConfig    `yaml:"build"`
	Targets  []TargetConfig `yaml:"targets"`
	Release  ReleaseConfig  `yaml:"release"`
	Web      WebConfig      `yaml:"web"`
	Gate     GateConfig     `yaml:"gate"`
}

// ProjectConfig identifies the repository being shipped.
type ProjectConfig struct {
	// Name prefixes nothing by itself; it names the web deploy project
	// and release titles when no override is set.
	Name string `yaml:"name"`

	// Manifest is the workspace Cargo.toml, relative to the repo root.
	Manifest string `yaml:"manifest"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns the kodecks defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaults(), nil
		}
		return nil, err
	}

	return Parse(data)
}

// Parse decodes YAML on top of the defaults. A config that lists its own
// targets replaces the default matrix entirely.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	cfg.Targets = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultTargets()
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Version: 1,
		Project: ProjectConfig{
			Name:     "kodecks",
			Manifest: "Cargo.toml",
		},
		Policies: DefaultPoliciesConfig(),
		Triggers: DefaultTriggersConfig(),
		Assets:   DefaultAssetsConfig(),
		Build:    DefaultBuildConfig(),
		Targets:  DefaultTargets(),
		Release:  DefaultReleaseConfig(),
		Web:      DefaultWebConfig(),
		Gate:     DefaultGateConfig(),
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rubiojr/bindplan/bridge"
	"github.com/rubiojr/bindplan/decl"
)

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates TOML config text.
func Parse(data string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateGenerate(&cfg); err != nil {
		return nil, err
	}
	if err := validateTypes(&cfg); err != nil {
		return nil, err
	}
	if err := validateOutput(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default is the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Resolve finds the config file to use: the explicit path, then
// $BINDPLAN_CONFIG, then bindplan.toml in the working directory. It
// returns the defaults when nothing was asked for and nothing exists.
func Resolve(explicit string) (*Config, string, error) {
	path := explicit
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Default(), "", nil
			}
			return nil, "", err
		}
		path = DefaultFile
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Generate.UnsafePolicy) == "" {
		cfg.Generate.UnsafePolicy = bridge.AllFunctionsSafe.String()
	}
	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "json"
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateGenerate(cfg *Config) error {
	if _, err := bridge.ParseUnsafePolicy(cfg.Generate.UnsafePolicy); err != nil {
		return fmt.Errorf("generate.unsafe_policy: %w", err)
	}
	if _, err := NewAllowlist(cfg.Generate.Allowlist); err != nil {
		return fmt.Errorf("generate.allowlist: %w", err)
	}
	return nil
}

func validateTypes(cfg *Config) error {
	for _, group := range []struct {
		key   string
		names []string
	}{
		{"types.pod_safe", cfg.Types.PodSafe},
		{"types.non_receivers", cfg.Types.NonReceivers},
	} {
		for _, name := range group.names {
			t, err := decl.ParseType(name)
			if err != nil || !t.IsNamed() {
				return fmt.Errorf("%s: %q is not a type name", group.key, name)
			}
		}
	}
	for _, word := range cfg.Naming.Reserved {
		if strings.TrimSpace(word) == "" {
			return fmt.Errorf("naming.reserved must not contain empty words")
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("output.format must be one of: json, yaml (got %q)", cfg.Output.Format)
	}
	return nil
}

// Options converts the config into analyzer options. Front-end type
// facts from the declaration batch are merged with the configured ones.
func (c *Config) Options(batch *decl.Batch) (bridge.Options, error) {
	policy, err := bridge.ParseUnsafePolicy(c.Generate.UnsafePolicy)
	if err != nil {
		return bridge.Options{}, err
	}
	opts := bridge.Options{
		UnsafePolicy:     policy,
		ExcludeUtilities: c.Generate.ExcludeUtilities,
		Reserved:         c.Naming.Reserved,
	}
	if len(c.Generate.Allowlist) > 0 {
		allow, err := NewAllowlist(c.Generate.Allowlist)
		if err != nil {
			return bridge.Options{}, err
		}
		opts.Allowlist = allow
	}
	if batch != nil {
		opts.PodSafeTypes = append(opts.PodSafeTypes, batch.PodSafeTypes...)
		opts.NonReceiverTypes = append(opts.NonReceiverTypes, batch.NonReceiverTypes...)
	}
	for _, name := range c.Types.PodSafe {
		opts.PodSafeTypes = append(opts.PodSafeTypes, decl.ParseQualifiedName(name))
	}
	for _, name := range c.Types.NonReceivers {
		opts.NonReceiverTypes = append(opts.NonReceiverTypes, decl.ParseQualifiedName(name))
	}
	return opts, nil
}

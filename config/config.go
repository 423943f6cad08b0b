// Package config loads bindplan.toml, the per-project generation
// settings: which owning types get methods, the unsafe policy, extra type
// facts and output locations.
package config

import "time"

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "bindplan.toml"

// EnvConfig names the config file when no flag does.
const EnvConfig = "BINDPLAN_CONFIG"

// Config is the decoded bindplan.toml.
type Config struct {
	Version  int      `toml:"version"`
	Generate Generate `toml:"generate"`
	Types    Types    `toml:"types"`
	Naming   Naming   `toml:"naming"`
	Output   Output   `toml:"output"`
	Watch    Watch    `toml:"watch"`
}

// Generate selects what the analyzer generates.
type Generate struct {
	// Allowlist holds owning-type patterns. "*" matches within one
	// namespace segment, "**" across segments. Owners that match no
	// pattern get no methods; an empty list allows none.
	Allowlist        []string `toml:"allowlist"`
	UnsafePolicy     string   `toml:"unsafe_policy"`
	ExcludeUtilities bool     `toml:"exclude_utilities"`
}

// Types adds type facts to the ones the front end supplies.
type Types struct {
	PodSafe      []string `toml:"pod_safe"`
	NonReceivers []string `toml:"non_receivers"`
}

// Naming extends the managed-language keyword list.
type Naming struct {
	Reserved []string `toml:"reserved"`
}

// Output names where plans, lock files and metrics are written.
type Output struct {
	Format      string `toml:"format"`
	Plan        string `toml:"plan"`
	LockFile    string `toml:"lock_file"`
	MetricsFile string `toml:"metrics_file"`
}

// Watch tunes the watch command.
type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

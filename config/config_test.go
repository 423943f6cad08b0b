package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rubiojr/bindplan/bridge"
	"github.com/rubiojr/bindplan/decl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
version = 1

[generate]
allowlist = ["ns::Widget", "ns::gadgets::*"]
unsafe_policy = "all_functions_unsafe"
exclude_utilities = true

[types]
pod_safe = ["ns::Point"]
non_receivers = ["ns::Shape"]

[naming]
reserved = ["widget"]

[output]
format = "yaml"
plan = "plan.yaml"
lock_file = "bindplan.lock"

[watch]
debounce = "1s"
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sample)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, []string{"ns::Widget", "ns::gadgets::*"}, cfg.Generate.Allowlist)
	assert.Equal(t, "all_functions_unsafe", cfg.Generate.UnsafePolicy)
	assert.True(t, cfg.Generate.ExcludeUtilities)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "bindplan.lock", cfg.Output.LockFile)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "all_functions_safe", cfg.Generate.UnsafePolicy)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)

	parsed, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"version":       "version = 3",
		"policy":        "[generate]\nunsafe_policy = \"sometimes\"",
		"pattern":       "[generate]\nallowlist = [\"ns::[\"]",
		"format":        "[output]\nformat = \"xml\"",
		"pod type":      "[types]\npod_safe = [\"int*\"]",
		"unknown key":   "[generate]\nallow = [\"x\"]",
		"empty keyword": "[naming]\nreserved = [\" \"]",
		"syntax":        "[generate",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(data)
			assert.Error(t, err)
		})
	}
}

func TestAllowlist(t *testing.T) {
	a, err := NewAllowlist([]string{"ns::Widget", "ns::gadgets::*", "deep::**"})
	require.NoError(t, err)

	tests := []struct {
		name string
		want bool
	}{
		{"ns::Widget", true},
		{"ns::Widget2", false},
		{"ns::gadgets::Knob", true},
		{"ns::gadgets::inner::Knob", false},
		{"deep::a::b::C", true},
		{"Widget", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.Allowed(decl.ParseQualifiedName(tt.name)), tt.name)
	}
	assert.Len(t, a.Patterns(), 3)
}

func TestOptions(t *testing.T) {
	cfg, err := Parse(sample)
	require.NoError(t, err)

	batch := &decl.Batch{PodSafeTypes: []decl.QualifiedName{decl.ParseQualifiedName("ns::Size")}}
	opts, err := cfg.Options(batch)
	require.NoError(t, err)

	assert.Equal(t, bridge.AllFunctionsUnsafe, opts.UnsafePolicy)
	assert.True(t, opts.ExcludeUtilities)
	assert.Equal(t, []string{"widget"}, opts.Reserved)
	assert.Equal(t, []decl.QualifiedName{
		decl.ParseQualifiedName("ns::Size"),
		decl.ParseQualifiedName("ns::Point"),
	}, opts.PodSafeTypes)
	assert.Equal(t, []decl.QualifiedName{decl.ParseQualifiedName("ns::Shape")}, opts.NonReceiverTypes)
	require.NotNil(t, opts.Allowlist)
	assert.True(t, opts.Allowlist.Allowed(decl.ParseQualifiedName("ns::gadgets::Dial")))

	opts, err = Default().Options(nil)
	require.NoError(t, err)
	assert.Nil(t, opts.Allowlist)
}

func TestOptions_AllowlistGatesMethods(t *testing.T) {
	receiver, err := decl.ParseType("Gadget*")
	require.NoError(t, err)
	spin := &decl.Declaration{Ident: "Gadget_spin", Params: []decl.Param{{Name: decl.ReceiverParam, Type: receiver}}}
	free := &decl.Declaration{Ident: "spin_all"}

	opts, err := Default().Options(nil)
	require.NoError(t, err)
	a := bridge.NewAnalyzer(opts, nil)
	res, err := a.AnalyzeFunction(spin)
	require.NoError(t, err)
	assert.Nil(t, res, "methods need an explicitly listed owner")
	res, err = a.AnalyzeFunction(free)
	require.NoError(t, err)
	assert.NotNil(t, res, "free functions are not gated")

	cfg, err := Parse("[generate]\nallowlist = [\"**\"]\n")
	require.NoError(t, err)
	opts, err = cfg.Options(nil)
	require.NoError(t, err)
	res, err = bridge.NewAnalyzer(opts, nil).AnalyzeFunction(spin)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "spin", res.ManagedName)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"yaml\"\n"), 0o644))

	cfg, used, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "yaml", cfg.Output.Format)

	t.Setenv(EnvConfig, path)
	_, used, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, path, used)

	_, _, err = Resolve(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

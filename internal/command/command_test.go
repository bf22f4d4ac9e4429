package command

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeycumines/strips/internal/config"
	"github.com/joeycumines/strips/internal/pabt"
	"github.com/joeycumines/strips/internal/strips"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const droneDomain = "testdata/drone.yaml"

func newTestRegistry(cfg *config.Config, configPath string) *Registry {
	registry := NewRegistry()
	registry.Register(NewHelpCommand(registry))
	registry.Register(NewVersionCommand("1.2.3"))
	registry.Register(NewConfigCommand(cfg, configPath))
	registry.Register(NewCheckCommand(cfg))
	registry.Register(NewCostCommand(cfg))
	registry.Register(NewApplyCommand(cfg))
	registry.Register(NewPlanCommand(cfg))
	registry.Register(NewLogCommand(cfg))
	return registry
}

func run(t *testing.T, registry *Registry, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := registry.Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRegistry_List(t *testing.T) {
	t.Parallel()
	registry := newTestRegistry(config.NewConfig(), "")
	assert.Equal(t, []string{"apply", "check", "config", "cost", "help", "log", "plan", "version"}, registry.List())

	_, err := registry.Get("fly")
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestRegistry_Run(t *testing.T) {
	t.Parallel()
	registry := newTestRegistry(config.NewConfig(), "")

	for _, args := range [][]string{nil, {"-h"}, {"--help"}} {
		out, _, err := run(t, registry, args...)
		require.NoError(t, err)
		assert.Contains(t, out, "Available commands")
	}

	_, stderr, err := run(t, registry, "fly")
	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, stderr, "Unknown command: fly")

	_, stderr, err = run(t, registry, "plan", "-bogus")
	require.Error(t, err)
	assert.Contains(t, stderr, "Usage: strips plan")

	_, _, err = run(t, registry, "check", "-h")
	require.ErrorIs(t, err, flag.ErrHelp)
}

func TestHelpCommand(t *testing.T) {
	t.Parallel()
	registry := newTestRegistry(config.NewConfig(), "")

	out, _, err := run(t, registry, "help")
	require.NoError(t, err)
	for _, name := range registry.List() {
		assert.Contains(t, out, name)
	}

	out, _, err = run(t, registry, "help", "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "Command: plan")
	assert.Contains(t, out, "Flags:")
	assert.Contains(t, out, "-max-ticks")
	assert.Contains(t, out, "-dry-run")

	out, _, err = run(t, registry, "help", "version")
	require.NoError(t, err)
	assert.NotContains(t, out, "Flags:")

	_, stderr, err := run(t, registry, "help", "fly")
	require.Error(t, err)
	assert.Contains(t, stderr, "Unknown command: fly")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()
	registry := newTestRegistry(config.NewConfig(), "")

	out, _, err := run(t, registry, "version")
	require.NoError(t, err)
	assert.Equal(t, "strips version 1.2.3\n", out)

	_, _, err = run(t, registry, "version", "extra")
	require.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("# settings\n[plan]\ntimeout 5s\n"), 0644))
	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	registry := newTestRegistry(cfg, path)

	out, _, err := run(t, registry, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration management")

	out, _, err = run(t, registry, "config", "plan.max-ticks")
	require.NoError(t, err)
	assert.Equal(t, "plan.max-ticks: 1000\n", out)

	out, _, err = run(t, registry, "config", "no.such.key")
	require.NoError(t, err)
	assert.Contains(t, out, "not found")

	out, _, err = run(t, registry, "config", "plan.max-ticks", "50")
	require.NoError(t, err)
	assert.Equal(t, "Set configuration: plan.max-ticks = 50\n", out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# settings\nplan.max-ticks 50\n[plan]\ntimeout 5s\n", string(data))

	_, stderr, err := run(t, registry, "config", "plan.max-ticks", "lots")
	require.Error(t, err)
	assert.Contains(t, stderr, "Invalid value")

	out, _, err = run(t, registry, "config", "-all")
	require.NoError(t, err)
	assert.Contains(t, out, "plan.max-ticks: 50")
	assert.Contains(t, out, "[plan]\n  timeout: 5s")

	out, _, err = run(t, registry, "config", "validate")
	require.NoError(t, err)
	assert.Equal(t, "Configuration is valid.\n", out)

	out, _, err = run(t, registry, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "plan.tick-interval")
	assert.Contains(t, out, "[check] Options:")
}

func TestConfigCommand_ValidateReportsIssues(t *testing.T) {
	t.Parallel()
	cfg := config.NewConfig()
	cfg.SetGlobalOption("log.format", "xml")
	registry := newTestRegistry(cfg, filepath.Join(t.TempDir(), "config"))

	out, _, err := run(t, registry, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "1 issue(s)")
	assert.Contains(t, out, "log.format")
}

func TestCheckCommand(t *testing.T) {
	t.Parallel()
	registry := newTestRegistry(config.NewConfig(), "")

	out, _, err := run(t, registry, "check", "-domain", droneDomain)
	require.NoError(t, err)
	assert.Contains(t, out, "Domain: "+droneDomain)
	assert.Contains(t, out, "Objects: 4, facts: 5, rules: 1, goals: 2")
	assert.Contains(t, out, "fly($entity_var1) by $entity_var0")
	assert.Contains(t, out, "$entity_var0,$entity_var1")
	assert.Contains(t, out, "Index of fly:")
	assert.Contains(t, out, "at(drone) equal_to roof  [unsatisfied]")
	assert.Contains(t, out, "fuel(drone): value >= 50  [satisfied]")

	out, _, err = run(t, registry, "check", "-domain", droneDomain, "-index=false")
	require.NoError(t, err)
	assert.NotContains(t, out, "Index of fly:")
}

func TestCheckCommand_ConfigDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.NewConfig()
	cfg.SetGlobalOption("domain.path", droneDomain)
	cfg.SetCommandOption("check", "show-index", "false")
	registry := newTestRegistry(cfg, "")

	out, _, err := run(t, registry, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Domain: "+droneDomain)
	assert.NotContains(t, out, "Index of fly:")
}

func TestCheckCommand_NoDomain(t *testing.T) {
	t.Setenv("STRIPS_DOMAIN", "")
	os.Unsetenv("STRIPS_DOMAIN")
	registry := newTestRegistry(config.NewConfig(), "")

	_, _, err := run(t, registry, "check")
	require.ErrorIs(t, err, ErrNoDomain)
}

func TestCostCommand(t *testing.T) {
	t.Parallel()
	registry := newTestRegistry(config.NewConfig(), "")

	out, _, err := run(t, registry, "cost", "-domain", droneDomain, "fly",
		"$entity_var0=drone", "$entity_var1=roof", "$float_var0=9")
	require.NoError(t, err)
	assert.Equal(t, "fly: 10\n", out)

	for _, args := range [][]string{
		{},
		{"swim"},
		{"fly", "entity_var0"},
		{"fly", "$money=3"},
		{"fly", "$float_var0=far"},
		{"fly", "$entity_var0=$entity_var1"},
	} {
		_, _, err := run(t, registry, append([]string{"cost", "-domain", droneDomain}, args...)...)
		assert.Error(t, err, "%v", args)
	}
}

func TestApplyCommand(t *testing.T) {
	t.Parallel()
	registry := newTestRegistry(config.NewConfig(), "")

	out, _, err := run(t, registry, "apply", "-domain", droneDomain, "fly", "$entity_var0=drone", "$entity_var1=park")
	require.NoError(t, err)
	assert.Contains(t, out, "fly(park) by drone: effects_applied")
	assert.Contains(t, out, "at(drone) equal_to park")
	assert.Contains(t, out, "fuel(drone) equal_to 70")

	_, _, err = run(t, registry, "apply", "-domain", droneDomain, "fly", "$entity_var0=drone")
	require.ErrorIs(t, err, strips.ErrUngroundable)
}

func TestApplyCommand_Blocked(t *testing.T) {
	t.Parallel()
	data, err := os.ReadFile(droneDomain)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), "value: 80", "value: 15", 1)), 0644))
	registry := newTestRegistry(config.NewConfig(), "")

	out, _, err := run(t, registry, "apply", "-domain", path, "fly", "$entity_var0=drone", "$entity_var1=park")
	require.ErrorIs(t, err, strips.ErrBlocked)
	assert.Contains(t, out, "fly(park) by drone: blocked")
}

func TestPlanCommand(t *testing.T) {
	t.Parallel()
	registry := newTestRegistry(config.NewConfig(), "")

	out, _, err := run(t, registry, "plan", "-domain", droneDomain, "-tick", "1ms", "-timeout", "5s")
	require.NoError(t, err)
	assert.Contains(t, out, "Goals reached after")
	assert.Contains(t, out, "at(drone) equal_to roof")
	assert.Contains(t, out, "fuel(drone) equal_to 70")
}

func TestPlanCommand_DryRun(t *testing.T) {
	t.Parallel()
	registry := newTestRegistry(config.NewConfig(), "")

	out, _, err := run(t, registry, "plan", "-domain", droneDomain, "-dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "at(drone) equal_to roof: 1 candidate action(s)")
	assert.Contains(t, out, "fly(roof) by drone\tcost 10")
	assert.Contains(t, out, "fuel(drone): value >= 50: satisfied")
}

func TestPlanCommand_TickBudget(t *testing.T) {
	t.Parallel()
	data, err := os.ReadFile(droneDomain)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "stranded.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(string(data), "value: 80", "value: 15", 1)), 0644))
	registry := newTestRegistry(config.NewConfig(), "")

	_, _, err = run(t, registry, "plan", "-domain", path, "-tick", "1ms", "-max-ticks", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan failed")
}

func TestConfigure(t *testing.T) {
	defer func(n int) { pabt.MaxGroundings = n }(pabt.MaxGroundings)
	defer pabt.SetExprCacheSize(pabt.DefaultExprCacheSize)

	cfg := config.NewConfig()
	cfg.SetGlobalOption("plan.max-groundings", "3")
	Configure(cfg)
	assert.Equal(t, 3, pabt.MaxGroundings)

	cfg.SetGlobalOption("plan.max-groundings", "0")
	Configure(cfg)
	assert.Equal(t, 3, pabt.MaxGroundings)
}

package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeycumines/strips/internal/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lampDomain = `
facts:
  - {state: lit, type: boolean, owners: [lamp], value: false}
rules:
  - name: switch-on
    actor: lamp
    effects:
      - {state: lit, type: boolean, owners: [lamp], operand: true}
goals:
  - {state: lit, type: boolean, owners: [lamp], value: true}
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STRIPS_CONFIG", filepath.Join(dir, "config"))
	t.Setenv("STRIPS_LOG_FILE", filepath.Join(dir, "strips.log"))
	for _, key := range []string{"STRIPS_DOMAIN", "STRIPS_LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	path := filepath.Join(dir, "lamp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lampDomain), 0644))
	return path
}

func TestRun(t *testing.T) {
	domainPath := setup(t)

	for _, tc := range []struct {
		name string
		args []string
		want string
	}{
		{"no command shows help", nil, "Available commands"},
		{"help command", []string{"help", "plan"}, "Command: plan"},
		{"version", []string{"version"}, "strips version " + version},
		{"check", []string{"check", "-domain", domainPath}, "rules: 1, goals: 1"},
		{"plan", []string{"plan", "-domain", domainPath, "-tick", "1ms"}, "lit(lamp) equal_to true"},
		{"debug logging", []string{"-log-level", "debug", "cost", "-domain", domainPath, "switch-on"}, "switch-on: 0"},
		{"log", []string{"log", "-n", "1"}, "level="},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tc.args, &stdout, &stderr)
			require.NoError(t, err, stderr.String())
			assert.Contains(t, stdout.String(), tc.want)
		})
	}
}

func TestRun_Errors(t *testing.T) {
	setup(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"fly"}, &stdout, &stderr)
	require.ErrorIs(t, err, command.ErrUnknownCommand)

	err = run([]string{"-h"}, &stdout, &stderr)
	require.ErrorIs(t, err, flag.ErrHelp)

	err = run([]string{"-log-level", "loud", "version"}, &stdout, &stderr)
	require.Error(t, err)

	err = run([]string{"check"}, &stdout, &stderr)
	require.ErrorIs(t, err, command.ErrNoDomain)
}

func TestRun_ConfigFile(t *testing.T) {
	domainPath := setup(t)
	configPath := filepath.Join(t.TempDir(), "custom")
	require.NoError(t, os.WriteFile(configPath, []byte("domain.path "+domainPath+"\n"), 0644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-config", configPath, "check"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Domain: "+domainPath)

	stdout.Reset()
	require.NoError(t, run([]string{"-config", configPath, "config", "plan.max-ticks", "20"}, &stdout, &stderr))
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "plan.max-ticks 20")
}

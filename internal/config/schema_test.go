package config

import (
	"strings"
	"testing"
	"time"
)

func testSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: "ticks", Type: TypeInt, Default: "10", Description: "Tick budget"},
		{Key: "fast", Type: TypeBool, Default: "true"},
		{Key: "every", Type: TypeDuration, Default: "1s", EnvVar: "STRIPS_TEST_EVERY"},
		{Key: "mode", Type: TypeString, Default: "a", Choices: []string{"a", "b"}},
		{Key: "timeout", Section: "plan", Type: TypeDuration, Default: "30s"},
	})
	return s
}

func TestSchemaLookup(t *testing.T) {
	t.Parallel()
	s := testSchema()

	if opt := s.Lookup("", "ticks"); opt == nil || opt.Type != TypeInt {
		t.Fatalf("expected ticks option, got %+v", opt)
	}
	if opt := s.Lookup("plan", "timeout"); opt == nil || opt.Default != "30s" {
		t.Fatalf("expected plan timeout option, got %+v", opt)
	}
	if s.Lookup("", "timeout") != nil {
		t.Errorf("section option must not be global")
	}
	if !s.IsKnown("plan", "ticks") {
		t.Errorf("global keys are known in sections")
	}
	if s.IsKnown("", "nope") {
		t.Errorf("unexpected known key")
	}
	if got := s.Sections(); len(got) != 1 || got[0] != "plan" {
		t.Errorf("unexpected sections %v", got)
	}
	if got := len(s.GlobalOptions()); got != 4 {
		t.Errorf("expected 4 global options, got %d", got)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()
	s := testSchema()
	c := NewConfig()
	c.SetGlobalOption("ticks", "5")
	c.SetGlobalOption("fast", "no")
	c.SetGlobalOption("mode", "B")
	c.SetCommandOption("plan", "timeout", "2m")
	if issues := ValidateConfig(c, s); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	c.SetGlobalOption("ticks", "five")
	c.SetGlobalOption("mode", "c")
	c.SetGlobalOption("colour", "red")
	c.SetCommandOption("plan", "timeout", "soon")
	c.SetCommandOption("plan", "fast", "maybe")
	issues := ValidateConfig(c, s)
	if len(issues) != 5 {
		t.Fatalf("expected 5 issues, got %d: %v", len(issues), issues)
	}
	joined := strings.Join(issues, "\n")
	for _, want := range []string{`"colour"`, "expected int", "expected one of a, b", "expected duration", "expected bool"} {
		if !strings.Contains(joined, want) {
			t.Errorf("issues missing %q:\n%s", want, joined)
		}
	}
}

func TestSchemaResolve(t *testing.T) {
	s := testSchema()
	c := NewConfig()

	if got := s.ResolveInt(c, "ticks"); got != 10 {
		t.Errorf("default ticks: got %d", got)
	}
	c.SetGlobalOption("ticks", "3")
	if got := s.ResolveInt(c, "ticks"); got != 3 {
		t.Errorf("configured ticks: got %d", got)
	}
	c.SetGlobalOption("ticks", "garbage")
	if got := s.ResolveInt(c, "ticks"); got != 10 {
		t.Errorf("unparseable ticks should fall back to default, got %d", got)
	}

	c.SetGlobalOption("fast", "off")
	if s.ResolveBool(c, "fast") {
		t.Errorf("expected fast=false")
	}

	c.SetGlobalOption("every", "5s")
	if got := s.ResolveDuration(c, "every"); got != 5*time.Second {
		t.Errorf("configured every: got %v", got)
	}
	t.Setenv("STRIPS_TEST_EVERY", "250ms")
	if got := s.ResolveDuration(c, "every"); got != 250*time.Millisecond {
		t.Errorf("env should win, got %v", got)
	}

	if got := s.Resolve(c, "unknown"); got != "" {
		t.Errorf("unknown key resolved to %q", got)
	}
}

func TestSchemaResolveCommand(t *testing.T) {
	t.Parallel()
	s := testSchema()
	c := NewConfig()

	if got := s.ResolveCommand(c, "plan", "timeout"); got != "30s" {
		t.Errorf("section default: got %q", got)
	}
	c.SetCommandOption("plan", "timeout", "1m")
	if got := s.ResolveCommand(c, "plan", "timeout"); got != "1m" {
		t.Errorf("section value: got %q", got)
	}
	if got := s.ResolveCommand(c, "plan", "ticks"); got != "10" {
		t.Errorf("global default through section: got %q", got)
	}
	c.SetCommandOption("plan", "ticks", "7")
	if got := s.ResolveCommand(c, "plan", "ticks"); got != "7" {
		t.Errorf("global key overridden in section: got %q", got)
	}
	if got := s.ResolveCommandDuration(c, "plan", "timeout"); got != time.Minute {
		t.Errorf("section duration: got %v", got)
	}
	if !s.ResolveCommandBool(c, "plan", "fast") {
		t.Error("global bool default through section: got false")
	}
	c.SetCommandOption("plan", "fast", "off")
	if s.ResolveCommandBool(c, "plan", "fast") {
		t.Error("section bool: got true")
	}
}

func TestFormatHelp(t *testing.T) {
	t.Parallel()
	help := testSchema().FormatHelp()
	for _, want := range []string{
		"Global Options:",
		"Tick budget (type: int, default: 10)",
		"one of: a|b",
		"env: STRIPS_TEST_EVERY",
		"[plan] Options:",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestDefaultSchema(t *testing.T) {
	t.Parallel()
	s := DefaultSchema()
	c := NewConfig()

	if got := s.ResolveDuration(c, "plan.tick-interval"); got != 10*time.Millisecond {
		t.Errorf("plan.tick-interval default: %v", got)
	}
	if got := s.ResolveInt(c, "plan.max-ticks"); got != 1000 {
		t.Errorf("plan.max-ticks default: %d", got)
	}
	if got := s.ResolveInt(c, "expr.cache-size"); got != 1000 {
		t.Errorf("expr.cache-size default: %d", got)
	}
	for _, opt := range s.GlobalOptions() {
		if opt.Default == "" {
			continue
		}
		if err := validateOption(&opt, opt.Default); err != nil {
			t.Errorf("default of %s is invalid: %v", opt.Key, err)
		}
	}
	for _, env := range []string{"STRIPS_LOG_LEVEL", "STRIPS_LOG_FILE", "STRIPS_DOMAIN"} {
		if !strings.Contains(s.FormatHelp(), env) {
			t.Errorf("help does not mention %s", env)
		}
	}
}

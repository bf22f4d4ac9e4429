package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Config is the parsed strips config file. Lines outside any section set
// global options such as plan.max-ticks; a [plan] or [check] section
// overrides options for that command only.
type Config struct {
	Global   map[string]string
	Commands map[string]map[string]string
	// Warnings lists problems found while reading, prefixed with the line
	// they came from. Problem lines are still recorded.
	Warnings []string
}

// NewConfig returns a Config with no options set.
func NewConfig() *Config {
	return &Config{
		Global:   map[string]string{},
		Commands: map[string]map[string]string{},
	}
}

// Load reads the config file at GetConfigPath.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config file at path. A missing file is an empty
// config and a symlinked one is an error.
func LoadFromPath(path string) (*Config, error) {
	fi, err := os.Lstat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewConfig(), nil
	case err != nil:
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	case fi.Mode()&fs.ModeSymlink != 0:
		return nil, fmt.Errorf("symlink not allowed in config path: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader parses "key value" lines, checking each one against
// DefaultSchema as it is read.
func LoadFromReader(r io.Reader) (*Config, error) {
	p := &parser{
		cfg:    NewConfig(),
		schema: DefaultSchema(),
		seen:   map[string]int{},
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		p.line++
		p.parseLine(strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}
	return p.cfg, nil
}

type parser struct {
	cfg    *Config
	schema *ConfigSchema
	line   int
	// section is the current [section], "" before the first header.
	section string
	// unknownSection suppresses per-key warnings after a bad header.
	unknownSection bool
	// seen maps section-qualified keys to the line that first set them.
	seen map[string]int
}

func (p *parser) parseLine(line string) {
	if line == "" || line[0] == '#' {
		return
	}
	if name, ok := sectionHeader(line); ok {
		p.enterSection(name)
		return
	}
	key, value, _ := strings.Cut(line, " ")
	value = strings.TrimSpace(value)

	qualified := key
	if p.section != "" {
		qualified = "[" + p.section + "] " + key
	}
	if first, dup := p.seen[qualified]; dup {
		p.warnf("%s repeats line %d, the later value wins", qualified, first)
	} else {
		p.seen[qualified] = p.line
	}
	p.check(key, value)

	if p.section == "" {
		p.cfg.Global[key] = value
	} else {
		p.cfg.Commands[p.section][key] = value
	}
}

func sectionHeader(line string) (string, bool) {
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false
	}
	return strings.TrimSpace(line[1 : len(line)-1]), true
}

func (p *parser) enterSection(name string) {
	p.section = name
	p.unknownSection = false
	if name == "" {
		return
	}
	if p.cfg.Commands[name] == nil {
		p.cfg.Commands[name] = map[string]string{}
	}
	if len(p.schema.SectionOptions(name)) == 0 {
		p.unknownSection = true
		p.warnf("unknown section [%s], expected one of %s", name, strings.Join(p.schema.Sections(), ", "))
	}
}

// check validates one entry of the current section: section options first,
// then global options, which every section may override.
func (p *parser) check(key, value string) {
	if p.unknownSection {
		return
	}
	opt := p.schema.Lookup(p.section, key)
	if opt == nil && p.section != "" {
		opt = p.schema.Lookup("", key)
	}
	switch {
	case opt == nil && p.section == "":
		p.warnf("unknown global option: %q (value: %q)", key, value)
	case opt == nil:
		p.warnf("unknown option for command %q: %q (value: %q)", p.section, key, value)
	default:
		if err := validateOption(opt, value); err != nil {
			p.warnf("option %q: %v", key, err)
		}
	}
}

func (p *parser) warnf(format string, args ...any) {
	p.cfg.Warnings = append(p.cfg.Warnings, fmt.Sprintf("line %d: ", p.line)+fmt.Sprintf(format, args...))
}

// parseBool accepts true, false, 1, 0, yes, no, on and off in any case.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value: %s", s)
}

// GetGlobalOption returns a global option as written in the file.
func (c *Config) GetGlobalOption(name string) (string, bool) {
	v, ok := c.Global[name]
	return v, ok
}

// GetCommandOption returns the [command] value of name, or the global one.
func (c *Config) GetCommandOption(command, name string) (string, bool) {
	if v, ok := c.Commands[command][name]; ok {
		return v, true
	}
	return c.GetGlobalOption(name)
}

func (c *Config) SetGlobalOption(name, value string) { c.Global[name] = value }

func (c *Config) SetCommandOption(command, name, value string) {
	if c.Commands[command] == nil {
		c.Commands[command] = map[string]string{}
	}
	c.Commands[command][name] = value
}

func (c *Config) HasWarnings() bool { return len(c.Warnings) > 0 }

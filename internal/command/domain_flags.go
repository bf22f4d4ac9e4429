package command

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joeycumines/strips/internal/config"
	"github.com/joeycumines/strips/internal/domain"
	"github.com/joeycumines/strips/internal/pabt"
	"github.com/joeycumines/strips/internal/strips"
)

// ErrNoDomain is returned when neither -domain nor domain.path names a
// domain file.
var ErrNoDomain = errors.New("no domain file: use -domain or set domain.path")

// Configure applies the planner tuning options of cfg. It must be called
// before any command runs.
func Configure(cfg *config.Config) {
	schema := config.DefaultSchema()
	if n := schema.ResolveInt(cfg, "plan.max-groundings"); n > 0 {
		pabt.MaxGroundings = n
	}
	pabt.SetExprCacheSize(schema.ResolveInt(cfg, "expr.cache-size"))
}

// domainFlags is embedded by commands that operate on a domain file.
type domainFlags struct {
	config *config.Config
	path   string
}

func (f *domainFlags) setupDomainFlag(fs *flag.FlagSet) {
	fs.StringVar(&f.path, "domain", "", "Domain file (default: domain.path from config)")
}

func (f *domainFlags) loadDomain() (*domain.Domain, error) {
	path := f.path
	if path == "" && f.config != nil {
		path = config.DefaultSchema().Resolve(f.config, "domain.path")
	}
	if path == "" {
		return nil, ErrNoDomain
	}
	d, err := domain.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("domain loaded", "path", path, "rules", len(d.Rules), "facts", d.World.Len(), "goals", len(d.Goals))
	return d, nil
}

// ruleArgs resolves "<rule> [placeholder=value...]" against d.
func ruleArgs(d *domain.Domain, args []string) (*strips.Rule, strips.Grounding, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("rule name required")
	}
	rule := d.Rule(args[0])
	if rule == nil {
		return nil, nil, fmt.Errorf("unknown rule: %s", args[0])
	}
	g, err := parseGrounding(args[1:])
	if err != nil {
		return nil, nil, err
	}
	return rule, g, nil
}

// parseGrounding parses bindings of the form $float_var0=9.
func parseGrounding(args []string) (strips.Grounding, error) {
	g := make(strips.Grounding, len(args))
	for _, arg := range args {
		key, text, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid binding %q: expected placeholder=value", arg)
		}
		placeholder, t, err := strips.ParsePlaceholder(key)
		if err != nil {
			return nil, fmt.Errorf("invalid binding %q: %w", arg, err)
		}
		v, err := strips.ParseValue(t, text)
		if err != nil {
			return nil, fmt.Errorf("invalid binding %q: %w", arg, err)
		}
		if strips.IsPlaceholder(v) {
			return nil, fmt.Errorf("invalid binding %q: value is a placeholder", arg)
		}
		g.Bind(placeholder, v)
	}
	return g, nil
}

package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/joeycumines/strips/internal/config"
	"github.com/joeycumines/strips/internal/strips"
)

// CheckCommand loads a domain and reports its rules and goals.
type CheckCommand struct {
	*BaseCommand
	domainFlags
	index bool
}

// NewCheckCommand creates a new check command.
func NewCheckCommand(cfg *config.Config) *CheckCommand {
	return &CheckCommand{
		BaseCommand: NewBaseCommand(
			"check",
			"Load a domain and report its rules and goals",
			"check [options]",
		),
		domainFlags: domainFlags{config: cfg},
	}
}

// SetupFlags configures the flags for the check command.
func (c *CheckCommand) SetupFlags(fs *flag.FlagSet) {
	c.setupDomainFlag(fs)
	showIndex := true
	if c.config != nil {
		showIndex = config.DefaultSchema().ResolveCommandBool(c.config, "check", "show-index")
	}
	fs.BoolVar(&c.index, "index", showIndex, "Print the parameter index of each rule")
}

// Execute runs the check.
func (c *CheckCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	d, err := c.loadDomain()
	if err != nil {
		return err
	}

	objects := 0
	for _, vs := range d.Objects {
		objects += len(vs)
	}
	_, _ = fmt.Fprintf(stdout, "Domain: %s\n", d.Name)
	_, _ = fmt.Fprintf(stdout, "Objects: %d, facts: %d, rules: %d, goals: %d\n", objects, d.World.Len(), len(d.Rules), len(d.Goals))

	if len(d.Rules) > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "RULE\tBASE COST\tRECURSIVE\tGROUNDED\tPLACEHOLDERS")
		for _, r := range d.Rules {
			placeholders := strings.Join(r.Placeholders(), ",")
			if placeholders == "" {
				placeholders = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%g\t%t\t%t\t%s\n", r, r.BaseCost(), r.IsRecursive(), r.IsFullyGrounded(), placeholders)
		}
		_ = w.Flush()
	}

	if c.index {
		for _, r := range d.Rules {
			printIndex(stdout, r)
		}
	}

	if len(d.Goals) > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Goals:")
		planner := d.Planner()
		for i, cond := range d.Conditions() {
			status := "unsatisfied"
			if v, err := planner.Variable(cond.Key()); err != nil {
				status = "error: " + err.Error()
			} else if cond.Match(v) {
				status = "satisfied"
			}
			_, _ = fmt.Fprintf(stdout, "  %s  [%s]\n", describeGoal(d.Goals[i].State, d.Goals[i].Expr), status)
		}
	}
	return nil
}

func printIndex(w io.Writer, r *strips.Rule) {
	idx := r.Index()
	placeholders := idx.Placeholders()
	if len(placeholders) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\nIndex of %s:\n", r.Name())
	for _, p := range placeholders {
		locs := idx.Locations(p)
		parts := make([]string, len(locs))
		for i, loc := range locs {
			parts[i] = loc.String()
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", p, strings.Join(parts, " "))
	}
}

func describeGoal(s *strips.State, expr string) string {
	if expr != "" {
		return fmt.Sprintf("%s: %s", s.Key(), expr)
	}
	return s.String()
}

package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/strips/internal/config"
	"github.com/joeycumines/strips/internal/domain"
	"github.com/joeycumines/strips/internal/pabt"
)

// PlanCommand builds a PA-BT plan for a domain's goals and ticks it until
// the goals hold.
type PlanCommand struct {
	*BaseCommand
	domainFlags
	timeout  time.Duration
	interval time.Duration
	maxTicks int
	dryRun   bool
}

// NewPlanCommand creates a new plan command.
func NewPlanCommand(cfg *config.Config) *PlanCommand {
	return &PlanCommand{
		BaseCommand: NewBaseCommand(
			"plan",
			"Plan and execute actions until the domain's goals hold",
			"plan [options]",
		),
		domainFlags: domainFlags{config: cfg},
	}
}

// SetupFlags configures the flags for the plan command. Defaults come from
// the configuration.
func (c *PlanCommand) SetupFlags(fs *flag.FlagSet) {
	cfg := c.config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	schema := config.DefaultSchema()

	c.setupDomainFlag(fs)
	fs.DurationVar(&c.timeout, "timeout", schema.ResolveCommandDuration(cfg, "plan", "timeout"), "Wall clock limit, 0 for none")
	fs.DurationVar(&c.interval, "tick", schema.ResolveDuration(cfg, "plan.tick-interval"), "Interval between ticks")
	fs.IntVar(&c.maxTicks, "max-ticks", schema.ResolveInt(cfg, "plan.max-ticks"), "Tick budget, 0 for none")
	fs.BoolVar(&c.dryRun, "dry-run", schema.ResolveCommandBool(cfg, "plan", "dry-run"), "Print the candidate actions for each unmet goal without executing")
}

// Execute plans and runs.
func (c *PlanCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	d, err := c.loadDomain()
	if err != nil {
		return err
	}
	if len(d.Goals) == 0 {
		return fmt.Errorf("domain %s declares no goals", d.Name)
	}

	planner := d.Planner()
	conditions := d.Conditions()
	if c.dryRun {
		return c.printCandidates(stdout, d, planner, conditions)
	}

	node, err := pabt.NewPlanFromConditions(planner, conditions)
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	interval := c.interval
	if interval <= 0 {
		interval = time.Millisecond
	}

	res, err := pabt.Execute(ctx, node, interval, c.maxTicks)
	slog.Info("plan finished", "domain", d.Name, "ticks", res.Ticks, "elapsed", res.Elapsed, "error", err)
	if err != nil {
		return fmt.Errorf("plan failed after %d ticks: %w", res.Ticks, err)
	}

	_, _ = fmt.Fprintf(stdout, "Goals reached after %d ticks.\n", res.Ticks)
	for _, g := range d.Goals {
		if s := d.World.Get(g.State.Key()); s != nil {
			_, _ = fmt.Fprintf(stdout, "  %s\n", s)
		}
	}
	return nil
}

func (c *PlanCommand) printCandidates(w io.Writer, d *domain.Domain, planner *pabt.State, conditions pabtpkg.IConditions) error {
	for i, cond := range conditions {
		goal := describeGoal(d.Goals[i].State, d.Goals[i].Expr)
		v, err := planner.Variable(cond.Key())
		if err != nil {
			return err
		}
		if cond.Match(v) {
			_, _ = fmt.Fprintf(w, "%s: satisfied\n", goal)
			continue
		}
		actions, err := planner.Actions(cond)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%s: %d candidate action(s)\n", goal, len(actions))
		for _, a := range actions {
			if act, ok := a.(*pabt.Action); ok {
				_, _ = fmt.Fprintf(w, "  %s\tcost %g\n", act.Name, act.Cost())
			}
		}
	}
	return nil
}

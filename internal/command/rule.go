package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/joeycumines/strips/internal/config"
	"github.com/joeycumines/strips/internal/strips"
)

// CostCommand prints the cost of a rule under a grounding.
type CostCommand struct {
	*BaseCommand
	domainFlags
}

// NewCostCommand creates a new cost command.
func NewCostCommand(cfg *config.Config) *CostCommand {
	return &CostCommand{
		BaseCommand: NewBaseCommand(
			"cost",
			"Compute the cost of a rule under a grounding",
			"cost [options] <rule> [placeholder=value...]",
		),
		domainFlags: domainFlags{config: cfg},
	}
}

// SetupFlags configures the flags for the cost command.
func (c *CostCommand) SetupFlags(fs *flag.FlagSet) {
	c.setupDomainFlag(fs)
}

// Execute computes the cost.
func (c *CostCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	d, err := c.loadDomain()
	if err != nil {
		return err
	}
	rule, g, err := ruleArgs(d, args)
	if err != nil {
		return err
	}
	cost, err := rule.Cost(g)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "%s: %g\n", rule.Name(), cost)
	return nil
}

// ApplyCommand runs a single rule attempt against the domain's facts.
type ApplyCommand struct {
	*BaseCommand
	domainFlags
}

// NewApplyCommand creates a new apply command.
func NewApplyCommand(cfg *config.Config) *ApplyCommand {
	return &ApplyCommand{
		BaseCommand: NewBaseCommand(
			"apply",
			"Ground a rule, check its preconditions and print its effects",
			"apply [options] <rule> [placeholder=value...]",
		),
		domainFlags: domainFlags{config: cfg},
	}
}

// SetupFlags configures the flags for the apply command.
func (c *ApplyCommand) SetupFlags(fs *flag.FlagSet) {
	c.setupDomainFlag(fs)
}

// Execute runs the attempt. A blocked attempt prints its phase and returns
// strips.ErrBlocked.
func (c *ApplyCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	d, err := c.loadDomain()
	if err != nil {
		return err
	}
	rule, g, err := ruleArgs(d, args)
	if err != nil {
		return err
	}

	attempt := strips.NewAttempt(rule, g)
	results, err := attempt.Run(d.World)
	slog.Debug("attempt finished", "attempt", attempt.ID(), "rule", rule.Name(), "phase", attempt.Phase())
	if err != nil {
		if errors.Is(err, strips.ErrBlocked) {
			_, _ = fmt.Fprintf(stdout, "%s: %s (degree %g)\n", attempt.Rule(), attempt.Phase(), attempt.Degree())
		}
		return err
	}

	_, _ = fmt.Fprintf(stdout, "%s: %s\n", attempt.Rule(), attempt.Phase())
	for _, s := range results {
		_, _ = fmt.Fprintf(stdout, "  %s\n", s)
	}
	return nil
}

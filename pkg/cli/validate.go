package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/cli/config"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

func cmdValidate() *cli.Command {
	var policyCfg config.Policy

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the escalation configuration file",
		Flags:   policyCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			ok := color.New(color.FgGreen).SprintFunc()
			bad := color.New(color.FgRed, color.Bold).SprintFunc()
			head := color.New(color.Bold).SprintFunc()

			path := policyCfg.Path()
			if path == "" {
				path = "(built-in defaults)"
			}
			fmt.Printf("%s %s\n", head("Validating escalation configuration:"), path)

			slaCfg, book, schedule, err := policyCfg.Configure()
			if err != nil {
				fmt.Printf("%s %v\n", bad("✗"), err)
				return goerr.Wrap(err, "configuration validation failed")
			}

			fmt.Printf("%s SLA targets: %d priorities\n", ok("✓"), len(slaCfg.Targets))
			for _, p := range sortedPriorities(slaCfg) {
				target := slaCfg.Targets[p]
				fmt.Printf("    %-3s ack=%-8s resolve=%s\n", p, target.Ack, target.Resolve)
			}

			fmt.Printf("%s Escalation policies: %d\n", ok("✓"), len(book.Policies))
			for _, policy := range book.Policies {
				fmt.Printf("    %-16s steps=%d categories=%v priorities=%v\n",
					policy.ID, len(policy.Steps), policy.Categories, policy.Priorities)
			}

			fmt.Printf("%s On-call rotations: %d\n", ok("✓"), len(schedule.Rotations))
			for _, rotation := range schedule.Rotations {
				fmt.Printf("    %-16s shifts=%d fallback=%s\n",
					rotation.Role, len(rotation.Shifts), rotation.Fallback)
			}

			// Cross-check: every policy step role must resolve in the schedule.
			missing := missingRoles(book, schedule)
			if len(missing) > 0 {
				for _, role := range missing {
					fmt.Printf("%s policy step role has no on-call rotation: %s\n", bad("✗"), role)
				}
				return goerr.New("unresolvable policy step roles", goerr.V("roles", missing))
			}

			fmt.Printf("%s Configuration is valid\n", ok("✓"))
			return nil
		},
	}
}

func sortedPriorities(cfg *model.SLAConfig) []types.Priority {
	priorities := make([]types.Priority, 0, len(cfg.Targets))
	for _, p := range types.AllPriorities() {
		if _, ok := cfg.Targets[p]; ok {
			priorities = append(priorities, p)
		}
	}
	return priorities
}

func missingRoles(book *model.PolicyBook, schedule *model.OnCallSchedule) []string {
	known := make(map[string]bool, len(schedule.Rotations))
	for _, rotation := range schedule.Rotations {
		known[rotation.Role] = true
	}

	seen := make(map[string]bool)
	var missing []string
	for _, policy := range book.Policies {
		for _, step := range policy.Steps {
			if !known[step.TargetRole] && !seen[step.TargetRole] {
				seen[step.TargetRole] = true
				missing = append(missing, step.TargetRole)
			}
		}
	}
	return missing
}

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/cli/config"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

func testCommand(flags []cli.Flag) *cli.Command {
	return &cli.Command{
		Name:  "test",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			return nil
		},
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "escalation.toml")
	gt.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func configureWithFile(t *testing.T, body string) (*config.Policy, string) {
	t.Helper()
	path := writeConfig(t, body)
	var cfg config.Policy
	cmd := testCommand(cfg.Flags())
	gt.NoError(t, cmd.Run(context.Background(), []string{"test", "--escalation-config", path}))
	return &cfg, path
}

func TestPolicyConfigureDefaults(t *testing.T) {
	var cfg config.Policy

	sla, book, schedule, err := cfg.Configure()
	gt.NoError(t, err)
	gt.Value(t, len(sla.Targets)).Equal(4)
	gt.Value(t, len(book.Policies)).Equal(1)
	gt.Value(t, book.Policies[0].ID).Equal("default")
	gt.Value(t, len(schedule.Rotations)).Equal(3)

	// Defaults must be internally consistent.
	gt.NoError(t, sla.Validate())
	gt.NoError(t, book.Validate())
	gt.NoError(t, schedule.Validate())
}

func TestPolicyConfigureFromFile(t *testing.T) {
	cfg, _ := configureWithFile(t, `
[sla.P1]
ack = "10m"
resolve = "2h"
[sla.P2]
ack = "30m"
resolve = "8h"
[sla.P3]
ack = "2h"
resolve = "24h"
[sla.P4]
ack = "8h"
resolve = "72h"

[[policy]]
id = "security"
categories = ["SECURITY"]
priorities = ["P1", "P2"]
  [[policy.step]]
  role = "security-oncall"
  timeout = "5m"
  channel = "slack"
  [[policy.step]]
  role = "security-lead"
  timeout = "10m"
  channel = "webhook"

[[policy]]
id = "default"
  [[policy.step]]
  role = "primary"
  timeout = "15m"
  channel = "slack"

[[rotation]]
role = "security-oncall"
fallback = "alice"
  [[rotation.shift]]
  responder = "bob"
  start = 2026-08-01T00:00:00Z
  end = 2026-09-01T00:00:00Z

[[rotation]]
role = "security-lead"
fallback = "carol"

[[rotation]]
role = "primary"
fallback = "dave"
`)

	sla, book, schedule, err := cfg.Configure()
	gt.NoError(t, err)

	target, err := sla.Target(types.PriorityP1)
	gt.NoError(t, err)
	gt.Value(t, target.Ack).Equal(10 * time.Minute)
	gt.Value(t, target.Resolve).Equal(2 * time.Hour)

	gt.Value(t, len(book.Policies)).Equal(2)
	policy := book.Lookup(types.CategorySecurity, types.PriorityP1)
	gt.Value(t, policy).NotNil().Required()
	gt.Value(t, policy.ID).Equal("security")
	gt.Value(t, len(policy.Steps)).Equal(2)
	gt.Value(t, policy.Steps[1].Channel).Equal(types.ChannelWebhook)

	// Shift covers August 2026.
	responder, err := schedule.Lookup("security-oncall", time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC))
	gt.NoError(t, err)
	gt.Value(t, responder).Equal("bob")

	// Outside the shift the fallback applies.
	responder, err = schedule.Lookup("security-oncall", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	gt.NoError(t, err)
	gt.Value(t, responder).Equal("alice")
}

func TestPolicyConfigureRejectsBadDuration(t *testing.T) {
	cfg, _ := configureWithFile(t, `
[[policy]]
id = "default"
  [[policy.step]]
  role = "primary"
  timeout = "soon"
  channel = "slack"
`)

	_, _, _, err := cfg.Configure()
	gt.Error(t, err)
}

func TestPolicyConfigureRequiresCatchAll(t *testing.T) {
	cfg, _ := configureWithFile(t, `
[[policy]]
id = "only-security"
categories = ["SECURITY"]
  [[policy.step]]
  role = "primary"
  timeout = "5m"
  channel = "slack"
`)

	_, _, _, err := cfg.Configure()
	gt.Error(t, err)
}

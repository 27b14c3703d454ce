package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

// Policy holds the CLI flag pointing at the escalation configuration file.
// The file is TOML with three sections: SLA targets per priority, the ordered
// escalation policies, and the on-call rotations.
type Policy struct {
	path string
}

// Flags returns CLI flags for escalation configuration
func (p *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "escalation-config",
			Usage:       "Path to escalation configuration file (TOML). Built-in defaults are used when omitted",
			Category:    "Escalation",
			Sources:     cli.EnvVars("PHOENIX_GUARDIAN_ESCALATION_CONFIG"),
			Destination: &p.path,
		},
	}
}

// Path returns the configured file path
func (p *Policy) Path() string {
	return p.path
}

type slaTargetFile struct {
	Ack     string `toml:"ack"`
	Resolve string `toml:"resolve"`
}

type stepFile struct {
	Role    string `toml:"role"`
	Timeout string `toml:"timeout"`
	Channel string `toml:"channel"`
}

type policyFile struct {
	ID         string     `toml:"id"`
	Categories []string   `toml:"categories"`
	Priorities []string   `toml:"priorities"`
	Steps      []stepFile `toml:"step"`
}

type shiftFile struct {
	Responder string    `toml:"responder"`
	Start     time.Time `toml:"start"`
	End       time.Time `toml:"end"`
}

type rotationFile struct {
	Role     string      `toml:"role"`
	Fallback string      `toml:"fallback"`
	Shifts   []shiftFile `toml:"shift"`
}

type escalationFile struct {
	SLA       map[string]slaTargetFile `toml:"sla"`
	Policies  []policyFile             `toml:"policy"`
	Rotations []rotationFile           `toml:"rotation"`
}

// Configure loads and validates the escalation configuration. Without a file
// the built-in defaults are returned.
func (p *Policy) Configure() (*model.SLAConfig, *model.PolicyBook, *model.OnCallSchedule, error) {
	if p.path == "" {
		logging.Default().Info("No escalation config specified, using built-in defaults")
		return model.DefaultSLAConfig(), defaultPolicyBook(), defaultSchedule(), nil
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, nil, nil, goerr.Wrap(err, "failed to read escalation config", goerr.V("path", p.path))
	}

	var file escalationFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, nil, nil, goerr.Wrap(err, "failed to parse escalation config", goerr.V("path", p.path))
	}

	slaCfg, err := buildSLAConfig(file.SLA)
	if err != nil {
		return nil, nil, nil, err
	}
	book, err := buildPolicyBook(file.Policies)
	if err != nil {
		return nil, nil, nil, err
	}
	schedule, err := buildSchedule(file.Rotations)
	if err != nil {
		return nil, nil, nil, err
	}

	logging.Default().Info("Escalation config loaded",
		"path", p.path,
		"policies", len(book.Policies),
		"rotations", len(schedule.Rotations),
	)
	return slaCfg, book, schedule, nil
}

func buildSLAConfig(file map[string]slaTargetFile) (*model.SLAConfig, error) {
	if len(file) == 0 {
		return model.DefaultSLAConfig(), nil
	}

	cfg := &model.SLAConfig{Targets: make(map[types.Priority]model.SLATarget, len(file))}
	for raw, target := range file {
		priority, err := types.ParsePriority(raw)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid SLA priority", goerr.V("priority", raw))
		}
		ack, err := time.ParseDuration(target.Ack)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid ack SLA duration", goerr.V("priority", raw))
		}
		resolve, err := time.ParseDuration(target.Resolve)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid resolve SLA duration", goerr.V("priority", raw))
		}
		cfg.Targets[priority] = model.SLATarget{Ack: ack, Resolve: resolve}
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid SLA configuration")
	}
	return cfg, nil
}

func buildPolicyBook(files []policyFile) (*model.PolicyBook, error) {
	if len(files) == 0 {
		return defaultPolicyBook(), nil
	}

	book := &model.PolicyBook{Policies: make([]model.EscalationPolicy, 0, len(files))}
	for _, pf := range files {
		policy := model.EscalationPolicy{ID: pf.ID}
		for _, raw := range pf.Categories {
			category, err := types.ParseCategory(raw)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid policy category", goerr.V("policy", pf.ID))
			}
			policy.Categories = append(policy.Categories, category)
		}
		for _, raw := range pf.Priorities {
			priority, err := types.ParsePriority(raw)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid policy priority", goerr.V("policy", pf.ID))
			}
			policy.Priorities = append(policy.Priorities, priority)
		}
		for i, sf := range pf.Steps {
			timeout, err := time.ParseDuration(sf.Timeout)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid step timeout",
					goerr.V("policy", pf.ID), goerr.V("step", i))
			}
			channel, err := types.ParseChannelType(sf.Channel)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid step channel",
					goerr.V("policy", pf.ID), goerr.V("step", i))
			}
			policy.Steps = append(policy.Steps, model.EscalationStep{
				TargetRole: sf.Role,
				Timeout:    timeout,
				Channel:    channel,
			})
		}
		book.Policies = append(book.Policies, policy)
	}

	if err := book.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid escalation policies")
	}
	return book, nil
}

func buildSchedule(files []rotationFile) (*model.OnCallSchedule, error) {
	if len(files) == 0 {
		return defaultSchedule(), nil
	}

	schedule := &model.OnCallSchedule{Rotations: make([]model.OnCallRotation, 0, len(files))}
	for _, rf := range files {
		rotation := model.OnCallRotation{Role: rf.Role, Fallback: rf.Fallback}
		for _, sf := range rf.Shifts {
			rotation.Shifts = append(rotation.Shifts, model.OnCallShift{
				Responder: sf.Responder,
				Start:     sf.Start,
				End:       sf.End,
			})
		}
		schedule.Rotations = append(schedule.Rotations, rotation)
	}

	if err := schedule.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid on-call schedule")
	}
	return schedule, nil
}

// defaultPolicyBook is a single catch-all chain: primary, secondary, then
// incident manager.
func defaultPolicyBook() *model.PolicyBook {
	return &model.PolicyBook{
		Policies: []model.EscalationPolicy{
			{
				ID: "default",
				Steps: []model.EscalationStep{
					{TargetRole: "primary", Timeout: 5 * time.Minute, Channel: types.ChannelSlack},
					{TargetRole: "secondary", Timeout: 10 * time.Minute, Channel: types.ChannelSlack},
					{TargetRole: "manager", Timeout: 15 * time.Minute, Channel: types.ChannelSlack},
				},
			},
		},
	}
}

func defaultSchedule() *model.OnCallSchedule {
	return &model.OnCallSchedule{
		Rotations: []model.OnCallRotation{
			{Role: "primary", Fallback: "oncall-primary"},
			{Role: "secondary", Fallback: "oncall-secondary"},
			{Role: "manager", Fallback: "incident-manager"},
		},
	}
}

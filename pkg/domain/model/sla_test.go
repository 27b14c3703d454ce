package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

func TestDefaultSLAConfigIsValid(t *testing.T) {
	gt.NoError(t, model.DefaultSLAConfig().Validate())
}

func TestSLAConfigValidate(t *testing.T) {
	cases := map[string]func(c *model.SLAConfig){
		"missing priority": func(c *model.SLAConfig) {
			delete(c.Targets, types.PriorityP3)
		},
		"ack exceeds resolve": func(c *model.SLAConfig) {
			c.Targets[types.PriorityP1] = model.SLATarget{Ack: 5 * time.Hour, Resolve: 4 * time.Hour}
		},
		"not looser than previous": func(c *model.SLAConfig) {
			c.Targets[types.PriorityP2] = model.SLATarget{Ack: 10 * time.Minute, Resolve: 8 * time.Hour}
		},
		"zero duration": func(c *model.SLAConfig) {
			c.Targets[types.PriorityP4] = model.SLATarget{Ack: 0, Resolve: 72 * time.Hour}
		},
	}

	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := model.DefaultSLAConfig()
			corrupt(cfg)
			gt.Error(t, cfg.Validate())
		})
	}
}

func TestSLADeadlines(t *testing.T) {
	cfg := model.DefaultSLAConfig()
	createdAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	ack, resolve, err := cfg.Deadlines(types.PriorityP1, createdAt)
	gt.NoError(t, err)
	gt.Value(t, ack).Equal(createdAt.Add(15 * time.Minute))
	gt.Value(t, resolve).Equal(createdAt.Add(4 * time.Hour))

	_, _, err = cfg.Deadlines(types.Priority("P9"), createdAt)
	gt.Error(t, err)
}

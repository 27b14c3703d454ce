package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

func TestNewTimelineEvent(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	ev, err := model.NewTimelineEvent(now, "alice", model.CommentDetail{Body: "checking dashboards"})
	gt.NoError(t, err)
	gt.Value(t, ev.Kind).Equal(types.EventKindComment)
	gt.Value(t, ev.Actor).Equal("alice")

	// Missing actor defaults to the system actor.
	ev, err = model.NewTimelineEvent(now, "", model.ResolvedDetail{Note: "rolled back"})
	gt.NoError(t, err)
	gt.Value(t, ev.Actor).Equal(types.SystemActor)

	// Invalid payloads are rejected at construction.
	_, err = model.NewTimelineEvent(now, "alice", model.CommentDetail{})
	gt.Error(t, err)
	_, err = model.NewTimelineEvent(now, "alice", nil)
	gt.Error(t, err)
}

func TestTimelineEventJSONDispatch(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ev, err := model.NewTimelineEvent(now, "pager", model.EscalatedDetail{
		FromStep: 0,
		ToStep:   1,
		Reason:   model.EscalationReasonTimeout,
	})
	gt.NoError(t, err)

	data, err := json.Marshal(ev)
	gt.NoError(t, err)

	var decoded model.TimelineEvent
	gt.NoError(t, json.Unmarshal(data, &decoded))
	gt.Value(t, decoded.Kind).Equal(types.EventKindEscalated)

	detail, ok := decoded.Detail.(model.EscalatedDetail)
	gt.B(t, ok).True()
	gt.Value(t, detail.Reason).Equal(model.EscalationReasonTimeout)
	gt.Value(t, detail.ToStep).Equal(1)
}

func TestTimelineEventUnknownKindRejected(t *testing.T) {
	var decoded model.TimelineEvent
	err := json.Unmarshal([]byte(`{"kind":"exploded","detail":{}}`), &decoded)
	gt.Error(t, err)
}

func TestEscalatedDetailValidate(t *testing.T) {
	gt.NoError(t, model.EscalatedDetail{FromStep: 0, ToStep: 1, Reason: model.EscalationReasonManual}.Validate())
	gt.Error(t, model.EscalatedDetail{FromStep: 0, ToStep: 1, Reason: "curiosity"}.Validate())
	gt.Error(t, model.EscalatedDetail{FromStep: -1, ToStep: 0, Reason: model.EscalationReasonTimeout}.Validate())
}

func TestSLABreachDetailValidate(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 9, 15, 0, 0, time.UTC)
	gt.NoError(t, model.SLABreachDetail{Breach: model.SLAKindAck, Deadline: deadline}.Validate())
	gt.Error(t, model.SLABreachDetail{Breach: "lunch", Deadline: deadline}.Validate())
}

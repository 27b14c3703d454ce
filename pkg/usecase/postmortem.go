package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/lock"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

// PostmortemUseCase derives retrospectives from resolved incidents. Generation
// is idempotent: the first call materializes the document, later calls return
// it unchanged.
type PostmortemUseCase struct {
	repo  interfaces.Repository
	locks *lock.Keyed
	clock interfaces.Clock
}

func NewPostmortemUseCase(repo interfaces.Repository, locks *lock.Keyed, clock interfaces.Clock) *PostmortemUseCase {
	return &PostmortemUseCase{
		repo:  repo,
		locks: locks,
		clock: clock,
	}
}

// Generate builds the postmortem of a resolved or closed incident from its
// timeline. Follow-up comments and containment actions become open action
// items.
func (uc *PostmortemUseCase) Generate(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) (*model.Postmortem, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	unlock := uc.locks.Lock(types.IncidentLockKey(tenant, incidentID))
	defer unlock()

	inc, err := uc.repo.Incident().Get(ctx, tenant, incidentID)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrIncidentNotFound, "no such incident",
				goerr.V(TenantIDKey, tenant), goerr.V(IncidentIDKey, incidentID))
		}
		return nil, goerr.Wrap(err, "failed to get incident", goerr.V(IncidentIDKey, incidentID))
	}

	if !inc.Status.IsSettled() {
		return nil, goerr.Wrap(model.ErrIncidentNotResolved, "postmortem requires a resolved incident",
			goerr.V(IncidentIDKey, incidentID), goerr.V("status", inc.Status))
	}

	if existing, err := uc.repo.Postmortem().GetByIncident(ctx, tenant, incidentID); err != nil {
		return nil, goerr.Wrap(err, "failed to check existing postmortem", goerr.V(IncidentIDKey, incidentID))
	} else if existing != nil {
		return existing, nil
	}

	pm := &model.Postmortem{
		TenantID:    tenant,
		IncidentID:  incidentID,
		Sections:    buildSections(inc),
		ActionItems: extractActionItems(inc),
	}

	created, err := uc.repo.Postmortem().Create(ctx, tenant, pm)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postmortem", goerr.V(IncidentIDKey, incidentID))
	}

	logging.From(ctx).Info("postmortem generated",
		"tenant_id", tenant,
		"incident_id", incidentID,
		"postmortem_id", created.ID,
		"action_items", len(created.ActionItems),
	)
	return created, nil
}

// Get retrieves a postmortem by ID
func (uc *PostmortemUseCase) Get(ctx context.Context, tenant types.TenantID, id types.PostmortemID) (*model.Postmortem, error) {
	pm, err := uc.repo.Postmortem().Get(ctx, tenant, id)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrPostmortemNotFound, "no such postmortem",
				goerr.V(TenantIDKey, tenant), goerr.V("postmortem_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get postmortem", goerr.V("postmortem_id", id))
	}
	return pm, nil
}

// GetByIncident retrieves the postmortem generated for an incident
func (uc *PostmortemUseCase) GetByIncident(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) (*model.Postmortem, error) {
	pm, err := uc.repo.Postmortem().GetByIncident(ctx, tenant, incidentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get postmortem", goerr.V(IncidentIDKey, incidentID))
	}
	if pm == nil {
		return nil, goerr.Wrap(ErrPostmortemNotFound, "postmortem not generated yet",
			goerr.V(TenantIDKey, tenant), goerr.V(IncidentIDKey, incidentID))
	}
	return pm, nil
}

// UpdateActionItem changes the status of one action item. Everything else in
// a generated postmortem is immutable.
func (uc *PostmortemUseCase) UpdateActionItem(ctx context.Context, tenant types.TenantID, pmID types.PostmortemID, itemID types.ActionItemID, status types.ActionItemStatus) (*model.Postmortem, error) {
	if !status.IsValid() {
		return nil, goerr.New("invalid action item status", goerr.V("status", status))
	}

	pm, err := uc.Get(ctx, tenant, pmID)
	if err != nil {
		return nil, err
	}

	unlock := uc.locks.Lock(types.IncidentLockKey(tenant, pm.IncidentID))
	defer unlock()

	// Reload under the lock so concurrent updates do not clobber each other.
	pm, err = uc.Get(ctx, tenant, pmID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range pm.ActionItems {
		if pm.ActionItems[i].ID == itemID {
			pm.ActionItems[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return nil, goerr.Wrap(model.ErrUnknownActionItem, "action item not in postmortem",
			goerr.V("postmortem_id", pmID), goerr.V("action_item_id", itemID))
	}

	updated, err := uc.repo.Postmortem().Update(ctx, tenant, pm)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update postmortem", goerr.V("postmortem_id", pmID))
	}
	return updated, nil
}

func buildSections(inc *model.Incident) []model.PostmortemSection {
	sections := []model.PostmortemSection{
		{Title: "Summary", Body: summaryBody(inc)},
		{Title: "Timeline", Body: timelineBody(inc)},
		{Title: "Root Cause", Body: rootCauseBody(inc)},
		{Title: "Impact", Body: impactBody(inc)},
	}
	return sections
}

func summaryBody(inc *model.Incident) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d)\n", inc.Title, inc.ID)
	fmt.Fprintf(&b, "Priority: %s, Category: %s\n", inc.Priority, inc.Category)
	fmt.Fprintf(&b, "Opened: %s\n", inc.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if inc.ResolvedAt != nil {
		fmt.Fprintf(&b, "Resolved: %s (duration %s)\n",
			inc.ResolvedAt.Format("2006-01-02 15:04:05 MST"),
			inc.ResolvedAt.Sub(inc.CreatedAt).Round(time.Second))
	}
	if len(inc.RelatedEntities) > 0 {
		fmt.Fprintf(&b, "Affected: %s\n", strings.Join(inc.RelatedEntities, ", "))
	}
	return b.String()
}

func timelineBody(inc *model.Incident) string {
	var b strings.Builder
	for _, ev := range inc.Timeline {
		fmt.Fprintf(&b, "%s  %-22s %s\n",
			ev.Timestamp.Format("2006-01-02 15:04:05"),
			ev.Kind,
			describeEvent(ev),
		)
	}
	return b.String()
}

func describeEvent(ev model.TimelineEvent) string {
	switch d := ev.Detail.(type) {
	case model.CreatedDetail:
		return fmt.Sprintf("incident opened as %s by %s", d.Priority, ev.Actor)
	case model.AssignedDetail:
		return fmt.Sprintf("assigned to %s", d.Assignee)
	case model.StatusChangedDetail:
		return fmt.Sprintf("%s -> %s", d.From, d.To)
	case model.ContainmentActionDetail:
		return d.Description
	case model.PagedDetail:
		return fmt.Sprintf("paged %s (%s, step %d) via %s", d.Responder, d.Role, d.StepIndex, d.Channel)
	case model.AcknowledgedDetail:
		return fmt.Sprintf("acknowledged by %s", d.Responder)
	case model.EscalatedDetail:
		return fmt.Sprintf("escalated step %d -> %d (%s)", d.FromStep, d.ToStep, d.Reason)
	case model.ResolvedDetail:
		if d.Note != "" {
			return "resolved: " + d.Note
		}
		return "resolved"
	case model.ReopenedDetail:
		if d.Reason != "" {
			return "reopened: " + d.Reason
		}
		return "reopened"
	case model.CommentDetail:
		return d.Body
	case model.SLABreachDetail:
		return fmt.Sprintf("%s SLA missed (deadline %s)", d.Breach, d.Deadline.Format("15:04:05"))
	case model.EscalationExhaustedDetail:
		return fmt.Sprintf("all %d escalation steps exhausted", d.Steps)
	default:
		return string(ev.Kind)
	}
}

// rootCauseBody collects the resolution notes and containment actions. The
// engine cannot diagnose anything itself; this section seeds the human
// write-up with what responders recorded during the incident.
func rootCauseBody(inc *model.Incident) string {
	var b strings.Builder

	for _, ev := range inc.Timeline {
		if d, ok := ev.Detail.(model.ResolvedDetail); ok && d.Note != "" {
			fmt.Fprintf(&b, "Resolution note: %s\n", d.Note)
		}
	}

	actions := 0
	for _, ev := range inc.Timeline {
		if d, ok := ev.Detail.(model.ContainmentActionDetail); ok {
			if actions == 0 {
				b.WriteString("Containment actions taken:\n")
			}
			fmt.Fprintf(&b, "- %s\n", d.Description)
			actions++
		}
	}

	if b.Len() == 0 {
		b.WriteString("To be determined.\n")
	}
	return b.String()
}

func impactBody(inc *model.Incident) string {
	var b strings.Builder

	if inc.AcknowledgedAt != nil {
		fmt.Fprintf(&b, "Time to acknowledge: %s (deadline %s)\n",
			inc.AcknowledgedAt.Sub(inc.CreatedAt).Round(time.Second),
			inc.AckDeadline.Format("2006-01-02 15:04:05"))
	} else {
		b.WriteString("Never acknowledged\n")
	}
	if inc.ResolvedAt != nil {
		fmt.Fprintf(&b, "Time to resolve: %s (deadline %s)\n",
			inc.ResolvedAt.Sub(inc.CreatedAt).Round(time.Second),
			inc.ResolveDeadline.Format("2006-01-02 15:04:05"))
	}

	pages, escalations, breaches := 0, 0, 0
	for _, ev := range inc.Timeline {
		switch ev.Kind {
		case types.EventKindPaged:
			pages++
		case types.EventKindEscalated:
			escalations++
		case types.EventKindSLABreach:
			breaches++
		}
	}
	fmt.Fprintf(&b, "Pages sent: %d, escalations: %d, SLA breaches: %d\n", pages, escalations, breaches)

	if len(inc.RelatedEntities) > 0 {
		fmt.Fprintf(&b, "Affected entities: %s\n", strings.Join(inc.RelatedEntities, ", "))
	}
	return b.String()
}

// extractActionItems pulls follow-up work out of the timeline: comments
// flagged as follow-ups and containment actions that need permanent fixes.
func extractActionItems(inc *model.Incident) []model.ActionItem {
	var items []model.ActionItem
	for _, ev := range inc.Timeline {
		switch d := ev.Detail.(type) {
		case model.CommentDetail:
			if d.FollowUp {
				items = append(items, model.ActionItem{
					ID:          types.NewActionItemID(),
					Description: d.Body,
					SourceKind:  types.EventKindComment,
					Status:      types.ActionItemStatusOpen,
				})
			}
		case model.ContainmentActionDetail:
			items = append(items, model.ActionItem{
				ID:          types.NewActionItemID(),
				Description: "Review containment action: " + d.Description,
				SourceKind:  types.EventKindContainmentAction,
				Status:      types.ActionItemStatusOpen,
			})
		}
	}
	return items
}

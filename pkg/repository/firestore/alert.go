package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

type alertRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAlertRepository(client *firestore.Client) *alertRepository {
	return &alertRepository{
		client: client,
	}
}

func (r *alertRepository) alertsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_pager_alerts"
	}
	return "pager_alerts"
}

type alertDoc struct {
	ID         string     `firestore:"id"`
	TenantID   string     `firestore:"tenant_id"`
	IncidentID int64      `firestore:"incident_id"`
	PolicyID   string     `firestore:"policy_id"`
	StepIndex  int        `firestore:"step_index"`
	Responder  string     `firestore:"responder"`
	Role       string     `firestore:"role"`
	Channel    string     `firestore:"channel"`
	Status     string     `firestore:"status"`
	SentAt     time.Time  `firestore:"sent_at"`
	AckedAt    *time.Time `firestore:"acked_at"`
	RetryCount int        `firestore:"retry_count"`
}

func toAlertDoc(a *model.PagerAlert) *alertDoc {
	return &alertDoc{
		ID:         a.ID.String(),
		TenantID:   a.TenantID.String(),
		IncidentID: int64(a.IncidentID),
		PolicyID:   a.PolicyID,
		StepIndex:  a.StepIndex,
		Responder:  a.Responder,
		Role:       a.Role,
		Channel:    a.Channel.String(),
		Status:     a.Status.String(),
		SentAt:     a.SentAt,
		AckedAt:    a.AckedAt,
		RetryCount: a.RetryCount,
	}
}

func (d *alertDoc) toModel() *model.PagerAlert {
	return &model.PagerAlert{
		ID:         types.AlertID(d.ID),
		TenantID:   types.TenantID(d.TenantID),
		IncidentID: types.IncidentID(d.IncidentID),
		PolicyID:   d.PolicyID,
		StepIndex:  d.StepIndex,
		Responder:  d.Responder,
		Role:       d.Role,
		Channel:    types.ChannelType(d.Channel),
		Status:     types.AlertStatus(d.Status),
		SentAt:     d.SentAt,
		AckedAt:    d.AckedAt,
		RetryCount: d.RetryCount,
	}
}

func alertDocID(tenant types.TenantID, id types.AlertID) string {
	return tenant.String() + "_" + id.String()
}

func (r *alertRepository) Create(ctx context.Context, tenant types.TenantID, alert *model.PagerAlert) (*model.PagerAlert, error) {
	if err := tenant.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid tenant")
	}

	created := alert.Clone()
	if created.ID == "" {
		created.ID = types.NewAlertID()
	}
	created.TenantID = tenant

	if _, err := r.client.Collection(r.alertsCollection()).Doc(alertDocID(tenant, created.ID)).Set(ctx, toAlertDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create alert", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *alertRepository) Get(ctx context.Context, tenant types.TenantID, id types.AlertID) (*model.PagerAlert, error) {
	docSnap, err := r.client.Collection(r.alertsCollection()).Doc(alertDocID(tenant, id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get alert", goerr.V("id", id))
	}

	var doc alertDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode alert", goerr.V("id", id))
	}

	return doc.toModel(), nil
}

func (r *alertRepository) GetActive(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) (*model.PagerAlert, error) {
	iter := r.client.Collection(r.alertsCollection()).
		Where("tenant_id", "==", tenant.String()).
		Where("incident_id", "==", int64(incidentID)).
		Where("status", "==", types.AlertStatusPending.String()).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query active alert", goerr.V("incident_id", incidentID))
	}

	var doc alertDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode alert", goerr.V("doc_id", docSnap.Ref.ID))
	}

	return doc.toModel(), nil
}

func (r *alertRepository) ListByIncident(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) ([]*model.PagerAlert, error) {
	iter := r.client.Collection(r.alertsCollection()).
		Where("tenant_id", "==", tenant.String()).
		Where("incident_id", "==", int64(incidentID)).
		Documents(ctx)
	defer iter.Stop()

	var alerts []*model.PagerAlert
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate alerts", goerr.V("incident_id", incidentID))
		}

		var doc alertDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode alert", goerr.V("doc_id", docSnap.Ref.ID))
		}
		alerts = append(alerts, doc.toModel())
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].SentAt.Equal(alerts[j].SentAt) {
			return alerts[i].StepIndex < alerts[j].StepIndex
		}
		return alerts[i].SentAt.Before(alerts[j].SentAt)
	})

	return alerts, nil
}

func (r *alertRepository) Update(ctx context.Context, tenant types.TenantID, alert *model.PagerAlert) (*model.PagerAlert, error) {
	docRef := r.client.Collection(r.alertsCollection()).Doc(alertDocID(tenant, alert.ID))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "alert not found", goerr.V("id", alert.ID))
		}
		return nil, goerr.Wrap(err, "failed to check alert existence", goerr.V("id", alert.ID))
	}

	updated := alert.Clone()
	if _, err := docRef.Set(ctx, toAlertDoc(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update alert", goerr.V("id", alert.ID))
	}

	return updated, nil
}

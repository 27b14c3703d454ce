package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

type incidentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newIncidentRepository(client *firestore.Client) *incidentRepository {
	return &incidentRepository{
		client: client,
	}
}

func (r *incidentRepository) incidentsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_incidents"
	}
	return "incidents"
}

func (r *incidentRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

// incidentDoc is the stored shape of an incident. The timeline is kept as a
// JSON blob so the kind-tagged event payloads survive round trips unchanged.
type incidentDoc struct {
	ID              int64      `firestore:"id"`
	TenantID        string     `firestore:"tenant_id"`
	Title           string     `firestore:"title"`
	Category        string     `firestore:"category"`
	Priority        string     `firestore:"priority"`
	Status          string     `firestore:"status"`
	Assignee        string     `firestore:"assignee"`
	RelatedEntities []string   `firestore:"related_entities"`
	CreatedAt       time.Time  `firestore:"created_at"`
	AckDeadline     time.Time  `firestore:"ack_deadline"`
	ResolveDeadline time.Time  `firestore:"resolve_deadline"`
	AcknowledgedAt  *time.Time `firestore:"acknowledged_at"`
	ResolvedAt      *time.Time `firestore:"resolved_at"`
	UpdatedAt       time.Time  `firestore:"updated_at"`
	Timeline        []byte     `firestore:"timeline"`
}

func toIncidentDoc(inc *model.Incident) (*incidentDoc, error) {
	timeline, err := json.Marshal(inc.Timeline)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal timeline", goerr.V("id", inc.ID))
	}

	return &incidentDoc{
		ID:              int64(inc.ID),
		TenantID:        inc.TenantID.String(),
		Title:           inc.Title,
		Category:        inc.Category.String(),
		Priority:        inc.Priority.String(),
		Status:          inc.Status.String(),
		Assignee:        inc.Assignee,
		RelatedEntities: inc.RelatedEntities,
		CreatedAt:       inc.CreatedAt,
		AckDeadline:     inc.AckDeadline,
		ResolveDeadline: inc.ResolveDeadline,
		AcknowledgedAt:  inc.AcknowledgedAt,
		ResolvedAt:      inc.ResolvedAt,
		UpdatedAt:       inc.UpdatedAt,
		Timeline:        timeline,
	}, nil
}

func (d *incidentDoc) toModel() (*model.Incident, error) {
	var timeline []model.TimelineEvent
	if len(d.Timeline) > 0 {
		if err := json.Unmarshal(d.Timeline, &timeline); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal timeline", goerr.V("id", d.ID))
		}
	}

	return &model.Incident{
		ID:              types.IncidentID(d.ID),
		TenantID:        types.TenantID(d.TenantID),
		Title:           d.Title,
		Category:        types.Category(d.Category),
		Priority:        types.Priority(d.Priority),
		Status:          types.IncidentStatus(d.Status),
		Assignee:        d.Assignee,
		RelatedEntities: d.RelatedEntities,
		CreatedAt:       d.CreatedAt,
		AckDeadline:     d.AckDeadline,
		ResolveDeadline: d.ResolveDeadline,
		AcknowledgedAt:  d.AcknowledgedAt,
		ResolvedAt:      d.ResolvedAt,
		UpdatedAt:       d.UpdatedAt,
		Timeline:        timeline,
	}, nil
}

func incidentDocID(tenant types.TenantID, id types.IncidentID) string {
	return fmt.Sprintf("%s_%d", tenant, id)
}

func (r *incidentRepository) getNextID(ctx context.Context, tenant types.TenantID) (types.IncidentID, error) {
	counterRef := r.client.Collection(r.counterCollection()).Doc("incident_counter_" + tenant.String())

	var nextID int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", currentValue))
		}
		nextID = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID")
	}

	return types.IncidentID(nextID), nil
}

func (r *incidentRepository) Create(ctx context.Context, tenant types.TenantID, inc *model.Incident) (*model.Incident, error) {
	if err := tenant.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid tenant")
	}

	nextID, err := r.getNextID(ctx, tenant)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get next ID")
	}

	created := inc.Clone()
	created.ID = nextID
	created.TenantID = tenant
	created.UpdatedAt = time.Now().UTC()

	doc, err := toIncidentDoc(created)
	if err != nil {
		return nil, err
	}

	if _, err := r.client.Collection(r.incidentsCollection()).Doc(incidentDocID(tenant, created.ID)).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create incident", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *incidentRepository) Get(ctx context.Context, tenant types.TenantID, id types.IncidentID) (*model.Incident, error) {
	docSnap, err := r.client.Collection(r.incidentsCollection()).Doc(incidentDocID(tenant, id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "incident not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get incident", goerr.V("id", id))
	}

	var doc incidentDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode incident", goerr.V("id", id))
	}

	return doc.toModel()
}

func (r *incidentRepository) list(ctx context.Context, query firestore.Query) ([]*model.Incident, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var incidents []*model.Incident
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate incidents")
		}

		var doc incidentDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode incident", goerr.V("doc_id", docSnap.Ref.ID))
		}

		inc, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
	}

	return incidents, nil
}

func (r *incidentRepository) List(ctx context.Context, tenant types.TenantID) ([]*model.Incident, error) {
	query := r.client.Collection(r.incidentsCollection()).
		Where("tenant_id", "==", tenant.String()).
		OrderBy("id", firestore.Asc)
	return r.list(ctx, query)
}

func (r *incidentRepository) ListOpen(ctx context.Context, tenant types.TenantID) ([]*model.Incident, error) {
	all, err := r.List(ctx, tenant)
	if err != nil {
		return nil, err
	}

	open := make([]*model.Incident, 0, len(all))
	for _, inc := range all {
		if !inc.Status.IsSettled() {
			open = append(open, inc)
		}
	}
	return open, nil
}

func (r *incidentRepository) Update(ctx context.Context, tenant types.TenantID, inc *model.Incident) (*model.Incident, error) {
	docRef := r.client.Collection(r.incidentsCollection()).Doc(incidentDocID(tenant, inc.ID))

	existingSnap, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "incident not found", goerr.V("id", inc.ID))
		}
		return nil, goerr.Wrap(err, "failed to check incident existence", goerr.V("id", inc.ID))
	}

	var existing incidentDoc
	if err := existingSnap.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to decode incident", goerr.V("id", inc.ID))
	}

	updated := inc.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	doc, err := toIncidentDoc(updated)
	if err != nil {
		return nil, err
	}

	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update incident", goerr.V("id", inc.ID))
	}

	return updated, nil
}

func (r *incidentRepository) Tenants(ctx context.Context) ([]types.TenantID, error) {
	iter := r.client.Collection(r.incidentsCollection()).Select("tenant_id").Documents(ctx)
	defer iter.Stop()

	seen := make(map[types.TenantID]bool)
	var tenants []types.TenantID
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate incidents")
		}

		v, err := docSnap.DataAt("tenant_id")
		if err != nil {
			continue
		}
		if s, ok := v.(string); ok {
			t := types.TenantID(s)
			if !seen[t] {
				seen[t] = true
				tenants = append(tenants, t)
			}
		}
	}

	return tenants, nil
}

package firestore

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

type postmortemRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newPostmortemRepository(client *firestore.Client) *postmortemRepository {
	return &postmortemRepository{
		client: client,
	}
}

func (r *postmortemRepository) postmortemsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_postmortems"
	}
	return "postmortems"
}

type postmortemDoc struct {
	ID         string    `firestore:"id"`
	TenantID   string    `firestore:"tenant_id"`
	IncidentID int64     `firestore:"incident_id"`
	Document   []byte    `firestore:"document"`
	CreatedAt  time.Time `firestore:"created_at"`
}

func toPostmortemDoc(pm *model.Postmortem) (*postmortemDoc, error) {
	document, err := json.Marshal(pm)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal postmortem", goerr.V("id", pm.ID))
	}

	return &postmortemDoc{
		ID:         pm.ID.String(),
		TenantID:   pm.TenantID.String(),
		IncidentID: int64(pm.IncidentID),
		Document:   document,
		CreatedAt:  pm.CreatedAt,
	}, nil
}

func (d *postmortemDoc) toModel() (*model.Postmortem, error) {
	var pm model.Postmortem
	if err := json.Unmarshal(d.Document, &pm); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal postmortem", goerr.V("id", d.ID))
	}
	return &pm, nil
}

func postmortemDocID(tenant types.TenantID, id types.PostmortemID) string {
	return tenant.String() + "_" + id.String()
}

func (r *postmortemRepository) Create(ctx context.Context, tenant types.TenantID, pm *model.Postmortem) (*model.Postmortem, error) {
	if err := tenant.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid tenant")
	}

	existing, err := r.GetByIncident(ctx, tenant, pm.IncidentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, goerr.New("postmortem already exists for incident",
			goerr.V("incident_id", pm.IncidentID),
			goerr.V("postmortem_id", existing.ID))
	}

	created := pm.Clone()
	if created.ID == "" {
		created.ID = types.NewPostmortemID()
	}
	created.TenantID = tenant
	created.CreatedAt = time.Now().UTC()

	doc, err := toPostmortemDoc(created)
	if err != nil {
		return nil, err
	}

	if _, err := r.client.Collection(r.postmortemsCollection()).Doc(postmortemDocID(tenant, created.ID)).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create postmortem", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *postmortemRepository) Get(ctx context.Context, tenant types.TenantID, id types.PostmortemID) (*model.Postmortem, error) {
	docSnap, err := r.client.Collection(r.postmortemsCollection()).Doc(postmortemDocID(tenant, id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "postmortem not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get postmortem", goerr.V("id", id))
	}

	var doc postmortemDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode postmortem", goerr.V("id", id))
	}

	return doc.toModel()
}

func (r *postmortemRepository) GetByIncident(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) (*model.Postmortem, error) {
	iter := r.client.Collection(r.postmortemsCollection()).
		Where("tenant_id", "==", tenant.String()).
		Where("incident_id", "==", int64(incidentID)).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query postmortem", goerr.V("incident_id", incidentID))
	}

	var doc postmortemDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode postmortem", goerr.V("doc_id", docSnap.Ref.ID))
	}

	return doc.toModel()
}

func (r *postmortemRepository) Update(ctx context.Context, tenant types.TenantID, pm *model.Postmortem) (*model.Postmortem, error) {
	docRef := r.client.Collection(r.postmortemsCollection()).Doc(postmortemDocID(tenant, pm.ID))

	existingSnap, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "postmortem not found", goerr.V("id", pm.ID))
		}
		return nil, goerr.Wrap(err, "failed to check postmortem existence", goerr.V("id", pm.ID))
	}

	var existing postmortemDoc
	if err := existingSnap.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to decode postmortem", goerr.V("id", pm.ID))
	}

	updated := pm.Clone()
	updated.CreatedAt = existing.CreatedAt

	doc, err := toPostmortemDoc(updated)
	if err != nil {
		return nil, err
	}

	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update postmortem", goerr.V("id", pm.ID))
	}

	return updated, nil
}

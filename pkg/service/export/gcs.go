package export

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

// GCSExporter writes an audit snapshot of a resolved incident to a Cloud
// Storage bucket. Objects are keyed by tenant and incident ID; re-exporting
// overwrites the previous snapshot with the newer record.
type GCSExporter struct {
	client *storage.Client
	bucket string
	prefix string
	repo   interfaces.Repository
}

var _ interfaces.AuditExporter = &GCSExporter{}

type Option func(*GCSExporter)

// WithPrefix sets an object name prefix, used to isolate environments
// sharing one bucket.
func WithPrefix(prefix string) Option {
	return func(e *GCSExporter) {
		e.prefix = prefix
	}
}

func New(ctx context.Context, bucket string, repo interfaces.Repository, opts ...Option) (*GCSExporter, error) {
	if bucket == "" {
		return nil, goerr.New("audit export bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	e := &GCSExporter{
		client: client,
		bucket: bucket,
		repo:   repo,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// snapshot is the exported audit record shape
type snapshot struct {
	Incident *model.Incident     `json:"incident"`
	Alerts   []*model.PagerAlert `json:"alerts"`
}

func (e *GCSExporter) objectName(tenant types.TenantID, incidentID types.IncidentID) string {
	name := fmt.Sprintf("incidents/%s/%d.json", tenant, incidentID)
	if e.prefix != "" {
		return e.prefix + "/" + name
	}
	return name
}

// ExportIncident writes the incident, its timeline and its alert history as
// one JSON object.
func (e *GCSExporter) ExportIncident(ctx context.Context, tenant types.TenantID, incidentID types.IncidentID) error {
	inc, err := e.repo.Incident().Get(ctx, tenant, incidentID)
	if err != nil {
		return goerr.Wrap(err, "failed to load incident for export", goerr.V("incident_id", incidentID))
	}

	alerts, err := e.repo.Alert().ListByIncident(ctx, tenant, incidentID)
	if err != nil {
		return goerr.Wrap(err, "failed to load alerts for export", goerr.V("incident_id", incidentID))
	}

	body, err := json.MarshalIndent(snapshot{Incident: inc, Alerts: alerts}, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal audit snapshot", goerr.V("incident_id", incidentID))
	}

	name := e.objectName(tenant, incidentID)
	w := e.client.Bucket(e.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write audit snapshot",
			goerr.V("bucket", e.bucket), goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize audit snapshot",
			goerr.V("bucket", e.bucket), goerr.V("object", name))
	}

	logging.From(ctx).Info("audit snapshot exported",
		"tenant_id", tenant,
		"incident_id", incidentID,
		"bucket", e.bucket,
		"object", name,
		"bytes", len(body),
	)
	return nil
}

// Close releases the storage client
func (e *GCSExporter) Close() error {
	return e.client.Close()
}

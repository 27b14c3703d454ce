package config

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/export"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

// Export holds CLI flags for audit snapshot export
type Export struct {
	bucket string
	prefix string
}

// Flags returns CLI flags for export configuration
func (e *Export) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "export-bucket",
			Usage:       "Cloud Storage bucket for audit snapshots of resolved incidents (disabled when empty)",
			Category:    "Export",
			Sources:     cli.EnvVars("PHOENIX_GUARDIAN_EXPORT_BUCKET"),
			Destination: &e.bucket,
		},
		&cli.StringFlag{
			Name:        "export-prefix",
			Usage:       "Object name prefix within the export bucket",
			Category:    "Export",
			Sources:     cli.EnvVars("PHOENIX_GUARDIAN_EXPORT_PREFIX"),
			Destination: &e.prefix,
		},
	}
}

// Configure builds the GCS exporter, or returns nil when no bucket is set.
// The caller owns the returned exporter's Close.
func (e *Export) Configure(ctx context.Context, repo interfaces.Repository) (*export.GCSExporter, error) {
	if e.bucket == "" {
		logging.Default().Info("Export bucket not configured, audit export disabled")
		return nil, nil
	}

	exporter, err := export.New(ctx, e.bucket, repo, export.WithPrefix(e.prefix))
	if err != nil {
		return nil, err
	}
	logging.Default().Info("Audit export enabled", "bucket", e.bucket, "prefix", e.prefix)
	return exporter, nil
}

package notify

import (
	"context"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

// LogNotifier writes pages to the structured log instead of an external
// transport. Used as the router fallback and in local development.
type LogNotifier struct{}

var _ interfaces.Notifier = &LogNotifier{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, responder string, inc *model.Incident, channel types.ChannelType) error {
	logging.From(ctx).Info("paging responder",
		"responder", responder,
		"channel", channel,
		"tenant_id", inc.TenantID,
		"incident_id", inc.ID,
		"priority", inc.Priority,
		"title", inc.Title,
	)
	return nil
}

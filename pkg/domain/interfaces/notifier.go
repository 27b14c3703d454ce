package interfaces

import (
	"context"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// Notifier is the abstract paging transport. Implementations may block for
// external latency; callers must not hold an incident's lock while calling
// Notify. Transient failures are reported as model.ErrChannelUnavailable.
type Notifier interface {
	Notify(ctx context.Context, responder string, inc *model.Incident, channel types.ChannelType) error
}

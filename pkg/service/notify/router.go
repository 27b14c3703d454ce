package notify

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

// Router dispatches a page to the transport registered for its channel.
// Channels with no registered transport go to the fallback, so a policy
// naming an unconfigured channel still reaches someone.
type Router struct {
	transports map[types.ChannelType]interfaces.Notifier
	fallback   interfaces.Notifier
}

var _ interfaces.Notifier = &Router{}

type RouterOption func(*Router)

// WithTransport registers a transport for a channel
func WithTransport(channel types.ChannelType, n interfaces.Notifier) RouterOption {
	return func(r *Router) {
		r.transports[channel] = n
	}
}

// WithFallback replaces the default log-only fallback transport
func WithFallback(n interfaces.Notifier) RouterOption {
	return func(r *Router) {
		r.fallback = n
	}
}

func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		transports: make(map[types.ChannelType]interfaces.Notifier),
		fallback:   NewLogNotifier(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Notify(ctx context.Context, responder string, inc *model.Incident, channel types.ChannelType) error {
	if !channel.IsValid() {
		return goerr.New("unknown channel", goerr.V("channel", channel))
	}

	n, ok := r.transports[channel]
	if !ok {
		n = r.fallback
	}
	return n.Notify(ctx, responder, inc, channel)
}

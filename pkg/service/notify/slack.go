package notify

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

var priorityColors = map[types.Priority]string{
	types.PriorityP1: "#E01E5A",
	types.PriorityP2: "#E8912D",
	types.PriorityP3: "#ECB22E",
	types.PriorityP4: "#2EB67D",
}

// SlackNotifier posts pages to a Slack channel, mentioning the responder.
// API failures are reported as model.ErrChannelUnavailable so the pager
// retries and eventually escalates past the broken channel.
type SlackNotifier struct {
	api       *slack.Client
	channelID string
}

var _ interfaces.Notifier = &SlackNotifier{}

func NewSlackNotifier(token, channelID string) (*SlackNotifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	return &SlackNotifier{
		api:       slack.New(token),
		channelID: channelID,
	}, nil
}

func (n *SlackNotifier) Notify(ctx context.Context, responder string, inc *model.Incident, channel types.ChannelType) error {
	color, ok := priorityColors[inc.Priority]
	if !ok {
		color = "#808080"
	}

	attachment := slack.Attachment{
		Color: color,
		Title: fmt.Sprintf("[%s] #%d %s", inc.Priority, inc.ID, inc.Title),
		Fields: []slack.AttachmentField{
			{Title: "Tenant", Value: inc.TenantID.String(), Short: true},
			{Title: "Category", Value: inc.Category.String(), Short: true},
			{Title: "Status", Value: inc.Status.String(), Short: true},
			{Title: "Ack deadline", Value: inc.AckDeadline.Format("2006-01-02 15:04:05 MST"), Short: true},
		},
	}

	_, _, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(fmt.Sprintf("<@%s> you are paged for incident #%d", responder, inc.ID), false),
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return goerr.Wrap(model.ErrChannelUnavailable, "failed to post Slack message",
			goerr.V("channel_id", n.channelID),
			goerr.V("responder", responder),
			goerr.V("cause", err.Error()),
		)
	}

	return nil
}

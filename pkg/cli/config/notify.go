package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/notify"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

// Notify holds CLI flags for the paging transports. Channels without a
// configured transport fall back to log-only paging, which keeps development
// setups working without external credentials.
type Notify struct {
	slackToken   string
	slackChannel string
	webhookURL   string
}

// Flags returns CLI flags for notification configuration
func (n *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack bot token for paging (xoxb-...)",
			Category:    "Notification",
			Sources:     cli.EnvVars("PHOENIX_GUARDIAN_SLACK_BOT_TOKEN"),
			Destination: &n.slackToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID where pages are posted",
			Category:    "Notification",
			Sources:     cli.EnvVars("PHOENIX_GUARDIAN_SLACK_CHANNEL_ID"),
			Destination: &n.slackChannel,
		},
		&cli.StringFlag{
			Name:        "webhook-url",
			Usage:       "Webhook endpoint for paging delivery",
			Category:    "Notification",
			Sources:     cli.EnvVars("PHOENIX_GUARDIAN_WEBHOOK_URL"),
			Destination: &n.webhookURL,
		},
	}
}

// Configure builds the channel router from the configured transports
func (n *Notify) Configure() (*notify.Router, error) {
	var opts []notify.RouterOption

	if n.slackToken != "" {
		if n.slackChannel == "" {
			return nil, goerr.New("slack-channel-id is required when slack-bot-token is set")
		}
		slackNotifier, err := notify.NewSlackNotifier(n.slackToken, n.slackChannel)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize slack notifier")
		}
		opts = append(opts, notify.WithTransport(types.ChannelSlack, slackNotifier))
		logging.Default().Info("Slack paging enabled", "channel_id", n.slackChannel)
	}

	if n.webhookURL != "" {
		webhookNotifier, err := notify.NewWebhookNotifier(n.webhookURL)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize webhook notifier")
		}
		opts = append(opts, notify.WithTransport(types.ChannelWebhook, webhookNotifier))
		logging.Default().Info("Webhook paging enabled")
	}

	if len(opts) == 0 {
		logging.Default().Warn("No paging transports configured, pages will only be logged")
	}

	return notify.NewRouter(opts...), nil
}

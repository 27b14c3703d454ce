package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/safe"
)

// WebhookNotifier delivers pages as a JSON POST to a configured endpoint.
// Non-2xx responses and transport errors are reported as
// model.ErrChannelUnavailable.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

var _ interfaces.Notifier = &WebhookNotifier{}

type WebhookOption func(*WebhookNotifier)

// WithHTTPClient replaces the HTTP client, used by tests
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		n.httpClient = c
	}
}

func NewWebhookNotifier(url string, opts ...WebhookOption) (*WebhookNotifier, error) {
	if url == "" {
		return nil, goerr.New("webhook URL is required")
	}

	n := &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

type webhookPayload struct {
	Responder   string    `json:"responder"`
	Channel     string    `json:"channel"`
	TenantID    string    `json:"tenant_id"`
	IncidentID  int64     `json:"incident_id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	AckDeadline time.Time `json:"ack_deadline"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, responder string, inc *model.Incident, channel types.ChannelType) error {
	payload := webhookPayload{
		Responder:   responder,
		Channel:     channel.String(),
		TenantID:    inc.TenantID.String(),
		IncidentID:  int64(inc.ID),
		Title:       inc.Title,
		Category:    inc.Category.String(),
		Priority:    inc.Priority.String(),
		Status:      inc.Status.String(),
		AckDeadline: inc.AckDeadline,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to build webhook request", goerr.V("url", n.url))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(model.ErrChannelUnavailable, "webhook request failed",
			goerr.V("url", n.url),
			goerr.V("cause", err.Error()),
		)
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return goerr.Wrap(model.ErrChannelUnavailable, "webhook returned non-2xx status",
			goerr.V("url", n.url),
			goerr.V("status", resp.StatusCode),
		)
	}

	return nil
}

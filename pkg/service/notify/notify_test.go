package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/notify"
)

func testIncident() *model.Incident {
	return &model.Incident{
		ID:          42,
		TenantID:    "tenant-a",
		Title:       "Database replication lag",
		Category:    types.CategoryInfrastructure,
		Priority:    types.PriorityP2,
		Status:      types.IncidentStatusNew,
		CreatedAt:   time.Now().UTC(),
		AckDeadline: time.Now().UTC().Add(30 * time.Minute),
	}
}

func TestWebhookNotifierPostsPayload(t *testing.T) {
	type received struct {
		Responder  string `json:"responder"`
		IncidentID int64  `json:"incident_id"`
		Priority   string `json:"priority"`
	}

	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Method).Equal(http.MethodPost)
		gt.Value(t, r.Header.Get("Content-Type")).Equal("application/json")

		var payload received
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		got <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := notify.NewWebhookNotifier(srv.URL)
	gt.NoError(t, err)
	gt.NoError(t, n.Notify(context.Background(), "alice", testIncident(), types.ChannelWebhook))

	payload := <-got
	gt.Value(t, payload.Responder).Equal("alice")
	gt.Value(t, payload.IncidentID).Equal(42)
	gt.Value(t, payload.Priority).Equal("P2")
}

func TestWebhookNotifierNon2xxIsChannelUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n, err := notify.NewWebhookNotifier(srv.URL)
	gt.NoError(t, err)
	err = n.Notify(context.Background(), "alice", testIncident(), types.ChannelWebhook)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrChannelUnavailable)).True()
}

func TestWebhookNotifierConnectionRefusedIsChannelUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	n, err := notify.NewWebhookNotifier(srv.URL)
	gt.NoError(t, err)
	err = n.Notify(context.Background(), "alice", testIncident(), types.ChannelWebhook)
	gt.Error(t, err)
	gt.B(t, errors.Is(err, model.ErrChannelUnavailable)).True()
}

type recordingNotifier struct {
	calls []types.ChannelType
	err   error
}

func (n *recordingNotifier) Notify(ctx context.Context, responder string, inc *model.Incident, channel types.ChannelType) error {
	n.calls = append(n.calls, channel)
	return n.err
}

func TestRouterDispatchesByChannel(t *testing.T) {
	slackN := &recordingNotifier{}
	webhookN := &recordingNotifier{}
	fallback := &recordingNotifier{}

	r := notify.NewRouter(
		notify.WithTransport(types.ChannelSlack, slackN),
		notify.WithTransport(types.ChannelWebhook, webhookN),
		notify.WithFallback(fallback),
	)

	inc := testIncident()
	ctx := context.Background()
	gt.NoError(t, r.Notify(ctx, "alice", inc, types.ChannelSlack))
	gt.NoError(t, r.Notify(ctx, "alice", inc, types.ChannelWebhook))
	gt.NoError(t, r.Notify(ctx, "alice", inc, types.ChannelEmail))

	gt.Array(t, slackN.calls).Equal([]types.ChannelType{types.ChannelSlack})
	gt.Array(t, webhookN.calls).Equal([]types.ChannelType{types.ChannelWebhook})
	gt.Array(t, fallback.calls).Equal([]types.ChannelType{types.ChannelEmail})
}

func TestRouterRejectsUnknownChannel(t *testing.T) {
	r := notify.NewRouter()
	err := r.Notify(context.Background(), "alice", testIncident(), types.ChannelType("pigeon"))
	gt.Error(t, err)
}

var _ interfaces.Notifier = &recordingNotifier{}

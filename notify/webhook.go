package notify

import (
	"context"
	"fmt"
	"net/http"

	fhttp "github.com/randalmurphal/featureflow/http"
)

// WebhookNotifier posts events as JSON to a generic HTTP endpoint.
type WebhookNotifier struct {
	client *fhttp.Client
}

// NewWebhookNotifier creates a notifier that adds headers to every request.
func NewWebhookNotifier(url string, headers map[string]string) *WebhookNotifier {
	return &WebhookNotifier{
		client: fhttp.NewClient(fhttp.ClientConfig{
			BaseURL:     url,
			ServiceName: "webhook",
			BeforeRequest: func(req *http.Request) {
				for k, v := range headers {
					req.Header.Set(k, v)
				}
			},
		}),
	}
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	if err := n.client.Post(ctx, "", event, nil); err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	return nil
}

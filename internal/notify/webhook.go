// Package notify posts operator alerts to a chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Doer is the subset of *http.Client used for delivery.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Delivery describes the outcome of one Notify call.
type Delivery struct {
	Attempted  bool
	Delivered  bool
	StatusCode int
	Err        error
}

type payload struct {
	Content string `json:"content"`
}

// WebhookNotifier posts {"content": message} to the first configured webhook.
type WebhookNotifier struct {
	envKeys []string
	message string
	timeout time.Duration
	client  Doer
	getenv  func(string) string
	log     *slog.Logger
}

func NewWebhookNotifier(envKeys []string, message string, timeout time.Duration, log *slog.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &WebhookNotifier{
		envKeys: envKeys,
		message: message,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		getenv:  os.Getenv,
		log:     log.With("component", "notify"),
	}
}

// WithHTTPClient overrides the default transport. Primarily useful for testing.
func (n *WebhookNotifier) WithHTTPClient(client Doer) {
	if client != nil {
		n.client = client
	}
}

// WithGetenv overrides the environment lookup. Primarily useful for testing.
func (n *WebhookNotifier) WithGetenv(getenv func(string) string) {
	if getenv != nil {
		n.getenv = getenv
	}
}

// WebhookURL returns the first non-empty webhook URL from the environment.
func (n *WebhookNotifier) WebhookURL() string {
	for _, key := range n.envKeys {
		if v := strings.TrimSpace(n.getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// Notify sends the alert. Failures are logged and returned in the Delivery,
// they are never escalated.
func (n *WebhookNotifier) Notify(ctx context.Context) Delivery {
	webhookURL := n.WebhookURL()
	if webhookURL == "" {
		n.log.Debug("alert webhook not configured, skipping")
		return Delivery{}
	}

	d := Delivery{Attempted: true}

	status, err := n.post(ctx, webhookURL)
	d.StatusCode = status
	if err != nil {
		d.Err = err
		n.log.Warn("alert delivery failed", "error", err.Error(), "status", status)
		return d
	}

	d.Delivered = true
	n.log.Info("alert sent", "status", status)
	return d
}

func (n *WebhookNotifier) post(ctx context.Context, webhookURL string) (int, error) {
	parsed, err := url.Parse(webhookURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return 0, fmt.Errorf("invalid webhook URL")
	}

	body, err := json.Marshal(payload{Content: n.message})
	if err != nil {
		return 0, fmt.Errorf("marshal alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, parsed.String(), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return 0, fmt.Errorf("execute request: network error contacting %s: %w", parsed.Hostname(), err)
		}
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	// Ensure body is fully read to allow connection reuse
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return resp.StatusCode, nil
}

package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/use-agent/dailyclaim/models"
	"github.com/use-agent/dailyclaim/report"
)

// SignatureHeader carries "sha256=<hex>" of the request body.
const SignatureHeader = "X-Dailyclaim-Signature"

// Webhook event types.
const (
	EventRunCompleted = "run.completed"
	EventRunAborted   = "run.aborted"
)

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type        string                      `json:"type"`
	RunID       string                      `json:"run_id,omitempty"`
	Site        string                      `json:"site"`
	Timestamp   int64                       `json:"timestamp"`
	RewardTotal string                      `json:"reward_total,omitempty"`
	Error       string                      `json:"error,omitempty"`
	Data        []models.NotificationRecord `json:"data"`
}

// Webhook posts a signed JSON event per run.
type Webhook struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhook creates a webhook channel. The body is signed with
// HMAC-SHA256 when secret is non-empty.
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Enabled() bool { return w.url != "" }

func (w *Webhook) Notify(ctx context.Context, site string, s *report.Summary) error {
	return w.deliver(ctx, &Event{
		Type:        EventRunCompleted,
		RunID:       s.RunID,
		Site:        site,
		Timestamp:   time.Now().Unix(),
		RewardTotal: s.RewardTotalText(),
		Data:        s.Notifications(),
	})
}

func (w *Webhook) NotifyError(ctx context.Context, site string, cause error) error {
	return w.deliver(ctx, &Event{
		Type:      EventRunAborted,
		Site:      site,
		Timestamp: time.Now().Unix(),
		Error:     cause.Error(),
		Data:      []models.NotificationRecord{},
	})
}

func (w *Webhook) deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Dailyclaim-Webhook/1.0")
	if w.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

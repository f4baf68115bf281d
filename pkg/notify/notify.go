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

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/warden/pkg/membership"
)

// memberAddedEvent is the webhook payload for a new membership.
type memberAddedEvent struct {
	Event      string                 `json:"event"`
	Timestamp  time.Time              `json:"timestamp"`
	Recipient  string                 `json:"recipient"`
	Membership *membership.Membership `json:"membership"`
}

// WebhookNotifier delivers "member added" notifications as signed
// HTTP POSTs. Delivery failures are logged here and never returned to
// the mutation path, which only calls this through a fire-and-forget
// goroutine.
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
	log    *logrus.Logger
}

// NewWebhookNotifier creates a notifier posting to url. secret is
// optional; when set, payloads carry an HMAC-SHA256 signature header.
func NewWebhookNotifier(url, secret string, log *logrus.Logger) *WebhookNotifier {
	if log == nil {
		log = logrus.New()
	}
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// MemberAdded posts the membership event to the configured endpoint.
func (n *WebhookNotifier) MemberAdded(ctx context.Context, m *membership.Membership, recipientEmail string) error {
	payload, err := json.Marshal(memberAddedEvent{
		Event:      "member.added",
		Timestamp:  time.Now(),
		Recipient:  recipientEmail,
		Membership: m,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Warden-Event", "member.added")
	req.Header.Set("X-Warden-Delivery", time.Now().Format(time.RFC3339))
	if n.secret != "" {
		req.Header.Set("X-Warden-Signature", generateSignature(payload, n.secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.WithError(err).WithField("user", m.UserID).Error("member added notification failed")
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.log.WithFields(logrus.Fields{
			"user":   m.UserID,
			"status": resp.StatusCode,
		}).Error("member added notification rejected")
		return fmt.Errorf("notification endpoint returned non-2xx status: %d", resp.StatusCode)
	}
	return nil
}

// VerifySignature verifies a payload signature, for receivers.
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := generateSignature(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func generateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// LogNotifier records notifications in the log only. Used when no
// webhook endpoint is configured.
type LogNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	if log == nil {
		log = logrus.New()
	}
	return &LogNotifier{log: log}
}

// MemberAdded implements the notifier contract.
func (n *LogNotifier) MemberAdded(_ context.Context, m *membership.Membership, recipientEmail string) error {
	n.log.WithFields(logrus.Fields{
		"user":      m.UserID,
		"reference": m.Reference.String(),
		"recipient": recipientEmail,
	}).Info("member added")
	return nil
}

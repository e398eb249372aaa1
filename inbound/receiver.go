// Package inbound accepts webhook notifications from external automation
// and acknowledges them after a shared-secret check.
package inbound

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"strings"

	"github.com/goliatone/go-studio/core"
)

// Notification is the loosely typed body of an inbound call. Only the
// event name is interpreted; everything else is carried for logging.
type Notification struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Ack is the body returned on a successful receipt.
type Ack struct {
	Status string `json:"status"`
	Event  string `json:"event,omitempty"`
}

// Receiver verifies the query-string secret and records the notification.
// It keeps no inbox: receipt is acknowledgement.
type Receiver struct {
	secret string
	logger core.Logger
}

func NewReceiver(cfg core.InboundConfig, logger core.Logger) *Receiver {
	return &Receiver{
		secret: strings.TrimSpace(cfg.Secret),
		logger: logger,
	}
}

// Configured reports whether a shared secret is set. Unconfigured
// receivers reject every call as a server error rather than running open.
func (r *Receiver) Configured() bool {
	return r != nil && r.secret != ""
}

// Verify checks the caller-provided secret. The comparison is constant
// time so the secret cannot be probed byte by byte.
func (r *Receiver) Verify(provided string) error {
	if !r.Configured() {
		return core.InternalError("inbound: webhook secret is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(r.secret)) != 1 {
		return core.UnauthorizedError("inbound: invalid webhook secret")
	}
	return nil
}

// Receive parses and acknowledges a verified notification. Unknown event
// names are still acknowledged; the sender is not ours to reject.
func (r *Receiver) Receive(ctx context.Context, body []byte) Ack {
	var notification Notification
	if len(body) > 0 {
		if err := json.Unmarshal(body, &notification); err != nil {
			core.LogWith(ctx, r.loggerOrNil(), "warn", "inbound webhook body is not valid JSON", map[string]any{
				"error": err.Error(),
			})
			return Ack{Status: "received"}
		}
	}

	event := strings.TrimSpace(notification.Event)
	switch {
	case event == "":
		core.LogWith(ctx, r.loggerOrNil(), "info", "inbound webhook received", map[string]any{
			"event": "(none)",
		})
	case core.KnownEvent(event):
		core.LogWith(ctx, r.loggerOrNil(), "info", "inbound webhook received", map[string]any{
			"event": event,
		})
	default:
		core.LogWith(ctx, r.loggerOrNil(), "warn", "inbound webhook carries unknown event", map[string]any{
			"event": event,
		})
	}
	return Ack{Status: "received", Event: event}
}

func (r *Receiver) loggerOrNil() core.Logger {
	if r == nil {
		return nil
	}
	return r.logger
}

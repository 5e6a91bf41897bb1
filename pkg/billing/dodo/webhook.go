package dodo

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/contractai/backend/pkg/billing/internal"
	"github.com/contractai/backend/pkg/ledger"
)

// Event types that grant credits. Everything else is acknowledged and
// ignored so Dodo does not retry deliveries we do not care about.
var grantingEventTypes = map[string]bool{
	"payment.completed":      true,
	"checkout.completed":     true,
	"subscription.activated": true,
	"subscription.renewed":   true,
}

type namedObject struct {
	Name   string          `json:"name"`
	Amount json.RawMessage `json:"amount"`
}

type webhookData struct {
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
	Email    string          `json:"email"`
	Plan     string          `json:"plan"`
	Product  namedObject     `json:"product"`
	Price    namedObject     `json:"price"`
	LineItem namedObject     `json:"line_item"`
	Amount   json.RawMessage `json:"amount"`
}

type webhookPayload struct {
	ID      string      `json:"id"`
	EventID string      `json:"event_id"`
	Type    string      `json:"type"`
	Event   string      `json:"event"`
	Data    webhookData `json:"data"`
}

func (p *webhookPayload) eventID() string {
	if p.ID != "" {
		return p.ID
	}
	return p.EventID
}

func (p *webhookPayload) eventType() string {
	if p.Type != "" {
		return p.Type
	}
	return p.Event
}

func (d *webhookData) email() string {
	if e := strings.TrimSpace(d.Customer.Email); e != "" {
		return e
	}
	return strings.TrimSpace(d.Email)
}

func (d *webhookData) planName() string {
	for _, name := range []string{d.Plan, d.Product.Name, d.Price.Name, d.LineItem.Name} {
		if name != "" {
			return name
		}
	}
	return ""
}

func (d *webhookData) amount() string {
	if s := rawAmount(d.Amount); s != "" {
		return s
	}
	return rawAmount(d.Price.Amount)
}

// rawAmount normalizes an amount field that may arrive as a JSON string
// or number into its textual form.
func rawAmount(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// WebhookHandler returns the HTTP handler for Dodo webhook deliveries.
func (p *Provider) WebhookHandler() http.Handler {
	return http.HandlerFunc(p.handleWebhook)
}

func (p *Provider) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		p.config.Metrics.RecordWebhookProcessingDuration(p.Name(), time.Since(start))
	}()

	if p.config.WebhookSecret == "" {
		p.config.Logger.Error("webhook secret not configured")
		p.config.Metrics.RecordWebhookError(p.Name(), "not_configured")
		internal.WriteError(w, http.StatusInternalServerError, "Webhook secret not configured")
		return
	}

	body, err := internal.ReadBodyStrict(w, r, p.config.MaxBodyBytes)
	if err != nil {
		p.config.Metrics.RecordWebhookError(p.Name(), "read_body")
		internal.WriteError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	err = verifySignature(
		p.config.WebhookSecret,
		r.Header.Get("webhook-id"),
		r.Header.Get("webhook-timestamp"),
		r.Header.Get("webhook-signature"),
		body,
		p.config.now(),
	)
	if err != nil {
		p.config.Logger.Warn("webhook signature verification failed",
			ledger.Field{Key: "error", Value: err.Error()})
		p.config.Metrics.RecordWebhookError(p.Name(), "invalid_signature")
		internal.WriteError(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		p.config.Metrics.RecordWebhookError(p.Name(), "invalid_payload")
		internal.WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	ctx := r.Context()
	eventID := payload.eventID()
	eventType := payload.eventType()

	// Claiming before granting makes redelivered events no-ops even when
	// the first attempt failed after the claim. Events without an id
	// cannot be deduplicated and are always processed.
	if eventID != "" {
		claimed, err := p.config.Ledger.ClaimEvent(ctx, eventID)
		if err != nil {
			p.config.Logger.Error("claiming webhook event failed",
				ledger.Field{Key: "event_id", Value: eventID},
				ledger.Field{Key: "error", Value: err.Error()})
			p.config.Metrics.RecordWebhookError(p.Name(), "claim_failed")
			internal.WriteError(w, http.StatusInternalServerError, "Failed to process event")
			return
		}
		if !claimed {
			p.config.Logger.Info("duplicate webhook event",
				ledger.Field{Key: "event_id", Value: eventID},
				ledger.Field{Key: "event_type", Value: eventType})
			p.config.Metrics.RecordWebhookEvent(p.Name(), eventType, "duplicate")
			internal.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "duplicate": true})
			return
		}
	}

	if !grantingEventTypes[eventType] {
		p.config.Metrics.RecordWebhookEvent(p.Name(), eventType, "skipped")
		internal.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	email := payload.Data.email()
	if email == "" {
		p.config.Logger.Warn("webhook event without customer email",
			ledger.Field{Key: "event_id", Value: eventID},
			ledger.Field{Key: "event_type", Value: eventType})
		p.config.Metrics.RecordWebhookEvent(p.Name(), eventType, "skipped")
		internal.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	planName := payload.Data.planName()
	grant := p.config.Ledger.ResolveGrant(planName, payload.Data.amount())
	if grant == 0 {
		p.config.Metrics.RecordWebhookEvent(p.Name(), eventType, "skipped")
		internal.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if _, err := p.config.Ledger.Grant(ctx, email, grant); err != nil {
		p.config.Logger.Error("granting credits failed",
			ledger.Field{Key: "event_id", Value: eventID},
			ledger.Field{Key: "error", Value: err.Error()})
		p.config.Metrics.RecordWebhookError(p.Name(), "grant_failed")
		internal.WriteError(w, http.StatusInternalServerError, "Failed to grant credits")
		return
	}

	if isSubscriptionEvent(eventType) && strings.Contains(strings.ToLower(planName), ledger.PlanPro) {
		if err := p.config.Ledger.SetPlan(ctx, email, ledger.PlanPro); err != nil {
			p.config.Logger.Warn("updating plan failed",
				ledger.Field{Key: "event_id", Value: eventID},
				ledger.Field{Key: "error", Value: err.Error()})
		}
	}

	p.config.Logger.Info("webhook credits granted",
		ledger.Field{Key: "event_id", Value: eventID},
		ledger.Field{Key: "event_type", Value: eventType},
		ledger.Field{Key: "granted", Value: grant})
	p.config.Metrics.RecordWebhookEvent(p.Name(), eventType, "granted")
	internal.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "granted": grant})
}

func isSubscriptionEvent(eventType string) bool {
	return eventType == "subscription.activated" || eventType == "subscription.renewed"
}

package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/contractai/backend/pkg/billing/internal"
	"github.com/contractai/backend/pkg/ledger"
)

// checkoutSession holds the fields we read from checkout.session.completed.
// Decoding into a narrow struct keeps us independent of API version churn
// in the full stripe.CheckoutSession type.
type checkoutSession struct {
	ID              string `json:"id"`
	Mode            string `json:"mode"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	AmountTotal int64             `json:"amount_total"`
	Metadata    map[string]string `json:"metadata"`
}

func (s *checkoutSession) email() string {
	if e := strings.TrimSpace(s.CustomerDetails.Email); e != "" {
		return e
	}
	if e := strings.TrimSpace(s.CustomerEmail); e != "" {
		return e
	}
	return strings.TrimSpace(s.Metadata["email"])
}

// WebhookHandler returns the HTTP handler for Stripe webhook deliveries.
func (p *Provider) WebhookHandler() http.Handler {
	return http.HandlerFunc(p.handleWebhook)
}

func (p *Provider) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		p.config.Metrics.RecordWebhookProcessingDuration(p.Name(), time.Since(start))
	}()

	if p.config.WebhookSecret == "" {
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

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get("Stripe-Signature"),
		p.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		p.config.Logger.Warn("webhook signature verification failed",
			ledger.Field{Key: "error", Value: err.Error()})
		p.config.Metrics.RecordWebhookError(p.Name(), "invalid_signature")
		internal.WriteError(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	status, resp := p.processEvent(r.Context(), &event)
	internal.WriteJSON(w, status, resp)
}

func (p *Provider) processEvent(ctx context.Context, event *stripe.Event) (int, map[string]any) {
	eventType := string(event.Type)

	if event.ID != "" {
		claimed, err := p.config.Ledger.ClaimEvent(ctx, event.ID)
		if err != nil {
			p.config.Metrics.RecordWebhookError(p.Name(), "claim_failed")
			return http.StatusInternalServerError, map[string]any{"detail": "Failed to process event"}
		}
		if !claimed {
			p.config.Metrics.RecordWebhookEvent(p.Name(), eventType, "duplicate")
			return http.StatusOK, map[string]any{"ok": true, "duplicate": true}
		}
	}

	if event.Type != "checkout.session.completed" {
		p.config.Metrics.RecordWebhookEvent(p.Name(), eventType, "skipped")
		return http.StatusOK, map[string]any{"ok": true}
	}

	var session checkoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		p.config.Metrics.RecordWebhookError(p.Name(), "invalid_payload")
		return http.StatusBadRequest, map[string]any{"detail": "Invalid JSON payload"}
	}

	email := session.email()
	if email == "" {
		p.config.Logger.Warn("checkout session without customer email",
			ledger.Field{Key: "event_id", Value: event.ID})
		p.config.Metrics.RecordWebhookEvent(p.Name(), eventType, "skipped")
		return http.StatusOK, map[string]any{"ok": true}
	}

	// Amount arrives in cents, so a 15 USD checkout resolves via "1500".
	amount := strconv.FormatInt(session.AmountTotal, 10)
	grant := p.config.Ledger.ResolveGrant(session.Metadata["plan"], amount)
	if grant == 0 {
		p.config.Metrics.RecordWebhookEvent(p.Name(), eventType, "skipped")
		return http.StatusOK, map[string]any{"ok": true}
	}

	if _, err := p.config.Ledger.Grant(ctx, email, grant); err != nil {
		p.config.Logger.Error("granting credits failed",
			ledger.Field{Key: "event_id", Value: event.ID},
			ledger.Field{Key: "error", Value: err.Error()})
		p.config.Metrics.RecordWebhookError(p.Name(), "grant_failed")
		return http.StatusInternalServerError, map[string]any{"detail": "Failed to grant credits"}
	}

	if strings.Contains(strings.ToLower(session.Metadata["plan"]), ledger.PlanPro) && session.Mode == "subscription" {
		if err := p.config.Ledger.SetPlan(ctx, email, ledger.PlanPro); err != nil {
			p.config.Logger.Warn("updating plan failed",
				ledger.Field{Key: "error", Value: err.Error()})
		}
	}

	p.config.Logger.Info("webhook credits granted",
		ledger.Field{Key: "event_id", Value: event.ID},
		ledger.Field{Key: "granted", Value: grant})
	p.config.Metrics.RecordWebhookEvent(p.Name(), eventType, "granted")
	return http.StatusOK, map[string]any{"ok": true, "granted": grant}
}

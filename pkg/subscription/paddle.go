package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	// PremiumPriceIDs lists the prices that unlock the premium tier.
	// Empty means every paid price does.
	PremiumPriceIDs []string `env:"PADDLE_PREMIUM_PRICE_IDS" envSeparator:","`
	MonthlyPriceID  string   `env:"PADDLE_MONTHLY_PRICE_ID"`
	AnnualPriceID   string   `env:"PADDLE_ANNUAL_PRICE_ID"`
}

// IntervalPrices returns the configured price per billing interval.
func (c PaddleConfig) IntervalPrices() map[BillingInterval]string {
	prices := make(map[BillingInterval]string, 2)
	if c.MonthlyPriceID != "" {
		prices[BillingIntervalMonthly] = c.MonthlyPriceID
	}
	if c.AnnualPriceID != "" {
		prices[BillingIntervalAnnual] = c.AnnualPriceID
	}
	return prices
}

// paddleSubscriptions is the part of the Paddle SDK the provider calls.
type paddleSubscriptions interface {
	GetSubscription(ctx context.Context, req *paddle.GetSubscriptionRequest) (*paddle.Subscription, error)
	UpdateSubscription(ctx context.Context, req *paddle.UpdateSubscriptionRequest) (*paddle.Subscription, error)
}

// PaddleProvider implements BillingProvider for Paddle.
type PaddleProvider struct {
	subscriptions paddleSubscriptions
	verifier      *paddle.WebhookVerifier
	config        PaddleConfig
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, errors.Join(ErrInvalidProviderEnvironment, fmt.Errorf("paddle environment %q", config.Environment))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		subscriptions: client.SubscriptionsClient,
		verifier:      paddle.NewWebhookVerifier(config.WebhookSecret),
		config:        config,
	}, nil
}

// GetSubscription fetches a subscription from Paddle.
func (p *PaddleProvider) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	if subscriptionID == "" {
		return nil, errors.Join(ErrInvalidArgument, ErrMissingSubscription)
	}

	sub, err := p.subscriptions.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderError, fmt.Errorf("failed to get paddle subscription: %w", err))
	}

	return fromPaddleSubscription(sub), nil
}

// ChangeInterval swaps the subscription item to the price of the requested
// interval. Trialing subscriptions are not billed and keep their trial end.
func (p *PaddleProvider) ChangeInterval(ctx context.Context, req ChangeIntervalRequest) error {
	if req.SubscriptionID == "" {
		return errors.Join(ErrInvalidArgument, ErrMissingSubscription)
	}
	if req.PriceID == "" {
		return errors.Join(ErrInvalidArgument, ErrMissingPriceID)
	}

	item := paddle.NewUpdateSubscriptionItemsSubscriptionUpdateItemFromCatalog(&paddle.SubscriptionUpdateItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	update := &paddle.UpdateSubscriptionRequest{
		SubscriptionID:       req.SubscriptionID,
		Items:                paddle.NewPatchField([]paddle.UpdateSubscriptionItems{*item}),
		ProrationBillingMode: paddle.NewPatchField(paddleProrationMode(req.Decision.Proration)),
	}
	if req.Decision.PreserveTrialEnd != nil {
		update.NextBilledAt = paddle.NewPatchField(req.Decision.PreserveTrialEnd.UTC().Format(time.RFC3339))
	}

	if _, err := p.subscriptions.UpdateSubscription(ctx, update); err != nil {
		return errors.Join(ErrProviderError, fmt.Errorf("failed to update paddle subscription: %w", err))
	}
	return nil
}

// ParseWebhook validates and parses incoming webhook data from Paddle.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	return parsePaddleEvent(payload)
}

func parsePaddleEvent(payload []byte) (*WebhookEvent, error) {
	var paddleEvent struct {
		EventID    string         `json:"event_id"`
		EventType  string         `json:"event_type"`
		OccurredAt string         `json:"occurred_at"`
		Data       map[string]any `json:"data"`
	}

	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	event := &WebhookEvent{
		Type:          mapPaddleEventType(paddleEvent.EventType),
		ProviderEvent: paddleEvent.EventType,
		Raw:           paddleEvent.Data,
	}
	data := paddleEvent.Data

	if customData, ok := data["custom_data"].(map[string]any); ok {
		if customerID, ok := customData["customer_id"].(string); ok {
			event.CustomerID = customerID
		}
	}
	if status, ok := data["status"].(string); ok {
		event.Status = mapPaddleStatus(status)
	}

	switch {
	case strings.HasPrefix(paddleEvent.EventType, "subscription."):
		event.SubscriptionID, _ = data["id"].(string)
		if period, ok := data["current_billing_period"].(map[string]any); ok {
			if endsAt, ok := period["ends_at"].(string); ok {
				event.CurrentPeriodEnd = parsePaddleTime(&endsAt)
			}
		}
		if items, ok := data["items"].([]any); ok && len(items) > 0 {
			if item, ok := items[0].(map[string]any); ok {
				if price, ok := item["price"].(map[string]any); ok {
					event.PriceID, _ = price["id"].(string)
				}
			}
		}

	case strings.HasPrefix(paddleEvent.EventType, "transaction."):
		// Transactions reference the subscription they bill, if any.
		event.SubscriptionID, _ = data["subscription_id"].(string)
		if items, ok := data["items"].([]any); ok && len(items) > 0 {
			if item, ok := items[0].(map[string]any); ok {
				event.PriceID, _ = item["price_id"].(string)
			}
		}
	}

	return event, nil
}

func fromPaddleSubscription(sub *paddle.Subscription) *ProviderSubscription {
	out := &ProviderSubscription{
		ID:     sub.ID,
		Status: mapPaddleStatus(string(sub.Status)),
	}
	if customerID, ok := sub.CustomData["customer_id"].(string); ok {
		out.CustomerID = customerID
	}
	if sub.CurrentBillingPeriod != nil {
		out.CurrentPeriodEnd = parsePaddleTime(&sub.CurrentBillingPeriod.EndsAt)
	}
	if len(sub.Items) > 0 {
		item := sub.Items[0]
		out.PriceID = item.Price.ID
		if item.TrialDates != nil {
			out.TrialEndsAt = parsePaddleTime(&item.TrialDates.EndsAt)
		}
	}
	// Paddle leaves trial dates off items once billed; a trialing subscription
	// is billed first at the end of its trial.
	if out.TrialEndsAt == nil && out.Status == StatusTrialing {
		out.TrialEndsAt = parsePaddleTime(sub.NextBilledAt)
	}
	return out
}

func paddleProrationMode(m ProrationMode) paddle.ProrationBillingMode {
	if m == ProrationNone {
		return paddle.ProrationBillingModeDoNotBill
	}
	return paddle.ProrationBillingModeProratedImmediately
}

func parsePaddleTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// mapPaddleEventType maps Paddle event types to internal EventType.
func mapPaddleEventType(paddleEvent string) EventType {
	switch paddleEvent {
	case "transaction.completed":
		return EventSubscriptionCreated
	case "subscription.created", "subscription.activated", "subscription.trialing":
		return EventSubscriptionCreated
	case "subscription.updated", "subscription.past_due", "subscription.paused":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionCancelled
	case "subscription.resumed":
		return EventSubscriptionResumed
	case "transaction.payment_succeeded":
		return EventPaymentSucceeded
	case "transaction.payment_failed":
		return EventPaymentFailed
	default:
		return EventType(paddleEvent)
	}
}

// mapPaddleStatus maps Paddle subscription status to internal SubscriptionStatus.
func mapPaddleStatus(paddleStatus string) SubscriptionStatus {
	switch strings.ToLower(paddleStatus) {
	case "trialing":
		return StatusTrialing
	case "active":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "paused":
		return StatusPaused
	case "canceled", "cancelled":
		return StatusCancelled
	case "expired":
		return StatusExpired
	default:
		return SubscriptionStatus(paddleStatus)
	}
}

package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/metrics"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type HTTPClient struct {
	baseURL string
	apiKey  string
	client  httpDoer
}

func NewHTTPClient(baseURL, apiKey string, client httpDoer) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

type wireAddOnLine struct {
	AddOnTypeID string `json:"addonTypeId"`
	Quantity    int    `json:"quantity"`
	Frequency   string `json:"frequency,omitempty"`
}

type wireSubscription struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	PlanVariantID string          `json:"planVariantId"`
	BillingCycle  string          `json:"billingCycle"`
	Status        string          `json:"status"`
	NextBillingAt *string         `json:"nextBillingAt"`
	Amount        decimal.Decimal `json:"amountCad"`
	AddOns        []wireAddOnLine `json:"addons"`
}

func (c *HTTPClient) GetSubscription(ctx context.Context, id string) (*entity.Subscription, error) {
	var body struct {
		Subscription *wireSubscription `json:"subscription"`
	}
	if err := c.call(ctx, http.MethodGet, "/subscriptions/"+id, nil, &body, "get_subscription"); err != nil {
		return nil, err
	}
	if body.Subscription == nil {
		return nil, fmt.Errorf("%w: missing subscription envelope", ErrInvalidPricingResponse)
	}
	return body.Subscription.toEntity()
}

func (c *HTTPClient) PreviewVariantChange(ctx context.Context, subscriptionID, newVariantID string) (*ProrationPreview, error) {
	payload := map[string]string{"newPlanVariantId": newVariantID}
	return c.preview(ctx, "/subscriptions/"+subscriptionID+"/proration-preview", payload, "proration_preview")
}

func (c *HTTPClient) PreviewAddOnChange(ctx context.Context, subscriptionID string, addons []entity.AddOnSelection) (*ProrationPreview, error) {
	return c.preview(ctx, "/subscriptions/"+subscriptionID+"/addons/preview", addOnPayload(addons), "addons_preview")
}

func (c *HTTPClient) ChangeVariantNow(ctx context.Context, subscriptionID, newVariantID string) (*CommitResult, error) {
	payload := map[string]string{"newPlanVariantId": newVariantID}
	return c.commit(ctx, "/subscriptions/"+subscriptionID+"/change-variant-self", payload, "change_variant_now")
}

func (c *HTTPClient) ChangeAddOnsNow(ctx context.Context, subscriptionID string, addons []entity.AddOnSelection) (*CommitResult, error) {
	return c.commit(ctx, "/subscriptions/"+subscriptionID+"/addons/change-self-now", addOnPayload(addons), "change_addons_now")
}

func (c *HTTPClient) ScheduleVariantChange(ctx context.Context, subscriptionID, newVariantID string) error {
	payload := map[string]string{"newPlanVariantId": newVariantID}
	return c.call(ctx, http.MethodPost, "/subscriptions/"+subscriptionID+"/schedule-change-variant-self", payload, nil, "schedule_variant_change")
}

func (c *HTTPClient) ScheduleAddOnChange(ctx context.Context, subscriptionID string, addons []entity.AddOnSelection) error {
	return c.call(ctx, http.MethodPost, "/subscriptions/"+subscriptionID+"/addons/schedule-change-self", addOnPayload(addons), nil, "schedule_addon_change")
}

func (c *HTTPClient) EstimateTax(ctx context.Context, subtotal decimal.Decimal, province string) (*TaxEstimate, error) {
	payload := map[string]interface{}{"subtotalCad": subtotal, "province": province}
	var body struct {
		TaxRate *decimal.Decimal `json:"taxRate"`
		Tax     *decimal.Decimal `json:"taxCad"`
		Total   *decimal.Decimal `json:"totalCad"`
	}
	if err := c.call(ctx, http.MethodPost, "/pricing/estimate", payload, &body, "tax_estimate"); err != nil {
		return nil, err
	}
	if body.TaxRate == nil || body.Tax == nil || body.Total == nil {
		return nil, fmt.Errorf("%w: tax estimate missing fields", ErrInvalidPricingResponse)
	}
	return &TaxEstimate{TaxRate: *body.TaxRate, Tax: *body.Tax, Total: *body.Total}, nil
}

func (c *HTTPClient) preview(ctx context.Context, path string, payload interface{}, endpoint string) (*ProrationPreview, error) {
	var body struct {
		ProrationDelta *decimal.Decimal `json:"prorationDeltaCad"`
		Tax            *decimal.Decimal `json:"taxCad"`
		Total          *decimal.Decimal `json:"totalCad"`
	}
	if err := c.call(ctx, http.MethodPost, path, payload, &body, endpoint); err != nil {
		return nil, err
	}

	// Missing fields are an upstream contract violation, never defaulted to
	// zero. Tax and total are only owed alongside a positive delta.
	if body.ProrationDelta == nil {
		return nil, fmt.Errorf("%w: missing prorationDeltaCad", ErrInvalidPricingResponse)
	}
	preview := &ProrationPreview{ProrationDelta: *body.ProrationDelta}
	if body.ProrationDelta.Sign() > 0 {
		if body.Tax == nil || body.Total == nil {
			return nil, fmt.Errorf("%w: positive delta without taxCad/totalCad", ErrInvalidPricingResponse)
		}
		preview.Tax = *body.Tax
		preview.Total = *body.Total
	}
	return preview, nil
}

func (c *HTTPClient) commit(ctx context.Context, path string, payload interface{}, endpoint string) (*CommitResult, error) {
	var body struct {
		Payment *struct {
			ClientSecret string `json:"clientSecret"`
		} `json:"payment"`
	}
	if err := c.call(ctx, http.MethodPost, path, payload, &body, endpoint); err != nil {
		return nil, err
	}

	result := &CommitResult{}
	if body.Payment != nil {
		result.PaymentClientSecret = body.Payment.ClientSecret
	}
	return result, nil
}

func (c *HTTPClient) call(ctx context.Context, method, path string, payload, out interface{}, endpoint string) error {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ObserveUpstream(endpoint, start)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrSubscriptionNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("billing platform returned %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPricingResponse, err)
	}
	return nil
}

// addOnPayload serializes normalized selections for upstream. Zero-quantity
// lines must already be stripped by the caller; they are never submitted as
// explicit zero-quantity line items.
func addOnPayload(addons []entity.AddOnSelection) map[string]interface{} {
	lines := make([]wireAddOnLine, 0, len(addons))
	for _, a := range addons {
		lines = append(lines, wireAddOnLine{AddOnTypeID: a.AddOnTypeID, Quantity: a.Quantity, Frequency: string(a.Frequency)})
	}
	return map[string]interface{}{"addons": lines}
}

func (ws *wireSubscription) toEntity() (*entity.Subscription, error) {
	sub := &entity.Subscription{
		ID:            ws.ID,
		UserID:        ws.UserID,
		PlanVariantID: ws.PlanVariantID,
		BillingCycle:  entity.Duration(ws.BillingCycle),
		Amount:        ws.Amount,
		Paused:        ws.Status == "paused",
		Cancelled:     ws.Status == "cancelled",
	}
	if ws.NextBillingAt != nil && strings.TrimSpace(*ws.NextBillingAt) != "" {
		t, err := time.Parse(time.RFC3339, *ws.NextBillingAt)
		if err != nil {
			return nil, fmt.Errorf("%w: bad nextBillingAt %q", ErrInvalidPricingResponse, *ws.NextBillingAt)
		}
		utc := t.UTC()
		sub.NextBillingAt = &utc
	}
	for _, line := range ws.AddOns {
		freq := entity.AddOnFrequency(line.Frequency)
		if line.Frequency == "" {
			freq = entity.FrequencySpecificDays
		}
		sub.AddOns = append(sub.AddOns, entity.AddOnSelection{
			AddOnTypeID: line.AddOnTypeID,
			Quantity:    line.Quantity,
			Frequency:   freq,
		})
	}
	return sub, nil
}

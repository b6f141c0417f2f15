package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
)

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestGetSubscription(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"subscription":{
		"id":"sub-1","userId":"user-1","planVariantId":"var-1",
		"billingCycle":"MONTHLY","status":"active",
		"nextBillingAt":"2026-04-01T00:00:00Z","amountCad":"2499",
		"addons":[{"addonTypeId":"addon-rice","quantity":2,"frequency":"DAILY"},
		          {"addonTypeId":"addon-sweet","quantity":1}]
	}}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	sub, err := client.GetSubscription(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if sub.ID != "sub-1" || sub.PlanVariantID != "var-1" || sub.BillingCycle != entity.DurationMonthly {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.Paused || sub.Cancelled {
		t.Fatalf("expected active subscription, got paused=%v cancelled=%v", sub.Paused, sub.Cancelled)
	}
	want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if sub.NextBillingAt == nil || !sub.NextBillingAt.Equal(want) {
		t.Fatalf("expected next billing %s, got %v", want, sub.NextBillingAt)
	}
	if len(sub.AddOns) != 2 {
		t.Fatalf("expected 2 add-on lines, got %d", len(sub.AddOns))
	}
	if sub.AddOns[0].Frequency != entity.FrequencyDaily {
		t.Fatalf("expected DAILY frequency, got %s", sub.AddOns[0].Frequency)
	}
	// Omitted frequency defaults to the literal-quantity interpretation.
	if sub.AddOns[1].Frequency != entity.FrequencySpecificDays {
		t.Fatalf("expected SPECIFIC_DAYS default, got %s", sub.AddOns[1].Frequency)
	}
}

func TestGetSubscriptionNotFound(t *testing.T) {
	server := jsonServer(t, http.StatusNotFound, `{"error":"not found"}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	if _, err := client.GetSubscription(context.Background(), "sub-x"); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestGetSubscriptionCancelledStatus(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"subscription":{
		"id":"sub-1","planVariantId":"var-1","billingCycle":"WEEKLY",
		"status":"cancelled","nextBillingAt":null,"amountCad":"79.99"
	}}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	sub, err := client.GetSubscription(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !sub.Cancelled {
		t.Fatal("expected cancelled subscription")
	}
	if sub.NextBillingAt != nil {
		t.Fatalf("expected nil next billing, got %v", sub.NextBillingAt)
	}
}

func TestGetSubscriptionBadTimestamp(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"subscription":{
		"id":"sub-1","planVariantId":"var-1","billingCycle":"WEEKLY",
		"status":"active","nextBillingAt":"next tuesday","amountCad":"79.99"
	}}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	if _, err := client.GetSubscription(context.Background(), "sub-1"); !errors.Is(err, ErrInvalidPricingResponse) {
		t.Fatalf("expected ErrInvalidPricingResponse, got %v", err)
	}
}

func TestPreviewVariantChangePositiveDelta(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"prorationDeltaCad":"12.50","taxCad":"1.63","totalCad":"14.13"}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	preview, err := client.PreviewVariantChange(context.Background(), "sub-1", "var-2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !preview.ProrationDelta.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected delta 12.50, got %s", preview.ProrationDelta)
	}
	tax, total, owed := preview.DueNow()
	if !owed {
		t.Fatal("expected a positive delta to owe a charge now")
	}
	if !tax.Equal(decimal.RequireFromString("1.63")) || !total.Equal(decimal.RequireFromString("14.13")) {
		t.Fatalf("unexpected tax/total %s/%s", tax, total)
	}
}

func TestPreviewNegativeDeltaOwesNothing(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"prorationDeltaCad":"-8.00"}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	preview, err := client.PreviewVariantChange(context.Background(), "sub-1", "var-2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, _, owed := preview.DueNow(); owed {
		t.Fatal("expected a negative delta to owe nothing now")
	}
}

func TestPreviewMissingDeltaIsContractViolation(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"taxCad":"1.63","totalCad":"14.13"}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	if _, err := client.PreviewVariantChange(context.Background(), "sub-1", "var-2"); !errors.Is(err, ErrInvalidPricingResponse) {
		t.Fatalf("expected ErrInvalidPricingResponse, got %v", err)
	}
}

func TestPreviewPositiveDeltaRequiresTaxAndTotal(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"prorationDeltaCad":"12.50"}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	if _, err := client.PreviewVariantChange(context.Background(), "sub-1", "var-2"); !errors.Is(err, ErrInvalidPricingResponse) {
		t.Fatalf("expected ErrInvalidPricingResponse, got %v", err)
	}
}

func TestPreviewAddOnChangePayload(t *testing.T) {
	var captured struct {
		AddOns []wireAddOnLine `json:"addons"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/addons/preview") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		_, _ = w.Write([]byte(`{"prorationDeltaCad":"0"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	_, err := client.PreviewAddOnChange(context.Background(), "sub-1", []entity.AddOnSelection{
		{AddOnTypeID: "addon-rice", Quantity: 2, Frequency: entity.FrequencyDaily},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(captured.AddOns) != 1 {
		t.Fatalf("expected 1 add-on line, got %d", len(captured.AddOns))
	}
	line := captured.AddOns[0]
	if line.AddOnTypeID != "addon-rice" || line.Quantity != 2 || line.Frequency != "DAILY" {
		t.Fatalf("unexpected line %+v", line)
	}
}

func TestChangeVariantNowReturnsPaymentSecret(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"payment":{"clientSecret":"pi_secret_123"}}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	result, err := client.ChangeVariantNow(context.Background(), "sub-1", "var-2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.PaymentClientSecret != "pi_secret_123" {
		t.Fatalf("expected client secret to surface, got %q", result.PaymentClientSecret)
	}
}

func TestChangeAddOnsNowWithoutCharge(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"message":"ok"}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	result, err := client.ChangeAddOnsNow(context.Background(), "sub-1", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.PaymentClientSecret != "" {
		t.Fatalf("expected no client secret, got %q", result.PaymentClientSecret)
	}
}

func TestScheduleVariantChange(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"message":"scheduled"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	if err := client.ScheduleVariantChange(context.Background(), "sub-1", "var-2"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if path != "/subscriptions/sub-1/schedule-change-variant-self" {
		t.Fatalf("unexpected path %s", path)
	}
}

func TestEstimateTax(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"taxRate":"0.13","taxCad":"324.87","totalCad":"2823.87"}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	estimate, err := client.EstimateTax(context.Background(), decimal.RequireFromString("2499"), "ON")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !estimate.TaxRate.Equal(decimal.RequireFromString("0.13")) {
		t.Fatalf("expected rate 0.13, got %s", estimate.TaxRate)
	}
	if !estimate.Total.Equal(decimal.RequireFromString("2823.87")) {
		t.Fatalf("expected total 2823.87, got %s", estimate.Total)
	}
}

func TestEstimateTaxMissingFields(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"taxRate":"0.13"}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	if _, err := client.EstimateTax(context.Background(), decimal.RequireFromString("100"), "ON"); !errors.Is(err, ErrInvalidPricingResponse) {
		t.Fatalf("expected ErrInvalidPricingResponse, got %v", err)
	}
}

func TestUpstreamErrorIncludesDetail(t *testing.T) {
	server := jsonServer(t, http.StatusBadGateway, `{"error":"stripe unavailable"}`)
	defer server.Close()

	client := NewHTTPClient(server.URL, "", server.Client())
	_, err := client.PreviewVariantChange(context.Background(), "sub-1", "var-2")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "stripe unavailable") {
		t.Fatalf("expected status and detail in error, got %q", err.Error())
	}
}

func TestAPIKeyHeaderForwarded(t *testing.T) {
	var header string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte(`{"prorationDeltaCad":"0"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "billing-key", server.Client())
	if _, err := client.PreviewVariantChange(context.Background(), "sub-1", "var-2"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if header != "billing-key" {
		t.Fatalf("expected api key header, got %q", header)
	}
}

package types

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
)

func jsonContext(t *testing.T, body string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestAddOnSelectionPayloadDefaultsFrequency(t *testing.T) {
	sel := AddOnSelectionPayload{AddOnTypeID: " addon-rice ", Quantity: 2}.ToEntity()

	if sel.AddOnTypeID != "addon-rice" {
		t.Fatalf("expected trimmed id, got %q", sel.AddOnTypeID)
	}
	if sel.Frequency != entity.FrequencySpecificDays {
		t.Fatalf("expected SPECIFIC_DAYS default, got %s", sel.Frequency)
	}
}

func TestListPlansRequestValidation(t *testing.T) {
	valid := &ListPlansRequest{Duration: "WEEKLY", Diet: "VEG"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	empty := &ListPlansRequest{}
	if err := empty.Validate(); err != nil {
		t.Fatalf("expected unfiltered request to be valid, got %v", err)
	}

	bad := &ListPlansRequest{Duration: "YEARLY"}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for unknown duration")
	}
}

func TestQuoteRequestRequiresVariantOrAxes(t *testing.T) {
	byID := &QuoteRequest{PlanVariantID: "var-1"}
	if err := byID.Validate(); err != nil {
		t.Fatalf("expected variant id alone to be valid, got %v", err)
	}

	byAxes := &QuoteRequest{Duration: "WEEKLY", Diet: "VEG", Family: "SINGLE", Serving: "REGULAR"}
	if err := byAxes.Validate(); err != nil {
		t.Fatalf("expected full axes to be valid, got %v", err)
	}

	partial := &QuoteRequest{Duration: "WEEKLY", Diet: "VEG"}
	if err := partial.Validate(); err == nil {
		t.Fatal("expected error for partial axes")
	}
}

func TestQuoteRequestValidatesSelections(t *testing.T) {
	req := &QuoteRequest{
		PlanVariantID: "var-1",
		AddOns:        []AddOnSelectionPayload{{AddOnTypeID: "addon-rice", Quantity: -1}},
	}
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for negative quantity")
	}

	req = &QuoteRequest{
		PlanVariantID: "var-1",
		AddOns:        []AddOnSelectionPayload{{AddOnTypeID: "addon-rice", Quantity: 1, Frequency: "SOMETIMES"}},
	}
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for unknown frequency")
	}

	req = &QuoteRequest{
		PlanVariantID: "var-1",
		AddOns:        []AddOnSelectionPayload{{Quantity: 1}},
	}
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for selection without addonTypeId")
	}
}

func TestVariantChangeRequestFromContext(t *testing.T) {
	ctx := jsonContext(t, `{"newPlanVariantId":" var-2 ","catalogVersion":"abc"}`)
	ctx.SetParamNames("id")
	ctx.SetParamValues("sub-1")

	req, err := NewVariantChangeRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.SubscriptionID != "sub-1" || req.NewPlanVariantID != "var-2" || req.CatalogVersion != "abc" {
		t.Fatalf("unexpected request %+v", req)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestVariantChangeRequestValidation(t *testing.T) {
	missingVariant := &VariantChangeRequest{SubscriptionID: "sub-1"}
	if err := missingVariant.Validate(); err == nil {
		t.Fatal("expected error without newPlanVariantId")
	}

	missingSub := &VariantChangeRequest{NewPlanVariantID: "var-2"}
	if err := missingSub.Validate(); err == nil {
		t.Fatal("expected error without subscription id")
	}
}

func TestAddOnChangeRequestRequiresAddonsField(t *testing.T) {
	req := &AddOnChangeRequest{SubscriptionID: "sub-1"}
	if err := req.Validate(); err == nil {
		t.Fatal("expected error when addons is absent")
	}

	// An explicit empty list clears all add-ons and is valid.
	req = &AddOnChangeRequest{SubscriptionID: "sub-1", AddOns: []AddOnSelectionPayload{}}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected empty addons list to be valid, got %v", err)
	}
}

func TestTaxEstimateRequestValidation(t *testing.T) {
	missing := &TaxEstimateRequest{}
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error without subtotalCad")
	}

	negative := decimal.RequireFromString("-1")
	bad := &TaxEstimateRequest{Subtotal: &negative}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for negative subtotal")
	}

	zero := decimal.Zero
	ok := &TaxEstimateRequest{Subtotal: &zero}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected zero subtotal to be valid, got %v", err)
	}
}

func TestTaxEstimateRequestBindsDecimalString(t *testing.T) {
	ctx := jsonContext(t, `{"subtotalCad":"2499.00","province":" ON "}`)

	req, err := NewTaxEstimateRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.Subtotal == nil || !req.Subtotal.Equal(decimal.RequireFromString("2499")) {
		t.Fatalf("unexpected subtotal %v", req.Subtotal)
	}
	if req.Province != "ON" {
		t.Fatalf("expected trimmed province, got %q", req.Province)
	}
}

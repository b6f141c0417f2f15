// Package mapper renders domain values into response DTOs. Money stays in
// decimal everywhere else; this is the one boundary where amounts are rounded
// to two fractional digits for display.
package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/billing"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/dto"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/service"
)

func PlanVariantToResponse(v *entity.PlanVariant) dto.PlanVariantResponse {
	addons := make([]dto.VariantAddOnResponse, 0, len(v.AddOns))
	for _, a := range v.AddOns {
		item := dto.VariantAddOnResponse{
			AddOnTypeID: a.AddOnTypeID,
			PriceCad:    a.Price.StringFixed(2),
		}
		if a.AddOnType != nil {
			item.AddOnType = &dto.AddOnTypeResponse{
				ID:          a.AddOnType.ID,
				Key:         a.AddOnType.Key,
				Description: a.AddOnType.Description,
				Unit:        string(a.AddOnType.Unit),
			}
		}
		addons = append(addons, item)
	}

	return dto.PlanVariantResponse{
		ID:           v.ID,
		Diet:         string(v.Diet),
		Family:       string(v.Family),
		Serving:      string(v.Serving),
		Duration:     string(v.Duration),
		BasePriceCad: v.BasePrice.StringFixed(2),
		AddOns:       addons,
	}
}

func PlansToResponse(result *service.PlansResult) *dto.ListPlansResponse {
	variants := make([]dto.PlanVariantResponse, 0, len(result.Variants))
	for _, v := range result.Variants {
		variants = append(variants, PlanVariantToResponse(v))
	}
	return &dto.ListPlansResponse{Variants: variants, CatalogVersion: result.CatalogVersion}
}

func QuoteToResponse(result *service.QuoteResult) *dto.QuoteResponse {
	lines := make([]dto.QuoteLineResponse, 0, len(result.Lines))
	for _, line := range result.Lines {
		lines = append(lines, dto.QuoteLineResponse{
			AddOnTypeID:  line.Selection.AddOnTypeID,
			Quantity:     line.Selection.Quantity,
			Frequency:    string(line.Selection.Frequency),
			UnitPriceCad: line.UnitPrice.StringFixed(2),
			AmountCad:    line.Amount.StringFixed(2),
		})
	}

	resp := &dto.QuoteResponse{
		PlanVariantID:  result.Variant.ID,
		Lines:          lines,
		SubtotalCad:    result.Subtotal.StringFixed(2),
		CatalogVersion: result.CatalogVersion,
	}
	if result.Tax != nil {
		resp.TaxRate = result.Tax.TaxRate.String()
		resp.TaxCad = result.Tax.Tax.StringFixed(2)
		resp.TotalCad = result.Tax.Total.StringFixed(2)
	}
	return resp
}

func SubscriptionToResponse(sub *entity.Subscription) dto.SubscriptionResponse {
	addons := make([]dto.SubscriptionAddOnResponse, 0, len(sub.AddOns))
	for _, a := range sub.AddOns {
		addons = append(addons, dto.SubscriptionAddOnResponse{
			AddOnTypeID: a.AddOnTypeID,
			Quantity:    a.Quantity,
			Frequency:   string(a.Frequency),
		})
	}

	resp := dto.SubscriptionResponse{
		ID:            sub.ID,
		UserID:        sub.UserID,
		PlanVariantID: sub.PlanVariantID,
		BillingCycle:  string(sub.BillingCycle),
		Status:        subscriptionStatus(sub),
		AmountCad:     sub.Amount.StringFixed(2),
		AddOns:        addons,
	}
	if sub.NextBillingAt != nil {
		resp.NextBillingAt = sub.NextBillingAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// PreviewToResponse honors the presentation rule for proration previews:
// tax and total-due-now appear only when something is owed immediately.
func PreviewToResponse(result *service.PreviewResult) *dto.ProrationPreviewResponse {
	resp := &dto.ProrationPreviewResponse{
		ProrationDeltaCad: result.Preview.ProrationDelta.StringFixed(2),
		NewRecurringCad:   result.NewRecurring.StringFixed(2),
		CatalogVersion:    result.CatalogVersion,
	}
	if tax, total, owed := result.Preview.DueNow(); owed {
		resp.TaxCad = tax.StringFixed(2)
		resp.TotalCad = total.StringFixed(2)
	}
	return resp
}

func CommitToResponse(message string, result *billing.CommitResult) *dto.ChangeCommitResponse {
	resp := &dto.ChangeCommitResponse{Message: message}
	if result.PaymentClientSecret != "" {
		resp.Payment = &dto.PaymentResponse{ClientSecret: result.PaymentClientSecret}
	}
	return resp
}

func TaxEstimateToResponse(estimate *billing.TaxEstimate) *dto.TaxEstimateResponse {
	return &dto.TaxEstimateResponse{
		TaxRate:  estimate.TaxRate.String(),
		TaxCad:   estimate.Tax.StringFixed(2),
		TotalCad: estimate.Total.StringFixed(2),
	}
}

func subscriptionStatus(sub *entity.Subscription) string {
	switch {
	case sub.Cancelled:
		return "cancelled"
	case sub.Paused:
		return "paused"
	default:
		return "active"
	}
}

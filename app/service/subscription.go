package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/billing"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/metrics"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/pricing"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/types"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/config"
)

type catalogSource interface {
	Snapshot(ctx context.Context) (*entity.Catalog, error)
}

type billingClient interface {
	GetSubscription(ctx context.Context, id string) (*entity.Subscription, error)
	PreviewVariantChange(ctx context.Context, subscriptionID, newVariantID string) (*billing.ProrationPreview, error)
	PreviewAddOnChange(ctx context.Context, subscriptionID string, addons []entity.AddOnSelection) (*billing.ProrationPreview, error)
	ChangeVariantNow(ctx context.Context, subscriptionID, newVariantID string) (*billing.CommitResult, error)
	ChangeAddOnsNow(ctx context.Context, subscriptionID string, addons []entity.AddOnSelection) (*billing.CommitResult, error)
	ScheduleVariantChange(ctx context.Context, subscriptionID, newVariantID string) error
	ScheduleAddOnChange(ctx context.Context, subscriptionID string, addons []entity.AddOnSelection) error
	EstimateTax(ctx context.Context, subtotal decimal.Decimal, province string) (*billing.TaxEstimate, error)
}

type SubscriptionService struct {
	catalog  catalogSource
	billing  billingClient
	cfg      config.SubscriptionConfig
	previews *previewTracker
}

func NewSubscriptionService(catalog catalogSource, billingClient billingClient, cfg config.SubscriptionConfig) *SubscriptionService {
	return &SubscriptionService{
		catalog:  catalog,
		billing:  billingClient,
		cfg:      cfg,
		previews: newPreviewTracker(),
	}
}

type PlansResult struct {
	Variants       []*entity.PlanVariant
	CatalogVersion string
}

type QuoteLine struct {
	Selection entity.AddOnSelection
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal
}

type QuoteResult struct {
	Variant        *entity.PlanVariant
	Lines          []QuoteLine
	Subtotal       decimal.Decimal
	Tax            *billing.TaxEstimate
	CatalogVersion string
}

type PreviewResult struct {
	Preview *billing.ProrationPreview
	// NewRecurring is the recurring charge the subscription would carry after
	// the change, computed locally from the catalog snapshot.
	NewRecurring   decimal.Decimal
	CatalogVersion string
}

func (s *SubscriptionService) ListPlans(ctx context.Context, req *types.ListPlansRequest) (*PlansResult, error) {
	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	variants := make([]*entity.PlanVariant, 0, len(snapshot.Variants))
	for _, v := range snapshot.Variants {
		if req.Duration != "" && v.Duration != entity.Duration(req.Duration) {
			continue
		}
		if req.Diet != "" && v.Diet != entity.Diet(req.Diet) {
			continue
		}
		variants = append(variants, v)
	}

	return &PlansResult{Variants: variants, CatalogVersion: snapshot.Fingerprint()}, nil
}

// QuoteSubscription computes the recurring charge for a variant plus add-on
// selections, entirely from the current catalog snapshot, and optionally asks
// the billing platform for a tax estimate on the subtotal.
func (s *SubscriptionService) QuoteSubscription(ctx context.Context, req *types.QuoteRequest) (*QuoteResult, error) {
	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var variant *entity.PlanVariant
	if req.PlanVariantID != "" {
		variant = snapshot.Variant(req.PlanVariantID)
		if variant == nil {
			return nil, fmt.Errorf("%w: %s", pricing.ErrVariantNotFound, req.PlanVariantID)
		}
	} else {
		variant = snapshot.Find(entity.Diet(req.Diet), entity.FamilySize(req.Family), entity.Serving(req.Serving), entity.Duration(req.Duration))
		if variant == nil {
			return nil, fmt.Errorf("%w: %s/%s/%s/%s", pricing.ErrVariantNotFound, req.Diet, req.Family, req.Serving, req.Duration)
		}
	}

	selections, err := pricing.NormalizeSelections(req.Selections(), s.cfg.MaxAddOnQuantity)
	if err != nil {
		return nil, err
	}

	lines := make([]QuoteLine, 0, len(selections))
	for _, sel := range selections {
		unitPrice, err := pricing.AddOnPrice(variant, sel.AddOnTypeID)
		if err != nil {
			return nil, err
		}
		amount, err := pricing.LineAmount(variant, sel, s.cfg.DaysPerMonth)
		if err != nil {
			return nil, err
		}
		lines = append(lines, QuoteLine{Selection: sel, UnitPrice: unitPrice, Amount: amount})
	}

	subtotal, err := pricing.ComputeTotal(variant, selections, s.cfg.DaysPerMonth)
	if err != nil {
		return nil, err
	}

	result := &QuoteResult{
		Variant:        variant,
		Lines:          lines,
		Subtotal:       subtotal,
		CatalogVersion: snapshot.Fingerprint(),
	}

	if req.IncludeTax {
		province := req.Province
		if province == "" {
			province = s.cfg.DefaultTaxProvince
		}
		estimate, err := s.billing.EstimateTax(ctx, subtotal, province)
		if err != nil {
			return nil, err
		}
		result.Tax = estimate
	}

	return result, nil
}

func (s *SubscriptionService) GetSubscription(ctx context.Context, id string) (*entity.Subscription, error) {
	sub, err := s.billing.GetSubscription(ctx, id)
	if err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// PreviewVariantChange asks the billing platform what switching the plan
// variant mid-cycle would cost. Previews are read-only and supersedable: if a
// newer preview for the same subscription starts before this one's response
// arrives, the stale result is discarded.
func (s *SubscriptionService) PreviewVariantChange(ctx context.Context, req *types.VariantChangeRequest) (result *PreviewResult, err error) {
	defer func() { metrics.CountPreview("variant", err) }()

	snapshot, sub, _, err := s.loadChangeContext(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if snapshot.Variant(req.NewPlanVariantID) == nil {
		return nil, fmt.Errorf("%w: %s", pricing.ErrVariantNotFound, req.NewPlanVariantID)
	}

	proposal := entity.ChangeProposal{NewPlanVariantID: &req.NewPlanVariantID}
	newRecurring, err := pricing.ProposedTotal(snapshot, sub, proposal, s.cfg.MaxAddOnQuantity, s.cfg.DaysPerMonth)
	if err != nil {
		return nil, err
	}

	generation := s.previews.begin(req.SubscriptionID)
	preview, err := s.billing.PreviewVariantChange(ctx, req.SubscriptionID, req.NewPlanVariantID)
	if err != nil {
		return nil, s.mapBillingError(err)
	}
	if !s.previews.isCurrent(req.SubscriptionID, generation) {
		return nil, ErrPreviewSuperseded
	}

	return &PreviewResult{Preview: preview, NewRecurring: newRecurring, CatalogVersion: snapshot.Fingerprint()}, nil
}

func (s *SubscriptionService) PreviewAddOnChange(ctx context.Context, req *types.AddOnChangeRequest) (result *PreviewResult, err error) {
	defer func() { metrics.CountPreview("addons", err) }()

	snapshot, sub, variant, err := s.loadChangeContext(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	selections, err := s.validatedSelections(variant, req.Selections())
	if err != nil {
		return nil, err
	}

	proposal := entity.ChangeProposal{AddOns: selections}
	newRecurring, err := pricing.ProposedTotal(snapshot, sub, proposal, s.cfg.MaxAddOnQuantity, s.cfg.DaysPerMonth)
	if err != nil {
		return nil, err
	}

	generation := s.previews.begin(req.SubscriptionID)
	preview, err := s.billing.PreviewAddOnChange(ctx, req.SubscriptionID, selections)
	if err != nil {
		return nil, s.mapBillingError(err)
	}
	if !s.previews.isCurrent(req.SubscriptionID, generation) {
		return nil, ErrPreviewSuperseded
	}

	return &PreviewResult{Preview: preview, NewRecurring: newRecurring, CatalogVersion: snapshot.Fingerprint()}, nil
}

// ChangeVariantNow applies a plan variant switch immediately. The change is
// gated on the billing cutoff window and, when the caller provides the
// catalog version its preview was computed against, on catalog stability.
func (s *SubscriptionService) ChangeVariantNow(ctx context.Context, req *types.VariantChangeRequest) (result *billing.CommitResult, err error) {
	defer func() { metrics.CountChange("variant", "now", err) }()

	sub, err := s.GetSubscription(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Cancelled {
		return nil, fmt.Errorf("%w: subscription is cancelled", ErrInvalidRequest)
	}
	if err := pricing.EvaluateChange(time.Now().UTC(), sub, s.cfg.Cutoff); err != nil {
		return nil, err
	}

	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot.Variant(req.NewPlanVariantID) == nil {
		return nil, fmt.Errorf("%w: %s", pricing.ErrVariantNotFound, req.NewPlanVariantID)
	}
	if err := checkCatalogVersion(snapshot, req.CatalogVersion); err != nil {
		return nil, err
	}

	commit, err := s.billing.ChangeVariantNow(ctx, req.SubscriptionID, req.NewPlanVariantID)
	if err != nil {
		return nil, s.mapBillingError(err)
	}
	return commit, nil
}

func (s *SubscriptionService) ChangeAddOnsNow(ctx context.Context, req *types.AddOnChangeRequest) (result *billing.CommitResult, err error) {
	defer func() { metrics.CountChange("addons", "now", err) }()

	snapshot, sub, variant, err := s.loadChangeContext(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Cancelled {
		return nil, fmt.Errorf("%w: subscription is cancelled", ErrInvalidRequest)
	}
	if err := pricing.EvaluateChange(time.Now().UTC(), sub, s.cfg.Cutoff); err != nil {
		return nil, err
	}

	selections, err := s.validatedSelections(variant, req.Selections())
	if err != nil {
		return nil, err
	}
	if err := checkCatalogVersion(snapshot, req.CatalogVersion); err != nil {
		return nil, err
	}

	commit, err := s.billing.ChangeAddOnsNow(ctx, req.SubscriptionID, selections)
	if err != nil {
		return nil, s.mapBillingError(err)
	}
	return commit, nil
}

// ScheduleVariantChange defers the switch to the next billing cycle. The
// cutoff gate does not apply to scheduled changes.
func (s *SubscriptionService) ScheduleVariantChange(ctx context.Context, req *types.VariantChangeRequest) (err error) {
	defer func() { metrics.CountChange("variant", "scheduled", err) }()

	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return err
	}
	if snapshot.Variant(req.NewPlanVariantID) == nil {
		return fmt.Errorf("%w: %s", pricing.ErrVariantNotFound, req.NewPlanVariantID)
	}

	if err := s.billing.ScheduleVariantChange(ctx, req.SubscriptionID, req.NewPlanVariantID); err != nil {
		return s.mapBillingError(err)
	}
	return nil
}

func (s *SubscriptionService) ScheduleAddOnChange(ctx context.Context, req *types.AddOnChangeRequest) (err error) {
	defer func() { metrics.CountChange("addons", "scheduled", err) }()

	_, _, variant, err := s.loadChangeContext(ctx, req.SubscriptionID)
	if err != nil {
		return err
	}

	selections, err := s.validatedSelections(variant, req.Selections())
	if err != nil {
		return err
	}

	if err := s.billing.ScheduleAddOnChange(ctx, req.SubscriptionID, selections); err != nil {
		return s.mapBillingError(err)
	}
	return nil
}

func (s *SubscriptionService) EstimateTax(ctx context.Context, req *types.TaxEstimateRequest) (*billing.TaxEstimate, error) {
	province := req.Province
	if province == "" {
		province = s.cfg.DefaultTaxProvince
	}
	return s.billing.EstimateTax(ctx, *req.Subtotal, province)
}

// loadChangeContext fetches the subscription and resolves its current variant
// against a fresh catalog snapshot. Add-on changes are validated against the
// variant the subscription is actually on.
func (s *SubscriptionService) loadChangeContext(ctx context.Context, subscriptionID string) (*entity.Catalog, *entity.Subscription, *entity.PlanVariant, error) {
	sub, err := s.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, nil, nil, err
	}

	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	variant := snapshot.Variant(sub.PlanVariantID)
	if variant == nil {
		return nil, nil, nil, fmt.Errorf("%w: subscription variant %s no longer in catalog", pricing.ErrVariantNotFound, sub.PlanVariantID)
	}
	return snapshot, sub, variant, nil
}

// validatedSelections normalizes the proposed selections and confirms every
// add-on is offered for the variant. Zero-quantity lines are dropped before
// anything leaves this service.
func (s *SubscriptionService) validatedSelections(variant *entity.PlanVariant, proposed []entity.AddOnSelection) ([]entity.AddOnSelection, error) {
	selections, err := pricing.NormalizeSelections(proposed, s.cfg.MaxAddOnQuantity)
	if err != nil {
		return nil, err
	}
	for _, sel := range selections {
		if _, err := pricing.AddOnPrice(variant, sel.AddOnTypeID); err != nil {
			return nil, err
		}
	}
	return selections, nil
}

func checkCatalogVersion(snapshot *entity.Catalog, expected string) error {
	if expected == "" {
		return nil
	}
	if snapshot.Fingerprint() != expected {
		return ErrStaleCatalog
	}
	return nil
}

func (s *SubscriptionService) mapBillingError(err error) error {
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		return ErrSubscriptionNotFound
	}
	return err
}

// Package pricing holds the pure subscription pricing and change-eligibility
// computations. Everything here is deterministic for given inputs: catalog
// snapshots are immutable, money is decimal, and configuration (cutoff,
// days-per-month, quantity cap) is passed in explicitly rather than read from
// the environment.
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
)

// WeeklyDeliveryDays is the day multiplier for DAILY add-ons on a weekly cycle.
const WeeklyDeliveryDays = 7

// VariantPrice resolves the recurring base price of a variant in the catalog.
// The billing cycle is baked into the variant itself (variants are
// duration-specific), so no runtime conversion happens here.
func VariantPrice(catalog *entity.Catalog, variantID string) (decimal.Decimal, error) {
	variant := catalog.Variant(variantID)
	if variant == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrVariantNotFound, variantID)
	}
	return variant.BasePrice, nil
}

// AddOnPrice resolves the per-unit price of an add-on within a variant. There
// is no fallback to the add-on type's default price: an add-on not listed on
// the variant is not purchasable for it.
func AddOnPrice(variant *entity.PlanVariant, addOnTypeID string) (decimal.Decimal, error) {
	addon := variant.AddOn(addOnTypeID)
	if addon == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAddOnNotOffered, addOnTypeID)
	}
	return addon.Price, nil
}

// NormalizeSelections drops zero-quantity selections, collapses duplicate
// add-on ids (the last entry wins) and validates quantity bounds and
// frequency values. The result is what may be priced or sent upstream;
// explicit zero-quantity line items must never leave this service.
func NormalizeSelections(selections []entity.AddOnSelection, maxQuantity int) ([]entity.AddOnSelection, error) {
	byID := make(map[string]int, len(selections))
	order := make([]string, 0, len(selections))
	merged := make(map[string]entity.AddOnSelection, len(selections))

	for _, sel := range selections {
		if sel.Quantity < 0 {
			return nil, fmt.Errorf("%w: %s has quantity %d", ErrInvalidQuantity, sel.AddOnTypeID, sel.Quantity)
		}
		if maxQuantity > 0 && sel.Quantity > maxQuantity {
			return nil, fmt.Errorf("%w: %s exceeds maximum of %d", ErrInvalidQuantity, sel.AddOnTypeID, maxQuantity)
		}
		if !entity.ValidFrequency(sel.Frequency) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, sel.Frequency)
		}
		if _, seen := byID[sel.AddOnTypeID]; !seen {
			byID[sel.AddOnTypeID] = len(order)
			order = append(order, sel.AddOnTypeID)
		}
		merged[sel.AddOnTypeID] = sel
	}

	result := make([]entity.AddOnSelection, 0, len(order))
	for _, id := range order {
		if sel := merged[id]; sel.Quantity > 0 {
			result = append(result, sel)
		}
	}
	return result, nil
}

// DeliveryDays returns the number of delivery days in one billing cycle, used
// as the multiplier for DAILY add-ons. Weekly cycles always have 7; monthly
// cycles use the configured approximation (the service default is 30).
func DeliveryDays(cycle entity.Duration, daysPerMonth int) int {
	if cycle == entity.DurationMonthly {
		return daysPerMonth
	}
	return WeeklyDeliveryDays
}

// ComputeTotal computes the recurring charge for a variant plus a set of
// normalized add-on selections. Input must already be normalized: a
// zero-or-negative quantity is rejected, not skipped. All arithmetic stays in
// decimal; rounding happens only at the display boundary.
func ComputeTotal(variant *entity.PlanVariant, selections []entity.AddOnSelection, daysPerMonth int) (decimal.Decimal, error) {
	total := variant.BasePrice
	for _, sel := range selections {
		if sel.Quantity <= 0 {
			return decimal.Zero, fmt.Errorf("%w: %s has quantity %d (normalize input first)", ErrInvalidQuantity, sel.AddOnTypeID, sel.Quantity)
		}
		line, err := LineAmount(variant, sel, daysPerMonth)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(line)
	}
	return total, nil
}

// LineAmount prices a single normalized selection against a variant.
func LineAmount(variant *entity.PlanVariant, sel entity.AddOnSelection, daysPerMonth int) (decimal.Decimal, error) {
	unitPrice, err := AddOnPrice(variant, sel.AddOnTypeID)
	if err != nil {
		return decimal.Zero, err
	}

	amount := unitPrice.Mul(decimal.NewFromInt(int64(sel.Quantity)))
	if sel.Frequency == entity.FrequencyDaily {
		amount = amount.Mul(decimal.NewFromInt(int64(DeliveryDays(variant.Duration, daysPerMonth))))
	}
	return amount, nil
}

// ApplyProposal resolves the plan variant and add-on selections that would be
// in effect if the proposal were committed against the subscription. A nil
// NewPlanVariantID keeps the current variant; nil AddOns keeps the current
// selections.
func ApplyProposal(catalog *entity.Catalog, sub *entity.Subscription, proposal entity.ChangeProposal) (*entity.PlanVariant, []entity.AddOnSelection, error) {
	variantID := sub.PlanVariantID
	if proposal.NewPlanVariantID != nil {
		variantID = *proposal.NewPlanVariantID
	}
	variant := catalog.Variant(variantID)
	if variant == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrVariantNotFound, variantID)
	}

	selections := sub.AddOns
	if proposal.AddOns != nil {
		selections = proposal.AddOns
	}
	return variant, selections, nil
}

// ProposedTotal prices the recurring charge the subscription would carry after
// committing the proposal. Selections inherited from the subscription go
// through the same normalization as request input.
func ProposedTotal(catalog *entity.Catalog, sub *entity.Subscription, proposal entity.ChangeProposal, maxQuantity, daysPerMonth int) (decimal.Decimal, error) {
	variant, selections, err := ApplyProposal(catalog, sub, proposal)
	if err != nil {
		return decimal.Zero, err
	}
	normalized, err := NormalizeSelections(selections, maxQuantity)
	if err != nil {
		return decimal.Zero, err
	}
	return ComputeTotal(variant, normalized, daysPerMonth)
}

// WithinCutoff reports whether "now" falls inside the protected window before
// the next billing timestamp. The boundary is inclusive: a remaining time of
// exactly the cutoff is still within it. A nil next-billing timestamp (no
// scheduled renewal) is deliberately treated as not within cutoff, favoring
// availability of self-service changes over billing-cycle protection.
func WithinCutoff(now time.Time, nextBillingAt *time.Time, cutoff time.Duration) bool {
	if nextBillingAt == nil {
		return false
	}
	return nextBillingAt.Sub(now) <= cutoff
}

// EvaluateChange decides whether a change to the subscription may be applied
// immediately. A nil return permits the immediate path; otherwise the caller
// must route the change to the schedule-for-next-cycle path.
func EvaluateChange(now time.Time, sub *entity.Subscription, cutoff time.Duration) error {
	if WithinCutoff(now, sub.NextBillingAt, cutoff) {
		return fmt.Errorf("%w: next billing at %s", ErrWithinCutoff, sub.NextBillingAt.UTC().Format(time.RFC3339))
	}
	return nil
}

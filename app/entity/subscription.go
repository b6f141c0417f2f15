package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription is the customer's active recurring order. Its lifecycle is
// owned by the upstream billing platform; this service only reads it and
// proposes changes.
type Subscription struct {
	ID            string
	UserID        string
	PlanVariantID string
	BillingCycle  Duration
	AddOns        []AddOnSelection
	Amount        decimal.Decimal
	NextBillingAt *time.Time
	Paused        bool
	Cancelled     bool
}

// AddOnSelection is a chosen quantity of one add-on type. Quantity 0 means
// "not selected" and must never appear in a persisted payload.
type AddOnSelection struct {
	AddOnTypeID string
	Quantity    int
	Frequency   AddOnFrequency
}

// ChangeProposal is an ephemeral candidate change evaluated before commit.
// A nil NewPlanVariantID keeps the current variant; nil AddOns keeps the
// current selections.
type ChangeProposal struct {
	NewPlanVariantID *string
	AddOns           []AddOnSelection
}

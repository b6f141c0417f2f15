// Package billing is the boundary client for the upstream billing platform.
// The platform owns proration math, tax computation, subscription lifecycle
// and payment collection; this package only carries requests across and
// interprets the response shapes it is contractually owed.
package billing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrSubscriptionNotFound   = errors.New("subscription not found upstream")
	ErrInvalidPricingResponse = errors.New("invalid pricing response from billing platform")
)

// ProrationPreview is the interpreted shape of an upstream proration preview.
// The delta is signed: positive means an additional amount is owed now,
// zero or negative is a credit or no charge.
type ProrationPreview struct {
	ProrationDelta decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
}

// DueNow reports the tax and total owed immediately. When the delta is not
// positive nothing is owed, and callers must not surface tax or total fields
// to the user.
func (p *ProrationPreview) DueNow() (tax, total decimal.Decimal, owed bool) {
	if p.ProrationDelta.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, false
	}
	return p.Tax, p.Total, true
}

// CommitResult is the outcome of an immediate change commit. A non-empty
// PaymentClientSecret signals that a charge must be collected before the
// change is finalized.
type CommitResult struct {
	PaymentClientSecret string
}

type TaxEstimate struct {
	TaxRate decimal.Decimal
	Tax     decimal.Decimal
	Total   decimal.Decimal
}

package dto

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AddOnTypeResponse struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit"`
}

type VariantAddOnResponse struct {
	AddOnTypeID string             `json:"addonTypeId"`
	PriceCad    string             `json:"priceCad"`
	AddOnType   *AddOnTypeResponse `json:"addonType,omitempty"`
}

type PlanVariantResponse struct {
	ID           string                 `json:"id"`
	Diet         string                 `json:"diet"`
	Family       string                 `json:"family"`
	Serving      string                 `json:"serving"`
	Duration     string                 `json:"duration"`
	BasePriceCad string                 `json:"basePriceCad"`
	AddOns       []VariantAddOnResponse `json:"addons"`
}

type ListPlansResponse struct {
	Variants       []PlanVariantResponse `json:"variants"`
	CatalogVersion string                `json:"catalogVersion"`
}

type QuoteLineResponse struct {
	AddOnTypeID  string `json:"addonTypeId"`
	Quantity     int    `json:"quantity"`
	Frequency    string `json:"frequency"`
	UnitPriceCad string `json:"unitPriceCad"`
	AmountCad    string `json:"amountCad"`
}

type QuoteResponse struct {
	PlanVariantID  string              `json:"planVariantId"`
	Lines          []QuoteLineResponse `json:"lines"`
	SubtotalCad    string              `json:"subtotalCad"`
	TaxRate        string              `json:"taxRate,omitempty"`
	TaxCad         string              `json:"taxCad,omitempty"`
	TotalCad       string              `json:"totalCad,omitempty"`
	CatalogVersion string              `json:"catalogVersion"`
}

type SubscriptionAddOnResponse struct {
	AddOnTypeID string `json:"addonTypeId"`
	Quantity    int    `json:"quantity"`
	Frequency   string `json:"frequency"`
}

type SubscriptionResponse struct {
	ID            string                      `json:"id"`
	UserID        string                      `json:"userId,omitempty"`
	PlanVariantID string                      `json:"planVariantId"`
	BillingCycle  string                      `json:"billingCycle"`
	Status        string                      `json:"status"`
	AmountCad     string                      `json:"amountCad"`
	NextBillingAt string                      `json:"nextBillingAt,omitempty"`
	AddOns        []SubscriptionAddOnResponse `json:"addons"`
}

type SubscriptionEnvelopeResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
}

// ProrationPreviewResponse carries the interpreted upstream preview. TaxCad
// and TotalCad are present only when the delta is positive; when nothing is
// owed immediately they are omitted entirely, never rendered as zero.
type ProrationPreviewResponse struct {
	ProrationDeltaCad string `json:"prorationDeltaCad"`
	TaxCad            string `json:"taxCad,omitempty"`
	TotalCad          string `json:"totalCad,omitempty"`
	NewRecurringCad   string `json:"newRecurringCad"`
	CatalogVersion    string `json:"catalogVersion"`
}

type PaymentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type ChangeCommitResponse struct {
	Message string           `json:"message"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

type TaxEstimateResponse struct {
	TaxRate  string `json:"taxRate"`
	TaxCad   string `json:"taxCad"`
	TotalCad string `json:"totalCad"`
}

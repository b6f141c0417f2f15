package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
)

type AddOnSelectionPayload struct {
	AddOnTypeID string `json:"addonTypeId"`
	Quantity    int    `json:"quantity"`
	Frequency   string `json:"frequency,omitempty"`
}

// ToEntity maps the wire payload to a domain selection. An omitted frequency
// means the add-on is charged for the literal quantity entered.
func (p AddOnSelectionPayload) ToEntity() entity.AddOnSelection {
	freq := entity.AddOnFrequency(p.Frequency)
	if p.Frequency == "" {
		freq = entity.FrequencySpecificDays
	}
	return entity.AddOnSelection{
		AddOnTypeID: strings.TrimSpace(p.AddOnTypeID),
		Quantity:    p.Quantity,
		Frequency:   freq,
	}
}

func validateSelections(payloads []AddOnSelectionPayload) error {
	for _, p := range payloads {
		if strings.TrimSpace(p.AddOnTypeID) == "" {
			return errors.New("addonTypeId is required for every add-on line")
		}
		if p.Quantity < 0 {
			return errors.New("add-on quantity must be non-negative")
		}
		if p.Frequency != "" && !entity.ValidFrequency(entity.AddOnFrequency(p.Frequency)) {
			return errors.New("frequency must be DAILY or SPECIFIC_DAYS")
		}
	}
	return nil
}

func selectionsToEntities(payloads []AddOnSelectionPayload) []entity.AddOnSelection {
	result := make([]entity.AddOnSelection, 0, len(payloads))
	for _, p := range payloads {
		result = append(result, p.ToEntity())
	}
	return result
}

type ListPlansRequest struct {
	Duration string
	Diet     string
}

func NewListPlansRequestFromContext(ctx echo.Context) (*ListPlansRequest, error) {
	return &ListPlansRequest{
		Duration: strings.TrimSpace(ctx.QueryParam("duration")),
		Diet:     strings.TrimSpace(ctx.QueryParam("diet")),
	}, nil
}

func (r *ListPlansRequest) Validate() error {
	if r.Duration != "" && !entity.ValidDuration(entity.Duration(r.Duration)) {
		return errors.New("duration must be WEEKLY or MONTHLY")
	}
	if r.Diet != "" && !entity.ValidDiet(entity.Diet(r.Diet)) {
		return errors.New("diet must be VEG or NON_VEG")
	}
	return nil
}

type QuoteRequest struct {
	PlanVariantID string                  `json:"planVariantId"`
	Duration      string                  `json:"duration"`
	Diet          string                  `json:"diet"`
	Family        string                  `json:"family"`
	Serving       string                  `json:"serving"`
	AddOns        []AddOnSelectionPayload `json:"addons"`
	IncludeTax    bool                    `json:"includeTax"`
	Province      string                  `json:"province"`
}

func NewQuoteRequestFromContext(ctx echo.Context) (*QuoteRequest, error) {
	var body QuoteRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.PlanVariantID = strings.TrimSpace(body.PlanVariantID)
	body.Province = strings.TrimSpace(body.Province)
	return &body, nil
}

func (r *QuoteRequest) Validate() error {
	if r.PlanVariantID == "" {
		if r.Duration == "" || r.Diet == "" || r.Family == "" || r.Serving == "" {
			return errors.New("either planVariantId or all of duration, diet, family and serving are required")
		}
		if !entity.ValidDuration(entity.Duration(r.Duration)) {
			return errors.New("duration must be WEEKLY or MONTHLY")
		}
		if !entity.ValidDiet(entity.Diet(r.Diet)) {
			return errors.New("diet must be VEG or NON_VEG")
		}
		if !entity.ValidFamilySize(entity.FamilySize(r.Family)) {
			return errors.New("family must be SINGLE, COUPLE or FAMILY")
		}
		if !entity.ValidServing(entity.Serving(r.Serving)) {
			return errors.New("serving must be REGULAR or LARGE")
		}
	}
	return validateSelections(r.AddOns)
}

func (r *QuoteRequest) Selections() []entity.AddOnSelection {
	return selectionsToEntities(r.AddOns)
}

type GetSubscriptionRequest struct {
	ID string
}

func NewGetSubscriptionRequestFromContext(ctx echo.Context) (*GetSubscriptionRequest, error) {
	return &GetSubscriptionRequest{ID: strings.TrimSpace(ctx.Param("id"))}, nil
}

func (r *GetSubscriptionRequest) Validate() error {
	if r.ID == "" {
		return errors.New("invalid subscription id")
	}
	return nil
}

type VariantChangeRequest struct {
	SubscriptionID   string `json:"-"`
	NewPlanVariantID string `json:"newPlanVariantId"`
	CatalogVersion   string `json:"catalogVersion,omitempty"`
}

func NewVariantChangeRequestFromContext(ctx echo.Context) (*VariantChangeRequest, error) {
	var body VariantChangeRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SubscriptionID = strings.TrimSpace(ctx.Param("id"))
	body.NewPlanVariantID = strings.TrimSpace(body.NewPlanVariantID)
	body.CatalogVersion = strings.TrimSpace(body.CatalogVersion)
	return &body, nil
}

func (r *VariantChangeRequest) Validate() error {
	if r.SubscriptionID == "" {
		return errors.New("invalid subscription id")
	}
	if r.NewPlanVariantID == "" {
		return errors.New("newPlanVariantId is required")
	}
	return nil
}

type AddOnChangeRequest struct {
	SubscriptionID string                  `json:"-"`
	AddOns         []AddOnSelectionPayload `json:"addons"`
	CatalogVersion string                  `json:"catalogVersion,omitempty"`
}

func NewAddOnChangeRequestFromContext(ctx echo.Context) (*AddOnChangeRequest, error) {
	var body AddOnChangeRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.SubscriptionID = strings.TrimSpace(ctx.Param("id"))
	body.CatalogVersion = strings.TrimSpace(body.CatalogVersion)
	return &body, nil
}

func (r *AddOnChangeRequest) Validate() error {
	if r.SubscriptionID == "" {
		return errors.New("invalid subscription id")
	}
	if r.AddOns == nil {
		return errors.New("addons is required")
	}
	return validateSelections(r.AddOns)
}

func (r *AddOnChangeRequest) Selections() []entity.AddOnSelection {
	return selectionsToEntities(r.AddOns)
}

type TaxEstimateRequest struct {
	Subtotal *decimal.Decimal `json:"subtotalCad"`
	Province string           `json:"province"`
}

func NewTaxEstimateRequestFromContext(ctx echo.Context) (*TaxEstimateRequest, error) {
	var body TaxEstimateRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Province = strings.TrimSpace(body.Province)
	return &body, nil
}

func (r *TaxEstimateRequest) Validate() error {
	if r.Subtotal == nil {
		return errors.New("subtotalCad is required")
	}
	if r.Subtotal.Sign() < 0 {
		return errors.New("subtotalCad must be non-negative")
	}
	return nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource assembles catalog snapshots from the upstream catalog service
// (GET /plans?duration=&diet=). The catalog is owned and mutated upstream;
// this source only reads it.
type HTTPSource struct {
	baseURL string
	apiKey  string
	client  httpDoer
}

func NewHTTPSource(baseURL, apiKey string, client httpDoer) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

type wireAddOnType struct {
	ID           string          `json:"id"`
	Key          string          `json:"key"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit"`
	DefaultPrice decimal.Decimal `json:"defaultPriceCad"`
}

type wireVariantAddOn struct {
	AddOnTypeID string          `json:"addonTypeId"`
	Price       decimal.Decimal `json:"priceCad"`
	AddOnType   *wireAddOnType  `json:"addonType"`
}

type wireVariant struct {
	ID        string             `json:"id"`
	Diet      string             `json:"diet"`
	Family    string             `json:"family"`
	Serving   string             `json:"serving"`
	BasePrice decimal.Decimal    `json:"basePriceCad"`
	AddOns    []wireVariantAddOn `json:"addons"`
}

type wirePlansResponse struct {
	Variants []wireVariant `json:"variants"`
}

func (s *HTTPSource) Snapshot(ctx context.Context) (*entity.Catalog, error) {
	snapshot := &entity.Catalog{}
	for _, duration := range []entity.Duration{entity.DurationWeekly, entity.DurationMonthly} {
		for _, diet := range []entity.Diet{entity.DietVeg, entity.DietNonVeg} {
			variants, err := s.fetchVariants(ctx, duration, diet)
			if err != nil {
				return nil, err
			}
			snapshot.Variants = append(snapshot.Variants, variants...)
		}
	}
	return snapshot, nil
}

func (s *HTTPSource) fetchVariants(ctx context.Context, duration entity.Duration, diet entity.Diet) ([]*entity.PlanVariant, error) {
	query := url.Values{}
	query.Set("duration", string(duration))
	query.Set("diet", string(diet))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/plans?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: catalog service returned %d", ErrUnavailable, resp.StatusCode)
	}

	var body wirePlansResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed plans response: %v", ErrUnavailable, err)
	}

	variants := make([]*entity.PlanVariant, 0, len(body.Variants))
	for _, wv := range body.Variants {
		variant, err := wv.toEntity(duration, diet)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}
	return variants, nil
}

func (wv wireVariant) toEntity(duration entity.Duration, diet entity.Diet) (*entity.PlanVariant, error) {
	if strings.TrimSpace(wv.ID) == "" {
		return nil, fmt.Errorf("%w: variant without id", ErrUnavailable)
	}

	variant := &entity.PlanVariant{
		ID:        wv.ID,
		Diet:      diet,
		Family:    entity.FamilySize(wv.Family),
		Serving:   entity.Serving(wv.Serving),
		Duration:  duration,
		BasePrice: wv.BasePrice,
	}
	if wv.Diet != "" {
		variant.Diet = entity.Diet(wv.Diet)
	}
	if !entity.ValidDiet(variant.Diet) || !entity.ValidFamilySize(variant.Family) || !entity.ValidServing(variant.Serving) {
		return nil, fmt.Errorf("%w: variant %s has invalid axes %s/%s/%s", ErrUnavailable, wv.ID, variant.Diet, variant.Family, variant.Serving)
	}

	for _, wa := range wv.AddOns {
		if strings.TrimSpace(wa.AddOnTypeID) == "" {
			return nil, fmt.Errorf("%w: variant %s has add-on without id", ErrUnavailable, wv.ID)
		}
		addon := entity.VariantAddOn{AddOnTypeID: wa.AddOnTypeID, Price: wa.Price}
		if wa.AddOnType != nil {
			addon.AddOnType = &entity.AddOnType{
				ID:           wa.AddOnType.ID,
				Key:          wa.AddOnType.Key,
				Description:  wa.AddOnType.Description,
				Unit:         entity.AddOnUnit(wa.AddOnType.Unit),
				DefaultPrice: wa.AddOnType.DefaultPrice,
			}
		}
		variant.AddOns = append(variant.AddOns, addon)
	}
	return variant, nil
}

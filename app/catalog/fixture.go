package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
)

// FixtureSource serves a static in-code catalog. It exists for local
// development and tests and is only ever selected explicitly through
// configuration, never as a fallback when the remote catalog errors.
type FixtureSource struct {
	snapshot *entity.Catalog
}

func NewFixtureSource() *FixtureSource {
	return &FixtureSource{snapshot: buildFixtureCatalog()}
}

func (s *FixtureSource) Snapshot(_ context.Context) (*entity.Catalog, error) {
	return s.snapshot, nil
}

var fixtureAddOnTypes = []entity.AddOnType{
	{ID: "addon-saturday", Key: "saturday_delivery", Description: "Saturday delivery", Unit: entity.UnitPerWeek, DefaultPrice: dec("5.00")},
	{ID: "addon-sweet", Key: "sweet_dish", Description: "Sweet dish with a meal", Unit: entity.UnitPerMeal, DefaultPrice: dec("2.50")},
	{ID: "addon-rice", Key: "extra_rice", Description: "Extra rice portion", Unit: entity.UnitPerMeal, DefaultPrice: dec("1.50")},
	{ID: "addon-rotis", Key: "extra_rotis", Description: "Two extra rotis", Unit: entity.UnitPerMeal, DefaultPrice: dec("2.00")},
}

// Weekly base prices by family size and serving; monthly is weekly x4 with a
// small bundle discount, matching the marketing pricing of the storefront.
var fixtureWeeklyBase = map[entity.FamilySize]map[entity.Serving]string{
	entity.FamilySingle: {entity.ServingRegular: "79.99", entity.ServingLarge: "94.99"},
	entity.FamilyCouple: {entity.ServingRegular: "149.99", entity.ServingLarge: "174.99"},
	entity.FamilyFamily: {entity.ServingRegular: "209.99", entity.ServingLarge: "244.99"},
}

func buildFixtureCatalog() *entity.Catalog {
	c := &entity.Catalog{}
	for _, duration := range []entity.Duration{entity.DurationWeekly, entity.DurationMonthly} {
		for _, diet := range []entity.Diet{entity.DietVeg, entity.DietNonVeg} {
			for _, family := range []entity.FamilySize{entity.FamilySingle, entity.FamilyCouple, entity.FamilyFamily} {
				for _, serving := range []entity.Serving{entity.ServingRegular, entity.ServingLarge} {
					c.Variants = append(c.Variants, fixtureVariant(diet, family, serving, duration))
				}
			}
		}
	}
	return c
}

func fixtureVariant(diet entity.Diet, family entity.FamilySize, serving entity.Serving, duration entity.Duration) *entity.PlanVariant {
	base := dec(fixtureWeeklyBase[family][serving])
	if diet == entity.DietNonVeg {
		base = base.Add(dec("15.00"))
	}
	if duration == entity.DurationMonthly {
		// Four weeks minus the bundle discount.
		base = base.Mul(dec("4")).Sub(dec("20.00"))
	}

	variant := &entity.PlanVariant{
		ID: fmt.Sprintf("var-%s-%s-%s-%s",
			strings.ToLower(string(diet)),
			strings.ToLower(string(family)),
			strings.ToLower(string(serving)),
			strings.ToLower(string(duration))),
		Diet:      diet,
		Family:    family,
		Serving:   serving,
		Duration:  duration,
		BasePrice: base,
	}
	for i := range fixtureAddOnTypes {
		t := fixtureAddOnTypes[i]
		variant.AddOns = append(variant.AddOns, entity.VariantAddOn{
			AddOnTypeID: t.ID,
			Price:       t.DefaultPrice,
			AddOnType:   &t,
		})
	}
	return variant
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

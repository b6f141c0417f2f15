package catalog

import (
	"context"
	"testing"

	"github.com/vibast-solutions/ms-go-meal-subscriptions/app/entity"
)

func TestFixtureSourceOneVariantPerCombination(t *testing.T) {
	snapshot, err := NewFixtureSource().Snapshot(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(snapshot.Variants) != 24 {
		t.Fatalf("expected 24 variants (2 diets x 3 family sizes x 2 servings x 2 durations), got %d", len(snapshot.Variants))
	}

	for _, duration := range []entity.Duration{entity.DurationWeekly, entity.DurationMonthly} {
		for _, diet := range []entity.Diet{entity.DietVeg, entity.DietNonVeg} {
			for _, family := range []entity.FamilySize{entity.FamilySingle, entity.FamilyCouple, entity.FamilyFamily} {
				for _, serving := range []entity.Serving{entity.ServingRegular, entity.ServingLarge} {
					matches := 0
					for _, v := range snapshot.Variants {
						if v.Diet == diet && v.Family == family && v.Serving == serving && v.Duration == duration {
							matches++
						}
					}
					if matches != 1 {
						t.Fatalf("expected exactly one variant for %s/%s/%s/%s, got %d", diet, family, serving, duration, matches)
					}
				}
			}
		}
	}
}

func TestFixtureSourcePricingRules(t *testing.T) {
	snapshot, err := NewFixtureSource().Snapshot(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	weeklyVeg := snapshot.Find(entity.DietVeg, entity.FamilySingle, entity.ServingRegular, entity.DurationWeekly)
	if !weeklyVeg.BasePrice.Equal(dec("79.99")) {
		t.Fatalf("expected weekly veg single regular at 79.99, got %s", weeklyVeg.BasePrice)
	}

	weeklyNonVeg := snapshot.Find(entity.DietNonVeg, entity.FamilySingle, entity.ServingRegular, entity.DurationWeekly)
	if !weeklyNonVeg.BasePrice.Equal(weeklyVeg.BasePrice.Add(dec("15.00"))) {
		t.Fatalf("expected non-veg surcharge of 15.00, got %s", weeklyNonVeg.BasePrice)
	}

	monthlyVeg := snapshot.Find(entity.DietVeg, entity.FamilySingle, entity.ServingRegular, entity.DurationMonthly)
	if !monthlyVeg.BasePrice.Equal(weeklyVeg.BasePrice.Mul(dec("4")).Sub(dec("20.00"))) {
		t.Fatalf("expected monthly bundle price, got %s", monthlyVeg.BasePrice)
	}
}

func TestFixtureSourceAddOnsOfferedEverywhere(t *testing.T) {
	snapshot, _ := NewFixtureSource().Snapshot(context.Background())

	for _, v := range snapshot.Variants {
		if len(v.AddOns) != len(fixtureAddOnTypes) {
			t.Fatalf("variant %s offers %d add-ons, expected %d", v.ID, len(v.AddOns), len(fixtureAddOnTypes))
		}
		for _, a := range v.AddOns {
			if a.AddOnType == nil {
				t.Fatalf("variant %s add-on %s is missing its type metadata", v.ID, a.AddOnTypeID)
			}
			if !a.Price.Equal(a.AddOnType.DefaultPrice) {
				t.Fatalf("fixture add-on %s price %s diverges from default %s", a.AddOnTypeID, a.Price, a.AddOnType.DefaultPrice)
			}
		}
	}
}

func TestFixtureSourceStableFingerprint(t *testing.T) {
	first, _ := NewFixtureSource().Snapshot(context.Background())
	second, _ := NewFixtureSource().Snapshot(context.Background())

	if first.Fingerprint() != second.Fingerprint() {
		t.Fatal("expected fixture catalog fingerprint to be stable across instances")
	}
}

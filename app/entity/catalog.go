package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type Diet string

const (
	DietVeg    Diet = "VEG"
	DietNonVeg Diet = "NON_VEG"
)

type FamilySize string

const (
	FamilySingle FamilySize = "SINGLE"
	FamilyCouple FamilySize = "COUPLE"
	FamilyFamily FamilySize = "FAMILY"
)

type Serving string

const (
	ServingRegular Serving = "REGULAR"
	ServingLarge   Serving = "LARGE"
)

type Duration string

const (
	DurationWeekly  Duration = "WEEKLY"
	DurationMonthly Duration = "MONTHLY"
)

type AddOnUnit string

const (
	UnitPerMeal        AddOnUnit = "PER_MEAL"
	UnitPerDeliveryDay AddOnUnit = "PER_DELIVERY_DAY"
	UnitPerWeek        AddOnUnit = "PER_WEEK"
)

// AddOnFrequency controls how a selection quantity translates into billed units.
// DAILY applies the per-unit price once per delivery day in the billing cycle;
// SPECIFIC_DAYS charges exactly the entered quantity.
type AddOnFrequency string

const (
	FrequencyDaily        AddOnFrequency = "DAILY"
	FrequencySpecificDays AddOnFrequency = "SPECIFIC_DAYS"
)

func ValidDiet(v Diet) bool {
	return v == DietVeg || v == DietNonVeg
}

func ValidFamilySize(v FamilySize) bool {
	return v == FamilySingle || v == FamilyCouple || v == FamilyFamily
}

func ValidServing(v Serving) bool {
	return v == ServingRegular || v == ServingLarge
}

func ValidDuration(v Duration) bool {
	return v == DurationWeekly || v == DurationMonthly
}

func ValidFrequency(v AddOnFrequency) bool {
	return v == FrequencyDaily || v == FrequencySpecificDays
}

type AddOnType struct {
	ID          string
	Key         string
	Description string
	Unit        AddOnUnit
	// DefaultPrice is informational only. Pricing always uses the per-variant
	// override; an add-on without one is not purchasable for that variant.
	DefaultPrice decimal.Decimal
}

type VariantAddOn struct {
	AddOnTypeID string
	Price       decimal.Decimal
	AddOnType   *AddOnType
}

type PlanVariant struct {
	ID        string
	Diet      Diet
	Family    FamilySize
	Serving   Serving
	Duration  Duration
	BasePrice decimal.Decimal
	AddOns    []VariantAddOn
}

// AddOn returns the per-variant add-on entry, or nil when the add-on is not
// offered for this variant.
func (v *PlanVariant) AddOn(addOnTypeID string) *VariantAddOn {
	for i := range v.AddOns {
		if v.AddOns[i].AddOnTypeID == addOnTypeID {
			return &v.AddOns[i]
		}
	}
	return nil
}

// Catalog is an immutable snapshot of the sellable plan variants for the
// duration of one pricing computation.
type Catalog struct {
	Variants []*PlanVariant
}

func (c *Catalog) Variant(id string) *PlanVariant {
	for _, v := range c.Variants {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (c *Catalog) Find(diet Diet, family FamilySize, serving Serving, duration Duration) *PlanVariant {
	for _, v := range c.Variants {
		if v.Diet == diet && v.Family == family && v.Serving == serving && v.Duration == duration {
			return v
		}
	}
	return nil
}

// Fingerprint is a content hash of the snapshot, stable across variant and
// add-on ordering. Commits compare it against the fingerprint a preview was
// computed with to detect catalog changes in between.
func (c *Catalog) Fingerprint() string {
	lines := make([]string, 0, len(c.Variants))
	for _, v := range c.Variants {
		addons := make([]string, 0, len(v.AddOns))
		for _, a := range v.AddOns {
			addons = append(addons, fmt.Sprintf("%s=%s", a.AddOnTypeID, a.Price.String()))
		}
		sort.Strings(addons)
		lines = append(lines, fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
			v.ID, v.Diet, v.Family, v.Serving, v.Duration, v.BasePrice.String(), strings.Join(addons, ",")))
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

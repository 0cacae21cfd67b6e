package fixture

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/careboard/careboard/internal/models"
)

//go:embed catalog.toml
var catalogTOML string

// Recommendation lists suggested supplements and foods.
type Recommendation struct {
	Supplements []string `toml:"supplements"`
	Foods       []string `toml:"foods"`
}

// Restriction is a nutrient to limit because of a condition.
type Restriction struct {
	Nutrient string `toml:"nutrient"`
	Reason   string `toml:"reason"`
}

// Subscription is a resident's supplement subscription history.
type Subscription struct {
	Status string   `toml:"status"`
	Months int      `toml:"months"`
	Recent []string `toml:"recent"`
}

// Active reports whether the subscription is current.
func (s Subscription) Active() bool {
	return s.Status == "active"
}

// CareAction is a staff action suggested for vulnerable residents.
type CareAction struct {
	Level string `toml:"level"`
	Title string `toml:"title"`
	Desc  string `toml:"desc"`
}

// Catalog holds the static pools the generators draw from.
type Catalog struct {
	Nutrients           []string                  `toml:"nutrients"`
	LowNutrientCount    CountRange                `toml:"low_nutrient_count"`
	Conditions          []string                  `toml:"conditions"`
	RiskConditionCounts map[string]CountRange     `toml:"risk_condition_counts"`
	Default             Recommendation            `toml:"default_recommendation"`
	Recommendations     map[string]Recommendation `toml:"recommendations"`
	Subscriptions       map[string]Subscription   `toml:"subscriptions"`
	RecordedConditions  map[string][]string       `toml:"recorded_conditions"`
	Restrictions        map[string][]Restriction  `toml:"restrictions"`
	CareActions         []CareAction              `toml:"care_actions"`
}

// LoadCatalog decodes the embedded catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogTOML)
}

// MustLoadCatalog is LoadCatalog for package initialisation and tests.
func MustLoadCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(data string) (*Catalog, error) {
	var c Catalog
	if _, err := toml.Decode(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	return &c, nil
}

// Validate checks every count range against its pool.
func (c *Catalog) Validate() error {
	var errs []error

	if err := c.LowNutrientCount.Validate(len(c.Nutrients)); err != nil {
		errs = append(errs, fmt.Errorf("low_nutrient_count: %w", err))
	}

	for _, level := range models.RiskLevels {
		counts, ok := c.RiskConditionCounts[string(level)]
		if !ok {
			errs = append(errs, fmt.Errorf("risk_condition_counts: missing %s", level))
			continue
		}
		if err := counts.Validate(len(c.Conditions)); err != nil {
			errs = append(errs, fmt.Errorf("risk_condition_counts.%s: %w", level, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ConditionCounts returns the condition count range for a risk level.
func (c *Catalog) ConditionCounts(level models.RiskLevel) CountRange {
	return c.RiskConditionCounts[string(level)]
}

// RecommendationFor returns the named resident's recommendation or the default.
func (c *Catalog) RecommendationFor(name string) Recommendation {
	if r, ok := c.Recommendations[name]; ok {
		return r
	}
	return c.Default
}

// SubscriptionFor returns the named resident's subscription. Residents
// without one get an inactive, empty subscription.
func (c *Catalog) SubscriptionFor(name string) Subscription {
	if s, ok := c.Subscriptions[name]; ok {
		return s
	}
	return Subscription{Status: "inactive"}
}

// RestrictionsFor collects restrictions for the given conditions, dropping
// duplicate nutrient/reason pairs and keeping first-seen order.
func (c *Catalog) RestrictionsFor(conditions []string) []Restriction {
	var out []Restriction
	seen := make(map[Restriction]bool)
	for _, cond := range conditions {
		for _, r := range c.Restrictions[cond] {
			if seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

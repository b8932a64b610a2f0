package scheduler

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harborline/voyage-api/internal/models"
)

// CompanionRule couples a dependent series to a companion series that must be
// co-scheduled: selecting a matching instance mandates also selecting the
// companion instance that ends within the lookback window before it on the
// same day. This is a named domain exception, not a general dependency graph.
type CompanionRule struct {
	SeriesPrefix    string `yaml:"seriesPrefix"`
	CompanionSeries string `yaml:"companionSeries"`
	LookbackMinutes int    `yaml:"lookbackMinutes"`
}

// DefaultCompanionRules returns the single built-in rule: "Bingo with ..."
// sessions require the same-day "Bingo Card Sales" slot that closes within
// two hours before the game starts.
func DefaultCompanionRules() []CompanionRule {
	return []CompanionRule{
		{SeriesPrefix: "Bingo with", CompanionSeries: "Bingo Card Sales", LookbackMinutes: 120},
	}
}

// LoadCompanionRules reads rule overrides from a YAML file. An empty path
// yields the built-in rules.
func LoadCompanionRules(path string) ([]CompanionRule, error) {
	if path == "" {
		return DefaultCompanionRules(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read companion rules: %w", err)
	}
	var doc struct {
		Rules []CompanionRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse companion rules: %w", err)
	}
	for _, rule := range doc.Rules {
		if rule.SeriesPrefix == "" || rule.CompanionSeries == "" || rule.LookbackMinutes < 0 {
			return nil, fmt.Errorf("invalid companion rule %+v", rule)
		}
	}
	if len(doc.Rules) == 0 {
		return DefaultCompanionRules(), nil
	}
	return doc.Rules, nil
}

// CompanionResolver matches instances against the rule table and finds their
// companion instance in the catalog.
type CompanionResolver struct {
	rules []CompanionRule
}

// NewCompanionResolver builds a resolver; nil rules fall back to the
// built-in table.
func NewCompanionResolver(rules []CompanionRule) *CompanionResolver {
	if rules == nil {
		rules = DefaultCompanionRules()
	}
	return &CompanionResolver{rules: rules}
}

// Resolve returns the companion that must accompany the given instance, or
// nil when the instance is not companion-dependent or no companion exists in
// the window. The search deliberately ignores visibility filters: the
// companion series is usually hidden from the main view. A found companion
// is force-registered into the catalog so later uid lookups resolve.
func (r *CompanionResolver) Resolve(catalog *Catalog, inst *models.EventInstance) *models.EventInstance {
	if inst == nil || r == nil {
		return nil
	}
	for _, rule := range r.rules {
		if !strings.HasPrefix(inst.SeriesName, rule.SeriesPrefix) {
			continue
		}
		if inst.SeriesName == rule.CompanionSeries {
			continue
		}
		var best *models.EventInstance
		for _, cand := range catalog.Series(rule.CompanionSeries) {
			if cand.Date != inst.Date {
				continue
			}
			gap := inst.StartMinutes - cand.EndMinutes
			if gap < 0 || gap > rule.LookbackMinutes {
				continue
			}
			if best == nil || cand.EndMinutes > best.EndMinutes {
				best = cand
			}
		}
		if best != nil {
			catalog.Register(best)
		}
		return best
	}
	return nil
}

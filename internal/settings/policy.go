package settings

import "strings"

// MissingKeyRule assigns Value to keys that are absent from the entry list and
// whose name contains Marker.
type MissingKeyRule struct {
	Marker string
	Value  Value
}

// MissingKeyPolicy decides what a key resolves to when no entry carries it.
// Rules are evaluated in order; the first match wins.
type MissingKeyPolicy struct {
	rules []MissingKeyRule
}

// NewMissingKeyPolicy builds a policy from rules. Rules with an empty marker are ignored.
func NewMissingKeyPolicy(rules ...MissingKeyRule) MissingKeyPolicy {
	kept := make([]MissingKeyRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Marker == "" {
			continue
		}
		kept = append(kept, rule)
	}
	return MissingKeyPolicy{rules: kept}
}

// DefaultMissingKeyPolicy fails open: unknown permission keys ("allow...") resolve to true.
func DefaultMissingKeyPolicy() MissingKeyPolicy {
	return NewMissingKeyPolicy(MissingKeyRule{Marker: "allow", Value: Bool(true)})
}

// Lookup returns the value of the first rule matching key.
func (p MissingKeyPolicy) Lookup(key string) (Value, bool) {
	for _, rule := range p.rules {
		if strings.Contains(key, rule.Marker) {
			return rule.Value, true
		}
	}
	return Absent(), false
}

// Rules returns a copy of the configured rules.
func (p MissingKeyPolicy) Rules() []MissingKeyRule {
	out := make([]MissingKeyRule, len(p.rules))
	copy(out, p.rules)
	return out
}

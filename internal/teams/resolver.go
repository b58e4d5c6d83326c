package teams

import (
	"regexp"
	"strings"
)

// Rule maps a name pattern to a canonical team identity. Rules are
// evaluated in insertion order and the first match wins, so reordering
// them changes resolution outcomes: treat the rule list as configuration.
type Rule struct {
	Pattern   string
	Canonical string
}

type Resolver struct {
	rules []compiledRule
}

type compiledRule struct {
	re        *regexp.Regexp
	canonical string
}

func NewResolver(rules []Rule) (*Resolver, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledRule{re: re, canonical: rule.Canonical})
	}
	return &Resolver{rules: compiled}, nil
}

// Resolve returns the canonical name for rawName, or "" when no rule
// matches. Input is lower-cased before matching.
func (r *Resolver) Resolve(rawName string) string {
	normalized := strings.ToLower(strings.TrimSpace(rawName))
	if normalized == "" {
		return ""
	}
	for _, rule := range r.rules {
		if rule.re.MatchString(normalized) {
			return rule.canonical
		}
	}
	return ""
}

// Rules returns the rule order currently in effect, for diagnostics.
func (r *Resolver) Rules() []string {
	out := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule.re.String()+" => "+rule.canonical)
	}
	return out
}

// DefaultRules is the built-in rule set. More specific patterns must come
// before broader ones.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: `man(chester)?\s*city`, Canonical: "manchester-city"},
		{Pattern: `man(chester)?\s*(utd|united)`, Canonical: "manchester-united"},
		{Pattern: `liverpool`, Canonical: "liverpool"},
		{Pattern: `arsenal`, Canonical: "arsenal"},
		{Pattern: `chelsea`, Canonical: "chelsea"},
		{Pattern: `tottenham|spurs`, Canonical: "tottenham"},
		{Pattern: `real\s*madrid`, Canonical: "real-madrid"},
		{Pattern: `atl[eé]tico\s*(de\s*)?madrid`, Canonical: "atletico-madrid"},
		{Pattern: `barcelona|barça`, Canonical: "barcelona"},
		{Pattern: `bayern`, Canonical: "bayern-munich"},
		{Pattern: `dortmund`, Canonical: "borussia-dortmund"},
		{Pattern: `juventus|juve`, Canonical: "juventus"},
		{Pattern: `inter(nazionale)?(\s*milan)?$`, Canonical: "inter-milan"},
		{Pattern: `ac\s*milan|^milan$`, Canonical: "ac-milan"},
		{Pattern: `paris|psg`, Canonical: "paris-saint-germain"},
	}
}

// Package categorize suggests a category for a transaction from its title.
package categorize

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Other is returned when no rule matches.
const Other = "Other"

// Income is the category used for income transactions.
const Income = "Income"

// Rule maps keywords to a category. Keywords are matched as lower-case
// substrings of the title.
type Rule struct {
	Category string   `toml:"category" json:"category"`
	Keywords []string `toml:"keywords" json:"keywords"`
}

// defaultRules is the built-in table. Order is precedence: "uber eats" must
// be tested before "uber".
var defaultRules = []Rule{
	{"Food & Dining", []string{"restaurant", "food", "cafe", "lunch", "dinner", "breakfast", "grocery", "uber eats", "doordash", "grubhub"}},
	{"Transportation", []string{"uber", "lyft", "gas", "fuel", "parking", "metro", "bus", "train", "taxi", "vehicle"}},
	{"Shopping", []string{"amazon", "store", "shop", "mall", "purchase", "buy", "retail"}},
	{"Entertainment", []string{"movie", "netflix", "spotify", "game", "concert", "theatre", "entertainment", "subscription"}},
	{"Bills & Utilities", []string{"electric", "water", "internet", "phone", "bill", "utility", "rent", "mortgage"}},
	{"Healthcare", []string{"doctor", "hospital", "pharmacy", "medical", "health", "clinic", "medicine"}},
	{"Education", []string{"school", "course", "book", "tuition", "education", "training"}},
	{"Travel", []string{"hotel", "flight", "airbnb", "booking", "travel", "vacation", "trip"}},
}

var defaultClassifier = mustNew(defaultRules)

func mustNew(rules []Rule) *Classifier {
	c, err := New(rules)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultRules returns a copy of the built-in rule table.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	for i, r := range defaultRules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Categorize returns the first built-in category whose keywords appear in
// title, or Other. amount is accepted for future amount-based rules.
func Categorize(title string, amount decimal.Decimal) string {
	return defaultClassifier.Categorize(title, amount)
}

// Categories lists every category the built-in table can produce, plus
// Income and Other.
func Categories() []string {
	out := make([]string, 0, len(defaultRules)+2)
	for _, r := range defaultRules {
		out = append(out, r.Category)
	}
	return append(out, Income, Other)
}

// Classifier is an immutable ordered rule table.
type Classifier struct {
	rules []Rule
}

// New builds a classifier from rules, lower-casing keywords. The caller's
// slice is copied.
func New(rules []Rule) (*Classifier, error) {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Category) == "" {
			return nil, errors.New("categorize: rule with empty category")
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		out = append(out, Rule{Category: r.Category, Keywords: kws})
	}
	return &Classifier{rules: out}, nil
}

// WithDefaults builds a classifier that tries the built-in rules first and
// then extra.
func WithDefaults(extra []Rule) (*Classifier, error) {
	all := make([]Rule, 0, len(defaultRules)+len(extra))
	all = append(all, defaultRules...)
	all = append(all, extra...)
	return New(all)
}

// Categorize applies the rule table in order; the first match wins.
func (c *Classifier) Categorize(title string, _ decimal.Decimal) string {
	lower := strings.ToLower(title)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Category
			}
		}
	}
	return Other
}

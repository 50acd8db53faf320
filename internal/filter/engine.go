// Package filter implements keyword expressions matched against feed items.
//
// An expression is a list of terms separated by spaces:
//
//	word        the item must contain word
//	"a phrase"  the item must contain the phrase
//	-word       the item must not contain word
//	/re/        the item must match the regular expression
//	-/re/       the item must not match the regular expression
//	title:word  restricts a term to the item title
//
// Matching is case-insensitive and uses the title and description.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind defines the type of a rule.
type Kind string

// Supported rule kinds.
const (
	Include   Kind = "include"
	Exclude   Kind = "exclude"
	IncludeRe Kind = "include_re"
	ExcludeRe Kind = "exclude_re"
)

// Scope defines which part of the item a rule matches against.
type Scope string

// Supported scopes.
const (
	ScopeTitle Scope = "title"
	ScopeAll   Scope = "all"
)

// Rule is a single term of a keyword expression.
type Rule struct {
	Kind  Kind
	Scope Scope
	Value string
}

// FeedItem represents an item to be matched against rules.
type FeedItem struct {
	Title       string
	Description string
}

// Parse splits a keyword expression into rules.
func Parse(expr string) []Rule {
	var rules []Rule
	for _, term := range splitTerms(expr) {
		r := Rule{Kind: Include, Scope: ScopeAll}
		if strings.HasPrefix(term, "-") && len(term) > 1 {
			r.Kind = Exclude
			term = term[1:]
		}
		if rest, ok := strings.CutPrefix(term, "title:"); ok && rest != "" {
			r.Scope = ScopeTitle
			term = rest
		}
		if len(term) > 2 && strings.HasPrefix(term, "/") && strings.HasSuffix(term, "/") {
			term = term[1 : len(term)-1]
			if r.Kind == Exclude {
				r.Kind = ExcludeRe
			} else {
				r.Kind = IncludeRe
			}
		}
		term = strings.Trim(term, `"`)
		if term == "" {
			continue
		}
		r.Value = term
		rules = append(rules, r)
	}
	return rules
}

func splitTerms(expr string) []string {
	var (
		terms  []string
		cur    strings.Builder
		quoted bool
	)
	flush := func() {
		if cur.Len() > 0 {
			terms = append(terms, cur.String())
			cur.Reset()
		}
	}
	for _, r := range expr {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case !quoted && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return terms
}

// Match checks whether an item satisfies all rules.
// If no rules are provided, the item always passes.
// Include rules use AND logic (all must match).
// Exclude rules use AND logic (none must match).
func Match(item FeedItem, rules []Rule) bool {
	for _, r := range rules {
		switch r.Kind {
		case Include, IncludeRe:
			if !matchesRule(item, r) {
				return false
			}
		case Exclude, ExcludeRe:
			if matchesRule(item, r) {
				return false
			}
		}
	}
	return true
}

func matchesRule(item FeedItem, r Rule) bool {
	text := textForScope(item, r.Scope)
	switch r.Kind {
	case Include, Exclude:
		return strings.Contains(text, strings.ToLower(r.Value))
	case IncludeRe, ExcludeRe:
		re, err := regexp.Compile("(?i)" + r.Value)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}
	return false
}

func textForScope(item FeedItem, scope Scope) string {
	if scope == ScopeTitle {
		return strings.ToLower(item.Title)
	}
	return strings.ToLower(item.Title + " " + item.Description)
}

// Query renders the plain include terms of rules as a search engine query.
// Phrases are quoted. Regex and exclude terms are left out.
func Query(rules []Rule) string {
	var terms []string
	for _, r := range rules {
		if r.Kind != Include {
			continue
		}
		if strings.ContainsAny(r.Value, " \t") {
			terms = append(terms, `"`+r.Value+`"`)
		} else {
			terms = append(terms, r.Value)
		}
	}
	return strings.Join(terms, " ")
}

// Residual returns the rules a search engine given Query(rules) does not
// evaluate, so results can be checked locally with Match.
func Residual(rules []Rule) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.Kind == Include && r.Scope == ScopeAll {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Validate checks that every regular expression term of expr compiles.
func Validate(expr string) error {
	for _, r := range Parse(expr) {
		if r.Kind != IncludeRe && r.Kind != ExcludeRe {
			continue
		}
		if err := ValidateRegex(r.Value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRegex checks whether a pattern is a valid regular expression.
func ValidateRegex(pattern string) error {
	_, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}

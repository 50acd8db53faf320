package bot

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"keyword_bot/internal/filter"
	"keyword_bot/internal/model"
)

// MaxKeywordLength is the longest keyword expression accepted, in runes.
const MaxKeywordLength = 100

var (
	errEmptyKeyword   = errors.New("keyword is empty")
	errKeywordTooLong = errors.New("keyword is too long")
	errNoSearchTerm   = errors.New("keyword has no search term")
)

// ParseKeyword normalizes a keyword expression from user input and checks
// that it is usable: non-empty, bounded in length, with valid regex terms.
// When searchable is set the expression must also contain a plain word or
// phrase that a news search engine can be queried with.
func ParseKeyword(args string, searchable bool) (string, error) {
	kw := strings.Join(strings.Fields(args), " ")
	if kw == "" {
		return "", errEmptyKeyword
	}
	if utf8.RuneCountInString(kw) > MaxKeywordLength {
		return "", errKeywordTooLong
	}
	rules := filter.Parse(kw)
	if len(rules) == 0 {
		return "", errEmptyKeyword
	}
	if searchable && filter.Query(rules) == "" {
		return "", errNoSearchTerm
	}
	if err := filter.Validate(kw); err != nil {
		return "", fmt.Errorf("validate keyword: %w", err)
	}
	return kw, nil
}

// ParseLangArg parses the argument of /lang.
func ParseLangArg(args string) (model.Lang, error) {
	lang, ok := model.ParseLang(strings.ToLower(strings.TrimSpace(args)))
	if !ok {
		return "", fmt.Errorf("unsupported language %q", args)
	}
	return lang, nil
}

func keywordError(lang model.Lang, err error) string {
	switch {
	case errors.Is(err, errEmptyKeyword):
		return tr(lang, msgEmptyKeyword)
	case errors.Is(err, errKeywordTooLong):
		return tr(lang, msgKeywordTooLong, MaxKeywordLength)
	case errors.Is(err, errNoSearchTerm):
		return tr(lang, msgNoSearchTerm)
	default:
		return tr(lang, msgInvalidKeyword, errors.Unwrap(err))
	}
}

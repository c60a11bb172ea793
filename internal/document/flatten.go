package document

import (
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
)

type analyzers struct {
	stopped analysis.Analyzer
	plain   analysis.Analyzer
}

var loadAnalyzers = sync.OnceValues(func() (analyzers, error) {
	stopped, err := registry.NewCache().AnalyzerNamed(standard.Name)
	if err != nil {
		return analyzers{}, err
	}
	return analyzers{
		stopped: stopped,
		plain: &analysis.DefaultAnalyzer{
			Tokenizer:    unicode.NewUnicodeTokenizer(),
			TokenFilters: []analysis.TokenFilter{lowercase.NewLowerCaseFilter()},
		},
	}, nil
})

// Flatten normalizes a title for exact matching and sorting: tokenized,
// English stop words removed, lower-cased, everything outside [a-z0-9]
// dropped. A title made only of stop words keeps them.
func Flatten(title string) string {
	a, err := loadAnalyzers()
	if err != nil {
		return strip(strings.ToLower(title))
	}
	tokens := a.stopped.Analyze([]byte(title))
	if len(tokens) == 0 {
		tokens = a.plain.Analyze([]byte(title))
	}
	var b strings.Builder
	for _, tok := range tokens {
		b.Write(tok.Term)
	}
	return strip(b.String())
}

func strip(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, s)
}

// flattenOrEmpty keeps an absent title absent.
func flattenOrEmpty(title string) string {
	if title == "" {
		return ""
	}
	return Flatten(title)
}

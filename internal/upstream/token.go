package upstream

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var tokenRe = regexp.MustCompile(`(?i)^[0-9a-f]{32}$`)

// TokenExtractor is one strategy for pulling the tabToken out of an upstream page
type TokenExtractor interface {
	Name() string
	Extract(html string) (string, bool)
}

// HiddenFieldExtractor reads <input name="tabToken" value="...">
type HiddenFieldExtractor struct{}

func (HiddenFieldExtractor) Name() string { return "hidden-field" }

func (HiddenFieldExtractor) Extract(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	var token string
	doc.Find("input[name=tabToken]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v := strings.TrimSpace(s.AttrOr("value", ""))
		if tokenRe.MatchString(v) {
			token = v
			return false
		}
		return true
	})
	return token, token != ""
}

// RegexExtractor returns the first capture group of a pattern
type RegexExtractor struct {
	Label   string
	Pattern *regexp.Regexp
}

func (e RegexExtractor) Name() string { return e.Label }

func (e RegexExtractor) Extract(html string) (string, bool) {
	m := e.Pattern.FindStringSubmatch(html)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// DefaultTokenExtractors returns the strategies in priority order.
// Append to the returned slice to support new upstream markup.
func DefaultTokenExtractors() []TokenExtractor {
	return []TokenExtractor{
		HiddenFieldExtractor{},
		RegexExtractor{
			Label:   "hidden-field-markup",
			Pattern: regexp.MustCompile(`(?i)name="tabToken"\s*value="([0-9a-f]{32})"`),
		},
		RegexExtractor{
			Label:   "js-assignment",
			Pattern: regexp.MustCompile(`(?i)\btabToken\b\s*[:=]\s*["']([0-9a-f]{32})["']`),
		},
		RegexExtractor{
			Label:   "js-initializer",
			Pattern: regexp.MustCompile(`(?i)EPodroznik\.setTabToken\(["']([0-9a-f]{32})["']\)`),
		},
		RegexExtractor{
			Label:   "proximity",
			Pattern: regexp.MustCompile(`(?i)tabtoken[^0-9a-f]{0,200}([0-9a-f]{32})`),
		},
	}
}

// extractToken runs the strategies in order and reports which one matched
func extractToken(extractors []TokenExtractor, html string) (token, strategy string, ok bool) {
	for _, e := range extractors {
		if t, ok := e.Extract(html); ok {
			return t, e.Name(), true
		}
	}
	return "", "", false
}

// Package classifier annotates news items with industry relevance, policy
// relevance, importance, detected companies, and ranked keywords.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-ego/gse"

	"github.com/caijingx/newsradar/internal/radar/model"
	"github.com/caijingx/newsradar/internal/radar/stockcode"
)

// minCompanyRunes suppresses short false-positive company candidates.
const minCompanyRunes = 5

// Classifier turns raw items into classified items. Classification itself
// is deterministic; the only side effect is resolver cache writes.
type Classifier struct {
	resolver *stockcode.Resolver
	seg      gse.Segmenter
	topK     int
	logger   *slog.Logger
}

// New creates a Classifier. Loading the segmenter dictionary is the
// expensive part, so one Classifier is built per process and reused.
func New(resolver *stockcode.Resolver, topK int) (*Classifier, error) {
	if topK <= 0 {
		topK = 5
	}
	c := &Classifier{
		resolver: resolver,
		topK:     topK,
		logger:   slog.Default(),
	}
	if err := c.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("load segmenter dictionary: %w", err)
	}
	return c, nil
}

// Classify annotates one item. Items missing a title or content are
// filtered out, reported by ok=false; this is a skip, not an error.
func (c *Classifier) Classify(ctx context.Context, item model.NewsItem) (model.ClassifiedItem, bool) {
	if item.Title == "" || item.Content == "" {
		return model.ClassifiedItem{}, false
	}

	text := item.Title + " " + item.Content
	tokens := significantTokens(c.seg.Cut(text, true))

	companies := extractCompanies(tokens)
	stockCodes := make(map[string]string)
	for _, company := range companies {
		if code, ok := c.resolver.Resolve(ctx, company); ok {
			stockCodes[company] = code
		}
	}

	policyInfo := containsAny(text, PolicyTerms)
	industryRelated := containsAny(text, WatchIndustries)
	important := containsAny(text, ImportanceTerms)

	return model.ClassifiedItem{
		NewsItem:          item,
		Companies:         companies,
		StockCodes:        stockCodes,
		IndustryRelated:   industryRelated,
		PolicyInfo:        policyInfo,
		Important:         important,
		Keywords:          topKeywords(tokens, c.topK),
		NewsType:          determineType(policyInfo, industryRelated, important),
		RelatedIndustries: matchIndustries(text),
	}, true
}

// ClassifyAll classifies a batch, dropping skipped items. The returned
// count reports how many were skipped.
func (c *Classifier) ClassifyAll(ctx context.Context, items []model.NewsItem) ([]model.ClassifiedItem, int) {
	out := make([]model.ClassifiedItem, 0, len(items))
	skipped := 0
	for _, item := range items {
		classified, ok := c.Classify(ctx, item)
		if !ok {
			skipped++
			continue
		}
		out = append(out, classified)
	}
	if skipped > 0 {
		c.logger.Info("items skipped by classifier", "skipped", skipped)
	}
	return out, skipped
}

// determineType maps the three flags to a news type. Rows are evaluated
// top to bottom, first match wins:
//
//	policy && industry      -> 行业政策
//	policy                  -> 政策信息
//	industry && important   -> 重要行业动态
//	industry                -> 行业动态
//	important               -> 重要新闻
//	otherwise               -> 一般新闻
func determineType(policyInfo, industryRelated, important bool) model.NewsType {
	switch {
	case policyInfo && industryRelated:
		return model.TypeIndustryPolicy
	case policyInfo:
		return model.TypePolicyInfo
	case industryRelated && important:
		return model.TypeImportantIndustry
	case industryRelated:
		return model.TypeIndustryNews
	case important:
		return model.TypeImportantNews
	default:
		return model.TypeGeneral
	}
}

// extractCompanies finds company name candidates by token adjacency: a
// token whose successor carries a corporate suffix forms a combined
// candidate; a sufficiently long token carrying a suffix itself stands
// alone. Duplicates collapse, first occurrence order is kept.
func extractCompanies(tokens []string) []string {
	var companies []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		companies = append(companies, name)
	}

	for i, tok := range tokens {
		if i+1 < len(tokens) && hasCorporateSuffix(tokens[i+1]) {
			combined := tok + tokens[i+1]
			if utf8.RuneCountInString(combined) >= minCompanyRunes {
				add(combined)
			}
		} else if hasCorporateSuffix(tok) && utf8.RuneCountInString(tok) >= minCompanyRunes {
			add(tok)
		}
	}
	return companies
}

func hasCorporateSuffix(tok string) bool {
	return containsAny(tok, corporateSuffixes)
}

// matchIndustries returns the watched industries mentioned in the text,
// in watch-list order.
func matchIndustries(text string) []string {
	var matched []string
	for _, industry := range WatchIndustries {
		if strings.Contains(text, industry) {
			matched = append(matched, industry)
		}
	}
	return matched
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// significantTokens drops whitespace and pure punctuation produced by the
// segmenter so adjacency and frequency work over real words.
func significantTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if !containsLetter(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

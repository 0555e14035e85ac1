// Package model defines the data types that flow through the news pipeline.
package model

import "time"

// NewsItem is one raw news article as reported by a source adapter.
// The URL is the item's identity within a pipeline run; PublishTime keeps
// the source's original timestamp string (formats differ per source).
type NewsItem struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	PublishTime string    `json:"publish_time"`
	Source      string    `json:"source"`
	FetchedAt   time.Time `json:"fetched_at,omitempty"`
}

// NewsType labels a classified item. Values are the Chinese category names
// used in stored and exported data.
type NewsType string

const (
	TypeIndustryPolicy    NewsType = "行业政策"
	TypePolicyInfo        NewsType = "政策信息"
	TypeImportantIndustry NewsType = "重要行业动态"
	TypeIndustryNews      NewsType = "行业动态"
	TypeImportantNews     NewsType = "重要新闻"
	TypeGeneral           NewsType = "一般新闻"
)

// IndustryOther is the bucket for items matching no watched industry.
const IndustryOther = "其他"

// ClassifiedItem is a NewsItem annotated by the classifier. It is created
// once and never mutated afterwards.
type ClassifiedItem struct {
	NewsItem

	Companies         []string          `json:"companies"`
	StockCodes        map[string]string `json:"stock_codes"`
	IndustryRelated   bool              `json:"industry_related"`
	PolicyInfo        bool              `json:"policy_info"`
	Important         bool              `json:"important"`
	Keywords          []string          `json:"keywords"`
	NewsType          NewsType          `json:"news_type"`
	RelatedIndustries []string          `json:"related_industries"`
}

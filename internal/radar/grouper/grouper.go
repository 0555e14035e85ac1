// Package grouper partitions classified items for downstream reporting.
package grouper

import "github.com/caijingx/newsradar/internal/radar/model"

// ByType groups items by their news type. Each item lands in exactly one
// bucket; insertion order is preserved within a bucket.
func ByType(items []model.ClassifiedItem) map[model.NewsType][]model.ClassifiedItem {
	grouped := make(map[model.NewsType][]model.ClassifiedItem)
	for _, item := range items {
		grouped[item.NewsType] = append(grouped[item.NewsType], item)
	}
	return grouped
}

// ByIndustry groups items by each related industry. An item matching
// several industries appears in every matching bucket; an item matching
// none goes to the 其他 bucket.
func ByIndustry(items []model.ClassifiedItem) map[string][]model.ClassifiedItem {
	grouped := make(map[string][]model.ClassifiedItem)
	for _, item := range items {
		if len(item.RelatedIndustries) == 0 {
			grouped[model.IndustryOther] = append(grouped[model.IndustryOther], item)
			continue
		}
		for _, industry := range item.RelatedIndustries {
			grouped[industry] = append(grouped[industry], item)
		}
	}
	return grouped
}

// FilterOptions selects which predicates an item must satisfy. Enabled
// predicates combine with AND.
type FilterOptions struct {
	IndustryOnly  bool
	PolicyOnly    bool
	ImportantOnly bool
}

// Filter returns the items passing every enabled predicate.
func Filter(items []model.ClassifiedItem, opts FilterOptions) []model.ClassifiedItem {
	var out []model.ClassifiedItem
	for _, item := range items {
		if opts.IndustryOnly && !item.IndustryRelated {
			continue
		}
		if opts.PolicyOnly && !item.PolicyInfo {
			continue
		}
		if opts.ImportantOnly && !item.Important {
			continue
		}
		out = append(out, item)
	}
	return out
}

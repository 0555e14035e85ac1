// Package dedupe collapses duplicate news items across source results.
package dedupe

import "github.com/caijingx/newsradar/internal/radar/model"

// ByURL removes items whose URL was already seen, keeping the first
// occurrence. Input order is preserved, so with registry output (adapter
// emission order, then registration order) the earliest-reporting source
// wins. The operation is idempotent.
func ByURL(items []model.NewsItem) []model.NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]model.NewsItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.URL]; dup {
			continue
		}
		seen[item.URL] = struct{}{}
		out = append(out, item)
	}
	return out
}

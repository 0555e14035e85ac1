package classifier

import (
	"sort"
	"unicode"
	"unicode/utf8"
)

// topKeywords ranks tokens by frequency and returns the top k. Tokens
// shorter than two runes or without any letter are ignored. Ties break on
// the token itself so the result is deterministic.
func topKeywords(tokens []string, k int) []string {
	freq := make(map[string]int)
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < 2 || !containsLetter(tok) {
			continue
		}
		freq[tok]++
	}
	if len(freq) == 0 {
		return nil
	}

	type kv struct {
		token string
		count int
	}
	pairs := make([]kv, 0, len(freq))
	for token, count := range freq {
		pairs = append(pairs, kv{token: token, count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].token < pairs[j].token
		}
		return pairs[i].count > pairs[j].count
	})

	if k <= 0 || k > len(pairs) {
		k = len(pairs)
	}
	out := make([]string, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, pairs[i].token)
	}
	return out
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

package stockcode

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/caijingx/newsradar/pkg/scraper"
)

// Lookup performs an external company name -> ticker code lookup. An empty
// code with nil error means the name is unknown.
type Lookup interface {
	LookupCode(ctx context.Context, name string) (string, error)
}

// SinaSuggest queries the Sina quote suggestion API, which answers with a
// JS assignment of semicolon-separated candidate records.
type SinaSuggest struct {
	client  *scraper.Client
	baseURL string
}

// NewSinaSuggest creates a suggestion-API lookup using the given client.
func NewSinaSuggest(client *scraper.Client) *SinaSuggest {
	return &SinaSuggest{client: client, baseURL: "https://suggest3.sinajs.cn"}
}

// LookupCode returns the ticker code of the best suggestion for name.
// Record fields are comma-separated; field 2 is the bare code.
func (s *SinaSuggest) LookupCode(ctx context.Context, name string) (string, error) {
	reqURL := fmt.Sprintf("%s/suggest/type=11,12,13,14,15&key=%s", s.baseURL, url.QueryEscape(name))
	body, err := s.client.Get(ctx, reqURL)
	if err != nil {
		return "", err
	}

	open := strings.Index(body, `"`)
	last := strings.LastIndex(body, `"`)
	if open < 0 || last <= open {
		return "", fmt.Errorf("malformed suggest response")
	}
	payload := body[open+1 : last]
	if payload == "" {
		return "", nil
	}

	first := strings.Split(payload, ";")[0]
	fields := strings.Split(first, ",")
	if len(fields) < 3 || fields[2] == "" {
		return "", nil
	}
	return fields[2], nil
}

// Resolver is the process-wide cache-aside resolver. Lookups are
// serialized so concurrent classification never fires duplicate external
// requests or loses cache writes. External failures surface as "unknown",
// never as errors; a name that failed once is memoized for the process
// lifetime so it is looked up at most once per run.
type Resolver struct {
	mapping *Mapping
	lookup  Lookup
	logger  *slog.Logger

	mu     sync.Mutex
	misses map[string]struct{}
}

// NewResolver builds a resolver over the given cache. lookup may be nil,
// in which case only cached entries resolve.
func NewResolver(mapping *Mapping, lookup Lookup) *Resolver {
	return &Resolver{
		mapping: mapping,
		lookup:  lookup,
		logger:  slog.Default(),
		misses:  make(map[string]struct{}),
	}
}

// Resolve returns the ticker code for a company name, consulting the cache
// first and falling back to the external lookup. On lookup success the
// cache is updated before returning.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, bool) {
	if code, ok := r.mapping.Get(name); ok {
		return code, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the lock: another goroutine may have resolved the
	// same name while we waited.
	if code, ok := r.mapping.Get(name); ok {
		return code, true
	}
	if _, missed := r.misses[name]; missed {
		return "", false
	}
	if r.lookup == nil {
		r.misses[name] = struct{}{}
		return "", false
	}

	code, err := r.lookup.LookupCode(ctx, name)
	if err != nil || code == "" {
		if err != nil {
			r.logger.Debug("stock code lookup failed", "company", name, "error", err)
		}
		r.misses[name] = struct{}{}
		return "", false
	}

	if err := r.mapping.Put(name, code); err != nil {
		r.logger.Warn("stock mapping flush failed", "company", name, "error", err)
	}
	return code, true
}

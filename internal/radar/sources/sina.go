package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/caijingx/newsradar/internal/radar/model"
	"github.com/caijingx/newsradar/pkg/scraper"
)

// sinaListURLs are the finance roll pages scanned for recent items.
var sinaListURLs = []string{
	"https://finance.sina.com.cn/roll/index.d.html?cid=56592", // 财经要闻
	"https://finance.sina.com.cn/roll/index.d.html?cid=57526", // 国内财经
	"https://finance.sina.com.cn/roll/index.d.html?cid=57592", // 产经要闻
	"https://finance.sina.com.cn/roll/index.d.html?cid=56593", // 证券要闻
	"https://finance.sina.com.cn/roll/index.d.html?cid=57495", // 科技要闻
}

// Sina scrapes 新浪财经 using a two-phase fetch: roll list pages give
// (title, url, approximate time), then each item's detail page is fetched
// for the full content.
type Sina struct {
	client    *scraper.Client
	listURLs  []string
	detailSem int
	now       func() time.Time
	logger    *slog.Logger
}

// NewSina creates the Sina Finance adapter. detailConcurrency caps
// parallel detail-page fetches.
func NewSina(client *scraper.Client, detailConcurrency int) *Sina {
	if detailConcurrency <= 0 {
		detailConcurrency = 5
	}
	return &Sina{
		client:    client,
		listURLs:  sinaListURLs,
		detailSem: detailConcurrency,
		now:       time.Now,
		logger:    slog.Default().With("source", "sina"),
	}
}

func (s *Sina) ID() string   { return "sina" }
func (s *Sina) Name() string { return "新浪财经" }

type sinaListEntry struct {
	title   string
	url     string
	timeStr string
}

// Fetch scans every roll page, keeps entries inside the recency window,
// and resolves their detail pages. A failed page drops only itself.
func (s *Sina) Fetch(ctx context.Context, window time.Duration) ([]model.NewsItem, []FetchError) {
	var entries []sinaListEntry
	var fetchErrs []FetchError

	for _, listURL := range s.listURLs {
		body, err := s.client.Get(ctx, listURL)
		if err != nil {
			fetchErrs = append(fetchErrs, FetchError{Source: s.ID(), URL: listURL, Err: err})
			continue
		}
		parsed, err := s.parseList(body, window)
		if err != nil {
			fetchErrs = append(fetchErrs, FetchError{Source: s.ID(), URL: listURL, Err: err})
			continue
		}
		s.logger.Debug("list page parsed", "url", listURL, "entries", len(parsed))
		entries = append(entries, parsed...)
	}

	items := make([]*model.NewsItem, len(entries))
	detailErrs := make([]*FetchError, len(entries))

	sem := make(chan struct{}, s.detailSem)
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(idx int, e sinaListEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			item, err := s.fetchDetail(ctx, e)
			if err != nil {
				detailErrs[idx] = &FetchError{Source: s.ID(), URL: e.url, Err: err}
				return
			}
			items[idx] = item
		}(i, entry)
	}
	wg.Wait()

	var out []model.NewsItem
	for i := range entries {
		if items[i] != nil {
			out = append(out, *items[i])
		}
		if detailErrs[i] != nil {
			fetchErrs = append(fetchErrs, *detailErrs[i])
		}
	}
	return out, fetchErrs
}

// parseList extracts entries from a roll page (.list_009 li nodes, each an
// anchor plus a "(01月02日 15:04)" span) and applies the recency filter.
// An unparseable timestamp is treated as not recent.
func (s *Sina) parseList(body string, window time.Duration) ([]sinaListEntry, error) {
	doc, err := scraper.Parse(body)
	if err != nil {
		return nil, err
	}
	list := scraper.First(doc, scraper.ByClass("list_009"))
	if list == nil {
		return nil, fmt.Errorf("news list markup not found")
	}

	now := s.now()
	var entries []sinaListEntry
	for _, li := range scraper.FindAll(list, scraper.ByTag("li")) {
		a := scraper.First(li, scraper.ByTag("a"))
		span := scraper.First(li, scraper.ByTag("span"))
		if a == nil || span == nil {
			continue
		}
		title := scraper.Text(a)
		url := scraper.Attr(a, "href")
		timeStr := strings.Trim(scraper.Text(span), "()")
		if title == "" || url == "" {
			continue
		}

		published, err := parseSinaTime(timeStr, now)
		if err != nil {
			s.logger.Debug("unparseable list time, dropping", "time", timeStr, "url", url)
			continue
		}
		if !withinWindow(published, now, window) {
			continue
		}
		entries = append(entries, sinaListEntry{title: title, url: url, timeStr: timeStr})
	}
	return entries, nil
}

// parseSinaTime parses the roll-page "01月02日 15:04" form. The year is
// absent; a parsed month ahead of the current one means last year.
func parseSinaTime(raw string, now time.Time) (time.Time, error) {
	cleaned := strings.ReplaceAll(raw, "月", "-")
	cleaned = strings.ReplaceAll(cleaned, "日", "")
	cleaned = strings.TrimSpace(cleaned)

	full := fmt.Sprintf("%d-%s", now.Year(), cleaned)
	t, err := time.ParseInLocation("2006-01-02 15:04", full, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sina time %q: %w", raw, err)
	}
	if t.Month() > now.Month() {
		t = t.AddDate(-1, 0, 0)
	}
	return t, nil
}

func (s *Sina) fetchDetail(ctx context.Context, entry sinaListEntry) (*model.NewsItem, error) {
	body, err := s.client.Get(ctx, entry.url)
	if err != nil {
		return nil, err
	}
	doc, err := scraper.Parse(body)
	if err != nil {
		return nil, err
	}

	article := scraper.First(doc, scraper.ByClass("article"))
	if article == nil {
		article = scraper.First(doc, scraper.ByID("artibody"))
	}
	if article == nil {
		return nil, fmt.Errorf("article body not found")
	}
	dropByClass(article, "img_descr", "article-video")
	content := scraper.Text(article)
	if content == "" {
		return nil, fmt.Errorf("empty article body")
	}

	publishTime := entry.timeStr
	if date := scraper.First(doc, scraper.ByClass("date")); date != nil {
		if t := scraper.Text(date); t != "" {
			publishTime = t
		}
	}

	return &model.NewsItem{
		Title:       entry.title,
		Content:     content,
		URL:         entry.url,
		PublishTime: publishTime,
		Source:      s.Name(),
		FetchedAt:   s.now(),
	}, nil
}

// dropByClass detaches matching subtrees (image captions, embedded video
// players) before text extraction.
func dropByClass(root *html.Node, classes ...string) {
	for _, class := range classes {
		for _, n := range scraper.FindAll(root, scraper.ByClass(class)) {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
		}
	}
}

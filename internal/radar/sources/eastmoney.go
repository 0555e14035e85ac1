package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/caijingx/newsradar/internal/radar/model"
	"github.com/caijingx/newsradar/pkg/scraper"
)

const (
	// emLiveAPI is the 7x24 live ticker endpoint; it returns a JS
	// assignment wrapping a JSON payload of complete items.
	emLiveAPI = "https://newsapi.eastmoney.com/kuaixun/v1/getlist_102_ajaxResult_50_1_.html"

	emHomeURL = "https://finance.eastmoney.com/"

	emTimeLayout = "2006-01-02 15:04:05"
)

// emSectionURLs are the section list pages scanned for article links.
var emSectionURLs = []string{
	"https://finance.eastmoney.com/a/cywjh.html", // 财经要闻
	"https://finance.eastmoney.com/a/czqyw.html", // 证券要闻
	"https://finance.eastmoney.com/a/cgsxw.html", // 公司新闻
	"https://finance.eastmoney.com/a/cgspl.html", // 公司评论
	"https://finance.eastmoney.com/a/chgyj.html", // 行业研究
}

var (
	emAjaxResult = regexp.MustCompile(`(?s)var ajaxResult=(\{.*?\});`)
	emDetailTime = regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}(:\d{2})?|\d{4}年\d{2}月\d{2}日\s+\d{2}:\d{2}`)
)

// Eastmoney scrapes 东方财富 by merging three strategies: the structured
// live-ticker feed (complete items, no detail phase), the homepage hot
// lists, and the section list pages with per-item detail fetches.
type Eastmoney struct {
	client     *scraper.Client
	liveAPI    string
	homeURL    string
	sectionURL []string
	detailSem  int
	now        func() time.Time
	logger     *slog.Logger
}

// NewEastmoney creates the Eastmoney adapter.
func NewEastmoney(client *scraper.Client, detailConcurrency int) *Eastmoney {
	if detailConcurrency <= 0 {
		detailConcurrency = 5
	}
	return &Eastmoney{
		client:     client,
		liveAPI:    emLiveAPI,
		homeURL:    emHomeURL,
		sectionURL: emSectionURLs,
		detailSem:  detailConcurrency,
		now:        time.Now,
		logger:     slog.Default().With("source", "eastmoney"),
	}
}

func (e *Eastmoney) ID() string   { return "eastmoney" }
func (e *Eastmoney) Name() string { return "东方财富" }

// Fetch merges live-feed, hot-list, and section-list results in that
// order. Hot and section entries carry no timestamp on the listing; they
// are taken as current and stamped with the fetch time.
func (e *Eastmoney) Fetch(ctx context.Context, window time.Duration) ([]model.NewsItem, []FetchError) {
	var items []model.NewsItem
	var fetchErrs []FetchError

	liveItems, errs := e.fetchLive(ctx, window)
	items = append(items, liveItems...)
	fetchErrs = append(fetchErrs, errs...)

	var entries []emListEntry
	hotEntries, errs := e.fetchHotList(ctx)
	entries = append(entries, hotEntries...)
	fetchErrs = append(fetchErrs, errs...)

	for _, listURL := range e.sectionURL {
		sectionEntries, err := e.fetchSectionList(ctx, listURL)
		if err != nil {
			fetchErrs = append(fetchErrs, FetchError{Source: e.ID(), URL: listURL, Err: err})
			continue
		}
		entries = append(entries, sectionEntries...)
	}

	detailItems, errs := e.fetchDetails(ctx, entries)
	items = append(items, detailItems...)
	fetchErrs = append(fetchErrs, errs...)

	return items, fetchErrs
}

type emListEntry struct {
	title string
	url   string
}

type emLiveFeed struct {
	LivesList []struct {
		Title    string `json:"title"`
		Digest   string `json:"digest"`
		URL      string `json:"url_unique"`
		ShowTime string `json:"showtime"`
	} `json:"LivesList"`
}

// fetchLive pulls the live ticker. Items arrive complete, so only the
// recency filter applies.
func (e *Eastmoney) fetchLive(ctx context.Context, window time.Duration) ([]model.NewsItem, []FetchError) {
	body, err := e.client.Get(ctx, e.liveAPI)
	if err != nil {
		return nil, []FetchError{{Source: e.ID(), URL: e.liveAPI, Err: err}}
	}

	m := emAjaxResult.FindStringSubmatch(body)
	if m == nil {
		return nil, []FetchError{{Source: e.ID(), URL: e.liveAPI, Err: fmt.Errorf("ajaxResult payload not found")}}
	}
	var feed emLiveFeed
	if err := json.Unmarshal([]byte(m[1]), &feed); err != nil {
		return nil, []FetchError{{Source: e.ID(), URL: e.liveAPI, Err: fmt.Errorf("decode live feed: %w", err)}}
	}

	now := e.now()
	var items []model.NewsItem
	for _, live := range feed.LivesList {
		if live.Title == "" || live.URL == "" {
			continue
		}
		published, err := time.ParseInLocation(emTimeLayout, live.ShowTime, now.Location())
		if err != nil || !withinWindow(published, now, window) {
			continue
		}
		items = append(items, model.NewsItem{
			Title:       live.Title,
			Content:     live.Digest,
			URL:         live.URL,
			PublishTime: live.ShowTime,
			Source:      e.Name(),
			FetchedAt:   now,
		})
	}
	e.logger.Debug("live feed parsed", "items", len(items))
	return items, nil
}

// fetchHotList scans the homepage hot blocks for article links.
func (e *Eastmoney) fetchHotList(ctx context.Context) ([]emListEntry, []FetchError) {
	body, err := e.client.Get(ctx, e.homeURL)
	if err != nil {
		return nil, []FetchError{{Source: e.ID(), URL: e.homeURL, Err: err}}
	}
	doc, err := scraper.Parse(body)
	if err != nil {
		return nil, []FetchError{{Source: e.ID(), URL: e.homeURL, Err: err}}
	}

	var entries []emListEntry
	for _, class := range []string{"news-hot-list", "news-list"} {
		for _, block := range scraper.FindAll(doc, scraper.ByClass(class)) {
			entries = append(entries, anchorsUnder(block)...)
		}
	}
	return entries, nil
}

// fetchSectionList extracts article links from one section page. The
// blocks of interest are the click ranking (.Wydj .tabList) and the
// curated lists (.Ywjh / .Pljh .artitleList).
func (e *Eastmoney) fetchSectionList(ctx context.Context, listURL string) ([]emListEntry, error) {
	body, err := e.client.Get(ctx, listURL)
	if err != nil {
		return nil, err
	}
	doc, err := scraper.Parse(body)
	if err != nil {
		return nil, err
	}

	var entries []emListEntry
	if block := blockUnder(doc, "Wydj", "tabList"); block != nil {
		entries = append(entries, anchorsUnder(block)...)
	}
	for _, outer := range []string{"Ywjh", "Pljh"} {
		if block := blockUnder(doc, outer, "artitleList"); block != nil {
			for _, li := range scraper.FindAll(block, scraper.ByTag("li")) {
				title := scraper.First(li, scraper.ByClass("title"))
				if title == nil {
					continue
				}
				entries = append(entries, anchorsUnder(title)...)
			}
		}
	}
	return entries, nil
}

// fetchDetails resolves list entries to full items via their detail pages,
// bounded by the per-adapter concurrency cap. A failed detail drops only
// that item.
func (e *Eastmoney) fetchDetails(ctx context.Context, entries []emListEntry) ([]model.NewsItem, []FetchError) {
	items := make([]*model.NewsItem, len(entries))
	errs := make([]*FetchError, len(entries))

	sem := make(chan struct{}, e.detailSem)
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(idx int, en emListEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			item, err := e.fetchDetail(ctx, en)
			if err != nil {
				errs[idx] = &FetchError{Source: e.ID(), URL: en.url, Err: err}
				return
			}
			items[idx] = item
		}(i, entry)
	}
	wg.Wait()

	var outItems []model.NewsItem
	var outErrs []FetchError
	for i := range entries {
		if items[i] != nil {
			outItems = append(outItems, *items[i])
		}
		if errs[i] != nil {
			outErrs = append(outErrs, *errs[i])
		}
	}
	return outItems, outErrs
}

func (e *Eastmoney) fetchDetail(ctx context.Context, entry emListEntry) (*model.NewsItem, error) {
	body, err := e.client.Get(ctx, entry.url)
	if err != nil {
		return nil, err
	}
	doc, err := scraper.Parse(body)
	if err != nil {
		return nil, err
	}

	var article *html.Node
	for _, class := range []string{"article-content", "newsContent"} {
		if article = scraper.First(doc, scraper.ByClass(class)); article != nil {
			break
		}
	}
	if article == nil {
		article = scraper.First(doc, scraper.ByID("ContentBody"))
	}
	if article == nil {
		return nil, fmt.Errorf("article body not found")
	}
	dropByClass(article, "em_media_box")
	content := scraper.Text(article)
	if content == "" {
		return nil, fmt.Errorf("empty article body")
	}

	now := e.now()
	publishTime := now.Format(emTimeLayout)
	for _, class := range []string{"time", "time-source"} {
		meta := scraper.First(doc, scraper.ByClass(class))
		if meta == nil {
			continue
		}
		if m := emDetailTime.FindString(scraper.Text(meta)); m != "" {
			publishTime = m
			break
		}
	}

	return &model.NewsItem{
		Title:       entry.title,
		Content:     content,
		URL:         entry.url,
		PublishTime: publishTime,
		Source:      e.Name(),
		FetchedAt:   now,
	}, nil
}

// anchorsUnder collects (title, href) pairs from every anchor below n.
func anchorsUnder(n *html.Node) []emListEntry {
	var entries []emListEntry
	for _, a := range scraper.FindAll(n, scraper.ByTag("a")) {
		title := scraper.Text(a)
		url := scraper.Attr(a, "href")
		if title == "" || url == "" {
			continue
		}
		entries = append(entries, emListEntry{title: title, url: url})
	}
	return entries
}

// blockUnder finds the inner-class block nested inside the outer-class
// container, mirroring a ".Outer .inner" CSS selector.
func blockUnder(doc *html.Node, outer, inner string) *html.Node {
	container := scraper.First(doc, scraper.ByClass(outer))
	if container == nil {
		return nil
	}
	return scraper.First(container, scraper.ByClass(inner))
}

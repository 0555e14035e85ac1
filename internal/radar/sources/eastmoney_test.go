package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caijingx/newsradar/pkg/scraper"
)

func TestEastmoneyLiveFeed(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `var ajaxResult={"LivesList":[
			{"title":"盘中快讯","digest":"指数拉升","url_unique":"https://em/x/1","showtime":"2024-03-10 11:30:00"},
			{"title":"隔日快讯","digest":"旧内容","url_unique":"https://em/x/2","showtime":"2024-03-09 10:00:00"},
			{"title":"坏时间","digest":"d","url_unique":"https://em/x/3","showtime":"n/a"},
			{"title":"","digest":"无标题","url_unique":"https://em/x/4","showtime":"2024-03-10 11:00:00"}
		]};`)
	}))
	defer srv.Close()

	client := scraper.NewClient(scraper.Options{Timeout: 2 * time.Second, Retries: 1})
	e := NewEastmoney(client, 2)
	e.liveAPI = srv.URL
	e.now = func() time.Time { return now }

	items, errs := e.fetchLive(context.Background(), 24*time.Hour)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(items) != 1 {
		t.Fatalf("expected only the recent complete item, got %d: %v", len(items), items)
	}
	if items[0].URL != "https://em/x/1" || items[0].Content != "指数拉升" {
		t.Fatalf("unexpected item %+v", items[0])
	}
	if items[0].Source != "东方财富" {
		t.Errorf("unexpected source %q", items[0].Source)
	}
}

func TestEastmoneyLiveFeedMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not the api</html>")
	}))
	defer srv.Close()

	client := scraper.NewClient(scraper.Options{Timeout: 2 * time.Second, Retries: 1})
	e := NewEastmoney(client, 2)
	e.liveAPI = srv.URL

	items, errs := e.fetchLive(context.Background(), 24*time.Hour)
	if len(items) != 0 {
		t.Fatalf("expected no items, got %v", items)
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error for the feed URL, got %v", errs)
	}
}

func TestEastmoneySectionListAndDetail(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/section", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<div class="Wydj"><ul class="tabList">
				<li><a href="%[1]s/a/1">排行新闻</a></li>
			</ul></div>
			<div class="Ywjh"><ul class="artitleList">
				<li><span class="title"><a href="%[1]s/a/2">精华新闻</a></span></li>
			</ul></div>
		</body></html>`, srv.URL)
	})
	mux.HandleFunc("/a/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="time">2024-03-10 08:00:00 来源</div>
			<div class="article-content">公司公告全文。</div></body></html>`)
	})
	mux.HandleFunc("/a/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div id="ContentBody">研究报告全文。</div></body></html>`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	client := scraper.NewClient(scraper.Options{Timeout: 2 * time.Second, Retries: 1})
	e := NewEastmoney(client, 2)
	e.now = func() time.Time { return now }

	entries, err := e.fetchSectionList(context.Background(), srv.URL+"/section")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), entries)
	}

	items, errs := e.fetchDetails(context.Background(), entries)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].PublishTime != "2024-03-10 08:00:00" {
		t.Errorf("expected extracted meta time, got %q", items[0].PublishTime)
	}
	if items[1].Content != "研究报告全文。" {
		t.Errorf("ContentBody fallback failed: %q", items[1].Content)
	}
}

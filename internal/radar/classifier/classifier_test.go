package classifier

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/caijingx/newsradar/internal/radar/model"
	"github.com/caijingx/newsradar/internal/radar/stockcode"
)

func TestDetermineTypeTotality(t *testing.T) {
	tests := []struct {
		policy, industry, important bool
		want                        model.NewsType
	}{
		{true, true, true, model.TypeIndustryPolicy},
		{true, true, false, model.TypeIndustryPolicy},
		{true, false, true, model.TypePolicyInfo},
		{true, false, false, model.TypePolicyInfo},
		{false, true, true, model.TypeImportantIndustry},
		{false, true, false, model.TypeIndustryNews},
		{false, false, true, model.TypeImportantNews},
		{false, false, false, model.TypeGeneral},
	}
	for _, tt := range tests {
		got := determineType(tt.policy, tt.industry, tt.important)
		if got != tt.want {
			t.Errorf("determineType(%v,%v,%v) = %s, want %s",
				tt.policy, tt.industry, tt.important, got, tt.want)
		}
	}
}

func TestExtractCompanies(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{
			name:   "adjacent suffix token combines",
			tokens: []string{"贵州茅台", "集团", "发布", "公告"},
			want:   []string{"贵州茅台集团"},
		},
		{
			name:   "long single token with suffix",
			tokens: []string{"中国工商银行", "宣布"},
			want:   []string{"中国工商银行"},
		},
		{
			name:   "short suffix token alone is noise",
			tokens: []string{"发布", "股份", "公告"},
			want:   nil,
		},
		{
			name:   "duplicates collapse",
			tokens: []string{"中国平安", "保险", "看好", "中国平安", "保险"},
			want:   []string{"中国平安保险"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractCompanies(tt.tokens)
			if len(got) != len(tt.want) {
				t.Fatalf("extractCompanies(%v) = %v, want %v", tt.tokens, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("extractCompanies(%v) = %v, want %v", tt.tokens, got, tt.want)
				}
			}
		})
	}
}

func TestTopKeywords(t *testing.T) {
	tokens := []string{"政策", "市场", "政策", "利率", "市场", "政策", "a", "。"}
	got := topKeywords(tokens, 2)
	if len(got) != 2 || got[0] != "政策" || got[1] != "市场" {
		t.Fatalf("topKeywords = %v, want [政策 市场]", got)
	}

	if kw := topKeywords(nil, 5); kw != nil {
		t.Fatalf("expected nil for empty input, got %v", kw)
	}
}

func TestMatchIndustriesWatchListOrder(t *testing.T) {
	text := "金融与科技板块领涨，新能源回调"
	got := matchIndustries(text)
	want := []string{"科技", "金融", "新能源"}
	if len(got) != len(want) {
		t.Fatalf("matchIndustries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matchIndustries = %v, want %v (watch-list order)", got, want)
		}
	}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	mapping, err := stockcode.LoadMapping(filepath.Join(t.TempDir(), "mapping.json"))
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(stockcode.NewResolver(mapping, nil), 5)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClassifyPolicyScenario(t *testing.T) {
	c := newTestClassifier(t)

	item := model.NewsItem{
		Title:   "央行发布重大新政策",
		Content: "央行今日宣布重大调整，新政策将于下月生效。",
		URL:     "u1",
	}
	got, ok := c.Classify(context.Background(), item)
	if !ok {
		t.Fatal("expected item to be classified")
	}

	if !got.PolicyInfo {
		t.Error("policyInfo should be true (央行/政策)")
	}
	if !got.Important {
		t.Error("important should be true (重大)")
	}
	if got.IndustryRelated {
		t.Error("industryRelated should be false (no watch-list term)")
	}
	if got.NewsType != model.TypePolicyInfo {
		t.Errorf("newsType = %s, want %s", got.NewsType, model.TypePolicyInfo)
	}
	if len(got.RelatedIndustries) != 0 {
		t.Errorf("relatedIndustries should be empty, got %v", got.RelatedIndustries)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := newTestClassifier(t)

	item := model.NewsItem{
		Title:   "人工智能产业迎来新突破",
		Content: "多家科技公司披露人工智能投入，半导体供应链同步受益。",
		URL:     "u2",
	}
	first, ok := c.Classify(context.Background(), item)
	if !ok {
		t.Fatal("expected item to be classified")
	}
	second, _ := c.Classify(context.Background(), item)

	if first.NewsType != second.NewsType {
		t.Errorf("newsType differs across runs: %s vs %s", first.NewsType, second.NewsType)
	}
	if len(first.Keywords) != len(second.Keywords) {
		t.Fatalf("keyword count differs: %v vs %v", first.Keywords, second.Keywords)
	}
	for i := range first.Keywords {
		if first.Keywords[i] != second.Keywords[i] {
			t.Errorf("keywords differ at %d: %v vs %v", i, first.Keywords, second.Keywords)
		}
	}
	if len(first.Keywords) > 5 {
		t.Errorf("keywords exceed top-K bound: %v", first.Keywords)
	}
}

func TestClassifySkipsIncompleteItems(t *testing.T) {
	c := newTestClassifier(t)

	if _, ok := c.Classify(context.Background(), model.NewsItem{Title: "只有标题", URL: "u"}); ok {
		t.Error("item without content must be skipped")
	}
	if _, ok := c.Classify(context.Background(), model.NewsItem{Content: "只有内容", URL: "u"}); ok {
		t.Error("item without title must be skipped")
	}

	items := []model.NewsItem{
		{Title: "完整新闻", Content: "有内容的新闻。", URL: "u1"},
		{Title: "", Content: "缺标题", URL: "u2"},
	}
	classified, skipped := c.ClassifyAll(context.Background(), items)
	if len(classified) != 1 || skipped != 1 {
		t.Fatalf("ClassifyAll = %d classified / %d skipped, want 1/1", len(classified), skipped)
	}
}

func TestClassifyStockCodesSubsetOfCompanies(t *testing.T) {
	mapping, err := stockcode.LoadMapping(filepath.Join(t.TempDir(), "mapping.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := mapping.Put("中国工商银行", "601398"); err != nil {
		t.Fatal(err)
	}
	c, err := New(stockcode.NewResolver(mapping, nil), 5)
	if err != nil {
		t.Fatal(err)
	}

	item := model.NewsItem{
		Title:   "中国工商银行与未知控股公告",
		Content: "中国工商银行 发布年报，神秘新控股 集团未见于任何行情系统。",
		URL:     "u3",
	}
	got, ok := c.Classify(context.Background(), item)
	if !ok {
		t.Fatal("expected item to be classified")
	}

	companies := make(map[string]bool, len(got.Companies))
	for _, name := range got.Companies {
		companies[name] = true
	}
	for name := range got.StockCodes {
		if !companies[name] {
			t.Errorf("stockCodes key %q is not a detected company %v", name, got.Companies)
		}
	}
	if code, resolved := got.StockCodes["中国工商银行"]; resolved && code != "601398" {
		t.Errorf("cached code not used: %q", code)
	}
}

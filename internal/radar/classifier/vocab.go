package classifier

// WatchIndustries is the fixed industry watch-list. Relevance and industry
// grouping test for these names as substrings of the analysis text.
var WatchIndustries = []string{
	"科技", "金融", "互联网", "人工智能", "半导体", "新能源", "医药", "房地产",
}

// PolicyTerms flag policy-related items: regulation vocabulary plus the
// names of the main regulators.
var PolicyTerms = []string{
	"政策", "监管", "法规", "规定", "条例", "措施", "通知", "决定",
	"央行", "证监会", "银保监会", "发改委", "财政部", "税务总局",
}

// ImportanceTerms flag items worth highlighting.
var ImportanceTerms = []string{
	"重大", "突破", "首次", "创新", "重要", "关键", "战略", "突发",
	"紧急", "危机", "风险", "机遇", "挑战", "转折", "里程碑",
}

// corporateSuffixes mark tokens that look like the tail of a company name.
var corporateSuffixes = []string{
	"公司", "集团", "股份", "控股", "科技", "银行", "证券", "保险",
}

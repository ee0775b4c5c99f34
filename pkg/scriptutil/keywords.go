package scriptutil

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[\p{L}][\p{L}'’-]{3,}`)

// 英文和葡萄牙语常见停用词，生成的脚本以这两种语言为主
var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "also": {}, "because": {}, "been": {}, "before": {}, "being": {},
	"could": {}, "does": {}, "each": {}, "even": {}, "every": {}, "from": {}, "have": {},
	"here": {}, "into": {}, "just": {}, "like": {}, "many": {}, "more": {}, "most": {},
	"much": {}, "only": {}, "other": {}, "over": {}, "should": {}, "some": {}, "such": {},
	"than": {}, "that": {}, "their": {}, "them": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "those": {}, "through": {}, "very": {}, "want": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {}, "will": {}, "with": {},
	"would": {}, "your": {}, "you're": {},
	"como": {}, "para": {}, "pelo": {}, "pela": {}, "isso": {}, "esse": {}, "essa": {},
	"este": {}, "esta": {}, "mais": {}, "muito": {}, "quando": {}, "porque": {}, "sobre": {},
	"você": {}, "voce": {}, "seus": {}, "suas": {}, "também": {}, "tambem": {}, "entre": {},
	"depois": {}, "antes": {}, "ainda": {}, "onde": {}, "cada": {}, "todo": {}, "toda": {},
	"todos": {}, "todas": {}, "mesmo": {}, "então": {}, "entao": {},
}

// ExtractKeywords 从文本中提取用于素材搜索的关键词
// 按首次出现的顺序去重，最多返回 max 个，max <= 0 表示不限制
func ExtractKeywords(text string, max int) []string {
	keywords := make([]string, 0)
	seen := make(map[string]struct{})

	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		word = strings.Trim(word, "'’-")
		if len([]rune(word)) < 4 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
		if max > 0 && len(keywords) >= max {
			break
		}
	}
	return keywords
}

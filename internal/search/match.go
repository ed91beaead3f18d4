package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultLimit：建议列表最多展示的条数
const DefaultLimit = 50

// Normalize：去除首尾空白并转小写（Unicode 规则）
func Normalize(raw string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(raw))
}

// Match：按子串包含（不区分大小写）过滤名称，保持原顺序
// 返回：all 为全部命中，suggestions 为截断到 limit 的前缀；term 为空时均为空
func Match(term string, names []string, limit int) (suggestions, all []string) {
	if term == "" {
		return nil, nil
	}
	lower := cases.Lower(language.Und)
	for _, n := range names {
		if strings.Contains(lower.String(n), term) {
			all = append(all, n)
		}
	}
	suggestions = all
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, all
}

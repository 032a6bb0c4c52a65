package normalize

import (
	"strings"

	"iuem_fetcher/internal/domain"
)

var categoryRules = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryEvent, []string{"행사", "네트워크", "축제", "박람회", "컨퍼런스", "데모데이"}},
	{domain.CategorySupport, []string{"사업화", "r&d", "기술개발", "멘토링", "컨설팅", "교육", "시설", "공간", "보육", "인력", "융자", "글로벌", "투자"}},
}

// MapCategory classifies a support-field label. Rules are checked in order
// and the first keyword hit wins; anything unmatched is support.
func MapCategory(field string) domain.Category {
	f := strings.ToLower(field)
	for _, rule := range categoryRules {
		if ContainsAny(f, rule.keywords) {
			return rule.category
		}
	}
	return domain.CategorySupport
}

// ContainsAny reports whether s contains any of the keywords.
func ContainsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

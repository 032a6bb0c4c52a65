package board

import (
	"strings"
	"unicode/utf8"

	"iuem_fetcher/internal/normalize"
)

// DenyKeywords mark administrative notices that are not events.
var DenyKeywords = []string{
	"신청", "예약", "문의", "민원", "등록", "접수", "차량", "시험", "고시", "공고",
	"입법예고", "FAQ", "자주묻는", "서식", "양식", "안내문", "모집", "채용", "구인",
	"입찰", "계약", "결과발표", "합격자", "당첨자", "선정자",
}

// AllowKeywords mark titles that describe an event.
var AllowKeywords = []string{
	"행사", "세미나", "축제", "공연", "전시", "페스티벌", "콘서트", "포럼", "컨퍼런스",
	"워크숍", "워크샵", "강연", "특강", "강좌", "프로그램", "대회", "마라톤", "페어",
	"박람회", "엑스포", "쇼", "이벤트", "문화", "체험", "투어", "여행", "관광", "캠프", "캠페인",
}

var (
	detailLinkMarkers = []string{"view", "View", "article", "nttId=", "seq=", "idx=", "boardSeq=", "contentUid="}
	navigationWords   = []string{"이전", "다음", "목록", "검색"}
)

// Relevant reports whether a title describes an event. A deny keyword
// rejects the title even when an allow keyword is also present.
func Relevant(title string) bool {
	if normalize.ContainsAny(title, DenyKeywords) {
		return false
	}
	return normalize.ContainsAny(title, AllowKeywords)
}

func isDetailLink(href string) bool {
	if strings.HasPrefix(strings.ToLower(href), "javascript:") && !strings.Contains(href, "nttId=") {
		return false
	}
	return normalize.ContainsAny(href, detailLinkMarkers)
}

func isNavigation(title string) bool {
	return normalize.ContainsAny(title, navigationWords)
}

func longEnough(title string, minRunes int) bool {
	return utf8.RuneCountInString(title) > minRunes
}

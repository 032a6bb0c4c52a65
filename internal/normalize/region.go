package normalize

import "strings"

const Nationwide = "전국"

var provinces = []string{
	"서울", "부산", "대구", "인천", "광주", "대전", "울산", "세종",
	"경기", "강원", "충북", "충남", "전북", "전남", "경북", "경남", "제주",
}

// FirstWord returns the first whitespace separated token of an address,
// or Nationwide when there is none.
func FirstWord(addr string) string {
	if f := strings.Fields(addr); len(f) > 0 {
		return f[0]
	}
	return Nationwide
}

// Province maps a free-form area name to one of the 17 provincial short
// names, falling back to FirstWord.
func Province(area string) string {
	for _, p := range provinces {
		if strings.Contains(area, p) {
			return p
		}
	}
	return FirstWord(area)
}

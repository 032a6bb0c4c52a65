package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"iuem_fetcher/internal/domain"
)

const isoLayout = "2006-01-02"

var (
	compactDate = regexp.MustCompile(`^\d{8}$`)
	dottedDate  = regexp.MustCompile(`^(\d{4})\.(\d{1,2})\.(\d{1,2})\.?$`)
	looseDate   = regexp.MustCompile(`(\d{4})[.\-/](\d{1,2})[.\-/](\d{1,2})`)
	koreanDate  = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
)

// FormatDate converts the date shapes the sources emit into YYYY-MM-DD.
// Unrecognized input is returned unchanged.
func FormatDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if compactDate.MatchString(s) {
		return s[:4] + "-" + s[4:6] + "-" + s[6:8]
	}

	if m := dottedDate.FindStringSubmatch(s); m != nil {
		return joinDate(m[1], m[2], m[3])
	}

	return raw
}

// FindDate returns the first date in free text, zero padded, or "".
func FindDate(text string) string {
	for _, re := range []*regexp.Regexp{looseDate, koreanDate} {
		if m := re.FindStringSubmatch(text); m != nil {
			return joinDate(m[1], m[2], m[3])
		}
	}
	return ""
}

// Today formats now as YYYY-MM-DD.
func Today(now time.Time) string {
	return now.Format(isoLayout)
}

// CalculateStatus derives the lifecycle status of an announcement from its
// date range, comparing calendar dates in now's location. Missing or
// unparseable bounds are treated as open.
func CalculateStatus(start, end string, now time.Time) domain.Status {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if e, ok := parseDay(end, now.Location()); ok && e.Before(today) {
		return domain.StatusClosed
	}
	if s, ok := parseDay(start, now.Location()); ok && s.After(today) {
		return domain.StatusUpcoming
	}
	return domain.StatusOngoing
}

func parseDay(s string, loc *time.Location) (time.Time, bool) {
	s = FormatDate(s)
	if len(s) < len(isoLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(isoLayout, s[:len(isoLayout)], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func joinDate(y, m, d string) string {
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	return fmt.Sprintf("%s-%02d-%02d", y, month, day)
}

package kstartup

import (
	"strconv"
	"strings"
)

// Response is the envelope returned by getAnnouncementInformation01.
type Response struct {
	CurrentCount int    `json:"currentCount"`
	MatchCount   int    `json:"matchCount"`
	TotalCount   int    `json:"totalCount"`
	Page         int    `json:"page"`
	PerPage      int    `json:"perPage"`
	Data         []Item `json:"data"`
}

func (r *Response) total() int {
	if r.MatchCount > 0 {
		return r.MatchCount
	}
	return r.TotalCount
}

// Item keeps the raw field map since field names vary between API revisions.
type Item map[string]any

// First returns the first non-empty value among keys, in priority order.
func (it Item) First(keys ...string) string {
	for _, k := range keys {
		var s string
		switch v := it[k].(type) {
		case string:
			s = strings.TrimSpace(v)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if s != "" {
			return s
		}
	}
	return ""
}

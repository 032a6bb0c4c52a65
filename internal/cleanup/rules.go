// Package cleanup holds the deletion rules run against stored posts.
package cleanup

import (
	"fmt"
	"regexp"
	"strings"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/normalize"
	"iuem_fetcher/internal/source/board"
)

// Rule selects stored posts for deletion. Query narrows the scan; Match
// decides per post.
type Rule interface {
	Name() string
	Query() domain.Query
	Match(p domain.Post) bool
}

// BySource deletes every post ingested from one source.
type BySource struct {
	Source domain.Source
}

func (r BySource) Name() string {
	return "source:" + string(r.Source)
}

func (r BySource) Query() domain.Query {
	return domain.Query{Source: r.Source}
}

func (r BySource) Match(domain.Post) bool {
	return true
}

// BadTitlesKeywords mark calendar and planning pages that were scraped as posts.
var BadTitlesKeywords = []string{"행사계획", "행사캘린더"}

// BadTitles deletes posts of any source whose title is a known scrape artifact.
type BadTitles struct{}

func (BadTitles) Name() string {
	return "bad-titles"
}

func (BadTitles) Query() domain.Query {
	return domain.Query{}
}

func (BadTitles) Match(p domain.Post) bool {
	return normalize.ContainsAny(p.Title, BadTitlesKeywords)
}

var (
	scheduleKeywords  = []string{"행사계획", "주간행사", "월간행사", "일정표"}
	dateRangePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\(\d{2}\.\d{1,2}\.\d{1,2}~\d{2}\.\d{1,2}\.\d{1,2}\)`),
		regexp.MustCompile(`\d{4}\.\d{1,2}\.\d{1,2}~\d{4}\.\d{1,2}\.\d{1,2}`),
	}
)

// Events re-applies the crawl relevance filter to stored local government
// posts, also removing schedule digests and date-range listings.
type Events struct{}

func (Events) Name() string {
	return "events"
}

func (Events) Query() domain.Query {
	return domain.Query{Source: domain.SourceLocalGov}
}

func (Events) Match(p domain.Post) bool {
	if normalize.ContainsAny(p.Title, scheduleKeywords) {
		return true
	}
	for _, re := range dateRangePatterns {
		if re.MatchString(p.Title) {
			return true
		}
	}
	return !board.Relevant(p.Title)
}

// Parse resolves a rule by name. "source" takes the source tag as argument.
func Parse(name, arg string) (Rule, error) {
	switch strings.ToLower(name) {
	case "source":
		src := domain.Source(arg)
		switch src {
		case domain.SourceKStartup, domain.SourceTourAPI, domain.SourceKOPIS, domain.SourceLocalGov, domain.SourceCheonan:
			return BySource{Source: src}, nil
		}
		return nil, fmt.Errorf("unknown source %q", arg)
	case "bad-titles":
		return BadTitles{}, nil
	case "events":
		return Events{}, nil
	}
	return nil, fmt.Errorf("unknown cleanup rule %q", name)
}

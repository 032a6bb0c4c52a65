// Package search filters and orders posts for listing.
package search

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/normalize"
)

// EducationKeywords mark support programmes listed under education.
var EducationKeywords = []string{"교육", "멘토링", "컨설팅", "멘토", "코칭", "아카데미", "캠프"}

// StorageCategories lists the categories posts of listing category c are
// stored under.
func StorageCategories(c domain.Category) []domain.Category {
	switch c {
	case domain.CategoryEducation:
		return []domain.Category{domain.CategorySupport}
	case domain.CategorySeminar:
		return []domain.Category{domain.CategoryEvent, domain.CategorySeminar}
	case domain.CategoryFestival:
		return []domain.Category{domain.CategoryEvent}
	}
	return []domain.Category{c}
}

// Apply narrows posts by every non-empty dimension of f and sorts the result.
// The input slice is not modified.
func Apply(posts []domain.Post, f domain.Filter) []domain.Post {
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))

	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if !inCategory(p, f.Category) {
			continue
		}
		if keyword != "" && !matchesKeyword(p, keyword) {
			continue
		}
		if !oneOf(p.Region, f.Regions) || !oneOf(p.SupportField, f.SupportFields) ||
			!oneOf(p.Target, f.Targets) || !oneOf(p.Age, f.Ages) || !oneOf(p.Career, f.Careers) {
			continue
		}
		out = append(out, p)
	}

	sortPosts(out, f.Sort)
	return out
}

func inCategory(p domain.Post, c domain.Category) bool {
	switch c {
	case "":
		return true
	case domain.CategorySupport:
		return p.Category == domain.CategorySupport && !isEducation(p)
	case domain.CategoryEducation:
		return p.Category == domain.CategorySupport && isEducation(p)
	case domain.CategorySeminar:
		return p.Category == domain.CategorySeminar ||
			(p.Category == domain.CategoryEvent && p.Source != domain.SourceTourAPI)
	case domain.CategoryFestival:
		return p.Category == domain.CategoryEvent && p.Source == domain.SourceTourAPI
	}
	return p.Category == c
}

func isEducation(p domain.Post) bool {
	return normalize.ContainsAny(p.SupportField, EducationKeywords)
}

func matchesKeyword(p domain.Post, keyword string) bool {
	for _, field := range []string{p.Title, p.Summary, p.Content, p.Description} {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}

func oneOf(value string, allowed []string) bool {
	return len(allowed) == 0 || slices.Contains(allowed, value)
}

func sortPosts(posts []domain.Post, order domain.SortOrder) {
	switch order {
	case domain.SortStartDate:
		slices.SortStableFunc(posts, func(a, b domain.Post) int { return compareDates(a.StartDate, b.StartDate) })
	case domain.SortEndDate:
		slices.SortStableFunc(posts, func(a, b domain.Post) int { return compareDates(a.EndDate, b.EndDate) })
	default:
		slices.SortStableFunc(posts, func(a, b domain.Post) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
}

// compareDates orders ISO dates ascending with empty dates last.
func compareDates(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(a, b)
}

// Finder is the store query the service reads from.
type Finder interface {
	Find(ctx context.Context, q domain.Query) ([]domain.Post, error)
}

// Service answers listing requests from the store.
type Service struct {
	finder       Finder
	defaultLimit int
}

func NewService(finder Finder, defaultLimit int) *Service {
	return &Service{finder: finder, defaultLimit: defaultLimit}
}

// Search loads the stored categories behind f.Category and applies f.
// f.Limit caps the number of posts returned.
func (s *Service) Search(ctx context.Context, f domain.Filter) ([]domain.Post, error) {
	var posts []domain.Post
	for _, c := range StorageCategories(f.Category) {
		found, err := s.finder.Find(ctx, domain.Query{Category: c, Limit: s.defaultLimit})
		if err != nil {
			return nil, fmt.Errorf("find %s posts: %w", c, err)
		}
		posts = append(posts, found...)
	}

	out := Apply(posts, f)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Package transform maps source records onto the unified post document.
package transform

import (
	"fmt"
	"strconv"
	"time"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/normalize"
	"iuem_fetcher/internal/writer"
)

const (
	untitledAnnouncement = "제목 없음"
	untitledFestival     = "축제명 없음"
	untitledPerformance  = "공연명 없음"

	defaultSupportField = "사업화"
	eventSupportField   = "행사·네트워크"
	noticeSupportField  = "공지사항"
	performanceField    = "공연"

	descriptionRunes = 2000

	kopisDetailURL = "https://www.kopis.or.kr/por/db/pblprfr/pblprfrView.do?mt20Id="
)

// Transform converts one raw record into a post stamped with now.
func Transform(rec domain.RawRecord, now time.Time) (domain.Post, error) {
	var p domain.Post

	switch r := rec.(type) {
	case domain.AnnouncementRecord:
		p = announcement(r, now)
	case domain.FestivalRecord:
		p = festival(r, now)
	case domain.PerformanceRecord:
		p = performance(r, now)
	case domain.BoardRecord:
		p = board(r, now)
	default:
		return domain.Post{}, fmt.Errorf("unknown record type %T", rec)
	}

	p.Source = rec.RecordSource()
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

// All transforms a batch, skipping records that cannot be mapped.
func All(records []domain.RawRecord, now time.Time) ([]domain.Post, []error) {
	posts := make([]domain.Post, 0, len(records))
	var errs []error
	for _, rec := range records {
		p, err := Transform(rec, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		posts = append(posts, p)
	}
	return posts, errs
}

// Active reports whether a post should be written. API sources publish
// long archives, so their closed entries are dropped.
func Active(p domain.Post) bool {
	switch p.Source {
	case domain.SourceKStartup, domain.SourceTourAPI, domain.SourceKOPIS:
		return p.Status != domain.StatusClosed
	}
	return true
}

func announcement(r domain.AnnouncementRecord, now time.Time) domain.Post {
	title := or(r.Title, untitledAnnouncement)
	field := or(r.SupportField, defaultSupportField)
	start := normalize.FormatDate(r.StartDate)
	end := normalize.FormatDate(r.EndDate)

	return domain.Post{
		ID:             writer.DocumentKey("kstartup", or(r.AnnouncementID, strconv.Itoa(r.Index)), title),
		Title:          title,
		Category:       normalize.MapCategory(field),
		Status:         normalize.CalculateStatus(start, end, now),
		Organization:   r.Organization,
		Region:         or(r.Region, normalize.Nationwide),
		SupportField:   field,
		Target:         r.Target,
		Age:            r.Age,
		Career:         r.Career,
		StartDate:      start,
		EndDate:        end,
		Description:    normalize.Truncate(r.Description, descriptionRunes),
		ApplicationURL: r.ApplicationURL,
	}
}

func festival(r domain.FestivalRecord, now time.Time) domain.Post {
	title := or(r.Title, untitledFestival)
	start := normalize.FormatDate(r.StartDate)
	end := normalize.FormatDate(r.EndDate)
	images := dedupe(r.Images)

	p := domain.Post{
		ID:           writer.DocumentKey("festival", or(r.ContentID, strconv.Itoa(r.Index)), title),
		Title:        title,
		Category:     domain.CategoryEvent,
		Status:       normalize.CalculateStatus(start, end, now),
		Region:       normalize.FirstWord(r.Address),
		SupportField: eventSupportField,
		StartDate:    start,
		EndDate:      end,
		Description:  r.Address,
		PhoneNumber:  r.Tel,
		Images:       images,
		ContentID:    r.ContentID,
	}
	if len(images) > 0 {
		p.Image = images[0]
	}
	return p
}

func performance(r domain.PerformanceRecord, now time.Time) domain.Post {
	title := or(r.Title, untitledPerformance)
	genre := or(r.Genre, performanceField)
	start := normalize.FormatDate(r.StartDate)
	end := normalize.FormatDate(r.EndDate)

	return domain.Post{
		ID:             writer.DocumentKey("kopis", r.ID, title),
		Title:          title,
		Category:       domain.CategorySeminar,
		Status:         normalize.CalculateStatus(start, end, now),
		Organization:   r.Venue,
		Region:         normalize.Province(r.Area),
		SupportField:   genre,
		Target:         r.Age,
		StartDate:      start,
		EndDate:        end,
		Description:    normalize.Truncate(or(r.Story, genre+" - "+r.Venue), descriptionRunes),
		ApplicationURL: or(r.Relates, kopisDetailURL+r.ID),
		Image:          r.Poster,
		KopisID:        r.ID,
		TicketPrice:    r.Price,
		Runtime:        r.Runtime,
		Showtime:       r.Showtime,
		Cast:           r.Cast,
	}
}

func board(r domain.BoardRecord, now time.Time) domain.Post {
	start := or(normalize.FormatDate(r.Date), normalize.Today(now))
	images := dedupe(r.Images)

	p := domain.Post{
		Title:          r.Title,
		Category:       domain.CategoryEvent,
		Status:         normalize.CalculateStatus(start, "", now),
		Organization:   r.Organization,
		Region:         r.Region,
		SupportField:   eventSupportField,
		StartDate:      start,
		ApplicationURL: r.URL,
		Images:         images,
	}
	if r.Notice {
		p.Category = domain.CategoryNotice
		p.SupportField = noticeSupportField
	}
	if len(images) > 0 {
		p.Image = images[0]
	}

	switch r.Source {
	case domain.SourceCheonan:
		p.ID = writer.DocumentKey("cheonan", or(r.ArticleID, strconv.Itoa(r.Index)), r.Title)
		p.Description = r.Content
	default:
		p.ID = writer.DocumentKey("localgov", normalize.Sanitize(r.Organization)+"_"+strconv.Itoa(r.Index), r.Title)
		p.Description = or(r.Content, r.Organization+" 행사/세미나 정보")
	}
	return p
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func dedupe(values []string) []string {
	var out []string
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

package kopis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/source/fetch"
)

const (
	Name = "KOPIS 공연정보"

	StateRunning  = "공연중"
	StateUpcoming = "공연예정"

	windowMonths = 3
)

var ErrAPI = errors.New("kopis error")

type Config struct {
	BaseURL   string
	APIKey    string
	PageSize  int
	MaxPages  int
	PageDelay time.Duration
	ItemDelay time.Duration
}

// Source lists performances running within the next three months and
// enriches each active one with its detail record.
type Source struct {
	client   *fetch.Client
	pages    *fetch.Throttle
	details  *fetch.Throttle
	baseURL  string
	apiKey   string
	pageSize int
	maxPages int
	now      func() time.Time
	logger   *slog.Logger
}

func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	return &Source{
		client:   client,
		pages:    fetch.NewThrottle(cfg.PageDelay),
		details:  fetch.NewThrottle(cfg.ItemDelay),
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		now:      time.Now,
		logger:   logger.With("source", domain.SourceKOPIS),
	}
}

func (s *Source) Source() domain.Source {
	return domain.SourceKOPIS
}

func (s *Source) Name() string {
	return Name
}

func (s *Source) Extract(ctx context.Context) (*domain.Extraction, error) {
	out := &domain.Extraction{}

	from := s.now()
	to := from.AddDate(0, windowMonths, 0)
	s.logger.Info("listing performances", "from", from.Format("20060102"), "to", to.Format("20060102"))

	for page := 1; page <= s.maxPages; page++ {
		if err := s.pages.Wait(ctx); err != nil {
			return out, err
		}

		list, err := s.fetchList(ctx, from, to, page)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			s.logger.Error("fetch page failed", "page", page, "error", err)
			out.Failed++
			break
		}
		if len(list) == 0 {
			break
		}

		active := 0
		for _, rec := range list {
			if rec.State != StateRunning && rec.State != StateUpcoming {
				continue
			}
			if err := s.details.Wait(ctx); err != nil {
				return out, err
			}
			out.Add(s.enrich(ctx, rec))
			active++
		}

		s.logger.Debug("fetched page", "page", page, "items", len(list), "active", active, "total", len(out.Records))

		if len(list) < s.pageSize {
			break
		}
	}

	return out, nil
}

func (s *Source) fetchList(ctx context.Context, from, to time.Time, page int) ([]domain.PerformanceRecord, error) {
	q := url.Values{}
	q.Set("stdate", from.Format("20060102"))
	q.Set("eddate", to.Format("20060102"))
	q.Set("cpage", strconv.Itoa(page))
	q.Set("rows", strconv.Itoa(s.pageSize))

	u := fmt.Sprintf("%s/pblprfr?service=%s&%s", s.baseURL, s.apiKey, q.Encode())
	doc, err := s.client.GetText(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	if err := checkError(doc); err != nil {
		return nil, err
	}

	var list []domain.PerformanceRecord
	for _, item := range items(doc) {
		list = append(list, parseList(item))
	}
	return list, nil
}

// enrich merges detail fields into rec. A failed lookup keeps the list
// fields only.
func (s *Source) enrich(ctx context.Context, rec domain.PerformanceRecord) domain.PerformanceRecord {
	u := fmt.Sprintf("%s/pblprfr/%s?service=%s", s.baseURL, url.PathEscape(rec.ID), s.apiKey)
	doc, err := s.client.GetText(ctx, u)
	if err == nil {
		err = checkError(doc)
	}
	if err != nil {
		s.logger.Warn("detail lookup failed", "mt20id", rec.ID, "error", err)
		return rec
	}

	detail := items(doc)
	if len(detail) == 0 {
		return rec
	}
	return mergeDetail(rec, detail[0])
}

func parseList(item string) domain.PerformanceRecord {
	return domain.PerformanceRecord{
		ID:        tagValue(item, "mt20id"),
		Title:     tagValue(item, "prfnm"),
		StartDate: tagValue(item, "prfpdfrom"),
		EndDate:   tagValue(item, "prfpdto"),
		Venue:     tagValue(item, "fcltynm"),
		Poster:    tagValue(item, "poster"),
		Genre:     tagValue(item, "genrenm"),
		State:     tagValue(item, "prfstate"),
		OpenRun:   tagValue(item, "openrun"),
		Area:      tagValue(item, "area"),
	}
}

func mergeDetail(rec domain.PerformanceRecord, doc string) domain.PerformanceRecord {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&rec.Title, tagValue(doc, "prfnm"))
	set(&rec.Venue, tagValue(doc, "fcltynm"))
	set(&rec.Poster, tagValue(doc, "poster"))
	set(&rec.Genre, tagValue(doc, "genrenm"))
	set(&rec.State, tagValue(doc, "prfstate"))
	set(&rec.Area, tagValue(doc, "area"))
	set(&rec.Cast, tagValue(doc, "prfcast"))
	set(&rec.Runtime, tagValue(doc, "prfruntime"))
	set(&rec.Age, tagValue(doc, "prfage"))
	set(&rec.Price, tagValue(doc, "pcseguidance"))
	set(&rec.Story, tagValue(doc, "sty"))
	set(&rec.Showtime, tagValue(doc, "dtguidance"))
	set(&rec.Relates, relatedURL(doc))
	return rec
}

func checkError(doc string) error {
	if !hasTag(doc, "errcode") {
		return nil
	}
	return fmt.Errorf("%w: %s %s", ErrAPI, tagValue(doc, "errcode"), tagValue(doc, "errmsg"))
}

package tourapi

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

const Name = "TourAPI 축제"

var ErrAPI = errors.New("tourapi error")

type Config struct {
	BaseURL   string
	APIKey    string
	PageSize  int
	MaxPages  int
	PageDelay time.Duration
	ItemDelay time.Duration
}

// Source lists festivals starting from today and resolves promotional
// images for each of them.
type Source struct {
	client   *fetch.Client
	pages    *fetch.Throttle
	items    *fetch.Throttle
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
		items:    fetch.NewThrottle(cfg.ItemDelay),
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		now:      time.Now,
		logger:   logger.With("source", domain.SourceTourAPI),
	}
}

func (s *Source) Source() domain.Source {
	return domain.SourceTourAPI
}

func (s *Source) Name() string {
	return Name
}

func (s *Source) Extract(ctx context.Context) (*domain.Extraction, error) {
	out := &domain.Extraction{}
	index := 0

	for page := 1; page <= s.maxPages; page++ {
		if err := s.pages.Wait(ctx); err != nil {
			return out, err
		}

		festivals, total, err := s.fetchPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			s.logger.Error("fetch page failed", "page", page, "error", err)
			out.Failed++
			break
		}
		if len(festivals) == 0 {
			break
		}
		if page == 1 {
			s.logger.Info("festivals found", "total", total)
		}

		for _, f := range festivals {
			images := []string{f.FirstImage, f.FirstImage2}
			if f.ContentID != "" {
				if err := s.items.Wait(ctx); err != nil {
					return out, err
				}
				images = append(images, s.fetchImages(ctx, f.ContentID)...)
			}

			out.Add(domain.FestivalRecord{
				Index:     index,
				ContentID: f.ContentID,
				Title:     f.Title,
				StartDate: f.EventStartDate,
				EndDate:   f.EventEndDate,
				Address:   f.Addr1,
				Tel:       f.Tel,
				Images:    images,
			})
			index++
		}

		s.logger.Debug("fetched page", "page", page, "items", len(festivals), "total", len(out.Records))

		if len(festivals) < s.pageSize {
			break
		}
	}

	return out, nil
}

func (s *Source) fetchPage(ctx context.Context, page int) ([]Festival, int, error) {
	q := s.query()
	q.Set("numOfRows", strconv.Itoa(s.pageSize))
	q.Set("pageNo", strconv.Itoa(page))
	q.Set("eventStartDate", s.now().Format("20060102"))

	var env Envelope[Festival]
	if err := s.client.GetJSON(ctx, s.endpoint("searchFestival2", q), &env); err != nil {
		return nil, 0, fmt.Errorf("fetch page %d: %w", page, err)
	}
	if err := checkHeader(env.Response.Header.ResultCode, env.Response.Header.ResultMsg); err != nil {
		return nil, 0, err
	}

	body := env.Response.Body
	return body.Items.Item, body.TotalCount, nil
}

// fetchImages never fails the festival; a lookup error just means no
// extra images.
func (s *Source) fetchImages(ctx context.Context, contentID string) []string {
	q := s.query()
	q.Set("contentId", contentID)
	q.Set("imageYN", "Y")
	q.Set("subImageYN", "Y")

	var env Envelope[Image]
	if err := s.client.GetJSON(ctx, s.endpoint("detailImage2", q), &env); err != nil {
		s.logger.Warn("image lookup failed", "content_id", contentID, "error", err)
		return nil
	}

	var urls []string
	for _, img := range env.Response.Body.Items.Item {
		if u := img.OriginImgURL; u != "" {
			urls = append(urls, u)
		} else if img.SmallImgURL != "" {
			urls = append(urls, img.SmallImgURL)
		}
	}
	return urls
}

func (s *Source) query() url.Values {
	q := url.Values{}
	q.Set("MobileOS", "ETC")
	q.Set("MobileApp", "iuem")
	q.Set("_type", "json")
	return q
}

func (s *Source) endpoint(op string, q url.Values) string {
	return fmt.Sprintf("%s/%s?serviceKey=%s&%s", s.baseURL, op, s.apiKey, q.Encode())
}

func checkHeader(code, msg string) error {
	if code == "" || code == resultOK {
		return nil
	}
	return fmt.Errorf("%w: %s %s", ErrAPI, code, msg)
}

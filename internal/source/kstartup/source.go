package kstartup

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/source/fetch"
)

const Name = "K-Startup 사업공고"

type Config struct {
	BaseURL   string
	APIKey    string
	PageSize  int
	MaxPages  int
	PageDelay time.Duration
}

// Source pages through the K-Startup announcement API.
type Source struct {
	client   *fetch.Client
	pages    *fetch.Throttle
	baseURL  string
	apiKey   string
	pageSize int
	maxPages int
	logger   *slog.Logger
}

func New(cfg Config, client *fetch.Client, logger *slog.Logger) *Source {
	return &Source{
		client:   client,
		pages:    fetch.NewThrottle(cfg.PageDelay),
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		logger:   logger.With("source", domain.SourceKStartup),
	}
}

func (s *Source) Source() domain.Source {
	return domain.SourceKStartup
}

func (s *Source) Name() string {
	return Name
}

// Extract stops on an empty page, a short page, or after maxPages.
// A failed page ends pagination for this run and is counted as failed.
func (s *Source) Extract(ctx context.Context) (*domain.Extraction, error) {
	out := &domain.Extraction{}
	index := 0

	for page := 1; page <= s.maxPages; page++ {
		if err := s.pages.Wait(ctx); err != nil {
			return out, err
		}

		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			s.logger.Error("fetch page failed", "page", page, "error", err)
			out.Failed++
			break
		}

		if page == 1 {
			s.logger.Info("announcements found", "total", resp.total())
		}

		for _, item := range resp.Data {
			out.Add(parse(item, index))
			index++
		}

		s.logger.Debug("fetched page", "page", page, "items", len(resp.Data), "total", len(out.Records))

		if len(resp.Data) == 0 || len(resp.Data) < s.pageSize {
			break
		}
	}

	return out, nil
}

func (s *Source) fetchPage(ctx context.Context, page int) (*Response, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(s.pageSize))
	q.Set("returnType", "json")

	// data.go.kr issues keys already percent-encoded, so the key is not escaped again.
	u := fmt.Sprintf("%s/getAnnouncementInformation01?serviceKey=%s&%s", s.baseURL, s.apiKey, q.Encode())

	var resp Response
	if err := s.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	return &resp, nil
}

func parse(item Item, index int) domain.AnnouncementRecord {
	return domain.AnnouncementRecord{
		Index:          index,
		AnnouncementID: item.First("pbanc_sn"),
		Title:          item.First("biz_pbanc_nm", "intg_pbanc_biz_nm"),
		StartDate:      item.First("pbanc_rcpt_bgng_dt"),
		EndDate:        item.First("pbanc_rcpt_end_dt"),
		SupportField:   item.First("supt_biz_clsfc"),
		Organization:   item.First("sprv_inst", "pbanc_ntrp_nm"),
		Region:         item.First("supt_regin"),
		Description:    item.First("pbanc_ctnt"),
		Target:         item.First("aply_trgt", "aply_trgt_ctnt"),
		Age:            item.First("biz_trgt_age"),
		Career:         item.First("biz_enyy"),
		ApplicationURL: item.First("detl_pg_url", "biz_aply_url"),
	}
}

package board

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/normalize"
	"iuem_fetcher/internal/source/fetch"
)

const (
	LocalGovName = "지자체 행사 게시판"

	localGovContentRunes = 1000
	minTitleRunes        = 5
	minContentRunes      = 50
)

// Site is one local government and the boards crawled on it.
type Site struct {
	Name    string
	Region  string
	BaseURL string
	Boards  []Board
}

// Board is a list page path relative to the site.
type Board struct {
	Path   string
	Notice bool
}

type LocalGovConfig struct {
	Sites       []Site
	MaxItems    int
	PageDelay   time.Duration
	DetailDelay time.Duration
}

var (
	listDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{4}\.\d{2}\.\d{2}`)

	localGovContent = []selector{
		{tag: "div", class: "view_con"},
		{tag: "div", class: "content"},
		{tag: "div", class: "board_view"},
		{tag: "td", class: "content"},
		{tag: "div", class: "cont"},
	}
	localGovImageExclude = []string{"icon", "btn", "logo", "/img/sub", "/common/"}
)

// LocalGov crawls event boards of many local governments with generic
// link heuristics and a keyword relevance filter.
type LocalGov struct {
	client   *fetch.Client
	pages    *fetch.Throttle
	details  *fetch.Throttle
	sites    []Site
	maxItems int
	logger   *slog.Logger
}

func NewLocalGov(cfg LocalGovConfig, client *fetch.Client, logger *slog.Logger) *LocalGov {
	sites := cfg.Sites
	if len(sites) == 0 {
		sites = DefaultSites()
	}
	return &LocalGov{
		client:   client,
		pages:    fetch.NewThrottle(cfg.PageDelay),
		details:  fetch.NewThrottle(cfg.DetailDelay),
		sites:    sites,
		maxItems: cfg.MaxItems,
		logger:   logger.With("source", domain.SourceLocalGov),
	}
}

func (s *LocalGov) Source() domain.Source {
	return domain.SourceLocalGov
}

func (s *LocalGov) Name() string {
	return LocalGovName
}

func (s *LocalGov) Extract(ctx context.Context) (*domain.Extraction, error) {
	out := &domain.Extraction{}

	for _, site := range s.sites {
		index := 0
		for _, b := range site.Boards {
			if err := s.pages.Wait(ctx); err != nil {
				return out, err
			}

			records, err := s.crawlBoard(ctx, site, b, index)
			if err != nil {
				if ctx.Err() != nil {
					return out, ctx.Err()
				}
				s.logger.Error("crawl board failed", "site", site.Name, "path", b.Path, "error", err)
				out.Failed++
				continue
			}

			for _, r := range records {
				out.Add(r)
			}
			index += len(records)

			s.logger.Info("board crawled", "site", site.Name, "path", b.Path, "items", len(records))
		}
	}

	return out, nil
}

func (s *LocalGov) crawlBoard(ctx context.Context, site Site, b Board, index int) ([]domain.BoardRecord, error) {
	base, err := url.Parse(site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	listURL := resolve(base, b.Path)

	doc, err := s.client.GetText(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("fetch list: %w", err)
	}

	list, err := url.Parse(listURL)
	if err != nil {
		return nil, fmt.Errorf("parse list url: %w", err)
	}

	dates := listDatePattern.FindAllString(doc, -1)
	seen := map[string]bool{}
	var records []domain.BoardRecord

	for _, a := range anchors(doc) {
		if len(records) >= s.maxItems {
			break
		}
		if !isDetailLink(a.href) || !longEnough(a.title, minTitleRunes) || isNavigation(a.title) {
			continue
		}
		if !Relevant(a.title) || seen[a.title] {
			continue
		}
		seen[a.title] = true

		rec := domain.BoardRecord{
			Source:       domain.SourceLocalGov,
			Index:        index + len(records),
			Organization: site.Name,
			Region:       site.Region,
			Title:        a.title,
			URL:          resolve(list, a.href),
			Notice:       b.Notice,
		}
		if i := len(records); i < len(dates) {
			rec.Date = normalize.FormatDate(dates[i])
		}
		records = append(records, rec)
	}

	for i := range records {
		if err := s.details.Wait(ctx); err != nil {
			return records, err
		}
		records[i].Content, records[i].Images = s.fetchDetail(ctx, site, records[i].URL)
	}

	return records, nil
}

// fetchDetail returns empty values on any failure; the list entry is kept.
func (s *LocalGov) fetchDetail(ctx context.Context, site Site, detailURL string) (string, []string) {
	doc, err := s.client.GetText(ctx, detailURL)
	if err != nil {
		s.logger.Warn("detail fetch failed", "site", site.Name, "url", detailURL, "error", err)
		return "", nil
	}

	p, err := parsePage(doc, detailURL)
	if err != nil {
		s.logger.Warn("detail parse failed", "site", site.Name, "url", detailURL, "error", err)
		return "", nil
	}

	content := normalize.Truncate(p.firstText(localGovContent, minContentRunes), localGovContentRunes)
	return content, p.images(localGovImageExclude)
}

// DefaultSites is the built-in list of local government event boards.
func DefaultSites() []Site {
	event := func(paths ...string) []Board {
		boards := make([]Board, len(paths))
		for i, p := range paths {
			boards[i] = Board{Path: p}
		}
		return boards
	}

	return []Site{
		{"천안시", "충남", "http://www.cheonan.go.kr", event(
			"/cop/bbs/BBSMSTR_000000002660/selectBoardList.do",
			"/cop/bbs/BBSMSTR_000000000473/selectBoardList.do",
		)},
		{"아산시", "충남", "https://www.asan.go.kr", event("/main/culture/festival/festival.do")},
		{"수원시", "경기", "https://www.suwon.go.kr", event("/web/board/BD_board.list.do?bbsCd=1042")},
		{"성남시", "경기", "https://www.seongnam.go.kr", event("/city/1000716/10561.do")},
		{"고양시", "경기", "https://www.goyang.go.kr", event("/www/www05/www05_1/www05_1_1.jsp")},
		{"서울시", "서울", "https://www.seoul.go.kr", event("/news/news_report.do")},
		{"부산시", "부산", "https://www.busan.go.kr", event("/depart/contents.do?menuNo=200000000020")},
		{"대구시", "대구", "https://www.daegu.go.kr", event("/intro.htm")},
		{"인천시", "인천", "https://www.incheon.go.kr", event("/IC010205")},
		{"광주시", "광주", "https://www.gwangju.go.kr", event("/contentsView.do?menuId=gwangju0501010000")},
		{"대전시", "대전", "https://www.daejeon.go.kr", event("/drh/index.do")},
		{"울산시", "울산", "https://www.ulsan.go.kr", event("/u/rep/main.ulsan")},
		{"세종시", "세종", "https://www.sejong.go.kr", event("/prog/tursmCal/tur/sub01_02_02/M0101020202/calendar.do")},
		{"춘천시", "강원", "https://www.chuncheon.go.kr", event("/tour/sub05_01.html")},
		{"강릉시", "강원", "https://www.gn.go.kr", event("/bbs/tour/127/lst")},
		{"청주시", "충북", "https://www.cheongju.go.kr", event("/tour/contents.do?key=19050")},
		{"전주시", "전북", "https://www.jeonju.go.kr", event("/index.9is?contentUid=9be517a74f8dee91014f92fd7f7401c8")},
		{"여수시", "전남", "https://www.yeosu.go.kr", event("/tour/menu01/sub02/sub03_1.yeosu")},
		{"포항시", "경북", "https://www.pohang.go.kr", event("/pohang/festival.do")},
		{"경주시", "경북", "https://www.gyeongju.go.kr", event("/tour/page.do?mnu_uid=2213&")},
		{"창원시", "경남", "https://www.changwon.go.kr", event("/depart/contents.do?mId=0401070000")},
		{"제주시", "제주", "https://www.jejusi.go.kr", event("/tour/index.htm")},
	}
}

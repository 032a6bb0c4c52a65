package board

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/normalize"
	"iuem_fetcher/internal/source/fetch"
)

const (
	CheonanName   = "천안시 게시판"
	CheonanOrg    = "천안시"
	CheonanRegion = "충남"

	cheonanContentRunes = 2000
	minDetailTitleRunes = 3
)

type CheonanConfig struct {
	BaseURL     string
	Boards      []Board
	MaxItems    int
	PageDelay   time.Duration
	DetailDelay time.Duration
}

// DefaultCheonanBoards lists the city event board and the weekly events board.
func DefaultCheonanBoards() []Board {
	return []Board{
		{Path: "/cop/bbs/BBSMSTR_000000002660/selectBoardList.do"},
		{Path: "/cop/bbs/BBSMSTR_000000000473/selectBoardList.do"},
	}
}

var (
	articleLinkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`href="([^"]*selectBoardArticle[^"]*)"`),
		regexp.MustCompile(`href="([^"]*nttId=[^"]*)"`),
	}
	detailCallPattern = regexp.MustCompile(`fn_detail\('([^']+)'\)`)
	nttIDPattern      = regexp.MustCompile(`nttId=(\d+)`)
	rowDatePattern    = regexp.MustCompile(`(\d{4})[.\-](\d{2})[.\-](\d{2})`)

	cheonanTitle = []selector{
		{tag: "h1", class: "tit"},
		{tag: "h2", class: "tit"},
		{tag: "h3", class: "tit"},
		{tag: "h4", class: "tit"},
		{tag: "div", class: "subject"},
		{tag: "span", class: "title"},
		{tag: "td", class: "subject"},
	}
	cheonanContent = []selector{
		{tag: "div", class: "content"},
		{tag: "div", class: "view_con"},
		{tag: "td", class: "content"},
		{tag: "div", id: "content"},
	}
	cheonanImageExclude = []string{"icon", "btn", "logo"}
	listHeaderWords     = []string{"제목", "번호", "작성자", "등록일", "조회"}
)

// Cheonan crawls the Cheonan city boards. When a list page exposes no
// article links its table rows are read directly.
type Cheonan struct {
	client   *fetch.Client
	pages    *fetch.Throttle
	details  *fetch.Throttle
	baseURL  string
	boards   []Board
	maxItems int
	logger   *slog.Logger
}

func NewCheonan(cfg CheonanConfig, client *fetch.Client, logger *slog.Logger) *Cheonan {
	boards := cfg.Boards
	if len(boards) == 0 {
		boards = DefaultCheonanBoards()
	}
	return &Cheonan{
		client:   client,
		pages:    fetch.NewThrottle(cfg.PageDelay),
		details:  fetch.NewThrottle(cfg.DetailDelay),
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		boards:   boards,
		maxItems: cfg.MaxItems,
		logger:   logger.With("source", domain.SourceCheonan),
	}
}

func (s *Cheonan) Source() domain.Source {
	return domain.SourceCheonan
}

func (s *Cheonan) Name() string {
	return CheonanName
}

func (s *Cheonan) Extract(ctx context.Context) (*domain.Extraction, error) {
	out := &domain.Extraction{}
	index := 0

	for _, b := range s.boards {
		if err := s.pages.Wait(ctx); err != nil {
			return out, err
		}

		records, err := s.crawlBoard(ctx, b, index)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			s.logger.Error("crawl board failed", "path", b.Path, "error", err)
			out.Failed++
			continue
		}

		for _, r := range records {
			out.Add(r)
		}
		index += len(records)

		s.logger.Info("board crawled", "path", b.Path, "items", len(records))
	}

	return out, nil
}

func (s *Cheonan) crawlBoard(ctx context.Context, b Board, index int) ([]domain.BoardRecord, error) {
	listURL := s.baseURL + b.Path
	doc, err := s.client.GetText(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("fetch list: %w", err)
	}

	links := s.articleLinks(doc, listURL)
	if len(links) == 0 {
		s.logger.Debug("no article links, reading list rows", "path", b.Path)
		return s.listRows(doc, b, index)
	}

	var records []domain.BoardRecord
	for _, link := range links {
		if err := s.details.Wait(ctx); err != nil {
			return records, err
		}
		rec, ok := s.fetchArticle(ctx, link)
		if !ok {
			continue
		}
		rec.Index = index + len(records)
		rec.Notice = b.Notice
		records = append(records, rec)
	}
	return records, nil
}

// articleLinks returns unique absolute article URLs in page order.
func (s *Cheonan) articleLinks(doc, listURL string) []string {
	list, err := url.Parse(listURL)
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var links []string
	add := func(u string) {
		if len(links) < s.maxItems && !seen[u] {
			seen[u] = true
			links = append(links, u)
		}
	}

	for _, p := range articleLinkPatterns {
		for _, m := range p.FindAllStringSubmatch(doc, -1) {
			add(resolve(list, html.UnescapeString(m[1])))
		}
	}

	articlePath := strings.Replace(list.Path, "selectBoardList.do", "selectBoardArticle.do", 1)
	for _, m := range detailCallPattern.FindAllStringSubmatch(doc, -1) {
		add(resolve(list, articlePath+"?nttId="+url.QueryEscape(m[1])))
	}

	return links
}

func (s *Cheonan) fetchArticle(ctx context.Context, articleURL string) (domain.BoardRecord, bool) {
	doc, err := s.client.GetText(ctx, articleURL)
	if err != nil {
		s.logger.Warn("article fetch failed", "url", articleURL, "error", err)
		return domain.BoardRecord{}, false
	}

	p, err := parsePage(doc, articleURL)
	if err != nil {
		s.logger.Warn("article parse failed", "url", articleURL, "error", err)
		return domain.BoardRecord{}, false
	}

	title := normalize.CollapseSpaces(p.firstText(cheonanTitle, 0))
	if title == "" {
		title = p.labelledCell("제목")
	}
	if !longEnough(title, minDetailTitleRunes) {
		return domain.BoardRecord{}, false
	}

	rec := domain.BoardRecord{
		Source:       domain.SourceCheonan,
		Organization: CheonanOrg,
		Region:       CheonanRegion,
		Title:        title,
		URL:          articleURL,
		Date:         normalize.FindDate(p.text()),
		Content:      normalize.Truncate(p.firstText(cheonanContent, minContentRunes), cheonanContentRunes),
		Images:       p.images(cheonanImageExclude),
	}
	if m := nttIDPattern.FindStringSubmatch(articleURL); m != nil {
		rec.ArticleID = m[1]
	}
	return rec, true
}

// listRows reads titles and dates straight from the list table.
func (s *Cheonan) listRows(doc string, b Board, index int) ([]domain.BoardRecord, error) {
	p, err := parsePage(doc, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse list: %w", err)
	}

	var rows []*html.Node
	walk(p.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, n)
		}
		return true
	})

	var records []domain.BoardRecord
	for _, row := range rows {
		if len(records) >= s.maxItems {
			break
		}

		title := rowTitle(row)
		if !longEnough(title, minTitleRunes) || isNavigation(title) || normalize.ContainsAny(title, listHeaderWords) {
			continue
		}

		rec := domain.BoardRecord{
			Source:       domain.SourceCheonan,
			Index:        index + len(records),
			Organization: CheonanOrg,
			Region:       CheonanRegion,
			Title:        title,
			URL:          s.baseURL,
			Notice:       b.Notice,
		}
		if m := rowDatePattern.FindStringSubmatch(nodeText(row)); m != nil {
			rec.Date = m[1] + "-" + m[2] + "-" + m[3]
		}
		records = append(records, rec)
	}

	return records, nil
}

func rowTitle(tr *html.Node) string {
	var title string
	walk(tr, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if n.Data == "a" || (n.Data == "td" && strings.Contains(attr(n, "class"), "subject")) {
			title = normalize.CollapseSpaces(nodeText(n))
			return title == ""
		}
		return true
	})
	return title
}

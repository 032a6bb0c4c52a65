package board

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"iuem_fetcher/internal/normalize"
)

var anchorPattern = regexp.MustCompile(`(?i)<a[^>]*href="([^"]*)"[^>]*>([^<]+)</a>`)

type anchor struct {
	href  string
	title string
}

// anchors lists plain-text links in document order.
func anchors(doc string) []anchor {
	var out []anchor
	for _, m := range anchorPattern.FindAllStringSubmatch(doc, -1) {
		out = append(out, anchor{
			href:  html.UnescapeString(strings.TrimSpace(m[1])),
			title: normalize.CollapseSpaces(html.UnescapeString(m[2])),
		})
	}
	return out
}

// selector matches an element by tag name and a substring of its class
// or id attribute. An empty tag matches any element.
type selector struct {
	tag   string
	class string
	id    string
}

func (s selector) match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.class != "" && !strings.Contains(attr(n, "class"), s.class) {
		return false
	}
	if s.id != "" && !strings.Contains(attr(n, "id"), s.id) {
		return false
	}
	return true
}

// page is a parsed HTML document.
type page struct {
	root *html.Node
	base *url.URL
}

func parsePage(doc, baseURL string) (*page, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &page{root: root, base: base}, nil
}

// firstText returns the text of the first element matched by the earliest
// selector whose text is longer than minRunes.
func (p *page) firstText(selectors []selector, minRunes int) string {
	for _, sel := range selectors {
		var found string
		walk(p.root, func(n *html.Node) bool {
			if !sel.match(n) {
				return true
			}
			if text := nodeText(n); len([]rune(text)) > minRunes {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// labelledCell returns the text of the cell following a <th> whose text
// equals label.
func (p *page) labelledCell(label string) string {
	var found string
	walk(p.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "th" || normalize.CollapseSpaces(nodeText(n)) != label {
			return true
		}
		for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
			if sib.Type == html.ElementNode && sib.Data == "td" {
				found = normalize.CollapseSpaces(nodeText(sib))
				return false
			}
		}
		return true
	})
	return found
}

var imageExt = regexp.MustCompile(`(?i)\.(jpe?g|png|gif)`)

// images returns absolute URLs of content images, skipping interface
// graphics such as icons, buttons and logos.
func (p *page) images(exclude []string) []string {
	var out []string
	seen := map[string]bool{}
	walk(p.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "img" {
			return true
		}
		src := strings.TrimSpace(attr(n, "src"))
		if src == "" || !imageExt.MatchString(src) {
			return true
		}
		for _, ex := range exclude {
			if strings.Contains(src, ex) {
				return true
			}
		}
		abs := p.resolve(src)
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
		return true
	})
	return out
}

// text returns the visible text of the whole document.
func (p *page) text() string {
	return nodeText(p.root)
}

func (p *page) resolve(ref string) string {
	return resolve(p.base, ref)
}

func resolve(base *url.URL, ref string) string {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

// walk visits nodes depth first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func nodeText(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return normalize.HTMLText(buf.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

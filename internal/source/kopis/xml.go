package kopis

import (
	"regexp"
	"strings"
)

// Values are pulled out with per-tag patterns that accept both CDATA and
// plain text bodies.

var (
	itemPattern  = regexp.MustCompile(`(?i)<db>([\s\S]*?)</db>`)
	tagPatterns  = map[string]*regexp.Regexp{}
	relatesURL   = regexp.MustCompile(`(?i)<relateurl>(?:<!\[CDATA\[)?\s*([^<\]]+?)\s*(?:\]\]>)?</relateurl>`)
	knownXMLTags = []string{
		"errcode", "errmsg",
		"mt20id", "prfnm", "prfpdfrom", "prfpdto", "fcltynm", "poster", "genrenm",
		"prfstate", "openrun", "area",
		"prfcast", "prfruntime", "prfage", "pcseguidance", "sty", "dtguidance",
	}
)

func init() {
	for _, tag := range knownXMLTags {
		tagPatterns[tag] = regexp.MustCompile(
			`(?i)<` + tag + `><!\[CDATA\[([\s\S]*?)\]\]></` + tag + `>|<` + tag + `>([^<]*)</` + tag + `>`,
		)
	}
}

// tagValue returns the trimmed text of the first <tag> element in doc.
func tagValue(doc, tag string) string {
	re, ok := tagPatterns[tag]
	if !ok {
		return ""
	}
	m := re.FindStringSubmatch(doc)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(m[2])
}

// items returns the body of every <db> element.
func items(doc string) []string {
	matches := itemPattern.FindAllStringSubmatch(doc, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// relatedURL returns the first related link of a detail document.
func relatedURL(doc string) string {
	if m := relatesURL.FindStringSubmatch(doc); m != nil {
		return m[1]
	}
	return ""
}

func hasTag(doc, tag string) bool {
	return strings.Contains(strings.ToLower(doc), "<"+tag+">")
}

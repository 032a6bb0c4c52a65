package writer

import (
	"iuem_fetcher/internal/normalize"
)

const keyTitleRunes = 30

// DocumentKey builds the deterministic id of a post. The same source item
// always yields the same key, so repeated runs merge instead of duplicating.
func DocumentKey(prefix, disambiguator, title string) string {
	return prefix + "_" + disambiguator + "_" + normalize.Truncate(normalize.Sanitize(title), keyTitleRunes)
}

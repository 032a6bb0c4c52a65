package kstartup

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/source/fetch"
)

func newSource(t *testing.T, h http.HandlerFunc, pageSize, maxPages int) *Source {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := fetch.New(fetch.Config{Timeout: time.Second}, logger)
	return New(Config{
		BaseURL:  srv.URL,
		APIKey:   "KEY%2B1",
		PageSize: pageSize,
		MaxPages: maxPages,
	}, client, logger)
}

func page(n int, offset int) []map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{
			"pbanc_sn":           float64(100000 + offset + i),
			"biz_pbanc_nm":       "공고 " + strconv.Itoa(offset+i),
			"pbanc_rcpt_bgng_dt": "20250101",
			"pbanc_rcpt_end_dt":  "20251231",
			"supt_biz_clsfc":     "멘토링·컨설팅",
		}
	}
	return items
}

func TestExtract_StopsOnShortPage(t *testing.T) {
	var calls atomic.Int32
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/getAnnouncementInformation01", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "serviceKey=KEY%2B1")
		assert.Equal(t, "json", r.URL.Query().Get("returnType"))

		p, _ := strconv.Atoi(r.URL.Query().Get("page"))
		n := 2
		if p == 3 {
			n = 1
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"matchCount": 5, "data": page(n, (p-1)*2)})
	}, 2, 10)

	out, err := src.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, out.Records, 5)
	assert.Zero(t, out.Failed)

	first := out.Records[0].(domain.AnnouncementRecord)
	assert.Equal(t, "100000", first.AnnouncementID)
	assert.Equal(t, "공고 0", first.Title)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 4, out.Records[4].(domain.AnnouncementRecord).Index)
}

func TestExtract_StopsOnEmptyPageAndMaxPages(t *testing.T) {
	var calls atomic.Int32
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": page(2, 0)})
	}, 2, 3)

	out, err := src.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, out.Records, 6)
}

func TestExtract_FailedPageIsCounted(t *testing.T) {
	src := newSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, 2, 3)

	out, err := src.Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.Records)
	assert.Equal(t, 1, out.Failed)
}

func TestItemFirst_PriorityOrder(t *testing.T) {
	it := Item{"biz_pbanc_nm": "  ", "intg_pbanc_biz_nm": "통합 공고", "detl_pg_url": "https://k-startup.go.kr/1"}

	rec := parse(it, 7)
	assert.Equal(t, "통합 공고", rec.Title)
	assert.Equal(t, "https://k-startup.go.kr/1", rec.ApplicationURL)
	assert.Empty(t, rec.AnnouncementID)
	assert.Equal(t, 7, rec.Index)
}

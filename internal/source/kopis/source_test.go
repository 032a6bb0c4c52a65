package kopis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/source/fetch"
)

const listXML = `<?xml version="1.0" encoding="UTF-8"?>
<dbs>
  <db>
    <mt20id>PF132236</mt20id>
    <prfnm><![CDATA[뮤지컬 <영웅>]]></prfnm>
    <prfpdfrom>2025.09.01</prfpdfrom>
    <prfpdto>2025.10.31</prfpdto>
    <fcltynm>예술의전당</fcltynm>
    <poster>http://www.kopis.or.kr/upload/poster.gif</poster>
    <area>서울특별시</area>
    <genrenm>뮤지컬</genrenm>
    <openrun>N</openrun>
    <prfstate>공연중</prfstate>
  </db>
  <db>
    <mt20id>PF100000</mt20id>
    <prfnm>지난 공연</prfnm>
    <prfstate>공연완료</prfstate>
  </db>
</dbs>`

const detailXML = `<dbs><db>
  <mt20id>PF132236</mt20id>
  <prfcast>홍길동, 김철수</prfcast>
  <prfruntime>2시간 30분</prfruntime>
  <prfage>만 8세 이상</prfage>
  <pcseguidance>R석 150,000원</pcseguidance>
  <sty><![CDATA[안중근 의사의 이야기]]></sty>
  <dtguidance>화요일 ~ 금요일(19:30)</dtguidance>
  <relates><relate><relatenm>예매</relatenm><relateurl>https://tickets.example.com/123</relateurl></relate></relates>
</db></dbs>`

func newSource(t *testing.T, h http.Handler) *Source {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := New(Config{
		BaseURL:  srv.URL,
		APIKey:   "key",
		PageSize: 100,
		MaxPages: 3,
	}, fetch.New(fetch.Config{Timeout: time.Second}, logger), logger)
	src.now = func() time.Time { return time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC) }
	return src
}

func TestTagValue(t *testing.T) {
	assert.Equal(t, "뮤지컬 <영웅>", tagValue(listXML, "prfnm"))
	assert.Equal(t, "PF132236", tagValue(listXML, "mt20id"))
	assert.Equal(t, "", tagValue(listXML, "prfcast"))
	assert.Len(t, items(listXML), 2)
	assert.Equal(t, "https://tickets.example.com/123", relatedURL(detailXML))
}

func TestExtract_FiltersStateAndMergesDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pblprfr", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20250915", r.URL.Query().Get("stdate"))
		assert.Equal(t, "20251215", r.URL.Query().Get("eddate"))
		_, _ = w.Write([]byte(listXML))
	})
	mux.HandleFunc("/pblprfr/PF132236", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(detailXML))
	})

	out, err := newSource(t, mux).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Records, 1)

	rec := out.Records[0].(domain.PerformanceRecord)
	assert.Equal(t, "PF132236", rec.ID)
	assert.Equal(t, "공연중", rec.State)
	assert.Equal(t, "2025.09.01", rec.StartDate)
	assert.Equal(t, "홍길동, 김철수", rec.Cast)
	assert.Equal(t, "R석 150,000원", rec.Price)
	assert.Equal(t, "안중근 의사의 이야기", rec.Story)
	assert.Equal(t, "https://tickets.example.com/123", rec.Relates)
}

func TestExtract_ErrCodeIsAPageFailure(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<dbs><db><returncode><errcode>02</errcode><errmsg>인증키가 유효하지 않습니다</errmsg></returncode></db></dbs>`))
	})

	out, err := newSource(t, h).Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.Records)
	assert.Equal(t, 1, out.Failed)

	assert.ErrorIs(t, checkError(`<errcode>02</errcode><errmsg>bad</errmsg>`), ErrAPI)
}

func TestExtract_DetailFailureKeepsListFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pblprfr", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listXML))
	})
	mux.HandleFunc("/pblprfr/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	out, err := newSource(t, mux).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "예술의전당", out.Records[0].(domain.PerformanceRecord).Venue)
}

func TestExtract_PaginatesUntilShortPage(t *testing.T) {
	var pages []string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pblprfr" {
			_, _ = w.Write([]byte(detailXML))
			return
		}
		pages = append(pages, r.URL.Query().Get("cpage"))
		n := 2
		if len(pages) == 2 {
			n = 1
		}
		var b strings.Builder
		for i := range n {
			fmt.Fprintf(&b, "<db><mt20id>PF%d%d</mt20id><prfnm>공연</prfnm><prfstate>공연예정</prfstate></db>", len(pages), i)
		}
		_, _ = w.Write([]byte("<dbs>" + b.String() + "</dbs>"))
	})

	src := newSource(t, h)
	src.pageSize = 2

	out, err := src.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	assert.Len(t, out.Records, 3)
}

package transform

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iuem_fetcher/internal/domain"
)

var now = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

type unknownRecord struct{}

func (unknownRecord) RecordSource() domain.Source { return "unknown" }

func TestTransform_Announcement(t *testing.T) {
	p, err := Transform(domain.AnnouncementRecord{
		Index:          3,
		AnnouncementID: "174001",
		Title:          "2025년 예비창업패키지 (일반분야)",
		StartDate:      "20250101",
		EndDate:        "20250301",
		SupportField:   "사업화",
		Organization:   "창업진흥원",
		ApplicationURL: "https://www.k-startup.go.kr/1",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "kstartup_174001_2025년예비창업패키지일반분야", p.ID)
	assert.Equal(t, domain.CategorySupport, p.Category)
	assert.Equal(t, domain.StatusOngoing, p.Status)
	assert.Equal(t, "2025-01-01", p.StartDate)
	assert.Equal(t, "2025-03-01", p.EndDate)
	assert.Equal(t, "전국", p.Region)
	assert.Equal(t, domain.SourceKStartup, p.Source)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, now, p.UpdatedAt)
}

func TestTransform_AnnouncementDefaults(t *testing.T) {
	p, err := Transform(domain.AnnouncementRecord{Index: 7, EndDate: "2025.01.31"}, now)
	require.NoError(t, err)

	assert.Equal(t, "제목 없음", p.Title)
	assert.Equal(t, "kstartup_7_제목없음", p.ID)
	assert.Equal(t, "사업화", p.SupportField)
	assert.Equal(t, domain.StatusClosed, p.Status)
	assert.False(t, Active(p))
}

func TestTransform_AnnouncementEventField(t *testing.T) {
	p, err := Transform(domain.AnnouncementRecord{Title: "데모데이", SupportField: "행사·네트워크"}, now)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryEvent, p.Category)
}

func TestTransform_Festival(t *testing.T) {
	p, err := Transform(domain.FestivalRecord{
		Index:     0,
		ContentID: "2786391",
		Title:     "진해군항제",
		StartDate: "20250325",
		EndDate:   "20250403",
		Address:   "경상남도 창원시 진해구",
		Tel:       "055-225-2341",
		Images:    []string{"http://a/1.jpg", "", "http://a/2.jpg", "http://a/1.jpg"},
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "festival_2786391_진해군항제", p.ID)
	assert.Equal(t, domain.CategoryEvent, p.Category)
	assert.Equal(t, domain.StatusUpcoming, p.Status)
	assert.Equal(t, "경상남도", p.Region)
	assert.Equal(t, "행사·네트워크", p.SupportField)
	assert.Equal(t, "055-225-2341", p.PhoneNumber)
	assert.Equal(t, []string{"http://a/1.jpg", "http://a/2.jpg"}, p.Images)
	assert.Equal(t, "http://a/1.jpg", p.Image)
	assert.Equal(t, domain.SourceTourAPI, p.Source)
	assert.True(t, Active(p))
}

func TestTransform_FestivalWithoutTitleOrAddress(t *testing.T) {
	p, err := Transform(domain.FestivalRecord{Index: 4}, now)
	require.NoError(t, err)

	assert.Equal(t, "축제명 없음", p.Title)
	assert.Equal(t, "festival_4_축제명없음", p.ID)
	assert.Equal(t, "전국", p.Region)
	assert.Empty(t, p.Image)
}

func TestTransform_Performance(t *testing.T) {
	p, err := Transform(domain.PerformanceRecord{
		ID:        "PF132236",
		Title:     "뮤지컬 <영웅>",
		StartDate: "2025.01.10",
		EndDate:   "2025.03.30",
		Venue:     "예술의전당",
		Poster:    "http://www.kopis.or.kr/poster.gif",
		Genre:     "뮤지컬",
		State:     "공연중",
		Area:      "서울특별시",
		Age:       "만 8세 이상",
		Price:     "R석 150,000원",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "kopis_PF132236_뮤지컬영웅", p.ID)
	assert.Equal(t, domain.CategorySeminar, p.Category)
	assert.Equal(t, domain.StatusOngoing, p.Status)
	assert.Equal(t, "서울", p.Region)
	assert.Equal(t, "예술의전당", p.Organization)
	assert.Equal(t, "뮤지컬", p.SupportField)
	assert.Equal(t, "뮤지컬 - 예술의전당", p.Description)
	assert.Equal(t, "만 8세 이상", p.Target)
	assert.Equal(t, "https://www.kopis.or.kr/por/db/pblprfr/pblprfrView.do?mt20Id=PF132236", p.ApplicationURL)
	assert.Equal(t, "PF132236", p.KopisID)
	assert.Equal(t, "2025-01-10", p.StartDate)
}

func TestTransform_PerformanceStatusFollowsDates(t *testing.T) {
	tests := []struct {
		name       string
		state      string
		start, end string
		want       domain.Status
		active     bool
	}{
		{"stale upcoming state", "공연예정", "2025.01.01", "2025.01.31", domain.StatusClosed, false},
		{"running", "공연중", "2025.01.10", "2025.03.30", domain.StatusOngoing, true},
		{"upcoming", "공연예정", "2025.03.01", "2025.03.30", domain.StatusUpcoming, true},
	}

	later := time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Transform(domain.PerformanceRecord{
				ID:        "PF1",
				Title:     "공연",
				State:     tt.state,
				StartDate: tt.start,
				EndDate:   tt.end,
			}, later)
			require.NoError(t, err)

			assert.Equal(t, tt.want, p.Status)
			assert.Equal(t, tt.active, Active(p))
		})
	}
}

func TestTransform_DescriptionIsCapped(t *testing.T) {
	long := strings.Repeat("가", 5000)

	a, err := Transform(domain.AnnouncementRecord{AnnouncementID: "1", Title: "공고", Description: long}, now)
	require.NoError(t, err)
	assert.Equal(t, 2000, utf8.RuneCountInString(a.Description))

	p, err := Transform(domain.PerformanceRecord{ID: "PF2", Title: "공연", Story: long}, now)
	require.NoError(t, err)
	assert.Equal(t, 2000, utf8.RuneCountInString(p.Description))
}

func TestTransform_LocalGovBoard(t *testing.T) {
	p, err := Transform(domain.BoardRecord{
		Source:       domain.SourceLocalGov,
		Index:        2,
		Organization: "수원시",
		Region:       "경기",
		Title:        "수원 화성문화제 개최",
		URL:          "https://www.suwon.go.kr/view?seq=1",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "localgov_수원시_2_수원화성문화제개최", p.ID)
	assert.Equal(t, "2025-02-01", p.StartDate)
	assert.Equal(t, domain.StatusOngoing, p.Status)
	assert.Equal(t, "수원시 행사/세미나 정보", p.Description)
	assert.Equal(t, domain.CategoryEvent, p.Category)
	assert.Equal(t, domain.SourceLocalGov, p.Source)
}

func TestTransform_CheonanNotice(t *testing.T) {
	p, err := Transform(domain.BoardRecord{
		Source:    domain.SourceCheonan,
		ArticleID: "9981",
		Title:     "시민 체육대회 개최 안내",
		Date:      "2025.03.05",
		Images:    []string{"http://c/1.png"},
		Notice:    true,
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "cheonan_9981_시민체육대회개최안내", p.ID)
	assert.Equal(t, domain.CategoryNotice, p.Category)
	assert.Equal(t, "공지사항", p.SupportField)
	assert.Equal(t, "2025-03-05", p.StartDate)
	assert.Equal(t, domain.StatusUpcoming, p.Status)
	assert.Equal(t, "http://c/1.png", p.Image)
	assert.True(t, Active(p))
}

func TestTransform_UnknownRecord(t *testing.T) {
	_, err := Transform(unknownRecord{}, now)
	assert.Error(t, err)
}

func TestAll_SkipsUnknown(t *testing.T) {
	posts, errs := All([]domain.RawRecord{
		domain.AnnouncementRecord{Title: "a"},
		unknownRecord{},
		domain.FestivalRecord{Title: "b"},
	}, now)

	assert.Len(t, posts, 2)
	assert.Len(t, errs, 1)
}

func TestTransform_DeterministicID(t *testing.T) {
	rec := domain.FestivalRecord{ContentID: "1", Title: "같은 축제"}
	a, _ := Transform(rec, now)
	b, _ := Transform(rec, now.Add(time.Hour))
	assert.Equal(t, a.ID, b.ID)
}

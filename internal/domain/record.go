package domain

// RawRecord is a source-shaped item before normalization. The set of
// implementations is closed; the transformer switches over all of them.
type RawRecord interface {
	RecordSource() Source
}

// AnnouncementRecord is one K-Startup support announcement.
type AnnouncementRecord struct {
	Index          int
	AnnouncementID string
	Title          string
	StartDate      string
	EndDate        string
	SupportField   string
	Organization   string
	Region         string
	Description    string
	Target         string
	Age            string
	Career         string
	ApplicationURL string
}

func (AnnouncementRecord) RecordSource() Source { return SourceKStartup }

// FestivalRecord is one TourAPI festival listing with its resolved images.
type FestivalRecord struct {
	Index     int
	ContentID string
	Title     string
	StartDate string
	EndDate   string
	Address   string
	Tel       string
	Images    []string
}

func (FestivalRecord) RecordSource() Source { return SourceTourAPI }

// PerformanceRecord is one KOPIS performance, list fields merged with detail fields.
type PerformanceRecord struct {
	ID        string
	Title     string
	StartDate string
	EndDate   string
	Venue     string
	Poster    string
	Genre     string
	State     string
	OpenRun   string
	Area      string
	Cast      string
	Runtime   string
	Age       string
	Price     string
	Story     string
	Showtime  string
	Relates   string
}

func (PerformanceRecord) RecordSource() Source { return SourceKOPIS }

// BoardRecord is one article scraped from a public bulletin board.
type BoardRecord struct {
	Source       Source
	Index        int
	ArticleID    string
	Organization string
	Region       string
	Title        string
	URL          string
	Date         string
	Content      string
	Images       []string
	Notice       bool
}

func (r BoardRecord) RecordSource() Source { return r.Source }

// Extraction is what one source produced in a run. Failed counts the
// pages or items that were skipped after a fetch or parse error.
type Extraction struct {
	Records []RawRecord
	Failed  int
}

func (e *Extraction) Add(r RawRecord) {
	e.Records = append(e.Records, r)
}
